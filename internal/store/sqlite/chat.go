package sqlite

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"tapper/internal/chat"
)

// ChatRepo implements chat.Repo on SQLite.
type ChatRepo struct {
	db  *sql.DB
	log *zap.Logger
}

func (r *ChatRepo) Send(ctx context.Context, m chat.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	bs, err := r.Blocks(ctx, m.SenderID, m.ReceiverID)
	if err != nil {
		return err
	}
	if bs.Blocked() {
		return chat.ErrBlocked
	}

	query := `INSERT INTO messages (id, sender_id, receiver_id, text, image_url, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		m.ID, m.SenderID, m.ReceiverID, m.Text, m.ImageURL, encodeTime(m.SentAt)); err != nil {
		r.log.Error("failed to store message", zap.Error(err))
		return err
	}
	return nil
}

func (r *ChatRepo) Conversation(ctx context.Context, viewerID, peerID string) ([]chat.Message, error) {
	query := `SELECT id, sender_id, receiver_id, text, image_url, sent_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY sent_at`
	rows, err := r.db.QueryContext(ctx, query, viewerID, peerID, peerID, viewerID)
	if err != nil {
		r.log.Error("failed to load conversation", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var (
			m      chat.Message
			sentAt string
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID,
			&m.Text, &m.ImageURL, &sentAt); err != nil {
			return nil, err
		}
		if m.SentAt, err = decodeTime(sentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ChatRepo) Contacts(ctx context.Context, viewerID string) ([]string, error) {
	query := `SELECT peer FROM (
			SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS peer,
			       max(sent_at) AS latest
			FROM messages
			WHERE sender_id = ? OR receiver_id = ?
			GROUP BY peer
		) ORDER BY latest DESC`
	rows, err := r.db.QueryContext(ctx, query, viewerID, viewerID, viewerID)
	if err != nil {
		r.log.Error("failed to load contacts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var peers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		peers = append(peers, id)
	}
	return peers, rows.Err()
}

func (r *ChatRepo) Block(ctx context.Context, blockerID, blockedID string) error {
	query := `INSERT OR IGNORE INTO blocks (blocker_id, blocked_id) VALUES (?, ?)`
	_, err := r.db.ExecContext(ctx, query, blockerID, blockedID)
	return err
}

func (r *ChatRepo) Unblock(ctx context.Context, blockerID, blockedID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM blocks WHERE blocker_id = ? AND blocked_id = ?`,
		blockerID, blockedID)
	return err
}

func (r *ChatRepo) Blocks(ctx context.Context, viewerID, peerID string) (chat.BlockState, error) {
	query := `SELECT
		exists(SELECT 1 FROM blocks WHERE blocker_id = ? AND blocked_id = ?),
		exists(SELECT 1 FROM blocks WHERE blocker_id = ? AND blocked_id = ?)`
	var bs chat.BlockState
	err := r.db.QueryRowContext(ctx, query, viewerID, peerID, peerID, viewerID).
		Scan(&bs.IBlockedThem, &bs.TheyBlockedMe)
	if err != nil {
		r.log.Error("failed to load block state", zap.Error(err))
		return chat.BlockState{}, err
	}
	return bs, nil
}
