package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"tapper/internal/chat"
)

// ChatRepo implements chat.Repo on Postgres.
type ChatRepo struct {
	db  *pgxpool.Pool
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
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.Exec(ctx, query,
		m.ID, m.SenderID, m.ReceiverID, m.Text, m.ImageURL, m.SentAt); err != nil {
		r.log.Error("failed to store message", zap.Error(err))
		return err
	}
	return nil
}

func (r *ChatRepo) Conversation(ctx context.Context, viewerID, peerID string) ([]chat.Message, error) {
	query := `SELECT id, sender_id, receiver_id, text, image_url, sent_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY sent_at`
	rows, err := r.db.Query(ctx, query, viewerID, peerID)
	if err != nil {
		r.log.Error("failed to load conversation", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID,
			&m.Text, &m.ImageURL, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ChatRepo) Contacts(ctx context.Context, viewerID string) ([]string, error) {
	query := `SELECT peer FROM (
			SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS peer,
			       max(sent_at) AS latest
			FROM messages
			WHERE sender_id = $1 OR receiver_id = $1
			GROUP BY peer
		) t ORDER BY latest DESC`
	rows, err := r.db.Query(ctx, query, viewerID)
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
	query := `INSERT INTO blocks (blocker_id, blocked_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := r.db.Exec(ctx, query, blockerID, blockedID)
	return err
}

func (r *ChatRepo) Unblock(ctx context.Context, blockerID, blockedID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`,
		blockerID, blockedID)
	return err
}

func (r *ChatRepo) Blocks(ctx context.Context, viewerID, peerID string) (chat.BlockState, error) {
	query := `SELECT
		exists(SELECT 1 FROM blocks WHERE blocker_id = $1 AND blocked_id = $2),
		exists(SELECT 1 FROM blocks WHERE blocker_id = $2 AND blocked_id = $1)`
	var bs chat.BlockState
	err := r.db.QueryRow(ctx, query, viewerID, peerID).
		Scan(&bs.IBlockedThem, &bs.TheyBlockedMe)
	if err != nil {
		r.log.Error("failed to load block state", zap.Error(err))
		return chat.BlockState{}, err
	}
	return bs, nil
}
