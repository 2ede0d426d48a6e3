package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"tapper/internal/quest"
)

// QuestRepo implements quest.Repo on SQLite. Rows come back in rowid
// order, which preserves the authored sequence.
type QuestRepo struct {
	db  *sql.DB
	log *zap.Logger
}

func (r *QuestRepo) Seed(ctx context.Context, quests []quest.Quest) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM quests`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, q := range quests {
		if err := r.Create(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *QuestRepo) List(ctx context.Context) ([]quest.Quest, error) {
	query := `SELECT id, title, description, condition_type, condition_value, reward_amount
		FROM quests ORDER BY rowid`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.log.Error("failed to list quests", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []quest.Quest
	for rows.Next() {
		var q quest.Quest
		if err := rows.Scan(&q.ID, &q.Title, &q.Description,
			&q.ConditionType, &q.ConditionValue, &q.RewardAmount); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *QuestRepo) Get(ctx context.Context, id string) (quest.Quest, bool, error) {
	query := `SELECT id, title, description, condition_type, condition_value, reward_amount
		FROM quests WHERE id = ?`
	var q quest.Quest
	err := r.db.QueryRowContext(ctx, query, id).Scan(&q.ID, &q.Title, &q.Description,
		&q.ConditionType, &q.ConditionValue, &q.RewardAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return quest.Quest{}, false, nil
	}
	if err != nil {
		return quest.Quest{}, false, err
	}
	return q, true, nil
}

func (r *QuestRepo) Create(ctx context.Context, q quest.Quest) error {
	query := `INSERT INTO quests (id, title, description, condition_type, condition_value, reward_amount)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		q.ID, q.Title, q.Description, q.ConditionType, q.ConditionValue, q.RewardAmount)
	if err != nil {
		if isUniqueViolation(err) {
			return quest.ErrDuplicate
		}
		r.log.Error("failed to create quest", zap.Error(err))
		return err
	}
	return nil
}

func (r *QuestRepo) Update(ctx context.Context, q quest.Quest) error {
	query := `UPDATE quests
		SET title = ?, description = ?, condition_type = ?,
		    condition_value = ?, reward_amount = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		q.Title, q.Description, q.ConditionType, q.ConditionValue, q.RewardAmount, q.ID)
	if err != nil {
		r.log.Error("failed to update quest", zap.Error(err))
		return err
	}
	return questAffected(res)
}

func (r *QuestRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quests WHERE id = ?`, id)
	if err != nil {
		r.log.Error("failed to delete quest", zap.Error(err))
		return err
	}
	return questAffected(res)
}

func questAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return quest.ErrNotFound
	}
	return nil
}
