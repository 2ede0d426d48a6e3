package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"tapper/internal/quest"
)

// QuestRepo implements quest.Repo on Postgres. The position column keeps
// the authored ordering stable across restarts.
type QuestRepo struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func (r *QuestRepo) Seed(ctx context.Context, quests []quest.Quest) error {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM quests`).Scan(&n); err != nil {
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
		FROM quests ORDER BY position`
	rows, err := r.db.Query(ctx, query)
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
		FROM quests WHERE id = $1`
	var q quest.Quest
	err := r.db.QueryRow(ctx, query, id).Scan(&q.ID, &q.Title, &q.Description,
		&q.ConditionType, &q.ConditionValue, &q.RewardAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return quest.Quest{}, false, nil
	}
	if err != nil {
		return quest.Quest{}, false, err
	}
	return q, true, nil
}

func (r *QuestRepo) Create(ctx context.Context, q quest.Quest) error {
	query := `INSERT INTO quests (id, title, description, condition_type, condition_value, reward_amount)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query,
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
		SET title = $2, description = $3, condition_type = $4,
		    condition_value = $5, reward_amount = $6
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		q.ID, q.Title, q.Description, q.ConditionType, q.ConditionValue, q.RewardAmount)
	if err != nil {
		r.log.Error("failed to update quest", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return quest.ErrNotFound
	}
	return nil
}

func (r *QuestRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quests WHERE id = $1`, id)
	if err != nil {
		r.log.Error("failed to delete quest", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return quest.ErrNotFound
	}
	return nil
}
