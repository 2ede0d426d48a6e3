// Package postgres backs the account, quest, and chat stores with a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// Store shares one pool across the per-feature repositories.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func Connect(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	log.Info("database connection established")
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Players() *PlayerRepo { return &PlayerRepo{db: s.pool, log: s.log} }
func (s *Store) Quests() *QuestRepo   { return &QuestRepo{db: s.pool, log: s.log} }
func (s *Store) Chat() *ChatRepo      { return &ChatRepo{db: s.pool, log: s.log} }

// Setup creates the schema if it does not exist.
func (s *Store) Setup(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			avatar_url TEXT NOT NULL DEFAULT '',
			balance TEXT NOT NULL DEFAULT '0',
			click_power BIGINT NOT NULL DEFAULT 1,
			rebirths BIGINT NOT NULL DEFAULT 0,
			claimed_rewards TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_active TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS quests (
			id TEXT PRIMARY KEY,
			position BIGSERIAL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			condition_type TEXT NOT NULL,
			condition_value BIGINT NOT NULL,
			reward_amount BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL REFERENCES users(id),
			receiver_id TEXT NOT NULL REFERENCES users(id),
			text TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			sent_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS messages_pair_idx
			ON messages (sender_id, receiver_id, sent_at)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			blocker_id TEXT NOT NULL REFERENCES users(id),
			blocked_id TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (blocker_id, blocked_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("setup schema: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
