// Package sqlite backs the account, quest, and chat stores with a local
// SQLite file via the pure-Go driver. It is the default for single-node
// deployments and for running without a Postgres instance.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store shares one handle across the per-feature repositories.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func Open(path string, log *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The driver serializes writes; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	log.Info("database opened", zap.String("path", path))
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Players() *PlayerRepo { return &PlayerRepo{db: s.db, log: s.log} }
func (s *Store) Quests() *QuestRepo   { return &QuestRepo{db: s.db, log: s.log} }
func (s *Store) Chat() *ChatRepo      { return &ChatRepo{db: s.db, log: s.log} }

// Setup creates the schema if it does not exist. Each string is a single
// statement; SQLite executes one at a time.
func (s *Store) Setup() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			avatar_url TEXT NOT NULL DEFAULT '',
			balance TEXT NOT NULL DEFAULT '0',
			click_power INTEGER NOT NULL DEFAULT 1,
			rebirths INTEGER NOT NULL DEFAULT 0,
			claimed_rewards TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			last_active TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS quests (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			condition_type TEXT NOT NULL,
			condition_value INTEGER NOT NULL,
			reward_amount INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL REFERENCES users(id),
			receiver_id TEXT NOT NULL REFERENCES users(id),
			text TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			sent_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair
			ON messages(sender_id, receiver_id, sent_at)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			blocker_id TEXT NOT NULL REFERENCES users(id),
			blocked_id TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (blocker_id, blocked_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("setup schema: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Timestamps are stored as RFC 3339 text.
func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
