package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"tapper/internal/game"
	"tapper/internal/player"
)

// PlayerRepo implements player.Repo on Postgres.
type PlayerRepo struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

const userColumns = `id, username, password_hash, role, avatar_url,
	balance, click_power, rebirths, claimed_rewards, created_at, last_active`

func (r *PlayerRepo) Create(ctx context.Context, u player.User) (player.User, error) {
	claimed, err := json.Marshal(emptyIfNil(u.Progression.ClaimedRewards))
	if err != nil {
		return player.User{}, err
	}

	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.Exec(ctx, query,
		u.ID, u.Username, u.PasswordHash, u.Role, u.AvatarURL,
		u.Progression.Balance, u.Progression.ClickPower, u.Progression.Rebirths,
		string(claimed), u.CreatedAt, nullableTime(u.LastActive),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return player.User{}, player.ErrUsernameTaken
		}
		r.log.Error("failed to create user", zap.Error(err))
		return player.User{}, err
	}
	return u, nil
}

func (r *PlayerRepo) ByID(ctx context.Context, id string) (player.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PlayerRepo) ByUsername(ctx context.Context, username string) (player.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *PlayerRepo) one(ctx context.Context, query string, arg any) (player.User, error) {
	row := r.db.QueryRow(ctx, query, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return player.User{}, player.ErrNotFound
		}
		r.log.Error("failed to load user", zap.Error(err))
		return player.User{}, err
	}
	return u, nil
}

func (r *PlayerRepo) SaveProgression(ctx context.Context, id string, sn game.Snapshot) error {
	claimed, err := json.Marshal(emptyIfNil(sn.ClaimedRewards))
	if err != nil {
		return err
	}
	query := `UPDATE users
		SET balance = $2, click_power = $3, rebirths = $4, claimed_rewards = $5
		WHERE id = $1`
	return r.exec(ctx, query, id, sn.Balance, sn.ClickPower, sn.Rebirths, string(claimed))
}

func (r *PlayerRepo) UpdateProfile(ctx context.Context, id, username, avatarURL string) error {
	query := `UPDATE users SET username = $2, avatar_url = $3 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, username, avatarURL)
	if err != nil {
		if isUniqueViolation(err) {
			return player.ErrUsernameTaken
		}
		r.log.Error("failed to update profile", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return player.ErrNotFound
	}
	return nil
}

func (r *PlayerRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
}

func (r *PlayerRepo) SetRole(ctx context.Context, id, role string) error {
	return r.exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
}

func (r *PlayerRepo) Touch(ctx context.Context, id string, seen time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_active = $2 WHERE id = $1`, id, seen)
}

func (r *PlayerRepo) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to update user", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return player.ErrNotFound
	}
	return nil
}

func (r *PlayerRepo) List(ctx context.Context) ([]player.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		r.log.Error("failed to list users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var users []player.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PlayerRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Leaderboard ranks by balance. Balances are decimal strings of varying
// length, so length-then-lexicographic ordering matches numeric ordering.
func (r *PlayerRepo) Leaderboard(ctx context.Context, limit int) ([]player.LeaderboardRow, error) {
	if limit <= 0 || limit > player.LeaderboardLimit {
		limit = player.LeaderboardLimit
	}
	query := `SELECT id, username, avatar_url, balance, click_power, rebirths
		FROM users
		ORDER BY length(balance) DESC, balance DESC, username ASC
		LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.Error("failed to load leaderboard", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []player.LeaderboardRow
	for rows.Next() {
		var lr player.LeaderboardRow
		if err := rows.Scan(&lr.ID, &lr.Username, &lr.AvatarURL,
			&lr.Balance, &lr.ClickPower, &lr.Rebirths); err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (player.User, error) {
	var (
		u          player.User
		claimedRaw string
		lastActive sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.AvatarURL,
		&u.Progression.Balance, &u.Progression.ClickPower, &u.Progression.Rebirths,
		&claimedRaw, &u.CreatedAt, &lastActive,
	)
	if err != nil {
		return player.User{}, err
	}
	if err := json.Unmarshal([]byte(claimedRaw), &u.Progression.ClaimedRewards); err != nil {
		return player.User{}, err
	}
	if lastActive.Valid {
		u.LastActive = lastActive.Time
	}
	return u, nil
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
