package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"tapper/internal/game"
	"tapper/internal/player"
)

// PlayerRepo implements player.Repo on SQLite.
type PlayerRepo struct {
	db  *sql.DB
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.PasswordHash, u.Role, u.AvatarURL,
		u.Progression.Balance, u.Progression.ClickPower, u.Progression.Rebirths,
		string(claimed), encodeTime(u.CreatedAt), nullableTime(u.LastActive),
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
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *PlayerRepo) ByUsername(ctx context.Context, username string) (player.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *PlayerRepo) one(ctx context.Context, query string, arg any) (player.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
		SET balance = ?, click_power = ?, rebirths = ?, claimed_rewards = ?
		WHERE id = ?`
	return r.exec(ctx, query, sn.Balance, sn.ClickPower, sn.Rebirths, string(claimed), id)
}

func (r *PlayerRepo) UpdateProfile(ctx context.Context, id, username, avatarURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ?, avatar_url = ? WHERE id = ?`,
		username, avatarURL, id)
	if err != nil {
		if isUniqueViolation(err) {
			return player.ErrUsernameTaken
		}
		r.log.Error("failed to update profile", zap.Error(err))
		return err
	}
	return mustAffect(res)
}

func (r *PlayerRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
}

func (r *PlayerRepo) SetRole(ctx context.Context, id, role string) error {
	return r.exec(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
}

func (r *PlayerRepo) Touch(ctx context.Context, id string, seen time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_active = ? WHERE id = ?`, encodeTime(seen), id)
}

func (r *PlayerRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to update user", zap.Error(err))
		return err
	}
	return mustAffect(res)
}

func (r *PlayerRepo) List(ctx context.Context) ([]player.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
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
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Leaderboard ranks by balance. Balances are decimal strings with no
// leading zeros, so length-then-lexicographic ordering matches numeric
// ordering.
func (r *PlayerRepo) Leaderboard(ctx context.Context, limit int) ([]player.LeaderboardRow, error) {
	if limit <= 0 || limit > player.LeaderboardLimit {
		limit = player.LeaderboardLimit
	}
	query := `SELECT id, username, avatar_url, balance, click_power, rebirths
		FROM users
		ORDER BY length(balance) DESC, balance DESC, username ASC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (player.User, error) {
	var (
		u          player.User
		claimedRaw string
		createdRaw string
		activeRaw  sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.AvatarURL,
		&u.Progression.Balance, &u.Progression.ClickPower, &u.Progression.Rebirths,
		&claimedRaw, &createdRaw, &activeRaw,
	)
	if err != nil {
		return player.User{}, err
	}
	if err := json.Unmarshal([]byte(claimedRaw), &u.Progression.ClaimedRewards); err != nil {
		return player.User{}, err
	}
	if u.CreatedAt, err = decodeTime(createdRaw); err != nil {
		return player.User{}, err
	}
	if activeRaw.Valid {
		if u.LastActive, err = decodeTime(activeRaw.String); err != nil {
			return player.User{}, err
		}
	}
	return u, nil
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return player.ErrNotFound
	}
	return nil
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
	return encodeTime(t)
}
