package player

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"

	"tapper/internal/game"
)

// MemoryRepo is an in-memory account store used by tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) Create(ctx context.Context, u User) (User, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == u.Username {
			return User{}, ErrUsernameTaken
		}
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *MemoryRepo) ByID(ctx context.Context, id string) (User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) ByUsername(ctx context.Context, username string) (User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) SaveProgression(ctx context.Context, id string, sn game.Snapshot) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Progression = sn
	r.users[id] = u
	return nil
}

func (r *MemoryRepo) UpdateProfile(ctx context.Context, id, username, avatarURL string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	for oid, other := range r.users {
		if oid != id && other.Username == username {
			return ErrUsernameTaken
		}
	}
	u.Username = username
	u.AvatarURL = avatarURL
	r.users[id] = u
	return nil
}

func (r *MemoryRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	r.users[id] = u
	return nil
}

func (r *MemoryRepo) SetRole(ctx context.Context, id, role string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	r.users[id] = u
	return nil
}

func (r *MemoryRepo) Touch(ctx context.Context, id string, seen time.Time) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastActive = seen
	r.users[id] = u
	return nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_ = ctx
	return len(r.users), nil
}

func (r *MemoryRepo) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	type ranked struct {
		row     LeaderboardRow
		balance *big.Int
	}
	rows := make([]ranked, 0, len(r.users))
	for _, u := range r.users {
		bal, ok := new(big.Int).SetString(u.Progression.Balance, 10)
		if !ok {
			bal = big.NewInt(0)
		}
		rows = append(rows, ranked{
			row: LeaderboardRow{
				ID:         u.ID,
				Username:   u.Username,
				AvatarURL:  u.AvatarURL,
				Balance:    bal.String(),
				ClickPower: u.Progression.ClickPower,
				Rebirths:   u.Progression.Rebirths,
			},
			balance: bal,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].balance.Cmp(rows[j].balance); c != 0 {
			return c > 0
		}
		return rows[i].row.Username < rows[j].row.Username
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]LeaderboardRow, len(rows))
	for i, rr := range rows {
		out[i] = rr.row
	}
	return out, nil
}
