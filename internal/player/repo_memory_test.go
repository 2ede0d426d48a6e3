package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapper/internal/game"
)

func seed(t *testing.T, repo *MemoryRepo, id, username, balance string) User {
	t.Helper()
	u, err := repo.Create(context.Background(), User{
		ID:          id,
		Username:    username,
		Progression: game.Snapshot{Balance: balance, ClickPower: 1},
	})
	require.NoError(t, err)
	return u
}

func TestMemoryRepo_UsernameUniqueness(t *testing.T) {
	repo := NewMemoryRepo()
	seed(t, repo, "u1", "alice", "0")

	_, err := repo.Create(context.Background(), User{ID: "u2", Username: "alice"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	seed(t, repo, "u2", "bob", "0")
	assert.ErrorIs(t, repo.UpdateProfile(context.Background(), "u2", "alice", ""), ErrUsernameTaken)
}

func TestMemoryRepo_LeaderboardNumericOrder(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	// Big-integer balances must rank numerically, not lexicographically.
	seed(t, repo, "u1", "alice", "9")
	seed(t, repo, "u2", "bob", "123456789012345678901234567890")
	seed(t, repo, "u3", "carol", "100")

	rows, err := repo.Leaderboard(ctx, LeaderboardLimit)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "bob", rows[0].Username)
	assert.Equal(t, "carol", rows[1].Username)
	assert.Equal(t, "alice", rows[2].Username)

	rows, err = repo.Leaderboard(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUser_Online(t *testing.T) {
	now := time.Now()

	u := User{LastActive: now.Add(-time.Minute)}
	assert.True(t, u.Online(now))

	u.LastActive = now.Add(-3 * time.Minute)
	assert.False(t, u.Online(now))

	assert.False(t, User{}.Online(now), "never-seen accounts are offline")
}
