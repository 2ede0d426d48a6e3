package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tapper/internal/chat"
	"tapper/internal/game"
	"tapper/internal/player"
	"tapper/internal/quest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Setup())
	return s
}

func seedUser(t *testing.T, repo *PlayerRepo, id, username, balance string) player.User {
	t.Helper()
	u, err := repo.Create(context.Background(), player.User{
		ID:           id,
		Username:     username,
		Role:         player.RoleUser,
		PasswordHash: "x",
		Progression:  game.Snapshot{Balance: balance, ClickPower: 1},
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	return u
}

func TestPlayerRepo_CreateAndLoad(t *testing.T) {
	repo := newTestStore(t).Players()
	ctx := context.Background()

	seedUser(t, repo, "u1", "alice", "0")

	_, err := repo.Create(ctx, player.User{ID: "u2", Username: "alice", PasswordHash: "x",
		Progression: game.Snapshot{Balance: "0", ClickPower: 1}, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, player.ErrUsernameTaken)

	got, err := repo.ByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "0", got.Progression.Balance)

	_, err = repo.ByID(ctx, "nope")
	assert.ErrorIs(t, err, player.ErrNotFound)
}

func TestPlayerRepo_ProgressionRoundTrip(t *testing.T) {
	repo := newTestStore(t).Players()
	ctx := context.Background()
	seedUser(t, repo, "u1", "alice", "0")

	sn := game.Snapshot{
		Balance:        "123456789012345678901234567890",
		ClickPower:     7,
		Rebirths:       2,
		ClaimedRewards: []string{"first_100", "power_5"},
	}
	require.NoError(t, repo.SaveProgression(ctx, "u1", sn))

	got, err := repo.ByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, sn, got.Progression)

	assert.ErrorIs(t, repo.SaveProgression(ctx, "nope", sn), player.ErrNotFound)
}

func TestPlayerRepo_ProfileAndPresence(t *testing.T) {
	repo := newTestStore(t).Players()
	ctx := context.Background()
	seedUser(t, repo, "u1", "alice", "0")
	seedUser(t, repo, "u2", "bob", "0")

	assert.ErrorIs(t, repo.UpdateProfile(ctx, "u2", "alice", ""), player.ErrUsernameTaken)
	require.NoError(t, repo.UpdateProfile(ctx, "u2", "bobby", "data:image/png;base64,xx"))

	seen := time.Now().Truncate(time.Millisecond)
	require.NoError(t, repo.Touch(ctx, "u2", seen))
	require.NoError(t, repo.SetRole(ctx, "u2", player.RoleAdmin))

	got, err := repo.ByID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "bobby", got.Username)
	assert.True(t, got.IsAdmin())
	assert.True(t, got.LastActive.Equal(seen.UTC()))
}

func TestPlayerRepo_LeaderboardNumericOrder(t *testing.T) {
	repo := newTestStore(t).Players()
	ctx := context.Background()

	// "9" is lexicographically above "100"; numeric ranking must win.
	seedUser(t, repo, "u1", "alice", "9")
	seedUser(t, repo, "u2", "bob", "100")
	seedUser(t, repo, "u3", "carol", "25")

	rows, err := repo.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "bob", rows[0].Username)
	assert.Equal(t, "carol", rows[1].Username)
}

func TestQuestRepo_CRUDAndSeed(t *testing.T) {
	repo := newTestStore(t).Quests()
	ctx := context.Background()

	catalog, err := quest.DefaultCatalog()
	require.NoError(t, err)
	require.NoError(t, repo.Seed(ctx, catalog))
	require.NoError(t, repo.Seed(ctx, catalog), "second seed is a no-op")

	got, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog, got)

	q := quest.Quest{ID: "speedrun", Title: "Speedrun", ConditionType: quest.ConditionBalance,
		ConditionValue: 42, RewardAmount: 5}
	require.NoError(t, repo.Create(ctx, q))
	assert.ErrorIs(t, repo.Create(ctx, q), quest.ErrDuplicate)

	q.RewardAmount = 10
	require.NoError(t, repo.Update(ctx, q))
	back, ok, err := repo.Get(ctx, "speedrun")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(10), back.RewardAmount)

	require.NoError(t, repo.Delete(ctx, "speedrun"))
	assert.ErrorIs(t, repo.Delete(ctx, "speedrun"), quest.ErrNotFound)
	_, ok, err = repo.Get(ctx, "speedrun")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChatRepo_SendAndBlock(t *testing.T) {
	store := newTestStore(t)
	repo := store.Chat()
	ctx := context.Background()
	seedUser(t, store.Players(), "u1", "alice", "0")
	seedUser(t, store.Players(), "u2", "bob", "0")

	base := time.Now()
	require.NoError(t, repo.Send(ctx, chat.Message{
		ID: "m1", SenderID: "u1", ReceiverID: "u2", Text: "hi", SentAt: base}))
	require.NoError(t, repo.Send(ctx, chat.Message{
		ID: "m2", SenderID: "u2", ReceiverID: "u1", Text: "yo", SentAt: base.Add(time.Second)}))

	conv, err := repo.Conversation(ctx, "u1", "u2")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "m1", conv[0].ID)

	contacts, err := repo.Contacts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, contacts)

	require.NoError(t, repo.Block(ctx, "u2", "u1"))
	err = repo.Send(ctx, chat.Message{
		ID: "m3", SenderID: "u1", ReceiverID: "u2", Text: "hello?", SentAt: base.Add(2 * time.Second)})
	assert.ErrorIs(t, err, chat.ErrBlocked)

	bs, err := repo.Blocks(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, bs.TheyBlockedMe)
	assert.False(t, bs.IBlockedThem)

	require.NoError(t, repo.Unblock(ctx, "u2", "u1"))
	require.NoError(t, repo.Send(ctx, chat.Message{
		ID: "m3", SenderID: "u1", ReceiverID: "u2", Text: "hello?", SentAt: base.Add(2 * time.Second)}))
}
