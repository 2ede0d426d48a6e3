package quest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepo_CRUDKeepsOrder(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, SeedDefaults(ctx, repo))
	require.NoError(t, SeedDefaults(ctx, repo), "second seed is a no-op")

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "first_100", list[0].ID)
	assert.Equal(t, "millionaire", list[3].ID)

	q := Quest{ID: "speedrun", Title: "Speedrun", ConditionType: ConditionBalance,
		ConditionValue: 42, RewardAmount: 5}
	require.NoError(t, repo.Create(ctx, q))
	assert.ErrorIs(t, repo.Create(ctx, q), ErrDuplicate)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "speedrun", list[4].ID, "new quests append at the end")

	q.RewardAmount = 9
	require.NoError(t, repo.Update(ctx, q))
	got, ok, err := repo.Get(ctx, "speedrun")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(9), got.RewardAmount)

	assert.ErrorIs(t, repo.Update(ctx, Quest{ID: "ghost"}), ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "speedrun"))
	assert.ErrorIs(t, repo.Delete(ctx, "speedrun"), ErrNotFound)
	_, ok, err = repo.Get(ctx, "speedrun")
	require.NoError(t, err)
	assert.False(t, ok)
}
