package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTripIsStable(t *testing.T) {
	st := NewState()
	st.ApplyTap(DefaultEconomy(), 5)
	st.ClickPower = 12
	st.Rebirths = 3
	st.MarkClaimed("power_5")
	st.MarkClaimed("first_100")

	sn := st.Snapshot()
	assert.Equal(t, []string{"first_100", "power_5"}, sn.ClaimedRewards)

	restored, err := FromSnapshot(sn)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Balance.Cmp(st.Balance))
	assert.Equal(t, st.ClickPower, restored.ClickPower)
	assert.Equal(t, st.Rebirths, restored.Rebirths)
	assert.True(t, restored.HasClaimed("first_100"))
	assert.True(t, restored.HasClaimed("power_5"))
}

func TestFromSnapshot_NormalizesOutOfRangeValues(t *testing.T) {
	st, err := FromSnapshot(Snapshot{Balance: "-50", ClickPower: 0, Rebirths: -2})
	require.NoError(t, err)
	assert.Equal(t, "0", st.Balance.String())
	assert.Equal(t, int64(1), st.ClickPower)
	assert.Equal(t, int64(0), st.Rebirths)
}

func TestFromSnapshot_RejectsMalformedBalance(t *testing.T) {
	_, err := FromSnapshot(Snapshot{Balance: "Infinity"})
	assert.Error(t, err)
}

func TestState_MarkClaimed_IsIdempotent(t *testing.T) {
	st := NewState()
	assert.True(t, st.MarkClaimed("rich_10k"))
	assert.False(t, st.MarkClaimed("rich_10k"))
	assert.Equal(t, 1, st.ClaimedCount())
}
