package game

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEconomy_UpgradePrice_StrictlyIncreasing(t *testing.T) {
	eco := DefaultEconomy()

	prev := eco.UpgradePrice(1)
	assert.Equal(t, "10", prev.String())

	for cp := int64(2); cp <= 200; cp++ {
		next := eco.UpgradePrice(cp)
		assert.Equal(t, 1, next.Cmp(prev), "price must strictly increase at click power %d", cp)
		prev = next
	}
}

func TestEconomy_RebirthPrice_Schedule(t *testing.T) {
	eco := DefaultEconomy()

	cases := []struct {
		rebirths int64
		want     string
	}{
		{0, "10000"},
		{1, "15000"},
		{2, "22500"},
		{3, "33750"},
		{4, "50625"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, eco.RebirthPrice(tc.rebirths).String())
	}
}

func TestEconomy_RebirthPrice_NeverExceedsCap(t *testing.T) {
	eco := DefaultEconomy()
	capPrice, _ := big.NewFloat(eco.PriceCap).Int(nil)

	prev := eco.RebirthPrice(0)
	// 1.5^1700 is far beyond 1e300, so the tail of this range is clamped.
	for r := int64(1); r <= 1800; r += 7 {
		p := eco.RebirthPrice(r)
		assert.LessOrEqual(t, p.Cmp(capPrice), 0, "rebirth price must stay at or below the cap")
		assert.GreaterOrEqual(t, p.Cmp(prev), 0, "rebirth price must be non-decreasing")
		prev = p
	}
	require.Equal(t, 0, eco.RebirthPrice(1800).Cmp(capPrice), "deep rebirth counts must return the cap itself")
}

func TestEconomy_TapEarnings(t *testing.T) {
	eco := DefaultEconomy()

	assert.Equal(t, "1", eco.TapEarnings(1, 0).String())
	assert.Equal(t, "9", eco.TapEarnings(3, 2).String())
	assert.Equal(t, "500", eco.TapEarnings(100, 4).String())
}
