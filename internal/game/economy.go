// Package game holds the core progression rules: the price curves, the
// mutable player state, and the commands that drive it.
package game

import (
	"math"
	"math/big"
)

// Economy is the price-curve tuning. Prices follow base * growth^n,
// floored, and clamp at PriceCap once the curve overflows it.
type Economy struct {
	UpgradeBase   float64 `yaml:"upgrade_base" json:"upgrade_base"`
	UpgradeGrowth float64 `yaml:"upgrade_growth" json:"upgrade_growth"`
	RebirthBase   float64 `yaml:"rebirth_base" json:"rebirth_base"`
	RebirthGrowth float64 `yaml:"rebirth_growth" json:"rebirth_growth"`
	PriceCap      float64 `yaml:"price_cap" json:"price_cap"`
}

// DefaultEconomy returns the canonical tuning.
func DefaultEconomy() Economy {
	return Economy{
		UpgradeBase:   10,
		UpgradeGrowth: 1.2,
		RebirthBase:   10000,
		RebirthGrowth: 1.5,
		PriceCap:      1e300,
	}
}

// price evaluates base * growth^n in float64 and converts to an integer,
// clamping at the cap. The cap keeps deep prestige counts finite instead
// of overflowing to +Inf.
func (e Economy) price(base, growth float64, n int64) *big.Int {
	p := base * math.Pow(growth, float64(n))
	if math.IsNaN(p) || math.IsInf(p, 0) || p > e.PriceCap {
		p = e.PriceCap
	}
	p = math.Floor(p)
	out, _ := big.NewFloat(p).Int(nil)
	return out
}

// UpgradePrice is the cost of raising click power from its current value.
func (e Economy) UpgradePrice(clickPower int64) *big.Int {
	if clickPower < 1 {
		clickPower = 1
	}
	return e.price(e.UpgradeBase, e.UpgradeGrowth, clickPower-1)
}

// RebirthPrice is the cost of the next rebirth given the current count.
func (e Economy) RebirthPrice(rebirths int64) *big.Int {
	if rebirths < 0 {
		rebirths = 0
	}
	return e.price(e.RebirthBase, e.RebirthGrowth, rebirths)
}

// TapEarnings is the per-touch credit: click power times the rebirth
// multiplier (1 + rebirths).
func (e Economy) TapEarnings(clickPower, rebirths int64) *big.Int {
	earned := big.NewInt(clickPower)
	return earned.Mul(earned, big.NewInt(1+rebirths))
}
