package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tapper/internal/game"
)

// Balance holds gameplay balance configuration.
type Balance struct {
	// Price curves
	UpgradeBase   float64 `yaml:"upgrade_base" json:"upgrade_base"`
	UpgradeGrowth float64 `yaml:"upgrade_growth" json:"upgrade_growth"`
	RebirthBase   float64 `yaml:"rebirth_base" json:"rebirth_base"`
	RebirthGrowth float64 `yaml:"rebirth_growth" json:"rebirth_growth"`
	PriceCap      float64 `yaml:"price_cap" json:"price_cap"`

	// Persistence
	SaveQuietMS int `yaml:"save_quiet_ms" json:"save_quiet_ms"`
}

// DefaultBalance returns the canonical tuning.
func DefaultBalance() Balance {
	eco := game.DefaultEconomy()
	return Balance{
		UpgradeBase:   eco.UpgradeBase,
		UpgradeGrowth: eco.UpgradeGrowth,
		RebirthBase:   eco.RebirthBase,
		RebirthGrowth: eco.RebirthGrowth,
		PriceCap:      eco.PriceCap,
		SaveQuietMS:   1000,
	}
}

// LoadBalance reads a YAML balance file, filling gaps with defaults.
func LoadBalance(path string) (Balance, error) {
	b := DefaultBalance()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, fmt.Errorf("read balance file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Balance{}, fmt.Errorf("parse balance file %s: %w", path, err)
	}
	if b.UpgradeBase <= 0 || b.UpgradeGrowth <= 1 || b.RebirthBase <= 0 || b.RebirthGrowth <= 1 || b.PriceCap <= 0 {
		return Balance{}, fmt.Errorf("balance file %s: price curves must use positive bases and growth above 1", path)
	}
	return b, nil
}

// Economy projects the price-curve fields into the game package's form.
func (b Balance) Economy() game.Economy {
	return game.Economy{
		UpgradeBase:   b.UpgradeBase,
		UpgradeGrowth: b.UpgradeGrowth,
		RebirthBase:   b.RebirthBase,
		RebirthGrowth: b.RebirthGrowth,
		PriceCap:      b.PriceCap,
	}
}

// QuietPeriod is the save debounce window.
func (b Balance) QuietPeriod() time.Duration {
	if b.SaveQuietMS <= 0 {
		return time.Second
	}
	return time.Duration(b.SaveQuietMS) * time.Millisecond
}
