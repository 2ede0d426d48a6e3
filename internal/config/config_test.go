package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TAPPER_ADDR", "")
	t.Setenv("TAPPER_DB_DRIVER", "")
	t.Setenv("TAPPER_BALANCE_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 1.2, cfg.Balance.UpgradeGrowth)
	assert.Equal(t, time.Second, cfg.Balance.QuietPeriod())
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("TAPPER_DB_DRIVER", "oracle")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadBalance_OverridesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "balance.yml")
	require.NoError(t, os.WriteFile(path, []byte("upgrade_growth: 1.5\nsave_quiet_ms: 250\n"), 0o644))

	b, err := LoadBalance(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, b.UpgradeGrowth)
	assert.Equal(t, float64(10), b.UpgradeBase, "unset fields keep defaults")
	assert.Equal(t, 250*time.Millisecond, b.QuietPeriod())

	require.NoError(t, os.WriteFile(path, []byte("upgrade_growth: 0.5\n"), 0o644))
	_, err = LoadBalance(path)
	assert.Error(t, err)

	_, err = LoadBalance(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}
