package config_test

import (
	"testing"
	"time"

	"github.com/ecogames/ecosale/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "Eco Games", cfg.Token.Name)
	assert.Equal(t, "EGC", cfg.Token.Symbol)
	assert.Equal(t, int64(120_000_000_000), cfg.Token.GenesisSupply)
	assert.Equal(t, int64(50_000_000), cfg.Token.BurnAmount)
	assert.Equal(t, int64(1420), cfg.NativeRateUSD)
	assert.Equal(t, int64(10), cfg.MinPurchaseUSD)
	assert.Equal(t, 21, cfg.Vesting.MonthlyUnlocks)
	assert.Len(t, cfg.Rounds, 3)
	assert.Equal(t, int64(375), cfg.Rounds[0].PriceUSD)
	assert.Equal(t, int64(500), cfg.Rounds[1].PriceUSD)
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.NativeRateUSD = 2000
	cfg.Vesting.VestPeriodDays = 0
	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), reloaded.NativeRateUSD)
	assert.Equal(t, 0, reloaded.Vesting.VestPeriodDays)
}

func TestValidateRejectsBadRounds(t *testing.T) {
	cfg := config.Defaults(t.TempDir())
	cfg.Rounds[1].CeilingTokens = cfg.Rounds[0].CeilingTokens
	assert.Error(t, cfg.Validate(), "ceilings are cumulative and must grow")

	cfg = config.Defaults(t.TempDir())
	cfg.Rounds = nil
	assert.Error(t, cfg.Validate())

	cfg = config.Defaults(t.TempDir())
	cfg.Rounds[0].PriceUSD = 0
	assert.Error(t, cfg.Validate())
}

func TestSaleConfigConversion(t *testing.T) {
	cfg := config.Defaults(t.TempDir())
	sc := cfg.SaleConfig()

	require.Len(t, sc.Rounds, 3)
	assert.Equal(t, "300000000000000000000000000", sc.Rounds[0].Ceiling.String())
	assert.Equal(t, "10000000000000000000", sc.MinPurchaseUSD.String())
	assert.Equal(t, "1000000000000000000", sc.AccountCapNative.String())
	assert.Equal(t, 30*24*time.Hour, sc.Rounds[0].Duration)
}

func TestVestingParamsConversion(t *testing.T) {
	cfg := config.Defaults(t.TempDir())
	p := cfg.VestingParams()

	assert.Equal(t, [3]int64{500, 750, 1000}, p.InitialBps)
	assert.Equal(t, 90*24*time.Hour, p.InitialPeriod)
	assert.Equal(t, 21, p.MonthlyUnlocks)
}

func TestGenesisAndBurnUnits(t *testing.T) {
	cfg := config.Defaults(t.TempDir())
	assert.Equal(t, "120000000000000000000000000000", cfg.GenesisSupply().String())
	assert.Equal(t, "50000000000000000000000000", cfg.BurnAmount().String())
	assert.Equal(t, 365*24*time.Hour, cfg.BurnInterval())
}
