// Package config holds the sale-model parameters and their JSON persistence.
// Every economic constant lives here so the launch numbers are in
// one reviewable place.
package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/sale"
	"github.com/ecogames/ecosale/internal/vesting"
)

const (
	configFile = "config.json"

	defaultTokenName   = "Eco Games"
	defaultTokenSymbol = "EGC"
)

// TokenConfig parameterizes the project token.
type TokenConfig struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	// GenesisSupply is in whole tokens; scaled by Decimals at deployment.
	GenesisSupply int64 `json:"genesisSupply"`
	// BurnAmount is in whole tokens, destroyed per burn.
	BurnAmount int64 `json:"burnAmount"`
	// BurnIntervalDays is added to the burn date after each burn.
	BurnIntervalDays int `json:"burnIntervalDays"`
}

// RoundConfig is one sale tier.
type RoundConfig struct {
	// PriceUSD is the per-token USD price scaled by 1e5 (375 = $0.00375).
	PriceUSD int64 `json:"priceUSD"`
	// CeilingTokens is the cumulative supply cap in whole tokens.
	CeilingTokens int64 `json:"ceilingTokens"`
	DurationDays  int   `json:"durationDays"`
}

// VestingConfig parameterizes the unlock schedule.
type VestingConfig struct {
	// InitialBps is the initial-unlock fraction per round bucket, in basis
	// points.
	InitialBps        [vesting.RoundCount]int64 `json:"initialBps"`
	InitialPeriodDays int                       `json:"initialPeriodDays"`
	VestPeriodDays    int                       `json:"vestPeriodDays"`
	MonthlyUnlocks    int                       `json:"monthlyUnlocks"`
}

// Config is the full model configuration.
type Config struct {
	Token  TokenConfig   `json:"token"`
	Rounds []RoundConfig `json:"rounds"`
	// NativeRateUSD is the externally supplied exchange rate, whole USD per
	// native unit. Not an oracle; a configuration value.
	NativeRateUSD int64 `json:"nativeRateUSD"`
	// MinPurchaseUSD is the per-purchase floor in whole USD.
	MinPurchaseUSD int64 `json:"minPurchaseUSD"`
	// AccountCapNative is the per-account cumulative cap in whole native
	// units.
	AccountCapNative int64         `json:"accountCapNative"`
	Vesting          VestingConfig `json:"vesting"`

	dir string
}

// Defaults returns the launch parameters.
func Defaults(dir string) *Config {
	return &Config{
		Token: TokenConfig{
			Name:             defaultTokenName,
			Symbol:           defaultTokenSymbol,
			Decimals:         18,
			GenesisSupply:    120_000_000_000,
			BurnAmount:       50_000_000,
			BurnIntervalDays: 365,
		},
		Rounds: []RoundConfig{
			{PriceUSD: 375, CeilingTokens: 300_000_000, DurationDays: 30},
			{PriceUSD: 500, CeilingTokens: 900_000_000, DurationDays: 30},
			{PriceUSD: 625, CeilingTokens: 1_800_000_000, DurationDays: 30},
		},
		NativeRateUSD:    1420,
		MinPurchaseUSD:   10,
		AccountCapNative: 1,
		Vesting: VestingConfig{
			InitialBps:        [vesting.RoundCount]int64{500, 750, 1000},
			InitialPeriodDays: 90,
			VestPeriodDays:    30,
			MonthlyUnlocks:    21,
		},
		dir: dir,
	}
}

// Load reads config from dir, creating defaults when none exists. dir
// defaults to ~/.ecosale.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".ecosale")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create state dir: %w", err)
	}

	cfg := Defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, configFile), data, 0o600)
}

// Dir returns the state directory the config was loaded from.
func (c *Config) Dir() string { return c.dir }

// Validate rejects configurations the model cannot run with.
func (c *Config) Validate() error {
	if len(c.Rounds) == 0 || len(c.Rounds) > vesting.RoundCount {
		return fmt.Errorf("config: need between 1 and %d rounds, have %d", vesting.RoundCount, len(c.Rounds))
	}
	prev := int64(0)
	for i, r := range c.Rounds {
		if r.PriceUSD <= 0 {
			return fmt.Errorf("config: round %d price must be positive", i)
		}
		if r.CeilingTokens <= prev {
			return fmt.Errorf("config: round %d ceiling must grow (cumulative caps)", i)
		}
		prev = r.CeilingTokens
	}
	if c.NativeRateUSD <= 0 {
		return fmt.Errorf("config: native rate must be positive")
	}
	if c.Vesting.MonthlyUnlocks <= 0 {
		return fmt.Errorf("config: monthly unlock count must be positive")
	}
	return nil
}

// SaleConfig converts to the engine's parameter form.
func (c *Config) SaleConfig() sale.Config {
	out := sale.Config{
		NativeRateUSD:    c.NativeRateUSD,
		MinPurchaseUSD:   amount.Units(c.MinPurchaseUSD, 18),
		AccountCapNative: amount.Units(c.AccountCapNative, 18),
	}
	for _, r := range c.Rounds {
		out.Rounds = append(out.Rounds, sale.Round{
			PriceUSD: r.PriceUSD,
			Ceiling:  amount.Units(r.CeilingTokens, c.Token.Decimals),
			Duration: time.Duration(r.DurationDays) * 24 * time.Hour,
		})
	}
	return out
}

// VestingParams converts to the ledger's parameter form.
func (c *Config) VestingParams() vesting.Params {
	return vesting.Params{
		InitialBps:     c.Vesting.InitialBps,
		InitialPeriod:  time.Duration(c.Vesting.InitialPeriodDays) * 24 * time.Hour,
		VestPeriod:     time.Duration(c.Vesting.VestPeriodDays) * 24 * time.Hour,
		MonthlyUnlocks: c.Vesting.MonthlyUnlocks,
	}
}

// GenesisSupply returns the genesis mint in base units.
func (c *Config) GenesisSupply() *big.Int {
	return amount.Units(c.Token.GenesisSupply, c.Token.Decimals)
}

// BurnAmount returns the per-burn quantity in base units.
func (c *Config) BurnAmount() *big.Int {
	return amount.Units(c.Token.BurnAmount, c.Token.Decimals)
}

// BurnInterval returns the burn re-eligibility interval.
func (c *Config) BurnInterval() time.Duration {
	return time.Duration(c.Token.BurnIntervalDays) * 24 * time.Hour
}
