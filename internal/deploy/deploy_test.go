package deploy_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/chain"
	"github.com/ecogames/ecosale/internal/config"
	"github.com/ecogames/ecosale/internal/deploy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var owner = common.HexToAddress("0x01")

func newWorld(t *testing.T) (*deploy.World, *config.Config) {
	t.Helper()
	cfg := config.Defaults(t.TempDir())
	clock := chain.NewManualClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	w, err := deploy.Wire(cfg, clock, owner)
	require.NoError(t, err)
	return w, cfg
}

func TestWire(t *testing.T) {
	w, cfg := newWorld(t)

	assert.Equal(t, cfg.GenesisSupply().String(), w.Eco.BalanceOf(owner).String())
	assert.Equal(t, owner, w.Eco.Owner())
	assert.Equal(t, 6, w.Usdt.Decimals())
	assert.Equal(t, 18, w.Dai.Decimals())

	// The crowdsale is bound: it can record vests, nobody else can.
	require.NoError(t, w.Env.Execute(func() error {
		return w.Vesting.RawRecordVest(w.Sale.Address(), owner, amount.Units(1, 18), 0)
	}))
}

func TestAssetLookup(t *testing.T) {
	w, _ := newWorld(t)

	for _, symbol := range []string{"dai", "usdt", "usdc"} {
		tok, err := w.Asset(symbol)
		require.NoError(t, err)
		assert.NotNil(t, tok)
	}
	_, err := w.Asset("doge")
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults(dir)
	w, err := deploy.Wire(cfg, &chain.OffsetClock{}, owner)
	require.NoError(t, err)

	buyer := common.HexToAddress("0x02")
	require.NoError(t, w.Dai.Transfer(owner, buyer, amount.Units(100, 18)))
	require.NoError(t, w.Dai.Approve(buyer, w.Sale.Address(), amount.Units(100, 18)))
	require.NoError(t, w.Sale.StartSalePeriod(owner, time.Hour))
	daiAmt, err := amount.ParseDecimal("10.00125", 18)
	require.NoError(t, err)
	require.NoError(t, w.Sale.BuyWithStable(buyer, "dai", daiAmt))
	require.NoError(t, w.Env.Advance(24*time.Hour))

	require.NoError(t, w.Save(dir))
	assert.True(t, deploy.Exists(dir))

	w2, err := deploy.Load(dir, cfg)
	require.NoError(t, err)

	assert.Equal(t, w.Sale.TokensRaised().String(), w2.Sale.TokensRaised().String())
	assert.Equal(t, w.Dai.BalanceOf(buyer).String(), w2.Dai.BalanceOf(buyer).String())
	rec := w2.Vesting.Vest(buyer)
	require.NotNil(t, rec)
	assert.Equal(t, amount.Units(2667, 18).String(), rec.TotalVest.String())

	// Clock offset survives.
	oc, ok := w2.Env.Clock().(*chain.OffsetClock)
	require.True(t, ok)
	assert.Equal(t, 24*time.Hour, oc.Offset)
}

func TestLoadMissingState(t *testing.T) {
	dir := t.TempDir()
	_, err := deploy.Load(dir, config.Defaults(dir))
	assert.ErrorIs(t, err, deploy.ErrNoState)
}

func TestLoadRejectsTamperedState(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults(dir)
	w, err := deploy.Wire(cfg, &chain.OffsetClock{}, owner)
	require.NoError(t, err)
	require.NoError(t, w.Save(dir))

	path := filepath.Join(dir, "state.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := []byte(string(data))
	// Flip a digit inside the payload.
	for i := range tampered {
		if tampered[i] == '7' {
			tampered[i] = '8'
			break
		}
	}
	require.NoError(t, os.WriteFile(path, tampered, 0o600))

	_, err = deploy.Load(dir, cfg)
	assert.Error(t, err)
}
