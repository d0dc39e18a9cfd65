// Package scenario walks the whole token economy end to end, in process:
// deployment, the three sale rounds across every payment asset, the sale
// close, the initial unlock, the full 21-month amortization, the proceeds
// withdrawal and the supply burn.
package scenario_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/chain"
	"github.com/ecogames/ecosale/internal/config"
	"github.com/ecogames/ecosale/internal/deploy"
	"github.com/ecogames/ecosale/internal/sale"
	"github.com/ecogames/ecosale/internal/token"
	"github.com/ecogames/ecosale/internal/vesting"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	carol = common.HexToAddress("0x00000000000000000000000000000000000000b3")
)

const day = 24 * time.Hour

func usd(s string) *big.Int {
	v, err := amount.ParseDecimal(s, 18)
	if err != nil {
		panic(err)
	}
	return v
}

func newWorld(t *testing.T) (*deploy.World, *chain.ManualClock) {
	t.Helper()
	cfg := config.Defaults(t.TempDir())
	clock := chain.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	w, err := deploy.Wire(cfg, clock, owner)
	require.NoError(t, err)

	// Disbursement float and buyer funding.
	require.NoError(t, w.Eco.Transfer(owner, w.Vesting.Address(), amount.Units(3_000_000_000, 18)))
	require.NoError(t, w.Dai.Transfer(owner, alice, amount.Units(1_000_000, 18)))
	require.NoError(t, w.Usdt.Transfer(owner, bob, amount.Units(1_000_000, 6)))
	w.Env.CreditNative(carol, amount.Units(2, 18))
	return w, clock
}

func TestCrowdsaleLifecycle(t *testing.T) {
	w, clock := newWorld(t)

	// Closed before the owner opens it.
	require.Equal(t, sale.NotStarted, w.Sale.Status())
	err := w.Sale.BuyWithStable(alice, "dai", amount.Units(100, 18))
	require.ErrorIs(t, err, sale.ErrSaleInactive)

	require.ErrorIs(t, w.Sale.StartSalePeriod(alice, 30*day), sale.ErrUnauthorized)
	require.NoError(t, w.Sale.StartSalePeriod(owner, 30*day))
	require.Equal(t, sale.Active, w.Sale.Status())

	// Minimum purchase is $10 inclusive.
	require.NoError(t, w.Dai.Approve(alice, w.Sale.Address(), amount.Units(10_000, 18)))
	err = w.Sale.BuyWithStable(alice, "dai", usd("9.99"))
	require.ErrorIs(t, err, sale.ErrBelowMinimum)

	// $10.00125 at $0.00375 buys exactly 2667 tokens, vested not delivered.
	ownerDaiBefore := w.Dai.BalanceOf(owner)
	require.NoError(t, w.Sale.BuyWithStable(alice, "dai", usd("10.00125")))
	require.Equal(t, int64(0), w.Eco.BalanceOf(alice).Int64())
	rec := w.Vesting.Vest(alice)
	require.NotNil(t, rec)
	assert.Equal(t, amount.Units(2667, 18), rec.TotalVest)
	assert.Equal(t, amount.Units(2667, 18), rec.Rounds[0])
	// Stablecoin payment lands with the beneficiary.
	paid := new(big.Int).Sub(w.Dai.BalanceOf(owner), ownerDaiBefore)
	assert.Equal(t, usd("10.00125"), paid)

	// Paused sessions reject purchases until unpaused.
	require.NoError(t, w.Sale.TogglePauseCrowdsale(owner))
	err = w.Sale.BuyWithStable(alice, "dai", amount.Units(100, 18))
	require.ErrorIs(t, err, sale.ErrSaleInactive)
	require.NoError(t, w.Sale.TogglePauseCrowdsale(owner))

	// 6-decimal stablecoins normalize to the same USD value: 37.50 USDT
	// buys exactly 10000 tokens.
	require.NoError(t, w.Usdt.Approve(bob, w.Sale.Address(), amount.Units(1_000, 6)))
	require.NoError(t, w.Sale.BuyWithStable(bob, "usdt", big.NewInt(37_500_000)))
	assert.Equal(t, amount.Units(10_000, 18), w.Vesting.Vest(bob).TotalVest)

	// Native purchase: $10 requires exactly floor(usd/rate) wei.
	required := new(big.Int).Div(usd("10"), big.NewInt(1420))
	short := new(big.Int).Sub(required, big.NewInt(1))
	err = w.Sale.BuyWithNative(carol, usd("10"), short)
	require.ErrorIs(t, err, sale.ErrInsufficientPayment)

	// A full-cap native purchase routes the value to the vesting ledger.
	require.NoError(t, w.Sale.BuyWithNative(carol, amount.Units(1420, 18), amount.Units(1, 18)))
	assert.Equal(t, amount.Units(1, 18), w.Env.NativeBalanceOf(w.Vesting.Address()))
	err = w.Sale.BuyWithNative(carol, usd("10"), required)
	require.ErrorIs(t, err, sale.ErrAccountCapExceeded)

	// Rounds only move forward, and repricing applies immediately:
	// $10 at $0.005 is 2000 tokens.
	require.ErrorIs(t, w.Sale.InitiateRound(owner, 0), sale.ErrBadRound)
	require.NoError(t, w.Sale.InitiateRound(owner, 1))
	require.NoError(t, w.Sale.BuyWithStable(alice, "dai", usd("10")))
	assert.Equal(t, amount.Units(2000, 18), w.Vesting.Vest(alice).Rounds[1])

	// $12.50 at $0.00625 is 2000 tokens again.
	require.NoError(t, w.Sale.InitiateRound(owner, 2))
	require.NoError(t, w.Sale.BuyWithStable(alice, "dai", usd("12.50")))
	assert.Equal(t, amount.Units(2000, 18), w.Vesting.Vest(alice).Rounds[2])

	// Purchases stop when the window expires.
	clock.Advance(31 * day)
	require.Equal(t, sale.Expired, w.Sale.Status())
	err = w.Sale.BuyWithStable(alice, "dai", usd("10"))
	require.ErrorIs(t, err, sale.ErrSaleInactive)

	// Ending the sale initiates vesting, exactly once.
	require.NoError(t, w.Sale.EndCrowdsale(owner))
	require.True(t, w.Vesting.Initiated())
	require.Equal(t, sale.Ended, w.Sale.Status())
	require.ErrorIs(t, w.Sale.EndCrowdsale(owner), vesting.ErrAlreadyInitiated)

	// Initial unlock waits out the 90-day cliff from vest creation.
	require.ErrorIs(t, w.Vesting.InitialUnlock(alice), vesting.ErrUnlockTooEarly)
	clock.Advance(60 * day) // day 91 since alice's first purchase

	// 5% of 2667 + 7.5% of 2000 + 10% of 2000 = 483.35 tokens.
	require.NoError(t, w.Vesting.InitialUnlock(alice))
	assert.Equal(t, usd("483.35"), w.Eco.BalanceOf(alice))
	require.ErrorIs(t, w.Vesting.InitialUnlock(alice), vesting.ErrInitialUnlockDone)

	// Accounts that never vested unlock nothing, silently.
	dave := common.HexToAddress("0x00000000000000000000000000000000000000b4")
	require.NoError(t, w.Vesting.InitialUnlock(dave))

	// The first monthly step waits a full period after the initial unlock.
	require.ErrorIs(t, w.Vesting.MonthlyUnlock(alice), vesting.ErrUnlockTooEarly)

	// 21 monthly steps fully amortize the locked remainder.
	for i := 0; i < 21; i++ {
		clock.Advance(30 * day)
		require.NoError(t, w.Vesting.MonthlyUnlock(alice), "month %d", i+1)
	}
	rec = w.Vesting.Vest(alice)
	assert.Equal(t, int64(0), rec.Locked.Int64())
	assert.Equal(t, amount.Units(6667, 18), w.Eco.BalanceOf(alice))
	require.ErrorIs(t, w.Vesting.MonthlyUnlock(alice), vesting.ErrAllUnlocked)

	// Native proceeds sweep to the owner.
	ownerNativeBefore := w.Env.NativeBalanceOf(owner)
	require.NoError(t, w.Vesting.Withdraw(owner))
	swept := new(big.Int).Sub(w.Env.NativeBalanceOf(owner), ownerNativeBefore)
	assert.Equal(t, amount.Units(1, 18), swept)
	assert.Equal(t, int64(0), w.Env.NativeBalanceOf(w.Vesting.Address()).Int64())

	// More than a year has passed: the scheduled burn fires once.
	supplyBefore := w.Eco.TotalSupply()
	require.NoError(t, w.Eco.Burn(owner))
	burned := new(big.Int).Sub(supplyBefore, w.Eco.TotalSupply())
	assert.Equal(t, amount.Units(50_000_000, 18), burned)
	require.ErrorIs(t, w.Eco.Burn(owner), token.ErrBurnTooEarly)
}

func TestFailedPurchaseLeavesNoTrace(t *testing.T) {
	w, _ := newWorld(t)
	require.NoError(t, w.Sale.StartSalePeriod(owner, 30*day))

	// Carol never approved DAI, so the payment pull fails after the vest
	// was recorded; the whole purchase must roll back.
	require.NoError(t, w.Dai.Transfer(owner, carol, amount.Units(100, 18)))
	err := w.Sale.BuyWithStable(carol, "dai", usd("50"))
	require.ErrorIs(t, err, token.ErrInsufficientAllowance)

	assert.Nil(t, w.Vesting.Vest(carol))
	assert.Equal(t, int64(0), w.Sale.TokensRaised().Int64())
	assert.Equal(t, amount.Units(100, 18), w.Dai.BalanceOf(carol))
}
