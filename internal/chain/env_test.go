package chain_test

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ecogames/ecosale/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter is a minimal contract model for rollback tests.
type counter struct {
	n int
}

func (c *counter) Snapshot() any { n := c.n; return n }
func (c *counter) Restore(s any) { c.n = s.(int) }

func TestExecuteCommitsOnSuccess(t *testing.T) {
	env := chain.NewEnv(nil)
	c := &counter{}
	env.Register(c)

	err := env.Execute(func() error {
		c.n = 7
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, c.n)
}

func TestExecuteRollsBackOnError(t *testing.T) {
	env := chain.NewEnv(nil)
	c := &counter{n: 1}
	env.Register(c)

	alice := common.HexToAddress("0x1")
	bob := common.HexToAddress("0x2")
	env.CreditNative(alice, big.NewInt(100))

	boom := errors.New("boom")
	err := env.Execute(func() error {
		c.n = 99
		if err := env.TransferNative(alice, bob, big.NewInt(60)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 1, c.n, "contract state must roll back")
	assert.Equal(t, "100", env.NativeBalanceOf(alice).String(), "native ledger must roll back")
	assert.Equal(t, "0", env.NativeBalanceOf(bob).String())
}

func TestTransferNativeInsufficient(t *testing.T) {
	env := chain.NewEnv(nil)
	alice := common.HexToAddress("0x1")
	bob := common.HexToAddress("0x2")
	env.CreditNative(alice, big.NewInt(10))

	err := env.TransferNative(alice, bob, big.NewInt(11))
	assert.ErrorIs(t, err, chain.ErrInsufficientNative)
}

func TestReceiveHookFailureFailsTransfer(t *testing.T) {
	env := chain.NewEnv(nil)
	alice := common.HexToAddress("0x1")
	sink := chain.ContractAddress("sink")
	env.CreditNative(alice, big.NewInt(50))

	refused := errors.New("refused")
	env.SetReceiveHook(sink, func(from common.Address, value *big.Int) error {
		return refused
	})

	err := env.Execute(func() error {
		return env.TransferNative(alice, sink, big.NewInt(50))
	})
	require.ErrorIs(t, err, refused)
	assert.Equal(t, "50", env.NativeBalanceOf(alice).String(), "failed receipt must not strand funds")
}

func TestReceiveHookForwarding(t *testing.T) {
	env := chain.NewEnv(nil)
	alice := common.HexToAddress("0x1")
	owner := common.HexToAddress("0x2")
	sink := chain.ContractAddress("sink")
	env.CreditNative(alice, big.NewInt(50))

	env.SetReceiveHook(sink, func(from common.Address, value *big.Int) error {
		return env.TransferNative(sink, owner, value)
	})

	require.NoError(t, env.Execute(func() error {
		return env.TransferNative(alice, sink, big.NewInt(50))
	}))
	assert.Equal(t, "0", env.NativeBalanceOf(sink).String())
	assert.Equal(t, "50", env.NativeBalanceOf(owner).String())
}

func TestManualClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	env := chain.NewEnv(chain.NewManualClock(start))

	assert.Equal(t, start, env.Now())
	require.NoError(t, env.Advance(48*time.Hour))
	assert.Equal(t, start.Add(48*time.Hour), env.Now())
}

func TestSystemClockCannotAdvance(t *testing.T) {
	env := chain.NewEnv(chain.SystemClock{})
	assert.Error(t, env.Advance(time.Hour))
}

func TestOffsetClock(t *testing.T) {
	env := chain.NewEnv(&chain.OffsetClock{})
	before := time.Now()
	require.NoError(t, env.Advance(24*time.Hour))
	assert.True(t, env.Now().After(before.Add(23*time.Hour)))
}

func TestContractAddressStable(t *testing.T) {
	a1 := chain.ContractAddress("ecogames-token")
	a2 := chain.ContractAddress("ecogames-token")
	b := chain.ContractAddress("crowdsale")

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
	assert.NotEqual(t, common.Address{}, a1)
}

func TestExportImportNative(t *testing.T) {
	env := chain.NewEnv(nil)
	alice := common.HexToAddress("0xaa")
	env.CreditNative(alice, big.NewInt(123))

	state := env.ExportNative()

	env2 := chain.NewEnv(nil)
	env2.ImportNative(state)
	assert.Equal(t, "123", env2.NativeBalanceOf(alice).String())
}
