// Package chain provides the local execution environment the contract models
// run inside: one serialized transaction at a time, a clock capability, a
// native-asset balance ledger, and all-or-nothing rollback across every state
// change a transaction makes.
package chain

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Errors.
var (
	ErrInsufficientNative = errors.New("insufficient native balance")
)

// Clock supplies the current time to every time-gated check.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a settable clock for tests and offline runs.
type ManualClock struct {
	t time.Time
}

// NewManualClock creates a manual clock starting at t.
func NewManualClock(t time.Time) *ManualClock { return &ManualClock{t: t} }

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time { return c.t }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) { c.t = t }

// OffsetClock reads the wall clock shifted by a persisted offset, so a CLI
// session can fast-forward through time gates between invocations.
type OffsetClock struct {
	Offset time.Duration
}

// Now returns wall-clock time plus the offset.
func (c *OffsetClock) Now() time.Time { return time.Now().Add(c.Offset) }

// Snapshotter is implemented by every contract registered with the
// environment. Snapshot must return a deep copy; Restore must replace the
// contract's state with a previously returned snapshot.
type Snapshotter interface {
	Snapshot() any
	Restore(any)
}

// ReceiveHook runs when native value is transferred to a contract address.
// A hook error fails the inbound transfer itself.
type ReceiveHook func(from common.Address, value *big.Int) error

// Env is the in-process chain: it owns the clock, native balances, and the
// transaction boundary. Every public contract operation executes under its
// lock via Execute, so check-then-act sequences never interleave.
type Env struct {
	mu        sync.Mutex
	clock     Clock
	native    map[common.Address]*big.Int
	hooks     map[common.Address]ReceiveHook
	contracts []Snapshotter
}

// NewEnv creates an environment using the given clock.
func NewEnv(clock Clock) *Env {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Env{
		clock:  clock,
		native: make(map[common.Address]*big.Int),
		hooks:  make(map[common.Address]ReceiveHook),
	}
}

// Now returns the environment's current time.
func (e *Env) Now() time.Time { return e.clock.Now() }

// Clock returns the underlying clock.
func (e *Env) Clock() Clock { return e.clock }

// Advance fast-forwards a manual or offset clock by d. System clocks cannot
// be advanced.
func (e *Env) Advance(d time.Duration) error {
	switch c := e.clock.(type) {
	case *ManualClock:
		c.Advance(d)
		return nil
	case *OffsetClock:
		c.Offset += d
		return nil
	default:
		return fmt.Errorf("clock of type %T cannot be advanced", e.clock)
	}
}

// Register adds a contract to the rollback set.
func (e *Env) Register(s Snapshotter) {
	e.contracts = append(e.contracts, s)
}

// Execute runs fn as a single transaction: serialized against all other
// transactions, with every registered contract's state and the native ledger
// restored if fn returns an error. fn must not call Execute again.
func (e *Env) Execute(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snaps := make([]any, len(e.contracts))
	for i, c := range e.contracts {
		snaps[i] = c.Snapshot()
	}
	nativeSnap := e.snapshotNative()

	if err := fn(); err != nil {
		for i, c := range e.contracts {
			c.Restore(snaps[i])
		}
		e.native = nativeSnap
		return err
	}
	return nil
}

func (e *Env) snapshotNative() map[common.Address]*big.Int {
	out := make(map[common.Address]*big.Int, len(e.native))
	for a, b := range e.native {
		out[a] = new(big.Int).Set(b)
	}
	return out
}

// ContractAddress derives a stable address for a named contract instance.
func ContractAddress(name string) common.Address {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte("ecosale/contract/" + name))
	return common.BytesToAddress(h.Sum(nil)[12:])
}

// SetReceiveHook installs the native-receive hook for a contract address.
func (e *Env) SetReceiveHook(addr common.Address, hook ReceiveHook) {
	e.hooks[addr] = hook
}

// NativeBalanceOf returns the native-asset balance of addr.
func (e *Env) NativeBalanceOf(addr common.Address) *big.Int {
	if b, ok := e.native[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// CreditNative mints native value to addr. Harness-only faucet; the modeled
// system receives native value from the host chain.
func (e *Env) CreditNative(addr common.Address, value *big.Int) {
	bal := e.native[addr]
	if bal == nil {
		bal = new(big.Int)
		e.native[addr] = bal
	}
	bal.Add(bal, value)
}

// TransferNative moves native value between addresses and runs the
// recipient's receive hook, if any. A hook failure fails the transfer.
func (e *Env) TransferNative(from, to common.Address, value *big.Int) error {
	if value.Sign() < 0 {
		return fmt.Errorf("negative native transfer")
	}
	fromBal := e.native[from]
	if fromBal == nil || fromBal.Cmp(value) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientNative,
			from.Hex(), e.NativeBalanceOf(from), value)
	}
	fromBal.Sub(fromBal, value)
	toBal := e.native[to]
	if toBal == nil {
		toBal = new(big.Int)
		e.native[to] = toBal
	}
	toBal.Add(toBal, value)

	if hook, ok := e.hooks[to]; ok {
		if err := hook(from, value); err != nil {
			return err
		}
	}
	return nil
}

// NativeState is the serializable form of the environment's own state.
type NativeState struct {
	Balances map[string]*big.Int `json:"balances"`
}

// ExportNative returns the native ledger in serializable form.
func (e *Env) ExportNative() NativeState {
	out := NativeState{Balances: make(map[string]*big.Int, len(e.native))}
	for a, b := range e.native {
		out.Balances[a.Hex()] = new(big.Int).Set(b)
	}
	return out
}

// ImportNative replaces the native ledger with a previously exported state.
func (e *Env) ImportNative(s NativeState) {
	e.native = make(map[common.Address]*big.Int, len(s.Balances))
	for a, b := range s.Balances {
		e.native[common.HexToAddress(a)] = new(big.Int).Set(b)
	}
}
