// Package vesting models the tokens-vesting ledger: per-account vest records
// accumulated by the crowdsale, a one-time partial initial unlock rated by
// sale round, and a fixed-length monthly amortization of the locked
// remainder. The ledger holds the tokens it disburses and the native value
// received from native-asset purchases.
package vesting

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ecogames/ecosale/internal/chain"
	"github.com/ecogames/ecosale/internal/token"
	"github.com/ethereum/go-ethereum/common"
)

// Errors.
var (
	ErrUnauthorized          = errors.New("vesting: caller is not the owner")
	ErrOnlyCrowdsale         = errors.New("only the crowdsale contract can call this")
	ErrAlreadyInitiated      = errors.New("vesting: already initiated")
	ErrNotYetEligible        = errors.New("vesting has not been initiated")
	ErrInitialUnlockDone     = errors.New("initial unlock has already been done")
	ErrInitialUnlockRequired = errors.New("initial unlock has not been completed")
	ErrAllUnlocked           = errors.New("all vests have been unlocked")
	ErrUnlockTooEarly        = errors.New("unlock date has not passed")
)

// RoundCount is the number of sale rounds a vest record buckets purchases
// into.
const RoundCount = 3

// Record tracks one account's vest. The three round buckets exist only until
// the initial unlock absorbs them into the locked/unlocked totals; TotalVest
// is the immutable historical sum.
type Record struct {
	Rounds    [RoundCount]*big.Int `json:"rounds"`
	Locked    *big.Int             `json:"locked"`
	Unlocked  *big.Int             `json:"unlocked"`
	TotalVest *big.Int             `json:"totalVest"`

	InitialDone    bool      `json:"initialDone"`
	MonthsUnlocked int       `json:"monthsUnlocked"`
	CreatedAt      time.Time `json:"createdAt"`
	LastUnlock     time.Time `json:"lastUnlock"`
}

func newRecord(now time.Time) *Record {
	r := &Record{
		Locked:    new(big.Int),
		Unlocked:  new(big.Int),
		TotalVest: new(big.Int),
		CreatedAt: now,
	}
	for i := range r.Rounds {
		r.Rounds[i] = new(big.Int)
	}
	return r
}

func (r *Record) clone() *Record {
	out := &Record{
		Locked:         new(big.Int).Set(r.Locked),
		Unlocked:       new(big.Int).Set(r.Unlocked),
		TotalVest:      new(big.Int).Set(r.TotalVest),
		InitialDone:    r.InitialDone,
		MonthsUnlocked: r.MonthsUnlocked,
		CreatedAt:      r.CreatedAt,
		LastUnlock:     r.LastUnlock,
	}
	for i := range r.Rounds {
		out.Rounds[i] = new(big.Int).Set(r.Rounds[i])
	}
	return out
}

// Params configure the unlock schedule.
type Params struct {
	// InitialBps is the initial-unlock fraction per round bucket, in basis
	// points: 500 (5%), 750 (7.5%), 1000 (10%).
	InitialBps [RoundCount]int64 `json:"initialBps"`
	// InitialPeriod is the delay from vest creation until the initial
	// unlock is callable.
	InitialPeriod time.Duration `json:"initialPeriod"`
	// VestPeriod is the minimum spacing between monthly unlocks. Zero means
	// unlocks may be called back to back.
	VestPeriod time.Duration `json:"vestPeriod"`
	// MonthlyUnlocks is the fixed number of monthly steps that fully
	// amortize the locked remainder.
	MonthlyUnlocks int `json:"monthlyUnlocks"`
}

// DefaultParams returns the production schedule.
func DefaultParams() Params {
	return Params{
		InitialBps:     [RoundCount]int64{500, 750, 1000},
		InitialPeriod:  90 * 24 * time.Hour,
		VestPeriod:     30 * 24 * time.Hour,
		MonthlyUnlocks: 21,
	}
}

// Ledger is one deployed vesting contract instance.
type Ledger struct {
	env     *chain.Env
	address common.Address
	token   *token.Token

	st state
}

type state struct {
	Owner       common.Address             `json:"owner"`
	Crowdsale   common.Address             `json:"crowdsale"`
	Params      Params                     `json:"params"`
	Initiated   bool                       `json:"initiated"`
	InitiatedAt time.Time                  `json:"initiatedAt,omitempty"`
	Vests       map[common.Address]*Record `json:"vests"`
}

// New deploys a vesting ledger bound to the token it disburses.
func New(env *chain.Env, tok *token.Token, owner common.Address, params Params) *Ledger {
	l := &Ledger{
		env:     env,
		address: chain.ContractAddress("tokens-vesting"),
		token:   tok,
		st: state{
			Owner:  owner,
			Params: params,
			Vests:  make(map[common.Address]*Record),
		},
	}
	env.Register(l)
	return l
}

// Address returns the contract address. Tokens to be disbursed must be
// transferred here, and native purchase proceeds accumulate here.
func (l *Ledger) Address() common.Address { return l.address }

// Owner returns the current owner.
func (l *Ledger) Owner() common.Address { return l.st.Owner }

// Params returns the configured schedule.
func (l *Ledger) Params() Params { return l.st.Params }

// Initiated reports whether the crowdsale has ended and initial unlocks may
// begin.
func (l *Ledger) Initiated() bool { return l.st.Initiated }

// Vest returns a copy of the account's vest record, or nil if the account
// never vested.
func (l *Ledger) Vest(account common.Address) *Record {
	if r, ok := l.st.Vests[account]; ok {
		return r.clone()
	}
	return nil
}

// SetCrowdsaleAddress binds the crowdsale contract allowed to record vests.
func (l *Ledger) SetCrowdsaleAddress(caller, crowdsale common.Address) error {
	return l.env.Execute(func() error {
		if caller != l.st.Owner {
			return ErrUnauthorized
		}
		l.st.Crowdsale = crowdsale
		return nil
	})
}

// SetInitialPeriod changes the delay before initial unlocks.
func (l *Ledger) SetInitialPeriod(caller common.Address, d time.Duration) error {
	return l.env.Execute(func() error {
		if caller != l.st.Owner {
			return ErrUnauthorized
		}
		l.st.Params.InitialPeriod = d
		return nil
	})
}

// SetVestPeriod changes the spacing between monthly unlocks.
func (l *Ledger) SetVestPeriod(caller common.Address, d time.Duration) error {
	return l.env.Execute(func() error {
		if caller != l.st.Owner {
			return ErrUnauthorized
		}
		l.st.Params.VestPeriod = d
		return nil
	})
}

// RecordVest adds a purchase to the buyer's round bucket. Only the bound
// crowdsale contract may call it.
func (l *Ledger) RecordVest(caller, account common.Address, tokens *big.Int, round int) error {
	return l.env.Execute(func() error {
		return l.recordVest(caller, account, tokens, round)
	})
}

// InitialUnlock releases the round-rated initial fraction to the caller and
// absorbs the round buckets into the locked total. Accounts that never vested
// succeed with a zero transfer; that no-op is deliberate.
func (l *Ledger) InitialUnlock(account common.Address) error {
	return l.env.Execute(func() error {
		return l.initialUnlock(account)
	})
}

// MonthlyUnlock releases the next linear tranche of the locked remainder.
func (l *Ledger) MonthlyUnlock(account common.Address) error {
	return l.env.Execute(func() error {
		return l.monthlyUnlock(account)
	})
}

// Withdraw sweeps the ledger's whole native balance to the owner.
func (l *Ledger) Withdraw(caller common.Address) error {
	return l.env.Execute(func() error {
		if caller != l.st.Owner {
			return ErrUnauthorized
		}
		bal := l.env.NativeBalanceOf(l.address)
		if bal.Sign() == 0 {
			return nil
		}
		return l.env.TransferNative(l.address, l.st.Owner, bal)
	})
}

// --- raw operations, called inside an enclosing transaction ---

// RawRecordVest is the in-transaction form of RecordVest, used by the sale
// engine during a purchase.
func (l *Ledger) RawRecordVest(caller, account common.Address, tokens *big.Int, round int) error {
	return l.recordVest(caller, account, tokens, round)
}

// RawInitiate marks the crowdsale as ended, opening initial unlocks. One-shot:
// a second initiation fails. Called by the sale engine inside EndCrowdsale.
func (l *Ledger) RawInitiate(caller common.Address) error {
	if caller != l.st.Crowdsale {
		return ErrOnlyCrowdsale
	}
	if l.st.Initiated {
		return ErrAlreadyInitiated
	}
	l.st.Initiated = true
	l.st.InitiatedAt = l.env.Now()
	return nil
}

func (l *Ledger) recordVest(caller, account common.Address, tokens *big.Int, round int) error {
	if caller != l.st.Crowdsale {
		return ErrOnlyCrowdsale
	}
	if round < 0 || round >= RoundCount {
		return fmt.Errorf("round index %d out of range", round)
	}
	if tokens.Sign() <= 0 {
		return fmt.Errorf("vest amount must be positive")
	}
	r := l.st.Vests[account]
	if r == nil {
		r = newRecord(l.env.Now())
		l.st.Vests[account] = r
	}
	r.Rounds[round].Add(r.Rounds[round], tokens)
	r.Locked.Add(r.Locked, tokens)
	r.TotalVest.Add(r.TotalVest, tokens)
	return nil
}

func (l *Ledger) initialUnlock(account common.Address) error {
	r := l.st.Vests[account]
	if r == nil || r.TotalVest.Sign() == 0 {
		return nil
	}
	if r.InitialDone {
		return ErrInitialUnlockDone
	}
	if !l.st.Initiated {
		return ErrNotYetEligible
	}
	if l.env.Now().Before(r.CreatedAt.Add(l.st.Params.InitialPeriod)) {
		return ErrUnlockTooEarly
	}

	unlocked := new(big.Int)
	for i, bucket := range r.Rounds {
		share := new(big.Int).Mul(bucket, big.NewInt(l.st.Params.InitialBps[i]))
		share.Div(share, big.NewInt(10_000))
		unlocked.Add(unlocked, share)
		bucket.SetInt64(0)
	}

	r.Locked.Sub(r.Locked, unlocked)
	r.Unlocked.Add(r.Unlocked, unlocked)
	r.InitialDone = true
	r.LastUnlock = l.env.Now()

	return l.token.RawTransfer(l.address, account, unlocked)
}

func (l *Ledger) monthlyUnlock(account common.Address) error {
	r := l.st.Vests[account]
	if r == nil || !r.InitialDone {
		return ErrInitialUnlockRequired
	}
	if r.Locked.Sign() == 0 {
		return ErrAllUnlocked
	}
	if l.st.Params.VestPeriod > 0 &&
		l.env.Now().Before(r.LastUnlock.Add(l.st.Params.VestPeriod)) {
		return ErrUnlockTooEarly
	}

	remaining := l.st.Params.MonthlyUnlocks - r.MonthsUnlocked
	if remaining < 1 {
		// Schedule exhausted with residue left only if the schedule was
		// shortened mid-flight; drain in one step.
		remaining = 1
	}
	tranche := new(big.Int).Div(r.Locked, big.NewInt(int64(remaining)))

	r.Locked.Sub(r.Locked, tranche)
	r.Unlocked.Add(r.Unlocked, tranche)
	r.MonthsUnlocked++
	r.LastUnlock = l.env.Now()

	return l.token.RawTransfer(l.address, account, tranche)
}

// --- snapshot / persistence ---

// Snapshot returns a deep copy of the mutable state.
func (l *Ledger) Snapshot() any {
	out := l.st
	out.Vests = make(map[common.Address]*Record, len(l.st.Vests))
	for a, r := range l.st.Vests {
		out.Vests[a] = r.clone()
	}
	return &out
}

// Restore replaces the mutable state with a snapshot.
func (l *Ledger) Restore(s any) {
	l.st = *s.(*state)
}

// State is the serializable form of the ledger.
type State struct {
	Owner       string             `json:"owner"`
	Crowdsale   string             `json:"crowdsale"`
	Params      Params             `json:"params"`
	Initiated   bool               `json:"initiated"`
	InitiatedAt time.Time          `json:"initiatedAt,omitempty"`
	Vests       map[string]*Record `json:"vests"`
}

// Export returns the ledger state in serializable form.
func (l *Ledger) Export() State {
	out := State{
		Owner:       l.st.Owner.Hex(),
		Crowdsale:   l.st.Crowdsale.Hex(),
		Params:      l.st.Params,
		Initiated:   l.st.Initiated,
		InitiatedAt: l.st.InitiatedAt,
		Vests:       make(map[string]*Record, len(l.st.Vests)),
	}
	for a, r := range l.st.Vests {
		out.Vests[a.Hex()] = r.clone()
	}
	return out
}

// Import replaces the ledger state with a previously exported state.
func (l *Ledger) Import(s State) {
	l.st = state{
		Owner:       common.HexToAddress(s.Owner),
		Crowdsale:   common.HexToAddress(s.Crowdsale),
		Params:      s.Params,
		Initiated:   s.Initiated,
		InitiatedAt: s.InitiatedAt,
		Vests:       make(map[common.Address]*Record, len(s.Vests)),
	}
	for a, r := range s.Vests {
		l.st.Vests[common.HexToAddress(a)] = r.clone()
	}
}
