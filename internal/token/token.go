// Package token models a fungible balance ledger with ERC-20 semantics plus
// the Eco Games extensions: a single genesis mint, an owner-gated and
// time-gated burn, single-step ownership transfer, and forwarding of any
// native value sent to the contract straight to the current owner.
package token

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ecogames/ecosale/internal/chain"
	"github.com/ethereum/go-ethereum/common"
)

// Errors.
var (
	ErrUnauthorized          = errors.New("caller is not the owner")
	ErrBurnTooEarly          = errors.New("burn date has not reached")
	ErrBurnNotConfigured     = errors.New("token has no burn schedule")
	ErrInsufficientBalance   = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Token is one deployed token-ledger instance.
type Token struct {
	env     *chain.Env
	address common.Address

	name     string
	symbol   string
	decimals int

	st state
}

// state is the mutable, snapshottable part of a Token.
type state struct {
	Owner       common.Address                                 `json:"owner"`
	TotalSupply *big.Int                                       `json:"totalSupply"`
	Balances    map[common.Address]*big.Int                    `json:"balances"`
	Allowances  map[common.Address]map[common.Address]*big.Int `json:"allowances"`

	// Burn schedule. BurnAmount nil means the token cannot burn. Each
	// successful burn pushes BurnDate forward by BurnInterval; nothing else
	// records that a burn happened, so another burn becomes possible once
	// the interval elapses again. That quirk belongs to the modeled system
	// and is kept as-is.
	BurnAmount   *big.Int      `json:"burnAmount,omitempty"`
	BurnDate     time.Time     `json:"burnDate,omitempty"`
	BurnInterval time.Duration `json:"burnInterval,omitempty"`
}

// Option configures token construction.
type Option func(*Token)

// WithBurnSchedule arms the burn: amount destroyed per burn, first eligible
// date, and the interval added after each successful burn.
func WithBurnSchedule(amount *big.Int, firstDate time.Time, interval time.Duration) Option {
	return func(t *Token) {
		t.st.BurnAmount = new(big.Int).Set(amount)
		t.st.BurnDate = firstDate
		t.st.BurnInterval = interval
	}
}

// New deploys a token ledger: the entire genesis supply is minted to owner at
// construction and never again. Native value sent to the contract address is
// forwarded to the current owner atomically with receipt.
func New(env *chain.Env, name, symbol string, decimals int, owner common.Address, genesisSupply *big.Int, opts ...Option) *Token {
	t := &Token{
		env:      env,
		address:  chain.ContractAddress(symbol),
		name:     name,
		symbol:   symbol,
		decimals: decimals,
		st: state{
			Owner:       owner,
			TotalSupply: new(big.Int).Set(genesisSupply),
			Balances:    map[common.Address]*big.Int{owner: new(big.Int).Set(genesisSupply)},
			Allowances:  make(map[common.Address]map[common.Address]*big.Int),
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	env.Register(t)
	env.SetReceiveHook(t.address, func(from common.Address, value *big.Int) error {
		return env.TransferNative(t.address, t.st.Owner, value)
	})
	return t
}

// Address returns the contract address.
func (t *Token) Address() common.Address { return t.address }

// Name returns the token name.
func (t *Token) Name() string { return t.name }

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return t.symbol }

// Decimals returns the fixed-point precision of balances.
func (t *Token) Decimals() int { return t.decimals }

// Owner returns the current owner.
func (t *Token) Owner() common.Address { return t.st.Owner }

// TotalSupply returns the current total supply.
func (t *Token) TotalSupply() *big.Int { return new(big.Int).Set(t.st.TotalSupply) }

// BalanceOf returns the balance of account.
func (t *Token) BalanceOf(account common.Address) *big.Int {
	if b, ok := t.st.Balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// BurnSchedule returns the per-burn amount and the next burn date. The
// amount is nil when the token has no burn schedule.
func (t *Token) BurnSchedule() (*big.Int, time.Time) {
	if t.st.BurnAmount == nil {
		return nil, time.Time{}
	}
	return new(big.Int).Set(t.st.BurnAmount), t.st.BurnDate
}

// Allowance returns how much spender may pull from account.
func (t *Token) Allowance(account, spender common.Address) *big.Int {
	if m, ok := t.st.Allowances[account]; ok {
		if a, ok := m[spender]; ok {
			return new(big.Int).Set(a)
		}
	}
	return new(big.Int)
}

// Transfer moves amount from the caller to another account.
func (t *Token) Transfer(caller, to common.Address, amount *big.Int) error {
	return t.env.Execute(func() error {
		return t.transfer(caller, to, amount)
	})
}

// Approve lets spender pull up to amount from the caller's balance.
func (t *Token) Approve(caller, spender common.Address, amount *big.Int) error {
	return t.env.Execute(func() error {
		t.approve(caller, spender, amount)
		return nil
	})
}

// TransferFrom moves amount from one account to another on the caller's
// authority, consuming allowance.
func (t *Token) TransferFrom(caller, from, to common.Address, amount *big.Int) error {
	return t.env.Execute(func() error {
		return t.transferFrom(caller, from, to, amount)
	})
}

// Burn destroys the scheduled burn amount from the owner's balance. Only the
// owner may call it, and only once the burn date has been reached.
func (t *Token) Burn(caller common.Address) error {
	return t.env.Execute(func() error {
		if t.st.BurnAmount == nil {
			return ErrBurnNotConfigured
		}
		if caller != t.st.Owner {
			return fmt.Errorf("%s: %w", t.name, ErrUnauthorized)
		}
		if t.env.Now().Before(t.st.BurnDate) {
			return ErrBurnTooEarly
		}
		bal := t.st.Balances[t.st.Owner]
		if bal == nil || bal.Cmp(t.st.BurnAmount) < 0 {
			return fmt.Errorf("burn: %w", ErrInsufficientBalance)
		}
		bal.Sub(bal, t.st.BurnAmount)
		t.st.TotalSupply.Sub(t.st.TotalSupply, t.st.BurnAmount)
		t.st.BurnDate = t.st.BurnDate.Add(t.st.BurnInterval)
		return nil
	})
}

// TransferOwnership reassigns the owner. Single-step, no acceptance.
func (t *Token) TransferOwnership(caller, newOwner common.Address) error {
	return t.env.Execute(func() error {
		if caller != t.st.Owner {
			return fmt.Errorf("%s: %w", t.name, ErrUnauthorized)
		}
		t.st.Owner = newOwner
		return nil
	})
}

// --- raw operations, called inside an enclosing transaction ---

func (t *Token) transfer(from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("negative transfer amount")
	}
	bal := t.st.Balances[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		return fmt.Errorf("%s: %w", t.symbol, ErrInsufficientBalance)
	}
	bal.Sub(bal, amount)
	toBal := t.st.Balances[to]
	if toBal == nil {
		toBal = new(big.Int)
		t.st.Balances[to] = toBal
	}
	toBal.Add(toBal, amount)
	return nil
}

func (t *Token) approve(account, spender common.Address, amount *big.Int) {
	m := t.st.Allowances[account]
	if m == nil {
		m = make(map[common.Address]*big.Int)
		t.st.Allowances[account] = m
	}
	m[spender] = new(big.Int).Set(amount)
}

func (t *Token) transferFrom(spender, from, to common.Address, amount *big.Int) error {
	allowed := t.st.Allowances[from][spender]
	if allowed == nil || allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%s: %w", t.symbol, ErrInsufficientAllowance)
	}
	if err := t.transfer(from, to, amount); err != nil {
		return err
	}
	allowed.Sub(allowed, amount)
	return nil
}

// Engine-facing raw entry points. The sale engine and vesting ledger call
// these inside their own transactions; the environment lock is already held.

// RawTransfer is the in-transaction form of Transfer.
func (t *Token) RawTransfer(from, to common.Address, amount *big.Int) error {
	return t.transfer(from, to, amount)
}

// RawTransferFrom is the in-transaction form of TransferFrom.
func (t *Token) RawTransferFrom(spender, from, to common.Address, amount *big.Int) error {
	return t.transferFrom(spender, from, to, amount)
}

// --- snapshot / persistence ---

// Snapshot returns a deep copy of the mutable state.
func (t *Token) Snapshot() any {
	return t.st.clone()
}

// Restore replaces the mutable state with a snapshot.
func (t *Token) Restore(s any) {
	t.st = *s.(*state)
}

func (s *state) clone() *state {
	out := &state{
		Owner:        s.Owner,
		TotalSupply:  new(big.Int).Set(s.TotalSupply),
		Balances:     make(map[common.Address]*big.Int, len(s.Balances)),
		Allowances:   make(map[common.Address]map[common.Address]*big.Int, len(s.Allowances)),
		BurnDate:     s.BurnDate,
		BurnInterval: s.BurnInterval,
	}
	if s.BurnAmount != nil {
		out.BurnAmount = new(big.Int).Set(s.BurnAmount)
	}
	for a, b := range s.Balances {
		out.Balances[a] = new(big.Int).Set(b)
	}
	for a, m := range s.Allowances {
		cp := make(map[common.Address]*big.Int, len(m))
		for sp, v := range m {
			cp[sp] = new(big.Int).Set(v)
		}
		out.Allowances[a] = cp
	}
	return out
}

// State is the serializable form of a token ledger.
type State struct {
	Owner        string                         `json:"owner"`
	TotalSupply  *big.Int                       `json:"totalSupply"`
	Balances     map[string]*big.Int            `json:"balances"`
	Allowances   map[string]map[string]*big.Int `json:"allowances,omitempty"`
	BurnAmount   *big.Int                       `json:"burnAmount,omitempty"`
	BurnDate     time.Time                      `json:"burnDate,omitempty"`
	BurnInterval time.Duration                  `json:"burnInterval,omitempty"`
}

// Export returns the ledger state in serializable form.
func (t *Token) Export() State {
	out := State{
		Owner:        t.st.Owner.Hex(),
		TotalSupply:  new(big.Int).Set(t.st.TotalSupply),
		Balances:     make(map[string]*big.Int, len(t.st.Balances)),
		Allowances:   make(map[string]map[string]*big.Int, len(t.st.Allowances)),
		BurnDate:     t.st.BurnDate,
		BurnInterval: t.st.BurnInterval,
	}
	if t.st.BurnAmount != nil {
		out.BurnAmount = new(big.Int).Set(t.st.BurnAmount)
	}
	for a, b := range t.st.Balances {
		out.Balances[a.Hex()] = new(big.Int).Set(b)
	}
	for a, m := range t.st.Allowances {
		cp := make(map[string]*big.Int, len(m))
		for sp, v := range m {
			cp[sp.Hex()] = new(big.Int).Set(v)
		}
		out.Allowances[a.Hex()] = cp
	}
	return out
}

// Import replaces the ledger state with a previously exported state.
func (t *Token) Import(s State) {
	t.st = state{
		Owner:        common.HexToAddress(s.Owner),
		TotalSupply:  new(big.Int).Set(s.TotalSupply),
		Balances:     make(map[common.Address]*big.Int, len(s.Balances)),
		Allowances:   make(map[common.Address]map[common.Address]*big.Int, len(s.Allowances)),
		BurnDate:     s.BurnDate,
		BurnInterval: s.BurnInterval,
	}
	if s.BurnAmount != nil {
		t.st.BurnAmount = new(big.Int).Set(s.BurnAmount)
	}
	for a, b := range s.Balances {
		t.st.Balances[common.HexToAddress(a)] = new(big.Int).Set(b)
	}
	for a, m := range s.Allowances {
		cp := make(map[common.Address]*big.Int, len(m))
		for sp, v := range m {
			cp[common.HexToAddress(sp)] = new(big.Int).Set(v)
		}
		t.st.Allowances[common.HexToAddress(a)] = cp
	}
}
