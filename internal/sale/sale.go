// Package sale models the crowdsale engine: a tiered-rate, multi-round,
// multi-asset purchase state machine. It validates session state, the 10 USD
// minimum, the per-account native-equivalent cap, and the active round's
// cumulative supply ceiling, then records the allocation with the vesting
// ledger and routes payment to the beneficiary.
package sale

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/chain"
	"github.com/ecogames/ecosale/internal/token"
	"github.com/ecogames/ecosale/internal/vesting"
	"github.com/ethereum/go-ethereum/common"
)

// Errors.
var (
	ErrUnauthorized        = errors.New("crowdsale: caller is not the owner")
	ErrSaleInactive        = errors.New("sale round is over or has not started")
	ErrSalePaused          = errors.New("crowdsale has paused")
	ErrSaleEnded           = errors.New("crowdsale has ended")
	ErrBelowMinimum        = errors.New("buy amount must be above 10 USD")
	ErrInsufficientPayment = errors.New("not enough native value sent")
	ErrRoundLimitExceeded  = errors.New("amount exceeds sale round limit")
	ErrAccountCapExceeded  = errors.New("balance cannot exceed 1 native unit")
	ErrUnknownAsset        = errors.New("unknown payment asset")
	ErrBadRound            = errors.New("round index must advance forward")
)

// Status is the sale session state.
type Status int

// Session states.
const (
	NotStarted Status = iota
	Active
	Paused
	Ended
	Expired
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Active:
		return "active"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Round is one pricing/supply tier.
type Round struct {
	// PriceUSD is the USD price per token scaled by amount.PriceScale:
	// 375 means $0.00375 per token.
	PriceUSD int64 `json:"priceUSD"`
	// Ceiling is the cumulative token-supply cap (18-decimal base units)
	// while this round is active. A purchase pushing TokensRaised above it
	// is rejected outright, never clamped.
	Ceiling *big.Int `json:"ceiling"`
	// Duration is the sale window re-opened when this round is initiated.
	Duration time.Duration `json:"duration"`
}

// Config parameterizes the engine.
type Config struct {
	Rounds []Round `json:"rounds"`
	// NativeRateUSD is the externally supplied exchange rate: whole USD per
	// native unit (e.g. 1420).
	NativeRateUSD int64 `json:"nativeRateUSD"`
	// MinPurchaseUSD is the 18-decimal USD floor per purchase, boundary
	// inclusive.
	MinPurchaseUSD *big.Int `json:"minPurchaseUSD"`
	// AccountCapNative is the per-account cumulative cap in native base
	// units (1 native unit).
	AccountCapNative *big.Int `json:"accountCapNative"`
}

// DefaultConfig returns the launch sale parameters.
func DefaultConfig() Config {
	return Config{
		Rounds: []Round{
			{PriceUSD: 375, Ceiling: amount.Units(300_000_000, 18), Duration: 30 * 24 * time.Hour},
			{PriceUSD: 500, Ceiling: amount.Units(900_000_000, 18), Duration: 30 * 24 * time.Hour},
			{PriceUSD: 625, Ceiling: amount.Units(1_800_000_000, 18), Duration: 30 * 24 * time.Hour},
		},
		NativeRateUSD:    1420,
		MinPurchaseUSD:   amount.Units(10, 18),
		AccountCapNative: amount.Units(1, 18),
	}
}

// Engine is one deployed crowdsale instance.
type Engine struct {
	env     *chain.Env
	address common.Address
	vesting *vesting.Ledger
	assets  map[string]*token.Token

	st state
}

type state struct {
	Owner       common.Address `json:"owner"`
	Beneficiary common.Address `json:"beneficiary"`
	Config      Config         `json:"config"`

	Started        bool          `json:"started"`
	Paused         bool          `json:"paused"`
	Ended          bool          `json:"ended"`
	ActiveRound    int           `json:"activeRound"`
	PeriodStart    time.Time     `json:"periodStart,omitempty"`
	PeriodDuration time.Duration `json:"periodDuration,omitempty"`

	TokensRaised *big.Int                    `json:"tokensRaised"`
	NativeSpent  map[common.Address]*big.Int `json:"nativeSpent"`
}

// New deploys a crowdsale engine. assets maps payment-asset symbols (their
// quoting decimals come from the tokens themselves) to stablecoin ledgers;
// the beneficiary receives stablecoin proceeds, the vesting ledger receives
// native proceeds.
func New(env *chain.Env, vest *vesting.Ledger, owner common.Address, assets map[string]*token.Token, cfg Config) *Engine {
	e := &Engine{
		env:     env,
		address: chain.ContractAddress("crowdsale"),
		vesting: vest,
		assets:  assets,
		st: state{
			Owner:        owner,
			Beneficiary:  owner,
			Config:       cfg,
			TokensRaised: new(big.Int),
			NativeSpent:  make(map[common.Address]*big.Int),
		},
	}
	env.Register(e)
	return e
}

// Address returns the contract address.
func (e *Engine) Address() common.Address { return e.address }

// Owner returns the current owner.
func (e *Engine) Owner() common.Address { return e.st.Owner }

// Config returns the engine parameters.
func (e *Engine) Config() Config { return e.st.Config }

// ActiveRound returns the current round index.
func (e *Engine) ActiveRound() int { return e.st.ActiveRound }

// TokensRaised returns the cumulative tokens allocated across all rounds.
func (e *Engine) TokensRaised() *big.Int { return new(big.Int).Set(e.st.TokensRaised) }

// NativeSpent returns the buyer's cumulative native-equivalent spend.
func (e *Engine) NativeSpent(buyer common.Address) *big.Int {
	if b, ok := e.st.NativeSpent[buyer]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// PeriodEnd returns when the current sale window closes.
func (e *Engine) PeriodEnd() time.Time {
	return e.st.PeriodStart.Add(e.st.PeriodDuration)
}

// Status derives the session state from the flags and the sale window.
func (e *Engine) Status() Status {
	switch {
	case e.st.Ended:
		return Ended
	case !e.st.Started:
		return NotStarted
	case e.st.Paused:
		return Paused
	case !e.env.Now().Before(e.PeriodEnd()):
		return Expired
	default:
		return Active
	}
}

// StartSalePeriod opens the sale window for the active round.
func (e *Engine) StartSalePeriod(caller common.Address, duration time.Duration) error {
	return e.env.Execute(func() error {
		if caller != e.st.Owner {
			return ErrUnauthorized
		}
		if e.st.Ended {
			return ErrSaleEnded
		}
		e.st.Started = true
		e.st.PeriodStart = e.env.Now()
		e.st.PeriodDuration = duration
		return nil
	})
}

// TogglePauseCrowdsale flips the paused flag.
func (e *Engine) TogglePauseCrowdsale(caller common.Address) error {
	return e.env.Execute(func() error {
		if caller != e.st.Owner {
			return ErrUnauthorized
		}
		if e.st.Ended {
			return ErrSaleEnded
		}
		e.st.Paused = !e.st.Paused
		return nil
	})
}

// InitiateRound advances to a later round and re-opens the sale window with
// that round's configured duration. Rounds are never revisited and never
// advance on their own.
func (e *Engine) InitiateRound(caller common.Address, index int) error {
	return e.env.Execute(func() error {
		if caller != e.st.Owner {
			return ErrUnauthorized
		}
		if e.st.Ended {
			return ErrSaleEnded
		}
		if index <= e.st.ActiveRound || index >= len(e.st.Config.Rounds) {
			return fmt.Errorf("%w: have %d, got %d", ErrBadRound, e.st.ActiveRound, index)
		}
		e.st.ActiveRound = index
		e.st.PeriodStart = e.env.Now()
		e.st.PeriodDuration = e.st.Config.Rounds[index].Duration
		return nil
	})
}

// EndCrowdsale terminates the sale and signals the vesting ledger that
// initial unlocks may begin. One-shot: the vesting ledger rejects a second
// initiation, which rolls the whole call back.
func (e *Engine) EndCrowdsale(caller common.Address) error {
	return e.env.Execute(func() error {
		if caller != e.st.Owner {
			return ErrUnauthorized
		}
		e.st.Ended = true
		return e.vesting.RawInitiate(e.address)
	})
}

// BuyWithStable purchases tokens with a configured stablecoin. amount is in
// the asset's own base units (6- or 18-decimal) and is assumed 1:1 USD.
// Payment is pulled via transferFrom, so the buyer must have approved the
// crowdsale address first.
func (e *Engine) BuyWithStable(buyer common.Address, asset string, value *big.Int) error {
	return e.env.Execute(func() error {
		tok, ok := e.assets[asset]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownAsset, asset)
		}
		usd := amount.ScaleTo18(value, tok.Decimals())
		if err := e.gate(usd); err != nil {
			return err
		}
		if err := e.allocate(buyer, usd); err != nil {
			return err
		}
		return tok.RawTransferFrom(e.address, buyer, e.st.Beneficiary, value)
	})
}

// BuyWithNative purchases tokens with the native asset. usd is the claimed
// 18-decimal USD amount; valueSent is the native value sent with the call,
// which must cover usd at the configured rate and is routed to the vesting
// ledger.
func (e *Engine) BuyWithNative(buyer common.Address, usd, valueSent *big.Int) error {
	return e.env.Execute(func() error {
		if err := e.gate(usd); err != nil {
			return err
		}
		required := new(big.Int).Div(usd, big.NewInt(e.st.Config.NativeRateUSD))
		if valueSent.Cmp(required) < 0 {
			return ErrInsufficientPayment
		}
		if err := e.allocate(buyer, usd); err != nil {
			return err
		}
		return e.env.TransferNative(buyer, e.vesting.Address(), valueSent)
	})
}

// gate rejects purchases when the session is inactive or the USD-equivalent
// amount is below the minimum. Runs inside the caller's transaction.
func (e *Engine) gate(usd *big.Int) error {
	switch e.Status() {
	case Active:
	case Paused:
		return fmt.Errorf("%w: %v", ErrSaleInactive, ErrSalePaused)
	default:
		return ErrSaleInactive
	}
	if usd.Cmp(e.st.Config.MinPurchaseUSD) < 0 {
		return ErrBelowMinimum
	}
	return nil
}

// allocate computes the token allocation at the active rate, enforces the
// round ceiling and the per-account cap, records the vest, and bumps
// TokensRaised. Runs inside the caller's transaction.
func (e *Engine) allocate(buyer common.Address, usd *big.Int) error {
	round := e.st.Config.Rounds[e.st.ActiveRound]
	allocation := new(big.Int).Mul(usd, big.NewInt(amount.PriceScale))
	allocation.Div(allocation, big.NewInt(round.PriceUSD))

	raised := new(big.Int).Add(e.st.TokensRaised, allocation)
	if raised.Cmp(round.Ceiling) > 0 {
		return ErrRoundLimitExceeded
	}

	spend := new(big.Int).Div(usd, big.NewInt(e.st.Config.NativeRateUSD))
	spent := e.st.NativeSpent[buyer]
	if spent == nil {
		spent = new(big.Int)
		e.st.NativeSpent[buyer] = spent
	}
	if new(big.Int).Add(spent, spend).Cmp(e.st.Config.AccountCapNative) > 0 {
		return ErrAccountCapExceeded
	}

	if err := e.vesting.RawRecordVest(e.address, buyer, allocation, e.st.ActiveRound); err != nil {
		return err
	}
	spent.Add(spent, spend)
	e.st.TokensRaised.Set(raised)
	return nil
}

// --- snapshot / persistence ---

// Snapshot returns a deep copy of the mutable state.
func (e *Engine) Snapshot() any {
	out := e.st
	out.TokensRaised = new(big.Int).Set(e.st.TokensRaised)
	out.NativeSpent = make(map[common.Address]*big.Int, len(e.st.NativeSpent))
	for a, b := range e.st.NativeSpent {
		out.NativeSpent[a] = new(big.Int).Set(b)
	}
	out.Config.Rounds = append([]Round(nil), e.st.Config.Rounds...)
	for i := range out.Config.Rounds {
		out.Config.Rounds[i].Ceiling = new(big.Int).Set(e.st.Config.Rounds[i].Ceiling)
	}
	out.Config.MinPurchaseUSD = new(big.Int).Set(e.st.Config.MinPurchaseUSD)
	out.Config.AccountCapNative = new(big.Int).Set(e.st.Config.AccountCapNative)
	return &out
}

// Restore replaces the mutable state with a snapshot.
func (e *Engine) Restore(s any) {
	e.st = *s.(*state)
}

// State is the serializable form of the engine.
type State struct {
	Owner          string              `json:"owner"`
	Beneficiary    string              `json:"beneficiary"`
	Config         Config              `json:"config"`
	Started        bool                `json:"started"`
	Paused         bool                `json:"paused"`
	Ended          bool                `json:"ended"`
	ActiveRound    int                 `json:"activeRound"`
	PeriodStart    time.Time           `json:"periodStart,omitempty"`
	PeriodDuration time.Duration       `json:"periodDuration,omitempty"`
	TokensRaised   *big.Int            `json:"tokensRaised"`
	NativeSpent    map[string]*big.Int `json:"nativeSpent"`
}

// Export returns the engine state in serializable form.
func (e *Engine) Export() State {
	out := State{
		Owner:          e.st.Owner.Hex(),
		Beneficiary:    e.st.Beneficiary.Hex(),
		Config:         e.st.Config,
		Started:        e.st.Started,
		Paused:         e.st.Paused,
		Ended:          e.st.Ended,
		ActiveRound:    e.st.ActiveRound,
		PeriodStart:    e.st.PeriodStart,
		PeriodDuration: e.st.PeriodDuration,
		TokensRaised:   new(big.Int).Set(e.st.TokensRaised),
		NativeSpent:    make(map[string]*big.Int, len(e.st.NativeSpent)),
	}
	for a, b := range e.st.NativeSpent {
		out.NativeSpent[a.Hex()] = new(big.Int).Set(b)
	}
	return out
}

// Import replaces the engine state with a previously exported state.
func (e *Engine) Import(s State) {
	e.st = state{
		Owner:          common.HexToAddress(s.Owner),
		Beneficiary:    common.HexToAddress(s.Beneficiary),
		Config:         s.Config,
		Started:        s.Started,
		Paused:         s.Paused,
		Ended:          s.Ended,
		ActiveRound:    s.ActiveRound,
		PeriodStart:    s.PeriodStart,
		PeriodDuration: s.PeriodDuration,
		TokensRaised:   new(big.Int).Set(s.TokensRaised),
		NativeSpent:    make(map[common.Address]*big.Int, len(s.NativeSpent)),
	}
	for a, b := range s.NativeSpent {
		e.st.NativeSpent[common.HexToAddress(a)] = new(big.Int).Set(b)
	}
}
