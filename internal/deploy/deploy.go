// Package deploy wires the contract models together in dependency order —
// token, then vesting bound to the token, then the crowdsale bound to both
// and to the three payment assets, then the crowdsale address registered with
// the vesting ledger — and persists the whole world between CLI invocations.
package deploy

import (
	"fmt"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/chain"
	"github.com/ecogames/ecosale/internal/config"
	"github.com/ecogames/ecosale/internal/sale"
	"github.com/ecogames/ecosale/internal/token"
	"github.com/ecogames/ecosale/internal/vesting"
	"github.com/ethereum/go-ethereum/common"
)

// stablecoinSupply is the demo-environment mint for each payment asset, in
// whole units.
const stablecoinSupply = 100_000_000

// World is a fully wired deployment.
type World struct {
	Env     *chain.Env
	Eco     *token.Token
	Dai     *token.Token
	Usdt    *token.Token
	Usdc    *token.Token
	Vesting *vesting.Ledger
	Sale    *sale.Engine
}

// Wire deploys everything against a fresh environment. The owner receives
// the token genesis supply and the whole stablecoin float.
func Wire(cfg *config.Config, clock chain.Clock, owner common.Address) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	env := chain.NewEnv(clock)

	eco := token.New(env, cfg.Token.Name, cfg.Token.Symbol, cfg.Token.Decimals,
		owner, cfg.GenesisSupply(),
		token.WithBurnSchedule(cfg.BurnAmount(), env.Now().Add(cfg.BurnInterval()), cfg.BurnInterval()))

	dai := token.New(env, "Dai", "DAI", 18, owner, amount.Units(stablecoinSupply, 18))
	usdt := token.New(env, "Tether", "USDT", 6, owner, amount.Units(stablecoinSupply, 6))
	usdc := token.New(env, "USD Coin", "USDC", 6, owner, amount.Units(stablecoinSupply, 6))

	vest := vesting.New(env, eco, owner, cfg.VestingParams())
	engine := sale.New(env, vest, owner, map[string]*token.Token{
		"dai":  dai,
		"usdt": usdt,
		"usdc": usdc,
	}, cfg.SaleConfig())

	if err := vest.SetCrowdsaleAddress(owner, engine.Address()); err != nil {
		return nil, fmt.Errorf("binding crowdsale address: %w", err)
	}

	return &World{
		Env:     env,
		Eco:     eco,
		Dai:     dai,
		Usdt:    usdt,
		Usdc:    usdc,
		Vesting: vest,
		Sale:    engine,
	}, nil
}

// Asset resolves a payment-asset symbol to its ledger.
func (w *World) Asset(symbol string) (*token.Token, error) {
	switch symbol {
	case "dai":
		return w.Dai, nil
	case "usdt":
		return w.Usdt, nil
	case "usdc":
		return w.Usdc, nil
	default:
		return nil, fmt.Errorf("unknown payment asset %q (dai, usdt, usdc)", symbol)
	}
}
