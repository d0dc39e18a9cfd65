package cmd

import (
	"fmt"
	"math/big"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ecogames/ecosale/internal/account"
	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/deploy"
	"github.com/ethereum/go-ethereum/common"
)

func newAccountManager() *account.Manager {
	return account.NewManager(filepath.Join(cfg.Dir(), "accounts.json"))
}

func loadWorld() (*deploy.World, error) {
	return deploy.Load(cfg.Dir(), cfg)
}

func saveWorld(w *deploy.World) error {
	return w.Save(cfg.Dir())
}

// resolveAddr turns an account name or a 0x-prefixed hex address into an
// address. Names are looked up in the account store.
func resolveAddr(arg string) (common.Address, error) {
	if strings.HasPrefix(arg, "0x") || strings.HasPrefix(arg, "0X") {
		if !common.IsHexAddress(arg) {
			return common.Address{}, fmt.Errorf("invalid address %q", arg)
		}
		return common.HexToAddress(arg), nil
	}
	acct, err := newAccountManager().Get(arg)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolving %q: %w", arg, err)
	}
	return acct.AddressBytes(), nil
}

// callerAddr resolves the --from account.
func callerAddr() (common.Address, error) {
	return resolveAddr(fromName)
}

// parseDuration accepts Go durations plus a day suffix: "30d", "72h", "90m".
func parseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// vestedTotal returns an account's lifetime vested tokens, zero when the
// account never vested.
func vestedTotal(w *deploy.World, addr common.Address) *big.Int {
	if r := w.Vesting.Vest(addr); r != nil {
		return new(big.Int).Set(r.TotalVest)
	}
	return new(big.Int)
}

// fmtTokens renders an 18-decimal amount with its symbol.
func fmtTokens(x *big.Int, symbol string) string {
	return fmtUnits(x, 18, symbol)
}

func fmtUnits(x *big.Int, decimals int, symbol string) string {
	return amount.Format(x, decimals) + " " + symbol
}

// priceLabel renders a scaled per-token USD price, e.g. 375 -> "$0.00375".
func priceLabel(scaled int64) string {
	return "$" + amount.Format(big.NewInt(scaled), 5)
}
