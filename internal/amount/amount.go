// Package amount provides integer-scaled fixed-point arithmetic for token,
// stablecoin, and native-asset quantities. All state arithmetic in the model
// stays on *big.Int; floating point is used nowhere.
package amount

import (
	"fmt"
	"math/big"
	"strings"
)

const (
	// TokenDecimals is the fixed-point precision of the Eco Games token,
	// the native asset, and normalized USD amounts.
	TokenDecimals = 18

	// PriceScale is the denominator of per-token USD prices: a round price
	// of 375 means $0.00375 per token.
	PriceScale = 100_000

	// BpsDenominator converts basis points to fractions (500 bps = 5%).
	BpsDenominator = 10_000
)

// Pow10 returns 10^n as a big.Int.
func Pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Units scales a whole-number quantity into base units at the given
// precision: Units(50_000_000, 18) is fifty million tokens in wei-style
// base units.
func Units(whole int64, decimals int) *big.Int {
	return new(big.Int).Mul(big.NewInt(whole), Pow10(decimals))
}

// ScaleTo18 renormalizes a base-unit amount quoted at the given precision
// into 18-decimal base units. Stablecoins quoted in 6 decimals gain 12
// zeroes; 18-decimal amounts pass through unchanged.
func ScaleTo18(x *big.Int, decimals int) *big.Int {
	if decimals == TokenDecimals {
		return new(big.Int).Set(x)
	}
	if decimals < TokenDecimals {
		return new(big.Int).Mul(x, Pow10(TokenDecimals-decimals))
	}
	return new(big.Int).Div(x, Pow10(decimals-TokenDecimals))
}

// ApplyBps returns x scaled by a basis-point fraction, flooring the result.
func ApplyBps(x *big.Int, bps int64) *big.Int {
	out := new(big.Int).Mul(x, big.NewInt(bps))
	return out.Div(out, big.NewInt(BpsDenominator))
}

// ParseDecimal parses a decimal string such as "10.00125" into base units at
// the given precision. More fractional digits than the precision allows is an
// error, not a silent truncation.
func ParseDecimal(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	neg := strings.HasPrefix(s, "-")
	if neg {
		return nil, fmt.Errorf("negative amount %q", s)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	out, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("could not parse amount %q", s)
	}
	return out, nil
}

// Format renders a base-unit amount as an exact decimal string, trimming
// trailing fractional zeroes.
func Format(x *big.Int, decimals int) string {
	if decimals <= 0 {
		return x.String()
	}
	q, r := new(big.Int).QuoRem(x, Pow10(decimals), new(big.Int))
	r.Abs(r)
	frac := strings.TrimRight(fmt.Sprintf("%0*s", decimals, r.String()), "0")
	if frac == "" {
		return q.String()
	}
	sign := ""
	if x.Sign() < 0 && q.Sign() == 0 {
		sign = "-"
	}
	return sign + q.String() + "." + frac
}
