package amount_test

import (
	"math/big"
	"testing"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	x, err := amount.ParseDecimal("10.00125", 18)
	require.NoError(t, err)
	assert.Equal(t, "10001250000000000000", x.String())

	x, err = amount.ParseDecimal("2667", 18)
	require.NoError(t, err)
	assert.Equal(t, "2667000000000000000000", x.String())

	x, err = amount.ParseDecimal("0.000001", 6)
	require.NoError(t, err)
	assert.Equal(t, "1", x.String())
}

func TestParseDecimalRejectsBadInput(t *testing.T) {
	_, err := amount.ParseDecimal("", 18)
	assert.Error(t, err)

	_, err = amount.ParseDecimal("-5", 18)
	assert.Error(t, err)

	_, err = amount.ParseDecimal("1.1234567", 6)
	assert.Error(t, err, "too many fractional digits must not truncate silently")

	_, err = amount.ParseDecimal("abc", 18)
	assert.Error(t, err)
}

func TestFormatRoundTrip(t *testing.T) {
	x, err := amount.ParseDecimal("10.00125", 18)
	require.NoError(t, err)
	assert.Equal(t, "10.00125", amount.Format(x, 18))

	assert.Equal(t, "2667", amount.Format(amount.Units(2667, 18), 18))
	assert.Equal(t, "0.5", amount.Format(big.NewInt(500000), 6))
}

func TestScaleTo18(t *testing.T) {
	// 10.00125 USDT in 6-decimal base units.
	usdt := big.NewInt(10_001_250)
	assert.Equal(t, "10001250000000000000", amount.ScaleTo18(usdt, 6).String())

	dai, err := amount.ParseDecimal("10.00125", 18)
	require.NoError(t, err)
	assert.Equal(t, dai.String(), amount.ScaleTo18(dai, 18).String())
}

func TestApplyBps(t *testing.T) {
	total := amount.Units(1000, 18)

	assert.Equal(t, amount.Units(50, 18).String(), amount.ApplyBps(total, 500).String())
	assert.Equal(t, amount.Units(75, 18).String(), amount.ApplyBps(total, 750).String())
	assert.Equal(t, amount.Units(100, 18).String(), amount.ApplyBps(total, 1000).String())

	// Floors, never rounds up.
	assert.Equal(t, "0", amount.ApplyBps(big.NewInt(19), 500).String())
}

func TestUnits(t *testing.T) {
	genesis := amount.Units(120_000_000_000, 18)
	assert.Equal(t, "120000000000000000000000000000", genesis.String())
}
