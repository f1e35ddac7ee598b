// Package meanreversion implements the intraday mean-reversion entry signal:
// buy a PUT when the underlying is stretched above its trailing mean
// (overbought, expect reversion down), buy a CALL when stretched below.
package meanreversion

import (
	"time"

	"optionsbacktester/types"

	"github.com/shopspring/decimal"
)

const defaultWindow = 30

type Strategy struct {
	window int
	upper  decimal.Decimal
	lower  decimal.Decimal
}

// New returns the mean-reversion strategy with its standard constants:
// trailing mean over 30 observations and a 0.5% deviation band.
func New() *Strategy {
	return NewWithThresholds(decimal.NewFromFloat(1.005), decimal.NewFromFloat(0.995))
}

func NewWithThresholds(upper, lower decimal.Decimal) *Strategy {
	return &Strategy{window: defaultWindow, upper: upper, lower: lower}
}

func (s *Strategy) Name() string {
	return "Mean Reversion"
}

func (s *Strategy) Decide(_ time.Time, underlying decimal.Decimal, observations []types.Quote) (types.OptionType, bool) {
	if len(observations) < s.window {
		return types.OptionTypeNone, false
	}

	sum := decimal.Zero
	for _, q := range observations[len(observations)-s.window:] {
		sum = sum.Add(q.Underlying)
	}
	mean := sum.Div(decimal.NewFromInt(int64(s.window)))
	if !mean.IsPositive() {
		return types.OptionTypeNone, false
	}

	// Overbought: expect price to fall back to the mean.
	if underlying.GreaterThan(mean.Mul(s.upper)) {
		return types.OptionTypePut, true
	}
	// Oversold: expect price to rise back to the mean.
	if underlying.LessThan(mean.Mul(s.lower)) {
		return types.OptionTypeCall, true
	}
	return types.OptionTypeNone, false
}
