// Package directional implements the intraday momentum entry signal: buy a
// CALL when the underlying trades above its trailing mean by a threshold,
// buy a PUT when it trades below.
package directional

import (
	"time"

	"optionsbacktester/types"

	"github.com/shopspring/decimal"
)

const (
	defaultWindow          = 20
	defaultMinObservations = 200
)

type Strategy struct {
	window          int
	minObservations int
	upper           decimal.Decimal
	lower           decimal.Decimal
}

// New returns the momentum strategy with its standard constants: trailing
// mean over 20 observations and a 0.5% deviation band.
func New() *Strategy {
	return NewWithThresholds(decimal.NewFromFloat(1.005), decimal.NewFromFloat(0.995))
}

// NewWithThresholds overrides the upper/lower multiples of the trailing mean.
func NewWithThresholds(upper, lower decimal.Decimal) *Strategy {
	return &Strategy{
		window:          defaultWindow,
		minObservations: defaultMinObservations,
		upper:           upper,
		lower:           lower,
	}
}

func (s *Strategy) Name() string {
	return "Directional"
}

func (s *Strategy) Decide(_ time.Time, underlying decimal.Decimal, observations []types.Quote) (types.OptionType, bool) {
	if len(observations) < s.minObservations {
		return types.OptionTypeNone, false
	}

	mean := trailingMean(observations, s.window)
	if !mean.IsPositive() {
		return types.OptionTypeNone, false
	}

	// Strong uptrend: expect continuation up.
	if underlying.GreaterThan(mean.Mul(s.upper)) {
		return types.OptionTypeCall, true
	}
	// Strong downtrend: expect continuation down.
	if underlying.LessThan(mean.Mul(s.lower)) {
		return types.OptionTypePut, true
	}
	return types.OptionTypeNone, false
}

func trailingMean(observations []types.Quote, window int) decimal.Decimal {
	if len(observations) < window {
		window = len(observations)
	}
	if window == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, q := range observations[len(observations)-window:] {
		sum = sum.Add(q.Underlying)
	}
	return sum.Div(decimal.NewFromInt(int64(window)))
}
