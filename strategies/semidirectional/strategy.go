// Package semidirectional implements momentum-confirmed mean reversion: a
// contrarian entry is taken only when short-term momentum still pushes the
// price away from its trailing mean.
package semidirectional

import (
	"time"

	"optionsbacktester/types"

	"github.com/shopspring/decimal"
)

const (
	defaultWindow      = 30
	momentumSpan       = 10
	momentumHalfWindow = 5
)

type Strategy struct {
	window            int
	upper             decimal.Decimal
	lower             decimal.Decimal
	momentumThreshold decimal.Decimal
}

// New returns the semi-directional strategy with its standard constants:
// trailing mean over 30 observations, a 0.3% deviation band and a 0.3%
// momentum confirmation threshold.
func New() *Strategy {
	return NewWithThresholds(
		decimal.NewFromFloat(1.003),
		decimal.NewFromFloat(0.997),
		decimal.NewFromFloat(0.003),
	)
}

func NewWithThresholds(upper, lower, momentumThreshold decimal.Decimal) *Strategy {
	return &Strategy{
		window:            defaultWindow,
		upper:             upper,
		lower:             lower,
		momentumThreshold: momentumThreshold,
	}
}

func (s *Strategy) Name() string {
	return "Semi-Directional"
}

func (s *Strategy) Decide(_ time.Time, underlying decimal.Decimal, observations []types.Quote) (types.OptionType, bool) {
	if len(observations) < s.window {
		return types.OptionTypeNone, false
	}

	mean := trailingMean(observations, s.window)
	if !mean.IsPositive() {
		return types.OptionTypeNone, false
	}

	momentum := shortTermMomentum(observations)

	// Overbought with momentum still positive: contrarian PUT.
	if underlying.GreaterThan(mean.Mul(s.upper)) && momentum.GreaterThan(s.momentumThreshold) {
		return types.OptionTypePut, true
	}
	// Oversold with momentum still negative: contrarian CALL.
	if underlying.LessThan(mean.Mul(s.lower)) && momentum.LessThan(s.momentumThreshold.Neg()) {
		return types.OptionTypeCall, true
	}
	return types.OptionTypeNone, false
}

// shortTermMomentum compares the mean of the last 5 observations against the
// mean of the 5 before those: (recent - older) / older. With fewer than 10
// observations the momentum term is 0.
func shortTermMomentum(observations []types.Quote) decimal.Decimal {
	if len(observations) < momentumSpan {
		return decimal.Zero
	}
	tail := observations[len(observations)-momentumSpan:]
	older := meanUnderlying(tail[:momentumHalfWindow])
	recent := meanUnderlying(tail[momentumHalfWindow:])
	if !older.IsPositive() {
		return decimal.Zero
	}
	return recent.Sub(older).Div(older)
}

func trailingMean(observations []types.Quote, window int) decimal.Decimal {
	if len(observations) < window {
		window = len(observations)
	}
	return meanUnderlying(observations[len(observations)-window:])
}

func meanUnderlying(quotes []types.Quote) decimal.Decimal {
	if len(quotes) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, q := range quotes {
		sum = sum.Add(q.Underlying)
	}
	return sum.Div(decimal.NewFromInt(int64(len(quotes))))
}
