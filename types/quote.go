package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one row of the normalized market data table: an intraday option
// observation together with the underlying price at that timestamp.
type Quote struct {
	Timestamp  time.Time       `json:"timestamp"`
	Underlying decimal.Decimal `json:"underlying"`
	Expiry     time.Time       `json:"expiry"`
	Strike     decimal.Decimal `json:"strike"`
	Type       OptionType      `json:"optionType"`
	Close      decimal.Decimal `json:"close"`
}

// Date returns the trading date of the quote, truncated to UTC midnight.
func (q Quote) Date() time.Time {
	return DateOf(q.Timestamp)
}

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
