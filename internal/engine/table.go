package engine

import (
	"errors"
	"time"

	"optionsbacktester/types"

	"github.com/shopspring/decimal"
)

var ErrEmptyMarketData = errors.New("market data table is empty")

// contractKey identifies an option contract on a given trading date.
type contractKey struct {
	date   int64
	expiry int64
	strike string
	typ    types.OptionType
}

func newContractKey(date, expiry time.Time, strike decimal.Decimal, typ types.OptionType) contractKey {
	return contractKey{
		date:   types.DateOf(date).Unix(),
		expiry: types.DateOf(expiry).Unix(),
		strike: strike.String(),
		typ:    typ,
	}
}

// MarketTable is a read-only, pre-indexed view over the normalized quote
// table. Ingestion guarantees monotonic timestamp ordering; the table performs
// no further normalization.
type MarketTable struct {
	dates         []time.Time
	dayQuotes     map[time.Time][]types.Quote
	contractRows  map[contractKey][]types.Quote
	nearestExpiry map[time.Time]time.Time
}

// NewMarketTable indexes a time-ordered quote slice by trading date and
// contract. An empty slice is a configuration error.
func NewMarketTable(quotes []types.Quote) (*MarketTable, error) {
	if len(quotes) == 0 {
		return nil, ErrEmptyMarketData
	}

	t := &MarketTable{
		dayQuotes:     make(map[time.Time][]types.Quote),
		contractRows:  make(map[contractKey][]types.Quote),
		nearestExpiry: make(map[time.Time]time.Time),
	}

	for _, q := range quotes {
		date := q.Date()
		if _, seen := t.dayQuotes[date]; !seen {
			t.dates = append(t.dates, date)
		}
		t.dayQuotes[date] = append(t.dayQuotes[date], q)

		if q.Type.Valid() && !q.Expiry.IsZero() {
			key := newContractKey(date, q.Expiry, q.Strike, q.Type)
			t.contractRows[key] = append(t.contractRows[key], q)

			expiry := types.DateOf(q.Expiry)
			if cur, ok := t.nearestExpiry[date]; !ok || expiry.Before(cur) {
				t.nearestExpiry[date] = expiry
			}
		}
	}
	return t, nil
}

// Dates returns the distinct trading dates in ascending order.
func (t *MarketTable) Dates() []time.Time {
	return t.dates
}

// DayQuotes returns all observations for a date in time order.
func (t *MarketTable) DayQuotes(date time.Time) []types.Quote {
	return t.dayQuotes[types.DateOf(date)]
}

// NearestExpiry resolves the minimum days-to-expiry contract expiry available
// on the date.
func (t *MarketTable) NearestExpiry(date time.Time) (time.Time, bool) {
	expiry, ok := t.nearestExpiry[types.DateOf(date)]
	return expiry, ok
}

// OptionPrice returns the first quoted close for the contract on the date.
func (t *MarketTable) OptionPrice(date, expiry time.Time, strike decimal.Decimal, typ types.OptionType) (decimal.Decimal, bool) {
	rows := t.contractRows[newContractKey(date, expiry, strike, typ)]
	if len(rows) == 0 {
		return decimal.Zero, false
	}
	return rows[0].Close, true
}

// ExitPrice returns the contract's last close at or before the end-of-day
// valuation time, falling back to the last price of the day. A date with no
// quotes for the contract yields no price, which defers the close.
func (t *MarketTable) ExitPrice(date, expiry time.Time, strike decimal.Decimal, typ types.OptionType, exit TimeOfDay) (decimal.Decimal, bool) {
	rows := t.contractRows[newContractKey(date, expiry, strike, typ)]
	if len(rows) == 0 {
		return decimal.Zero, false
	}
	cutoff := exit.OnDate(date)
	price := decimal.Zero
	found := false
	for _, q := range rows {
		if q.Timestamp.After(cutoff) {
			break
		}
		price = q.Close
		found = true
	}
	if !found {
		price = rows[len(rows)-1].Close
	}
	return price, true
}

// atmStrike rounds the underlying to the nearest multiple of the strike step.
func atmStrike(underlying, step decimal.Decimal) decimal.Decimal {
	return underlying.Div(step).Round(0).Mul(step)
}
