package engine

import (
	"sort"
	"time"

	"optionsbacktester/types"

	"github.com/shopspring/decimal"
)

// Ledger is the append-only record of closed trades. Each append is atomic
// with a consistent CapitalAfter, so any prefix of the ledger is a valid
// partial result.
type Ledger struct {
	trades []types.ClosedTrade
}

func (l *Ledger) Append(t types.ClosedTrade) {
	l.trades = append(l.trades, t)
}

func (l *Ledger) Trades() []types.ClosedTrade {
	out := make([]types.ClosedTrade, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *Ledger) Len() int {
	return len(l.trades)
}

// EquityCurve converts a ledger into a capital-over-time series: one point per
// exit date carrying the last capital snapshot recorded that date, dates
// strictly increasing. Trades are ordered by entry date first, ties kept in
// ledger order.
func EquityCurve(trades []types.ClosedTrade) []types.EquityPoint {
	if len(trades) == 0 {
		return nil
	}

	sorted := make([]types.ClosedTrade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EntryDate.Before(sorted[j].EntryDate)
	})

	last := make(map[time.Time]decimal.Decimal)
	var dates []time.Time
	for _, t := range sorted {
		date := types.DateOf(t.ExitDate)
		if _, seen := last[date]; !seen {
			dates = append(dates, date)
		}
		last[date] = t.CapitalAfter
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	curve := make([]types.EquityPoint, 0, len(dates))
	for _, date := range dates {
		curve = append(curve, types.EquityPoint{Date: date, Capital: last[date]})
	}
	return curve
}
