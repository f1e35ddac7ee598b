package engine

import (
	"bytes"
	"testing"
	"time"

	"optionsbacktester/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedTrade(entry, exit time.Time, profit, capitalAfter int64) types.ClosedTrade {
	return types.ClosedTrade{
		EntryDate:    entry,
		ExitDate:     exit,
		Profit:       decimal.NewFromInt(profit),
		CapitalAfter: decimal.NewFromInt(capitalAfter),
	}
}

func TestComputeReport_EmptyLedger(t *testing.T) {
	initial := decimal.NewFromInt(1_000_000)
	r := ComputeReport(nil, initial)

	assert.Zero(t, r.TotalTrades)
	assert.True(t, r.FinalCapital.Equal(initial))
	assert.True(t, r.CAGR.IsZero())
	assert.True(t, r.SharpeRatio.IsZero())
	assert.True(t, r.ProfitFactor.IsZero())
	assert.True(t, r.MaxDrawdown.IsZero())
	assert.Empty(t, r.Curve)
}

func TestComputeReport_SingleWinningTrade(t *testing.T) {
	date := mustDate(t, "2024-01-05")
	initial := decimal.NewFromInt(1_000_000)

	trades := []types.ClosedTrade{closedTrade(date, date, 10_000, 1_010_000)}
	r := ComputeReport(trades, initial)

	assert.Equal(t, 1, r.TotalTrades)
	assert.Equal(t, 1, r.WinningTrades)
	assert.Equal(t, 0, r.LosingTrades)
	assert.True(t, r.FinalCapital.Equal(decimal.NewFromInt(1_010_000)))
	assert.True(t, r.WinRate.Equal(decimal.NewFromInt(100)), "win rate %s", r.WinRate)
	assert.True(t, r.TotalReturn.Equal(decimal.NewFromInt(1)), "total return %s", r.TotalReturn)
	assert.True(t, r.AvgWin.Equal(decimal.NewFromInt(10_000)))
	assert.True(t, r.AvgLoss.IsZero())

	// No losing trades: the profit factor floors at zero rather than blowing up.
	assert.True(t, r.ProfitFactor.IsZero())

	// Single-date span: no annualization, no drawdown, no return series.
	assert.True(t, r.CAGR.IsZero())
	assert.True(t, r.MaxDrawdown.IsZero())
	assert.True(t, r.SharpeRatio.IsZero())
	assert.True(t, r.CalmarRatio.IsZero())
}

func TestComputeReport_StreaksAndProfitFactor(t *testing.T) {
	initial := decimal.NewFromInt(1_000_000)

	// Three wins then two losses, one trade per date.
	profits := []int64{10_000, 10_000, 10_000, -5_000, -5_000}
	var trades []types.ClosedTrade
	capital := int64(1_000_000)
	for i, p := range profits {
		date := mustDate(t, "2024-06-03").AddDate(0, 0, i)
		capital += p
		trades = append(trades, closedTrade(date, date, p, capital))
	}

	r := ComputeReport(trades, initial)

	assert.Equal(t, 5, r.TotalTrades)
	assert.Equal(t, 3, r.WinningTrades)
	assert.Equal(t, 2, r.LosingTrades)
	assert.Equal(t, 3, r.MaxConsecutiveWins)
	assert.Equal(t, 2, r.MaxConsecutiveLosses)
	assert.True(t, r.WinRate.Equal(decimal.NewFromInt(60)), "win rate %s", r.WinRate)
	assert.True(t, r.AvgWin.Equal(decimal.NewFromInt(10_000)))
	assert.True(t, r.AvgLoss.Equal(decimal.NewFromInt(-5_000)))
	assert.True(t, r.ProfitFactor.Equal(decimal.NewFromInt(3)), "profit factor %s", r.ProfitFactor)
	assert.True(t, r.CAGR.GreaterThan(decimal.Zero), "positive span return annualizes positive")
}

func TestComputeReport_MaxDrawdown(t *testing.T) {
	initial := decimal.NewFromInt(1_000_000)

	// Peak 1.1x, trough 0.99x of the starting point: a 10% drawdown.
	capitals := []int64{1_000_000, 1_100_000, 990_000, 1_210_000}
	var trades []types.ClosedTrade
	prev := int64(1_000_000)
	for i, c := range capitals {
		date := mustDate(t, "2024-07-01").AddDate(0, 0, i)
		trades = append(trades, closedTrade(date, date, c-prev, c))
		prev = c
	}

	r := ComputeReport(trades, initial)

	assert.True(t, r.MaxDrawdown.Equal(decimal.NewFromInt(-10)), "max drawdown %s", r.MaxDrawdown)
	assert.True(t, r.MaxDrawdown.GreaterThanOrEqual(decimal.NewFromInt(-100)))
	assert.True(t, r.MaxDrawdown.LessThanOrEqual(decimal.Zero))

	// Calmar re-derives from the two percent-valued metrics.
	assert.True(t, r.CalmarRatio.Equal(r.CAGR.Div(r.MaxDrawdown).Abs()))
}

func TestComputeReport_NonDecreasingCurveHasZeroDrawdown(t *testing.T) {
	initial := decimal.NewFromInt(1_000_000)

	var trades []types.ClosedTrade
	capital := int64(1_000_000)
	for i := 0; i < 4; i++ {
		date := mustDate(t, "2024-08-05").AddDate(0, 0, i)
		capital += 5_000
		trades = append(trades, closedTrade(date, date, 5_000, capital))
	}

	r := ComputeReport(trades, initial)
	assert.True(t, r.MaxDrawdown.IsZero())
	assert.True(t, r.CalmarRatio.IsZero(), "no drawdown means no Calmar")
}

func TestComputeReport_Idempotent(t *testing.T) {
	initial := decimal.NewFromInt(1_000_000)

	profits := []int64{20_000, -8_000, 12_000}
	var trades []types.ClosedTrade
	capital := int64(1_000_000)
	for i, p := range profits {
		date := mustDate(t, "2024-09-02").AddDate(0, 0, i)
		capital += p
		trades = append(trades, closedTrade(date, date, p, capital))
	}

	first := ComputeReport(trades, initial)
	second := ComputeReport(trades, initial)
	assert.Equal(t, first, second)
}

func TestComputeReport_DoesNotMutateInput(t *testing.T) {
	d2 := mustDate(t, "2024-10-02")
	d1 := mustDate(t, "2024-10-01")

	trades := []types.ClosedTrade{
		closedTrade(d2, d2, -1_000, 1_004_000),
		closedTrade(d1, d1, 5_000, 1_005_000),
	}

	ComputeReport(trades, decimal.NewFromInt(1_000_000))
	assert.True(t, trades[0].EntryDate.Equal(d2), "caller's ledger order preserved")
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	r := ComputeReport(nil, decimal.NewFromInt(1_000_000))
	WriteReport(&buf, "Directional", r)

	out := buf.String()
	require.Contains(t, out, "===== Directional Performance =====")
	assert.Contains(t, out, "Total Trades:           0")
	assert.Contains(t, out, "Final Capital:          1000000.00")
}
