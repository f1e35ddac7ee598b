package engine

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"

	"optionsbacktester/types"

	"github.com/shopspring/decimal"
)

// Report holds the standardized performance metrics derived from a ledger.
// CAGR, MaxDrawdown, WinRate and TotalReturn are expressed in percent.
type Report struct {
	// Meta
	TotalTrades   int
	WinningTrades int
	LosingTrades  int

	// Absolute performance
	CAGR         decimal.Decimal
	TotalReturn  decimal.Decimal
	FinalCapital decimal.Decimal

	// Trade-level distribution metrics
	WinRate decimal.Decimal
	AvgWin  decimal.Decimal
	AvgLoss decimal.Decimal

	// Drawdown & streak metrics
	MaxDrawdown          decimal.Decimal
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int

	// Risk-adjusted metrics
	SharpeRatio  decimal.Decimal
	ProfitFactor decimal.Decimal
	CalmarRatio  decimal.Decimal

	Curve []types.EquityPoint
}

// ComputeReport derives the metrics report from a closed-trade ledger. It is
// a pure function of its inputs; an empty ledger yields the zero-valued
// report with FinalCapital set to the initial capital.
func ComputeReport(trades []types.ClosedTrade, initialCapital decimal.Decimal) *Report {
	if len(trades) == 0 {
		return emptyReport(initialCapital)
	}

	sorted := make([]types.ClosedTrade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EntryDate.Before(sorted[j].EntryDate)
	})

	curve := EquityCurve(sorted)
	final := sorted[len(sorted)-1].CapitalAfter

	report := &Report{
		TotalTrades:  len(sorted),
		FinalCapital: final,
		Curve:        curve,
	}

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		report.CAGR = calcCAGR(sorted, initialCapital, final, &wg)
	}()
	go func() {
		report.MaxDrawdown = calcMaxDrawdown(curve, &wg)
	}()
	go func() {
		report.SharpeRatio = calcSharpeRatio(curve, &wg)
	}()
	go func() {
		report.WinningTrades, report.LosingTrades, report.WinRate,
			report.AvgWin, report.AvgLoss, report.ProfitFactor = calcTradeStats(sorted, &wg)
	}()
	go func() {
		report.MaxConsecutiveWins, report.MaxConsecutiveLosses = calcStreaks(sorted, &wg)
	}()
	wg.Wait()

	report.TotalReturn = final.Div(initialCapital).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	report.CalmarRatio = calcCalmarRatio(report.CAGR, report.MaxDrawdown)

	return report
}

func emptyReport(initialCapital decimal.Decimal) *Report {
	return &Report{FinalCapital: initialCapital}
}

// calcCAGR annualizes the capital ratio over the date span from the first
// trade's entry to the last trade's exit, using 365.25-day years. A zero span
// yields 0.
func calcCAGR(sorted []types.ClosedTrade, initialCapital, final decimal.Decimal, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()

	firstEntry := sorted[0].EntryDate
	lastExit := sorted[0].ExitDate
	for _, t := range sorted {
		if t.EntryDate.Before(firstEntry) {
			firstEntry = t.EntryDate
		}
		if t.ExitDate.After(lastExit) {
			lastExit = t.ExitDate
		}
	}

	days := types.DateOf(lastExit).Sub(types.DateOf(firstEntry)).Hours() / 24
	if days == 0 {
		return decimal.Zero
	}
	ratio := final.Div(initialCapital).InexactFloat64()
	if ratio <= 0 {
		return decimal.Zero
	}
	cagr := math.Pow(ratio, 365.25/days) - 1
	return decimal.NewFromFloat(cagr * 100)
}

// calcMaxDrawdown normalizes the curve to a cumulative series starting at 1.0
// and returns the minimum of (cumulative - runningMax) / runningMax, in
// percent. Always in [-100, 0]; 0 for a non-decreasing curve.
func calcMaxDrawdown(curve []types.EquityPoint, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()

	if len(curve) == 0 {
		return decimal.Zero
	}

	base := curve[0].Capital
	if !base.IsPositive() {
		return decimal.Zero
	}

	runningMax := decimal.Zero
	maxDD := decimal.Zero
	for _, p := range curve {
		cumulative := p.Capital.Div(base)
		if cumulative.GreaterThan(runningMax) {
			runningMax = cumulative
		}
		dd := cumulative.Sub(runningMax).Div(runningMax)
		if dd.LessThan(maxDD) {
			maxDD = dd
		}
	}
	return maxDD.Mul(decimal.NewFromInt(100))
}

// calcSharpeRatio annualizes the mean/stddev of period-over-period returns of
// the capital series by sqrt(252). Fewer than 2 points or zero variance
// yields 0.
func calcSharpeRatio(curve []types.EquityPoint, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()

	if len(curve) < 2 {
		return decimal.Zero
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Capital
		if !prev.IsPositive() {
			continue
		}
		r := curve[i].Capital.Div(prev).Sub(decimal.NewFromInt(1))
		returns = append(returns, r.InexactFloat64())
	}
	if len(returns) < 2 {
		return decimal.Zero
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var varianceSum float64
	for _, r := range returns {
		diff := r - mean
		varianceSum += diff * diff
	}
	// Sample standard deviation.
	std := math.Sqrt(varianceSum / float64(len(returns)-1))
	if std == 0 {
		return decimal.Zero
	}

	return decimal.NewFromFloat(math.Sqrt(252) * mean / std)
}

// calcTradeStats classifies trades as wins (profit > 0) or losses (profit <= 0)
// and derives win rate, average win/loss and profit factor. Profit factor is 0
// when the loss sum is zero; this deliberate floor keeps downstream
// Calmar-style calculations stable instead of producing infinities.
func calcTradeStats(sorted []types.ClosedTrade, wg *sync.WaitGroup) (wins, losses int, winRate, avgWin, avgLoss, profitFactor decimal.Decimal) {
	defer wg.Done()

	winSum := decimal.Zero
	lossSum := decimal.Zero
	for _, t := range sorted {
		if t.Profit.IsPositive() {
			wins++
			winSum = winSum.Add(t.Profit)
		} else {
			losses++
			lossSum = lossSum.Add(t.Profit)
		}
	}

	total := decimal.NewFromInt(int64(len(sorted)))
	winRate = decimal.NewFromInt(int64(wins)).Div(total).Mul(decimal.NewFromInt(100))

	if wins > 0 {
		avgWin = winSum.Div(decimal.NewFromInt(int64(wins)))
	}
	if losses > 0 {
		avgLoss = lossSum.Div(decimal.NewFromInt(int64(losses)))
	}

	absLoss := lossSum.Abs()
	if absLoss.IsPositive() {
		profitFactor = winSum.Div(absLoss)
	}
	return wins, losses, winRate, avgWin, avgLoss, profitFactor
}

// calcStreaks scans trades in ledger order and tracks the longest runs of
// consecutive wins and losses.
func calcStreaks(sorted []types.ClosedTrade, wg *sync.WaitGroup) (maxWins, maxLosses int) {
	defer wg.Done()

	curWins, curLosses := 0, 0
	for _, t := range sorted {
		if t.Profit.IsPositive() {
			curWins++
			curLosses = 0
			if curWins > maxWins {
				maxWins = curWins
			}
		} else {
			curLosses++
			curWins = 0
			if curLosses > maxLosses {
				maxLosses = curLosses
			}
		}
	}
	return maxWins, maxLosses
}

// calcCalmarRatio is abs(CAGR / maxDrawdown), 0 when the drawdown is zero.
func calcCalmarRatio(cagr, maxDrawdown decimal.Decimal) decimal.Decimal {
	if maxDrawdown.IsZero() {
		return decimal.Zero
	}
	return cagr.Div(maxDrawdown).Abs()
}

// WriteReport formats a report the way the console summary expects it.
func WriteReport(w io.Writer, name string, r *Report) {
	fmt.Fprintf(w, "===== %s Performance =====\n", name)
	fmt.Fprintf(w, "Total Trades:           %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Winning Trades:         %d\n", r.WinningTrades)
	fmt.Fprintf(w, "Losing Trades:          %d\n", r.LosingTrades)

	fmt.Fprintln(w, "\n-- Absolute Performance --")
	fmt.Fprintf(w, "CAGR (%%):               %s\n", r.CAGR.StringFixed(2))
	fmt.Fprintf(w, "Total Return (%%):       %s\n", r.TotalReturn.StringFixed(2))
	fmt.Fprintf(w, "Final Capital:          %s\n", r.FinalCapital.StringFixed(2))

	fmt.Fprintln(w, "\n-- Trade-Level Metrics --")
	fmt.Fprintf(w, "Win Rate (%%):           %s\n", r.WinRate.StringFixed(2))
	fmt.Fprintf(w, "Avg Win:                %s\n", r.AvgWin.StringFixed(2))
	fmt.Fprintf(w, "Avg Loss:               %s\n", r.AvgLoss.StringFixed(2))

	fmt.Fprintln(w, "\n-- Drawdown & Streaks --")
	fmt.Fprintf(w, "Max Drawdown (%%):       %s\n", r.MaxDrawdown.StringFixed(2))
	fmt.Fprintf(w, "Max Consecutive Wins:   %d\n", r.MaxConsecutiveWins)
	fmt.Fprintf(w, "Max Consecutive Losses: %d\n", r.MaxConsecutiveLosses)

	fmt.Fprintln(w, "\n-- Risk-Adjusted Metrics --")
	fmt.Fprintf(w, "Sharpe Ratio:           %s\n", r.SharpeRatio.StringFixed(2))
	fmt.Fprintf(w, "Profit Factor:          %s\n", r.ProfitFactor.StringFixed(2))
	fmt.Fprintf(w, "Calmar Ratio:           %s\n", r.CalmarRatio.StringFixed(2))
	fmt.Fprintln(w, "==========================")
}

// PrintReport writes the report to stdout.
func PrintReport(name string, r *Report) {
	WriteReport(os.Stdout, name, r)
}
