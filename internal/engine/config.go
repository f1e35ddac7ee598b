package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeOfDay is a wall-clock time within a trading date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// OnDate anchors the time of day onto a calendar date.
func (td TimeOfDay) OnDate(date time.Time) time.Time {
	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, td.Hour, td.Minute, 0, 0, time.UTC)
}

// After reports whether the time of day lies strictly after the wall-clock
// portion of ts. Only hour and minute are compared.
func (td TimeOfDay) After(ts time.Time) bool {
	h, m, _ := ts.UTC().Clock()
	if td.Hour != h {
		return td.Hour > h
	}
	return td.Minute > m
}

type SimulationConfig struct {
	// ExitTime is the end-of-day valuation time. Positions are marked at the
	// last price at or before this time, falling back to the day's last price.
	ExitTime TimeOfDay
	// WarmupTime gates the entry pass: no decision point is sampled before it,
	// so strategies always see enough prior observations for their windows.
	WarmupTime TimeOfDay
	// SampleStride walks intraday observations every Nth row.
	SampleStride int
	// StrikeStep is the multiple the underlying is rounded to for the ATM strike.
	StrikeStep decimal.Decimal
	// PositionFraction of current capital committed per entry.
	PositionFraction decimal.Decimal
	// MaxTradesPerDate caps entries per date. The counter covers both the
	// closes booked on a date and the entries made that date, matching the
	// combined accounting the ledger consumers expect.
	MaxTradesPerDate int
}

func NewSimulationConfig(exit, warmup TimeOfDay, stride int, strikeStep, positionFraction decimal.Decimal, maxTradesPerDate int) *SimulationConfig {
	return &SimulationConfig{
		ExitTime:         exit,
		WarmupTime:       warmup,
		SampleStride:     stride,
		StrikeStep:       strikeStep,
		PositionFraction: positionFraction,
		MaxTradesPerDate: maxTradesPerDate,
	}
}

// DefaultSimulationConfig returns the standard intraday setup: 15:00 exit,
// 09:30 warm-up, every 5th observation, strike step 50, 10% sizing, 3 trades
// per date.
func DefaultSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		ExitTime:         TimeOfDay{Hour: 15},
		WarmupTime:       TimeOfDay{Hour: 9, Minute: 30},
		SampleStride:     5,
		StrikeStep:       decimal.NewFromInt(50),
		PositionFraction: decimal.NewFromFloat(0.1),
		MaxTradesPerDate: 3,
	}
}

type ReportingConfig struct {
	reportName  string
	printTrades bool
	tradesPath  string
	equityPath  string
	reportPath  string
}

func NewReportingConfig(reportName string, printTrades bool, tradesPath, equityPath, reportPath string) *ReportingConfig {
	return &ReportingConfig{
		reportName:  reportName,
		printTrades: printTrades,
		tradesPath:  tradesPath,
		equityPath:  equityPath,
		reportPath:  reportPath,
	}
}
