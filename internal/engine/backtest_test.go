package engine

import (
	"testing"
	"time"

	"optionsbacktester/pkg/id"
	"optionsbacktester/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alwaysCall opens a CALL at every decision point.
type alwaysCall struct{}

func (alwaysCall) Name() string { return "AlwaysCall" }
func (alwaysCall) Decide(time.Time, decimal.Decimal, []types.Quote) (types.OptionType, bool) {
	return types.OptionTypeCall, true
}

// neverEnter declines every decision point.
type neverEnter struct{}

func (neverEnter) Name() string { return "NeverEnter" }
func (neverEnter) Decide(time.Time, decimal.Decimal, []types.Quote) (types.OptionType, bool) {
	return types.OptionTypeNone, false
}

// countingObserver tracks the live-position count seen across events.
type countingObserver struct {
	opens, closes int
	maxLive       int
	live          int
}

func (o *countingObserver) OnTradeOpened(types.OpenPosition) {
	o.opens++
	o.live++
	if o.live > o.maxLive {
		o.maxLive = o.live
	}
}
func (o *countingObserver) OnTradeClosed(types.ClosedTrade) {
	o.closes++
	o.live--
}
func (o *countingObserver) OnDateProcessed(time.Time, int) {}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	require.NoError(t, err)
	return d
}

func quote(date time.Time, clock string, underlying float64, expiry time.Time, strike float64, typ types.OptionType, close float64) types.Quote {
	ts, _ := time.Parse("15:04", clock)
	return types.Quote{
		Timestamp:  date.Add(time.Duration(ts.Hour())*time.Hour + time.Duration(ts.Minute())*time.Minute),
		Underlying: decimal.NewFromFloat(underlying),
		Expiry:     expiry,
		Strike:     decimal.NewFromFloat(strike),
		Type:       typ,
		Close:      decimal.NewFromFloat(close),
	}
}

func testConfig() *SimulationConfig {
	cfg := DefaultSimulationConfig()
	cfg.SampleStride = 1
	return cfg
}

func TestEngine_SingleTradeRun(t *testing.T) {
	date := mustDate(t, "2024-01-05")
	expiry := mustDate(t, "2024-01-25")

	table, err := NewMarketTable([]types.Quote{
		quote(date, "09:30", 100, expiry, 100, types.OptionTypeCall, 100),
		quote(date, "14:55", 100, expiry, 100, types.OptionTypeCall, 110),
	})
	require.NoError(t, err)

	eng, err := NewEngine(table, alwaysCall{}, decimal.NewFromInt(1_000_000), testConfig())
	require.NoError(t, err)

	result, err := eng.Run()
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	trade := result.Trades[0]
	assert.True(t, trade.EntryPrice.Equal(decimal.NewFromInt(100)), "entry price %s", trade.EntryPrice)
	assert.True(t, trade.ExitPrice.Equal(decimal.NewFromInt(110)), "exit price %s", trade.ExitPrice)
	assert.True(t, trade.Notional.Equal(decimal.NewFromInt(100_000)), "notional %s", trade.Notional)
	assert.True(t, trade.Profit.Equal(decimal.NewFromInt(10_000)), "profit %s", trade.Profit)
	assert.True(t, trade.ProfitPct.Equal(decimal.NewFromInt(10)), "profit pct %s", trade.ProfitPct)
	assert.True(t, trade.CapitalAfter.Equal(decimal.NewFromInt(1_010_000)), "capital after %s", trade.CapitalAfter)
	assert.True(t, result.FinalCapital.Equal(decimal.NewFromInt(1_010_000)))
	assert.Equal(t, types.OptionTypeCall, trade.Type)
}

func TestEngine_SinglePositionInvariantAndSameDayClose(t *testing.T) {
	expiry := mustDate(t, "2024-02-29")

	var quotes []types.Quote
	dates := []string{"2024-02-05", "2024-02-06", "2024-02-07"}
	for _, d := range dates {
		date := mustDate(t, d)
		// Many decision points per date; the entry pass must stop after one.
		quotes = append(quotes,
			quote(date, "09:30", 100, expiry, 100, types.OptionTypeCall, 50),
			quote(date, "10:15", 100, expiry, 100, types.OptionTypeCall, 52),
			quote(date, "11:45", 100, expiry, 100, types.OptionTypeCall, 51),
			quote(date, "14:50", 100, expiry, 100, types.OptionTypeCall, 55),
		)
	}

	table, err := NewMarketTable(quotes)
	require.NoError(t, err)

	eng, err := NewEngine(table, alwaysCall{}, decimal.NewFromInt(1_000_000), testConfig())
	require.NoError(t, err)

	obs := &countingObserver{}
	eng.SetObserver(obs)

	result, err := eng.Run()
	require.NoError(t, err)

	assert.Equal(t, 1, obs.maxLive, "never more than one concurrent open position")
	assert.Equal(t, obs.opens, obs.closes)
	require.Len(t, result.Trades, len(dates))

	perDate := make(map[time.Time]int)
	for _, trade := range result.Trades {
		assert.True(t, trade.ExitDate.Equal(trade.EntryDate), "pure intraday model")
		perDate[trade.EntryDate]++
	}
	for date, n := range perDate {
		assert.LessOrEqual(t, n, 3, "per-date cap on %s", date)
	}
}

func TestEngine_CapitalConservation(t *testing.T) {
	expiry := mustDate(t, "2024-03-28")
	initial := decimal.NewFromInt(1_000_000)

	var quotes []types.Quote
	// Alternating winning and losing dates.
	closes := [][2]float64{{100, 120}, {100, 80}, {100, 105}, {100, 90}}
	for i, pair := range closes {
		date := mustDate(t, "2024-03-04").AddDate(0, 0, i)
		quotes = append(quotes,
			quote(date, "09:35", 100, expiry, 100, types.OptionTypeCall, pair[0]),
			quote(date, "14:59", 100, expiry, 100, types.OptionTypeCall, pair[1]),
		)
	}

	table, err := NewMarketTable(quotes)
	require.NoError(t, err)

	eng, err := NewEngine(table, alwaysCall{}, initial, testConfig())
	require.NoError(t, err)

	result, err := eng.Run()
	require.NoError(t, err)
	require.Len(t, result.Trades, len(closes))

	capital := initial
	for i, trade := range result.Trades {
		capital = capital.Add(trade.Profit)
		assert.True(t, trade.CapitalAfter.Equal(capital), "trade %d capital_after", i)
		// Sizing follows current capital, not the initial one.
		assert.True(t, trade.Notional.Equal(trade.CapitalAfter.Sub(trade.Profit).Mul(decimal.NewFromFloat(0.1))))
	}
	assert.True(t, result.FinalCapital.Equal(capital))
}

func TestEngine_NoEntryBeforeWarmup(t *testing.T) {
	date := mustDate(t, "2024-01-08")
	expiry := mustDate(t, "2024-01-25")

	table, err := NewMarketTable([]types.Quote{
		quote(date, "09:15", 100, expiry, 100, types.OptionTypeCall, 100),
		quote(date, "09:20", 100, expiry, 100, types.OptionTypeCall, 101),
	})
	require.NoError(t, err)

	eng, err := NewEngine(table, alwaysCall{}, decimal.NewFromInt(1_000_000), testConfig())
	require.NoError(t, err)

	result, err := eng.Run()
	require.NoError(t, err)
	assert.Empty(t, result.Trades, "no decision point before 09:30")
}

func TestEngine_SkipsMissingUnderlyingAndContract(t *testing.T) {
	date := mustDate(t, "2024-01-09")
	expiry := mustDate(t, "2024-01-25")

	// The strategy wants a CALL at strike 100 but only a PUT trades; the
	// first observation additionally has no underlying print.
	table, err := NewMarketTable([]types.Quote{
		quote(date, "09:40", 0, expiry, 100, types.OptionTypePut, 100),
		quote(date, "09:45", 100, expiry, 100, types.OptionTypePut, 100),
	})
	require.NoError(t, err)

	eng, err := NewEngine(table, alwaysCall{}, decimal.NewFromInt(1_000_000), testConfig())
	require.NoError(t, err)

	result, err := eng.Run()
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
}

func TestEngine_NeverEnterProducesEmptyLedger(t *testing.T) {
	date := mustDate(t, "2024-01-10")
	expiry := mustDate(t, "2024-01-25")

	table, err := NewMarketTable([]types.Quote{
		quote(date, "09:30", 100, expiry, 100, types.OptionTypeCall, 100),
	})
	require.NoError(t, err)

	eng, err := NewEngine(table, neverEnter{}, decimal.NewFromInt(1_000_000), testConfig())
	require.NoError(t, err)

	result, err := eng.Run()
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.True(t, result.FinalCapital.Equal(decimal.NewFromInt(1_000_000)))
}

func TestEngine_ConfigurationErrors(t *testing.T) {
	date := mustDate(t, "2024-01-11")
	expiry := mustDate(t, "2024-01-25")
	table, err := NewMarketTable([]types.Quote{
		quote(date, "09:30", 100, expiry, 100, types.OptionTypeCall, 100),
	})
	require.NoError(t, err)

	_, err = NewMarketTable(nil)
	assert.ErrorIs(t, err, ErrEmptyMarketData)

	_, err = NewEngine(nil, alwaysCall{}, decimal.NewFromInt(1), testConfig())
	assert.ErrorIs(t, err, ErrEmptyMarketData)

	_, err = NewEngine(table, nil, decimal.NewFromInt(1), testConfig())
	assert.ErrorIs(t, err, ErrNilStrategy)

	_, err = NewEngine(table, alwaysCall{}, decimal.Zero, testConfig())
	assert.ErrorIs(t, err, ErrNonPositiveCapital)
}

func TestBacktester_DeferredCloseWithoutPrice(t *testing.T) {
	d0 := mustDate(t, "2024-04-01")
	d1 := mustDate(t, "2024-04-02")
	d2 := mustDate(t, "2024-04-03")
	expiry := mustDate(t, "2024-04-25")

	// The carried contract has no quotes on d1, only on d2.
	table, err := NewMarketTable([]types.Quote{
		quote(d0, "09:30", 100, expiry, 100, types.OptionTypeCall, 100),
		quote(d1, "10:00", 100, expiry, 150, types.OptionTypeCall, 7),
		quote(d2, "14:00", 100, expiry, 100, types.OptionTypeCall, 130),
	})
	require.NoError(t, err)

	bt := newBacktester(table, neverEnter{}, decimal.NewFromInt(1_000_000), testConfig(), noopObserver{}, false)
	bt.book.add(&types.OpenPosition{
		ID:         id.New(),
		EntryDate:  d0,
		EntryTime:  d0.Add(10 * time.Hour),
		Expiry:     expiry,
		Strike:     decimal.NewFromInt(100),
		Type:       types.OptionTypeCall,
		EntryPrice: decimal.NewFromInt(100),
		Notional:   decimal.NewFromInt(100_000),
	})

	require.NoError(t, bt.closeAtHorizon(d1, false))
	assert.Equal(t, 1, bt.book.count(), "missing price defers the close")
	assert.Zero(t, bt.ledger.Len())

	require.NoError(t, bt.closeAtHorizon(d2, false))
	assert.Zero(t, bt.book.count())
	require.Equal(t, 1, bt.ledger.Len())

	trade := bt.ledger.Trades()[0]
	assert.True(t, trade.ExitDate.Equal(d2))
	assert.True(t, trade.ExitPrice.Equal(decimal.NewFromInt(130)))
}

func TestMarketTable_ExitPriceFallback(t *testing.T) {
	date := mustDate(t, "2024-05-06")
	expiry := mustDate(t, "2024-05-30")

	table, err := NewMarketTable([]types.Quote{
		quote(date, "09:30", 100, expiry, 100, types.OptionTypeCall, 10),
		quote(date, "14:59", 100, expiry, 100, types.OptionTypeCall, 12),
		quote(date, "15:10", 100, expiry, 100, types.OptionTypeCall, 14),
	})
	require.NoError(t, err)

	exit := TimeOfDay{Hour: 15}

	price, ok := table.ExitPrice(date, expiry, decimal.NewFromInt(100), types.OptionTypeCall, exit)
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(12)), "last price at or before 15:00")

	// Only post-close quotes: fall back to the last price of the day.
	lateOnly, err := NewMarketTable([]types.Quote{
		quote(date, "15:10", 100, expiry, 100, types.OptionTypeCall, 14),
		quote(date, "15:20", 100, expiry, 100, types.OptionTypeCall, 16),
	})
	require.NoError(t, err)

	price, ok = lateOnly.ExitPrice(date, expiry, decimal.NewFromInt(100), types.OptionTypeCall, exit)
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(16)))

	_, ok = table.ExitPrice(date, expiry, decimal.NewFromInt(200), types.OptionTypeCall, exit)
	assert.False(t, ok, "unknown contract has no exit price")
}

func TestMarketTable_NearestExpiryAndATMStrike(t *testing.T) {
	date := mustDate(t, "2024-05-07")
	near := mustDate(t, "2024-05-09")
	far := mustDate(t, "2024-05-30")

	table, err := NewMarketTable([]types.Quote{
		quote(date, "09:30", 100, far, 100, types.OptionTypeCall, 10),
		quote(date, "09:31", 100, near, 100, types.OptionTypeCall, 4),
	})
	require.NoError(t, err)

	expiry, ok := table.NearestExpiry(date)
	require.True(t, ok)
	assert.True(t, expiry.Equal(near), "minimum DTE expiry wins")

	_, ok = table.NearestExpiry(mustDate(t, "2024-05-08"))
	assert.False(t, ok)

	step := decimal.NewFromInt(50)
	assert.True(t, atmStrike(decimal.NewFromInt(22520), step).Equal(decimal.NewFromInt(22500)))
	assert.True(t, atmStrike(decimal.NewFromInt(22530), step).Equal(decimal.NewFromInt(22550)))
	assert.True(t, atmStrike(decimal.NewFromFloat(22474.9), step).Equal(decimal.NewFromInt(22450)))
}
