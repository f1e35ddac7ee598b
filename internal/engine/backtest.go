package engine

import (
	"time"

	"optionsbacktester/pkg/id"
	"optionsbacktester/types"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

// backtester drives the single time-ordered walk across the dataset. It
// exclusively owns the position book and the ledger for the duration of a
// run; there is no concurrent mutation of either.
type backtester struct {
	table    *MarketTable
	strategy Strategy
	config   *SimulationConfig
	observer Observer

	book        *positionBook
	ledger      *Ledger
	capital     decimal.Decimal
	tradesToday map[time.Time]int
	progress    bool
}

func newBacktester(table *MarketTable, strat Strategy, initialCapital decimal.Decimal, cfg *SimulationConfig, obs Observer, progress bool) *backtester {
	return &backtester{
		table:       table,
		strategy:    strat,
		config:      cfg,
		observer:    obs,
		book:        newPositionBook(),
		ledger:      &Ledger{},
		capital:     initialCapital,
		tradesToday: make(map[time.Time]int),
		progress:    progress,
	}
}

func (b *backtester) run() error {
	dates := b.table.Dates()

	var bar *progressbar.ProgressBar
	if b.progress {
		bar = initProgressBar(len(dates))
	}

	for _, date := range dates {
		// Order is the correctness-critical invariant: carried positions are
		// valued first, then entries are sampled, then the day's own opens
		// are closed at the horizon.
		if err := b.closeAtHorizon(date, false); err != nil {
			return err
		}
		b.entryPass(date)
		if err := b.closeAtHorizon(date, true); err != nil {
			return err
		}

		b.observer.OnDateProcessed(date, b.tradesToday[date])
		if bar != nil {
			bar.Add(1)
		}
	}
	return nil
}

// closeAtHorizon evaluates open positions for exit at the end-of-day
// valuation time. With sameDayOnly it closes only positions opened on the
// current date. A position with no available price stays open and is retried
// on the next date.
func (b *backtester) closeAtHorizon(date time.Time, sameDayOnly bool) error {
	for _, posID := range b.book.openIDs() {
		pos, ok := b.book.get(posID)
		if !ok {
			return ErrPositionNotFound
		}
		if sameDayOnly {
			if !pos.EntryDate.Equal(date) {
				continue
			}
		} else if pos.EntryDate.After(date) {
			continue
		}

		exitPrice, ok := b.table.ExitPrice(date, pos.Expiry, pos.Strike, pos.Type, b.config.ExitTime)
		if !ok {
			continue
		}
		if err := b.closePosition(pos, date, exitPrice); err != nil {
			return err
		}
	}
	return nil
}

// closePosition realizes P&L, stamps the running capital onto the trade, and
// appends it to the ledger in one step.
func (b *backtester) closePosition(pos *types.OpenPosition, date time.Time, exitPrice decimal.Decimal) error {
	pnlPct := exitPrice.Sub(pos.EntryPrice).Div(pos.EntryPrice)
	profit := pos.Notional.Mul(pnlPct)
	b.capital = b.capital.Add(profit)

	trade := types.ClosedTrade{
		ID:                pos.ID,
		Strategy:          b.strategy.Name(),
		EntryDate:         pos.EntryDate,
		EntryTime:         pos.EntryTime,
		ExitDate:          date,
		ExitTime:          b.config.ExitTime.OnDate(date),
		Expiry:            pos.Expiry,
		Strike:            pos.Strike,
		Type:              pos.Type,
		EntryPrice:        pos.EntryPrice,
		ExitPrice:         exitPrice,
		Notional:          pos.Notional,
		Profit:            profit,
		ProfitPct:         pnlPct.Mul(decimal.NewFromInt(100)),
		CapitalAfter:      b.capital,
		UnderlyingAtEntry: pos.UnderlyingAtEntry,
	}

	if err := b.book.remove(pos.ID); err != nil {
		return err
	}
	b.ledger.Append(trade)
	b.tradesToday[date]++
	b.observer.OnTradeClosed(trade)
	return nil
}

// entryPass walks the date's observations at the configured stride and opens
// at most one position. It stops as soon as any position is live or the
// per-date cap is reached.
func (b *backtester) entryPass(date time.Time) {
	day := b.table.DayQuotes(date)

	for idx := 0; idx < len(day); idx += b.config.SampleStride {
		if b.book.count() > 0 || b.tradesToday[date] >= b.config.MaxTradesPerDate {
			break
		}

		row := day[idx]
		if b.config.WarmupTime.After(row.Timestamp) {
			continue
		}

		underlying := row.Underlying
		if !underlying.IsPositive() {
			continue
		}

		expiry, ok := b.table.NearestExpiry(date)
		if !ok {
			continue
		}
		strike := atmStrike(underlying, b.config.StrikeStep)

		optType, enter := b.strategy.Decide(date, underlying, day[:idx+1])
		if !enter || !optType.Valid() {
			continue
		}

		entryPrice, ok := b.table.OptionPrice(date, expiry, strike, optType)
		if !ok || !entryPrice.IsPositive() {
			continue
		}

		pos := &types.OpenPosition{
			ID:                id.New(),
			EntryDate:         date,
			EntryTime:         row.Timestamp,
			Expiry:            expiry,
			Strike:            strike,
			Type:              optType,
			EntryPrice:        entryPrice,
			Notional:          b.capital.Mul(b.config.PositionFraction),
			UnderlyingAtEntry: underlying,
		}
		b.book.add(pos)
		b.tradesToday[date]++
		b.observer.OnTradeOpened(*pos)
	}
}

func initProgressBar(totalDates int) *progressbar.ProgressBar {
	return progressbar.NewOptions(totalDates,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
