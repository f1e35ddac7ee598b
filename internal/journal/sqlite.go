package journal

import (
	"database/sql"
	"time"

	"optionsbacktester/types"

	_ "github.com/mattn/go-sqlite3"
)

// Prices and capital are stored as decimal strings so the journal stays
// exact; ULIDs keep trade rows in open order under the primary key.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t types.ClosedTrade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, strategy, entry_date, entry_time, exit_date, exit_time, expiry, strike,
		 option_type, entry_price, exit_price, notional, profit, profit_pct, capital_after,
		 underlying_at_entry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Strategy,
		t.EntryDate.Format(time.DateOnly), t.EntryTime.Format(time.TimeOnly),
		t.ExitDate.Format(time.DateOnly), t.ExitTime.Format(time.TimeOnly),
		t.Expiry.Format(time.DateOnly), t.Strike.String(), string(t.Type),
		t.EntryPrice.String(), t.ExitPrice.String(), t.Notional.String(),
		t.Profit.String(), t.ProfitPct.String(), t.CapitalAfter.String(),
		t.UnderlyingAtEntry.String(),
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(p types.EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (date, capital) VALUES (?, ?)`,
		p.Date.Format(time.DateOnly), p.Capital.String(),
	)
	return err
}

// TradeCount reports the number of journaled trades.
func (j *SQLiteJournal) TradeCount() (int, error) {
	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM trades`).Scan(&n)
	return n, err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
