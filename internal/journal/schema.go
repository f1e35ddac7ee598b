package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	strategy TEXT NOT NULL,
	entry_date TEXT NOT NULL,
	entry_time TEXT NOT NULL,
	exit_date TEXT NOT NULL,
	exit_time TEXT NOT NULL,
	expiry TEXT NOT NULL,
	strike TEXT NOT NULL,
	option_type TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	exit_price TEXT NOT NULL,
	notional TEXT NOT NULL,
	profit TEXT NOT NULL,
	profit_pct TEXT NOT NULL,
	capital_after TEXT NOT NULL,
	underlying_at_entry TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	date TEXT NOT NULL,
	capital TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_date ON equity(date);
`
