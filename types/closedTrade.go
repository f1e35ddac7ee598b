package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClosedTrade is an immutable ledger record. CapitalAfter reflects cumulative
// realized P&L up to and including this trade, in ledger order.
type ClosedTrade struct {
	ID                string
	Strategy          string
	EntryDate         time.Time
	EntryTime         time.Time
	ExitDate          time.Time
	ExitTime          time.Time
	Expiry            time.Time
	Strike            decimal.Decimal
	Type              OptionType
	EntryPrice        decimal.Decimal
	ExitPrice         decimal.Decimal
	Notional          decimal.Decimal
	Profit            decimal.Decimal
	ProfitPct         decimal.Decimal
	CapitalAfter      decimal.Decimal
	UnderlyingAtEntry decimal.Decimal
}
