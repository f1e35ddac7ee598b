package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionState string

const (
	PositionStateOpen   PositionState = "OPEN"
	PositionStateClosed PositionState = "CLOSED"
)

// OpenPosition is a live simulated trade. It is owned exclusively by the
// engine's position book from open until it is converted into a ClosedTrade.
type OpenPosition struct {
	ID                string
	State             PositionState
	EntryDate         time.Time
	EntryTime         time.Time
	Expiry            time.Time
	Strike            decimal.Decimal
	Type              OptionType
	EntryPrice        decimal.Decimal
	Notional          decimal.Decimal
	UnderlyingAtEntry decimal.Decimal
}
