package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquityPoint is the last capital snapshot recorded on a date. Curves are
// emitted with strictly increasing dates; the first point is the
// normalization base for cumulative return and drawdown calculations.
type EquityPoint struct {
	Date    time.Time       `json:"date"`
	Capital decimal.Decimal `json:"capital"`
}
