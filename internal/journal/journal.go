package journal

import (
	"optionsbacktester/types"
)

// Journal receives the closed-trade ledger and equity curve of a run for
// external reporting. Implementations are pure consumers: the engine never
// reads anything back during a simulation.
type Journal interface {
	RecordTrade(trade types.ClosedTrade) error
	RecordEquity(point types.EquityPoint) error
	Close() error
}
