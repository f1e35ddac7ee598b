package engine

import (
	"time"

	"optionsbacktester/types"

	"github.com/shopspring/decimal"
)

// Strategy decides whether to open a position at a decision point. Decide must
// be a pure function of the supplied observation window: no state carried
// across calls, no peeking past the current observation. Observations are the
// current date's quotes up to and including the sampled one, in time order.
type Strategy interface {
	Name() string
	Decide(date time.Time, underlying decimal.Decimal, observations []types.Quote) (types.OptionType, bool)
}

// Observer receives engine lifecycle events. All methods are invoked from the
// engine's single control flow; implementations must not mutate engine state.
type Observer interface {
	OnTradeOpened(pos types.OpenPosition)
	OnTradeClosed(trade types.ClosedTrade)
	OnDateProcessed(date time.Time, tradesToday int)
}

type noopObserver struct{}

func (noopObserver) OnTradeOpened(types.OpenPosition) {}
func (noopObserver) OnTradeClosed(types.ClosedTrade)  {}
func (noopObserver) OnDateProcessed(time.Time, int)   {}
