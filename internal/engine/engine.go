package engine

import (
	"errors"

	"optionsbacktester/types"

	"github.com/shopspring/decimal"
)

var (
	ErrNilStrategy        = errors.New("no strategy configured")
	ErrNonPositiveCapital = errors.New("initial capital must be positive")
)

// Engine runs one strategy over a market table and hands out the resulting
// ledger, equity curve and final capital.
type Engine struct {
	table          *MarketTable
	strategy       Strategy
	initialCapital decimal.Decimal
	config         *SimulationConfig
	observer       Observer
	progress       bool
}

// Result is everything a run emits: the ledger in close order plus the
// per-date equity curve derived from it.
type Result struct {
	Strategy       string
	InitialCapital decimal.Decimal
	FinalCapital   decimal.Decimal
	Trades         []types.ClosedTrade
	Curve          []types.EquityPoint
}

func NewEngine(table *MarketTable, strat Strategy, initialCapital decimal.Decimal, cfg *SimulationConfig) (*Engine, error) {
	if table == nil || len(table.Dates()) == 0 {
		return nil, ErrEmptyMarketData
	}
	if strat == nil {
		return nil, ErrNilStrategy
	}
	if !initialCapital.IsPositive() {
		return nil, ErrNonPositiveCapital
	}
	if cfg == nil {
		cfg = DefaultSimulationConfig()
	}
	return &Engine{
		table:          table,
		strategy:       strat,
		initialCapital: initialCapital,
		config:         cfg,
		observer:       noopObserver{},
	}, nil
}

// SetObserver installs an event observer. Passing nil restores the no-op one.
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		e.observer = noopObserver{}
		return
	}
	e.observer = o
}

// ShowProgress toggles the console progress bar during runs.
func (e *Engine) ShowProgress(show bool) {
	e.progress = show
}

// Run performs the full time-ordered walk. A run either completes the whole
// date range or returns an error; the ledger handed out is always a
// consistent prefix of the simulation.
func (e *Engine) Run() (*Result, error) {
	bt := newBacktester(e.table, e.strategy, e.initialCapital, e.config, e.observer, e.progress)
	if err := bt.run(); err != nil {
		return nil, err
	}

	trades := bt.ledger.Trades()
	final := e.initialCapital
	if len(trades) > 0 {
		final = trades[len(trades)-1].CapitalAfter
	}

	return &Result{
		Strategy:       e.strategy.Name(),
		InitialCapital: e.initialCapital,
		FinalCapital:   final,
		Trades:         trades,
		Curve:          EquityCurve(trades),
	}, nil
}
