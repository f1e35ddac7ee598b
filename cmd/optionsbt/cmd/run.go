package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"optionsbacktester/internal/config"
	"optionsbacktester/internal/engine"
	"optionsbacktester/internal/journal"
	"optionsbacktester/internal/repository"
	"optionsbacktester/strategies/directional"
	"optionsbacktester/strategies/meanreversion"
	"optionsbacktester/strategies/semidirectional"
	"optionsbacktester/types"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest over historical quote data",
	Long: `Run executes one or more entry-signal strategies over a normalized
quote table, prints per-strategy performance reports, combines the ledgers
into a single portfolio and emits the configured artifacts.

Example:
  optionsbt run --data 'data/*.csv' --symbol NIFTY --strategy directional,mean-reversion`,
	RunE: runBacktest,
}

var (
	runConfigPath string
	runDataGlob   string
	runSymbol     string
	runCapital    float64
	runStrategies string
	runJournalDB  string
	runTradesCSV  string
	runEquityCSV  string
	runReportFile string
	runStart      string
	runEnd        string
	runVerbose    bool
	runProgress   bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON run configuration")
	runCmd.Flags().StringVarP(&runDataGlob, "data", "d", "", "glob of quote CSV files (overrides config)")
	runCmd.Flags().StringVar(&runSymbol, "symbol", "", "underlying symbol (overrides config)")
	runCmd.Flags().Float64VarP(&runCapital, "capital", "b", 0, "initial capital (overrides config)")
	runCmd.Flags().StringVarP(&runStrategies, "strategy", "s", "", "comma-separated strategy names (overrides config)")
	runCmd.Flags().StringVar(&runJournalDB, "journal", "", "path to SQLite ledger journal")
	runCmd.Flags().StringVar(&runTradesCSV, "trades-csv", "", "path for combined trades CSV")
	runCmd.Flags().StringVar(&runEquityCSV, "equity-csv", "", "path for combined equity curve CSV")
	runCmd.Flags().StringVar(&runReportFile, "report", "", "path for text performance report")
	runCmd.Flags().StringVar(&runStart, "start", "", "postgres source: range start (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "postgres source: range end (YYYY-MM-DD)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "log every trade open/close")
	runCmd.Flags().BoolVar(&runProgress, "progress", true, "show the progress bar")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	quotes, err := loadQuotes(cfg)
	if err != nil {
		return fmt.Errorf("load market data: %w", err)
	}

	table, err := engine.NewMarketTable(quotes)
	if err != nil {
		return err
	}

	simCfg, err := simulationConfig(cfg.Simulation)
	if err != nil {
		return err
	}
	initialCapital := decimal.NewFromFloat(cfg.Data.Capital)

	fmt.Printf("Loaded %d quotes across %d trading dates\n\n", len(quotes), len(table.Dates()))

	var ledgers [][]types.ClosedTrade
	for _, name := range cfg.Strategies {
		strat, err := strategyByName(name)
		if err != nil {
			return err
		}

		eng, err := engine.NewEngine(table, strat, initialCapital, simCfg)
		if err != nil {
			return err
		}
		eng.ShowProgress(runProgress)
		if runVerbose {
			eng.SetObserver(consoleObserver{})
		}

		fmt.Printf("Running %s strategy...\n", strat.Name())
		result, err := eng.Run()
		if err != nil {
			return fmt.Errorf("run %s: %w", strat.Name(), err)
		}
		fmt.Printf("\nGenerated %d trades\n", len(result.Trades))

		report := engine.ComputeReport(result.Trades, initialCapital)
		engine.PrintReport(strat.Name(), report)
		ledgers = append(ledgers, result.Trades)
	}

	combined := engine.CombinePortfolio(initialCapital, ledgers...)
	curve := engine.EquityCurve(combined)
	combinedReport := engine.ComputeReport(combined, initialCapital)
	engine.PrintReport("Combined Portfolio", combinedReport)

	reporting := engine.NewReportingConfig("Combined Portfolio", false, cfg.Output.TradesCSV, cfg.Output.EquityCSV, cfg.Output.ReportFile)
	if err := engine.WriteOutputs(reporting, combined, curve, combinedReport); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}

	if cfg.Output.JournalDB != "" {
		if err := journalLedger(cfg.Output.JournalDB, combined, curve); err != nil {
			return fmt.Errorf("journal ledger: %w", err)
		}
	}
	return nil
}

func loadRunConfig() (*config.Config, error) {
	cfg := config.Default()
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if runDataGlob != "" {
		cfg.Data.CSVGlob = runDataGlob
		cfg.Data.Source = "csv"
	}
	if runSymbol != "" {
		cfg.Data.Symbol = runSymbol
	}
	if runCapital > 0 {
		cfg.Data.Capital = runCapital
	}
	if runStrategies != "" {
		cfg.Strategies = strings.Split(runStrategies, ",")
	}
	if runJournalDB != "" {
		cfg.Output.JournalDB = runJournalDB
	}
	if runTradesCSV != "" {
		cfg.Output.TradesCSV = runTradesCSV
	}
	if runEquityCSV != "" {
		cfg.Output.EquityCSV = runEquityCSV
	}
	if runReportFile != "" {
		cfg.Output.ReportFile = runReportFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadQuotes(cfg *config.Config) ([]types.Quote, error) {
	switch cfg.Data.Source {
	case "csv":
		return repository.LoadCSVGlob(cfg.Data.CSVGlob, cfg.Data.Symbol)

	case "postgres":
		db, err := repository.NewDatabase(cfg.Data.PostgresURL)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		start, end, err := quoteRange()
		if err != nil {
			return nil, err
		}
		return db.GetQuotes(context.Background(), cfg.Data.Symbol, start, end)

	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

func quoteRange() (time.Time, time.Time, error) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Now().UTC()

	if runStart != "" {
		t, err := time.ParseInLocation(time.DateOnly, runStart, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad --start: %w", err)
		}
		start = t
	}
	if runEnd != "" {
		t, err := time.ParseInLocation(time.DateOnly, runEnd, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad --end: %w", err)
		}
		end = t
	}
	return start, end, nil
}

func simulationConfig(sim config.SimulationConfig) (*engine.SimulationConfig, error) {
	exitH, exitM, err := config.ParseTimeOfDay(sim.ExitTime)
	if err != nil {
		return nil, err
	}
	warmH, warmM, err := config.ParseTimeOfDay(sim.WarmupTime)
	if err != nil {
		return nil, err
	}
	return engine.NewSimulationConfig(
		engine.TimeOfDay{Hour: exitH, Minute: exitM},
		engine.TimeOfDay{Hour: warmH, Minute: warmM},
		sim.SampleStride,
		decimal.NewFromFloat(sim.StrikeStep),
		decimal.NewFromFloat(sim.PositionFraction),
		sim.MaxTradesPerDate,
	), nil
}

func strategyByName(name string) (engine.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "directional", "momentum":
		return directional.New(), nil
	case "mean-reversion", "meanreversion":
		return meanreversion.New(), nil
	case "semi-directional", "semidirectional":
		return semidirectional.New(), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: directional, mean-reversion, semi-directional)", name)
	}
}

func journalLedger(dbPath string, trades []types.ClosedTrade, curve []types.EquityPoint) error {
	j, err := journal.NewSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	for _, t := range trades {
		if err := j.RecordTrade(t); err != nil {
			return err
		}
	}
	for _, p := range curve {
		if err := j.RecordEquity(p); err != nil {
			return err
		}
	}
	return nil
}

// consoleObserver mirrors engine events to stdout.
type consoleObserver struct{}

func (consoleObserver) OnTradeOpened(pos types.OpenPosition) {
	fmt.Printf("  entry: %s at %s - %s at strike %s\n",
		pos.EntryDate.Format(time.DateOnly), pos.EntryTime.Format("15:04"), pos.Type, pos.Strike)
}

func (consoleObserver) OnTradeClosed(trade types.ClosedTrade) {
	fmt.Printf("  exit:  %s at %s - profit %s\n",
		trade.ExitDate.Format(time.DateOnly), trade.ExitTime.Format("15:04"), trade.Profit.StringFixed(2))
}

func (consoleObserver) OnDateProcessed(time.Time, int) {}
