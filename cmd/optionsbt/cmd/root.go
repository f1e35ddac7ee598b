package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "optionsbt",
	Short: "Intraday options strategy backtester",
	Long: `Optionsbt simulates intraday options-trading strategies against
historical quote data and computes standardized performance metrics.

It provides tools for:
  - Backtesting entry-signal strategies over normalized quote tables
  - Loading market data from CSV exports or Postgres
  - Emitting trade ledgers and equity curves as CSV or SQLite
  - CAGR, drawdown, Sharpe, win-rate and streak reporting`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
