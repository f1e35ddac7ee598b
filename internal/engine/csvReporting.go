package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"optionsbacktester/types"
)

const dateLayout = "2006-01-02"

// WriteTradesCSVFile writes the ledger to a CSV file at the given path.
func WriteTradesCSVFile(path string, trades []types.ClosedTrade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return WriteTradesCSV(f, trades)
}

// WriteTradesCSV writes the ledger to any io.Writer as CSV. Pass os.Stdout
// for debugging, or a file.
func WriteTradesCSV(w io.Writer, trades []types.ClosedTrade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"trade_id",
		"strategy",
		"entry_date",
		"entry_time",
		"exit_date",
		"exit_time",
		"option_type",
		"strike",
		"expiry",
		"entry_price",
		"exit_price",
		"notional",
		"profit",
		"profit_pct",
		"capital_after",
		"underlying_at_entry",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range trades {
		record := []string{
			t.ID,
			t.Strategy,
			t.EntryDate.Format(dateLayout),
			t.EntryTime.Format(time.TimeOnly),
			t.ExitDate.Format(dateLayout),
			t.ExitTime.Format(time.TimeOnly),
			string(t.Type),
			t.Strike.String(),
			t.Expiry.Format(dateLayout),
			t.EntryPrice.String(),
			t.ExitPrice.String(),
			t.Notional.String(),
			t.Profit.String(),
			t.ProfitPct.String(),
			t.CapitalAfter.String(),
			t.UnderlyingAtEntry.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteEquityCSVFile writes the equity curve to a CSV file at the given path.
func WriteEquityCSVFile(path string, curve []types.EquityPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create equity file: %w", err)
	}
	defer f.Close()

	return WriteEquityCSV(f, curve)
}

func WriteEquityCSV(w io.Writer, curve []types.EquityPoint) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"date", "capital"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range curve {
		if err := cw.Write([]string{p.Date.Format(dateLayout), p.Capital.String()}); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteOutputs emits the configured report artifacts: trades CSV, equity CSV
// and the text performance report.
func WriteOutputs(cfg *ReportingConfig, trades []types.ClosedTrade, curve []types.EquityPoint, report *Report) error {
	if cfg == nil {
		return nil
	}
	if cfg.printTrades {
		if err := WriteTradesCSV(os.Stdout, trades); err != nil {
			return err
		}
	}
	if cfg.tradesPath != "" {
		if err := WriteTradesCSVFile(cfg.tradesPath, trades); err != nil {
			return err
		}
	}
	if cfg.equityPath != "" {
		if err := WriteEquityCSVFile(cfg.equityPath, curve); err != nil {
			return err
		}
	}
	if cfg.reportPath != "" {
		f, err := os.Create(cfg.reportPath)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		WriteReport(f, cfg.reportName, report)
	}
	return nil
}
