package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents a complete backtest run configuration.
type Config struct {
	Data       DataConfig       `json:"data" yaml:"data"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Strategies []string         `json:"strategies" yaml:"strategies"`
	Output     OutputConfig     `json:"output" yaml:"output"`
}

// DataConfig selects the market data source.
type DataConfig struct {
	Source      string  `json:"source" yaml:"source"` // "csv" or "postgres"
	Symbol      string  `json:"symbol" yaml:"symbol"`
	CSVGlob     string  `json:"csv_glob,omitempty" yaml:"csv_glob,omitempty"`
	PostgresURL string  `json:"postgres_url,omitempty" yaml:"postgres_url,omitempty"`
	Capital     float64 `json:"initial_capital" yaml:"initial_capital"`
}

// SimulationConfig mirrors the engine's simulation parameters.
type SimulationConfig struct {
	ExitTime         string  `json:"exit_time" yaml:"exit_time"`     // "15:00"
	WarmupTime       string  `json:"warmup_time" yaml:"warmup_time"` // "09:30"
	SampleStride     int     `json:"sample_stride" yaml:"sample_stride"`
	StrikeStep       float64 `json:"strike_step" yaml:"strike_step"`
	PositionFraction float64 `json:"position_fraction" yaml:"position_fraction"`
	MaxTradesPerDate int     `json:"max_trades_per_date" yaml:"max_trades_per_date"`
}

// OutputConfig contains ledger emission parameters.
type OutputConfig struct {
	TradesCSV  string `json:"trades_csv,omitempty" yaml:"trades_csv,omitempty"`
	EquityCSV  string `json:"equity_csv,omitempty" yaml:"equity_csv,omitempty"`
	ReportFile string `json:"report_file,omitempty" yaml:"report_file,omitempty"`
	JournalDB  string `json:"journal_db,omitempty" yaml:"journal_db,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ParseTimeOfDay splits an "HH:MM" value into hour and minute.
func ParseTimeOfDay(raw string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad time of day %q (want HH:MM)", raw)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad time of day %q: %w", raw, err)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad time of day %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time of day %q out of range", raw)
	}
	return hour, minute, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Data.Source != "csv" && c.Data.Source != "postgres" {
		return fmt.Errorf("data.source must be 'csv' or 'postgres'")
	}
	if c.Data.Symbol == "" {
		return fmt.Errorf("data.symbol is required")
	}
	if c.Data.Source == "csv" && c.Data.CSVGlob == "" {
		return fmt.Errorf("data.csv_glob required for csv source")
	}
	if c.Data.Source == "postgres" && c.Data.PostgresURL == "" {
		return fmt.Errorf("data.postgres_url required for postgres source")
	}
	if c.Data.Capital <= 0 {
		return fmt.Errorf("data.initial_capital must be positive")
	}
	if _, _, err := ParseTimeOfDay(c.Simulation.ExitTime); err != nil {
		return fmt.Errorf("simulation.exit_time: %w", err)
	}
	if _, _, err := ParseTimeOfDay(c.Simulation.WarmupTime); err != nil {
		return fmt.Errorf("simulation.warmup_time: %w", err)
	}
	if c.Simulation.SampleStride <= 0 {
		return fmt.Errorf("simulation.sample_stride must be positive")
	}
	if c.Simulation.StrikeStep <= 0 {
		return fmt.Errorf("simulation.strike_step must be positive")
	}
	if c.Simulation.PositionFraction <= 0 || c.Simulation.PositionFraction > 1 {
		return fmt.Errorf("simulation.position_fraction must be between 0 and 1")
	}
	if c.Simulation.MaxTradesPerDate <= 0 {
		return fmt.Errorf("simulation.max_trades_per_date must be positive")
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("at least one strategy is required")
	}
	return nil
}

// Default returns a configuration with the standard intraday setup.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Source:  "csv",
			Symbol:  "NIFTY",
			CSVGlob: "./data/*.csv",
			Capital: 1_000_000,
		},
		Simulation: SimulationConfig{
			ExitTime:         "15:00",
			WarmupTime:       "09:30",
			SampleStride:     5,
			StrikeStep:       50,
			PositionFraction: 0.1,
			MaxTradesPerDate: 3,
		},
		Strategies: []string{"directional", "mean-reversion", "semi-directional"},
		Output: OutputConfig{
			TradesCSV: "./combined_trades.csv",
			EquityCSV: "./combined_equity_curve.csv",
		},
	}
}
