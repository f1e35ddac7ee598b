package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"optionsbacktester/types"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingColumn = errors.New("required column missing from csv header")
	ErrNoFiles       = errors.New("no csv files matched pattern")
)

// Exchange exports carry CE/PE option type codes.
var optionTypeCodes = map[string]types.OptionType{
	"CE":   types.OptionTypeCall,
	"PE":   types.OptionTypePut,
	"CALL": types.OptionTypeCall,
	"PUT":  types.OptionTypePut,
}

var dateLayouts = []string{"02-01-2006", "2006-01-02"}
var timeLayouts = []string{"15:04:05", "15:04"}

// LoadCSVGlob loads every file matching the pattern, keeps rows for the given
// symbol and returns the combined quote table sorted by timestamp. This is
// the ingestion side of the engine boundary: the output satisfies the
// monotonic-ordering and option-type vocabulary guarantees.
func LoadCSVGlob(pattern, symbol string) ([]types.Quote, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%q: %w", pattern, ErrNoFiles)
	}
	sort.Strings(files)

	var quotes []types.Quote
	for _, file := range files {
		fileQuotes, err := LoadCSVFile(file, symbol)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
		quotes = append(quotes, fileQuotes...)
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].Timestamp.Before(quotes[j].Timestamp)
	})
	return quotes, nil
}

func LoadCSVFile(path, symbol string) ([]types.Quote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadCSV(f, symbol)
}

// LoadCSV reads one quote export. Expected columns (by header name, case
// insensitive): Symbol, Date, Time, Expiry, Strike, Option Type, Close,
// UNDERLYING. Rows for other symbols are dropped.
func LoadCSV(r io.Reader, symbol string) ([]types.Quote, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var quotes []types.Quote
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) <= cols.max() {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(row[cols.symbol]), symbol) {
			continue
		}

		q, err := parseRow(row, cols)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

type columnIndex struct {
	symbol, date, timeOfDay, expiry, strike, optionType, close, underlying int
}

func (c columnIndex) max() int {
	m := c.symbol
	for _, i := range []int{c.date, c.timeOfDay, c.expiry, c.strike, c.optionType, c.close, c.underlying} {
		if i > m {
			m = i
		}
	}
	return m
}

func indexColumns(header []string) (columnIndex, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cols := columnIndex{}
	for _, want := range []struct {
		name string
		dst  *int
	}{
		{"symbol", &cols.symbol},
		{"date", &cols.date},
		{"time", &cols.timeOfDay},
		{"expiry", &cols.expiry},
		{"strike", &cols.strike},
		{"option type", &cols.optionType},
		{"close", &cols.close},
		{"underlying", &cols.underlying},
	} {
		i, ok := byName[want.name]
		if !ok {
			return columnIndex{}, fmt.Errorf("%q: %w", want.name, ErrMissingColumn)
		}
		*want.dst = i
	}
	return cols, nil
}

func parseRow(row []string, cols columnIndex) (types.Quote, error) {
	date, err := parseDate(row[cols.date])
	if err != nil {
		return types.Quote{}, err
	}
	clock, err := parseClock(row[cols.timeOfDay])
	if err != nil {
		return types.Quote{}, err
	}
	expiry, err := parseDate(row[cols.expiry])
	if err != nil {
		return types.Quote{}, err
	}

	strike, err := decimal.NewFromString(strings.TrimSpace(row[cols.strike]))
	if err != nil {
		return types.Quote{}, fmt.Errorf("bad strike %q: %w", row[cols.strike], err)
	}
	closePrice, err := decimal.NewFromString(strings.TrimSpace(row[cols.close]))
	if err != nil {
		return types.Quote{}, fmt.Errorf("bad close %q: %w", row[cols.close], err)
	}

	// The underlying column can be empty on some rows; those remain valid
	// option quotes but never become decision points.
	underlying := decimal.Zero
	if raw := strings.TrimSpace(row[cols.underlying]); raw != "" {
		underlying, err = decimal.NewFromString(raw)
		if err != nil {
			return types.Quote{}, fmt.Errorf("bad underlying %q: %w", row[cols.underlying], err)
		}
	}

	code := strings.ToUpper(strings.TrimSpace(row[cols.optionType]))
	optType, ok := optionTypeCodes[code]
	if !ok {
		return types.Quote{}, fmt.Errorf("unknown option type %q", row[cols.optionType])
	}

	return types.Quote{
		Timestamp:  date.Add(clock),
		Underlying: underlying,
		Expiry:     expiry,
		Strike:     strike,
		Type:       optType,
		Close:      closePrice,
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", raw)
}

func parseClock(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("bad time %q", raw)
}
