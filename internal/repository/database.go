package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"optionsbacktester/types"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Global error declarations.
var (
	ErrNoQuotes = errors.New("no quotes found in datasource")
)

const getQuotesSQL = `
SELECT ts, underlying, expiry, strike, option_type, close
FROM option_quotes
WHERE symbol = $1 AND ts >= $2 AND ts < $3
ORDER BY ts`

type quoteQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Database holds the Postgres connection serving the quote table.
type Database struct {
	quotes quoteQuerier
	conn   *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(dbURL string) (Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return Database{}, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return Database{}, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(context.Background()); err != nil {
		return Database{}, err
	}

	return Database{quotes: conn, conn: conn}, nil
}

// GetQuotes retrieves the normalized quote table for a symbol between start
// (inclusive) and end (exclusive), in timestamp order.
func (db *Database) GetQuotes(ctx context.Context, symbol string, start, end time.Time) ([]types.Quote, error) {
	rows, err := db.quotes.Query(ctx, getQuotesSQL, symbol, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []types.Quote
	for rows.Next() {
		var q types.Quote
		var optType string
		if err := rows.Scan(&q.Timestamp, &q.Underlying, &q.Expiry, &q.Strike, &optType, &q.Close); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Type = types.OptionType(optType)
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoQuotes)
	}
	return quotes, nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}
