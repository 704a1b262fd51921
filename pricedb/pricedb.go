// Package pricedb archives price and forex series in a SQLite database, so
// that valuations can run offline and reproducibly.
package pricedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS quotes (
	series TEXT NOT NULL,
	day    TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (series, day)
);`

// DB is a series archive. It implements feed.Feed and feed.Store.
type DB struct {
	db *sql.DB
}

// Open opens (and creates if needed) the archive at path. Use ":memory:" for
// a transient one.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening price database %q: %w", path, err)
	}
	// a single connection, also keeps ":memory:" alive across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating price database schema in %q: %w", path, err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

// pairKey is the series name of a forex pair.
func pairKey(currency, base string) string { return currency + "/" + base }

// Prices returns the archived prices of symbol in r.
func (d *DB) Prices(ctx context.Context, symbol string, r date.Range, _ date.Period) (valuation.PriceSeries, error) {
	return d.load(ctx, symbol, r)
}

// Rates returns the archived rates of currency in base in r.
func (d *DB) Rates(ctx context.Context, currency, base string, r date.Range, _ date.Period) (valuation.ForexSeries, error) {
	return d.load(ctx, pairKey(currency, base), r)
}

// SavePrices archives s as the prices of symbol, overwriting existing days.
func (d *DB) SavePrices(ctx context.Context, symbol string, s valuation.PriceSeries) error {
	return d.save(ctx, symbol, s)
}

// SaveRates archives s as the rates of currency in base.
func (d *DB) SaveRates(ctx context.Context, currency, base string, s valuation.ForexSeries) error {
	return d.save(ctx, pairKey(currency, base), s)
}

// Series lists archived series names and their number of quotes.
func (d *DB) Series(ctx context.Context) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT series, COUNT(*) FROM quotes GROUP BY series`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}

func (d *DB) save(ctx context.Context, name string, s *date.History[decimal.Decimal]) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO quotes (series, day, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for on, v := range s.Values() {
		if _, err = stmt.ExecContext(ctx, name, on.String(), v.String()); err != nil {
			return fmt.Errorf("saving %s on %s: %w", name, on, err)
		}
	}
	return tx.Commit()
}

func (d *DB) load(ctx context.Context, name string, r date.Range) (*date.History[decimal.Decimal], error) {
	from, to := "0000-01-01", "9999-12-31"
	if !r.From.IsZero() {
		from = r.From.String()
	}
	if !r.To.IsZero() {
		to = r.To.String()
	}
	rows, err := d.db.QueryContext(ctx, `SELECT day, value FROM quotes WHERE series = ? AND day >= ? AND day <= ? ORDER BY day`, name, from, to)
	if err != nil {
		return nil, &valuation.SymbolDataUnavailableError{Symbol: name, Err: err}
	}
	defer rows.Close()

	h := new(date.History[decimal.Decimal])
	for rows.Next() {
		var day, value string
		if err := rows.Scan(&day, &value); err != nil {
			return nil, &valuation.MalformedSeriesError{Symbol: name, Err: err}
		}
		on, err := date.Parse(day)
		if err != nil {
			return nil, &valuation.MalformedSeriesError{Symbol: name, Err: err}
		}
		v, err := decimal.NewFromString(value)
		if err != nil {
			return nil, &valuation.MalformedSeriesError{Symbol: name, Err: fmt.Errorf("on %s: %w", day, err)}
		}
		h.Append(on, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &valuation.SymbolDataUnavailableError{Symbol: name, Err: err}
	}
	if h.Len() == 0 {
		return nil, &valuation.SymbolDataUnavailableError{Symbol: name, Err: valuation.ErrNoDataAvailable}
	}
	return h, nil
}
