package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// CSVDir is a directory of series files: <SYMBOL>.csv for prices and
// <CURRENCY><BASE>.csv for forex, each with a "Date,Close" header.
type CSVDir struct {
	Dir string
}

var _ Feed = CSVDir{}
var _ Store = CSVDir{}

func (c CSVDir) path(name string) string { return filepath.Join(c.Dir, name+".csv") }

// Prices implements PriceFeed.
func (c CSVDir) Prices(ctx context.Context, symbol string, r date.Range, _ date.Period) (valuation.PriceSeries, error) {
	s, err := c.read(symbol)
	if err != nil {
		return nil, err
	}
	return within(s, r), nil
}

// Rates implements ForexFeed. When only the inverse pair is available its
// rates are inverted.
func (c CSVDir) Rates(ctx context.Context, currency, base string, r date.Range, _ date.Period) (valuation.ForexSeries, error) {
	s, err := c.read(currency + base)
	if errors.Is(err, valuation.ErrNoDataAvailable) {
		var inv valuation.ForexSeries
		if inv, err = c.read(base + currency); err == nil {
			s = invert(inv)
		}
	}
	if err != nil {
		return nil, err
	}
	return within(s, r), nil
}

// SavePrices implements Store.
func (c CSVDir) SavePrices(ctx context.Context, symbol string, s valuation.PriceSeries) error {
	return c.write(symbol, s)
}

// SaveRates implements Store.
func (c CSVDir) SaveRates(ctx context.Context, currency, base string, s valuation.ForexSeries) error {
	return c.write(currency+base, s)
}

func (c CSVDir) read(name string) (*date.History[decimal.Decimal], error) {
	f, err := os.Open(c.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &valuation.SymbolDataUnavailableError{Symbol: name, Err: valuation.ErrNoDataAvailable}
	}
	if err != nil {
		return nil, &valuation.SymbolDataUnavailableError{Symbol: name, Err: err}
	}
	defer f.Close()
	return ReadSeries(name, f)
}

func (c CSVDir) write(name string, s *date.History[decimal.Decimal]) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(c.path(name))
	if err != nil {
		return err
	}
	if err := WriteSeries(f, s); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

// ReadSeries reads a "Date,Close" CSV series. Extra columns are ignored, the
// value is read from the "Close" column, or the second one when there is none.
// Rows with an empty value are skipped.
func ReadSeries(symbol string, r io.Reader) (*date.History[decimal.Decimal], error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, &valuation.MalformedSeriesError{Symbol: symbol, Line: 1, Err: err}
	}
	col := 1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "close") {
			col = i
		}
	}

	h := new(date.History[decimal.Decimal])
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return h, nil
		}
		if err != nil {
			return nil, &valuation.MalformedSeriesError{Symbol: symbol, Line: line, Err: err}
		}
		if len(rec) <= col {
			return nil, &valuation.MalformedSeriesError{Symbol: symbol, Line: line, Err: fmt.Errorf("want at least %d columns got %d", col+1, len(rec))}
		}
		on, err := date.Parse(rec[0])
		if err != nil {
			return nil, &valuation.MalformedSeriesError{Symbol: symbol, Line: line, Err: err}
		}
		v := strings.TrimSpace(rec[col])
		if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "nan") {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, &valuation.MalformedSeriesError{Symbol: symbol, Line: line, Err: err}
		}
		h.Append(on, d)
	}
}

// WriteSeries writes s as a "Date,Close" CSV series.
func WriteSeries(w io.Writer, s *date.History[decimal.Decimal]) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Close"}); err != nil {
		return err
	}
	for on, v := range s.Values() {
		if err := cw.Write([]string{on.String(), v.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// within returns the part of s in r.
func within(s *date.History[decimal.Decimal], r date.Range) *date.History[decimal.Decimal] {
	if r.From.IsZero() && r.To.IsZero() {
		return s
	}
	out := new(date.History[decimal.Decimal])
	for on, v := range s.Values() {
		if (r.From.IsZero() || !on.Before(r.From)) && (r.To.IsZero() || !on.After(r.To)) {
			out.Append(on, v)
		}
	}
	return out
}

// invert returns 1/rate for every non zero rate.
func invert(s *date.History[decimal.Decimal]) *date.History[decimal.Decimal] {
	out := new(date.History[decimal.Decimal])
	one := decimal.NewFromInt(1)
	for on, v := range s.Values() {
		if !v.IsZero() {
			out.Append(on, one.Div(v))
		}
	}
	return out
}
