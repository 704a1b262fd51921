package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// tradeColumns are the header names of a trades file, in their usual order.
var tradeColumns = []string{"date", "symbol", "type", "currency", "shares", "price", "commission"}

// ReadTrades reads a ledger from a trades CSV file with a header line
// "Date,Symbol,Type,Currency,Shares,Price,Commission".
//
// Columns are matched by name. Rows with an empty or invalid field are
// logged and dropped, so that every trade of the ledger is valid.
func ReadTrades(r io.Reader, log *zap.Logger) (*valuation.Ledger, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading trades header: %w", err)
	}
	cols := make(map[string]int)
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range tradeColumns[:6] {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("trades header %v has no %q column", header, c)
		}
	}

	ledger := valuation.NewLedger()
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading trades line %d: %w", line, err)
		}
		t, err := parseTrade(rec, cols)
		if err == nil {
			err = t.Validate()
		}
		if err != nil {
			log.Warn("dropping trade", zap.Int("line", line), zap.Strings("record", rec), zap.Error(err))
			continue
		}
		ledger.Append(t)
	}
	return ledger, nil
}

// ReadTradesFile reads a ledger from a trades CSV file.
func ReadTradesFile(name string, log *zap.Logger) (*valuation.Ledger, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ledger, err := ReadTrades(f, log)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", name, err)
	}
	return ledger, nil
}

func parseTrade(rec []string, cols map[string]int) (t valuation.Trade, err error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	number := func(name string) decimal.Decimal {
		v := field(name)
		if v == "" && name == "commission" {
			return decimal.Zero
		}
		d, e := decimal.NewFromString(v)
		if e != nil {
			err = errors.Join(err, fmt.Errorf("invalid %s %q", name, v))
		}
		return d
	}

	if t.Date, err = date.Parse(field("date")); err != nil {
		return t, err
	}
	if t.Action, err = valuation.ParseAction(field("type")); err != nil {
		return t, err
	}
	t.Symbol = field("symbol")
	t.Currency = strings.ToUpper(field("currency"))
	t.Quantity = number("shares")
	t.Price = number("price")
	t.Commission = number("commission")
	if t.Currency == "" {
		err = errors.Join(err, errors.New("currency is missing"))
	}
	return t, err
}
