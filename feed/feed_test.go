package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFeed serves fixed series and records requests.
type fakeFeed struct {
	prices    map[string]*date.History[decimal.Decimal]
	rates     map[string]*date.History[decimal.Decimal]
	requested []string
}

func (f *fakeFeed) Prices(ctx context.Context, symbol string, r date.Range, p date.Period) (valuation.PriceSeries, error) {
	f.requested = append(f.requested, symbol)
	if symbol == "BOOM" {
		return nil, errors.New("connection reset")
	}
	s, ok := f.prices[symbol]
	if !ok {
		return nil, &valuation.SymbolDataUnavailableError{Symbol: symbol, Err: valuation.ErrNoDataAvailable}
	}
	return s, nil
}

func (f *fakeFeed) Rates(ctx context.Context, currency, base string, r date.Range, p date.Period) (valuation.ForexSeries, error) {
	f.requested = append(f.requested, currency+base)
	s, ok := f.rates[currency+base]
	if !ok {
		return nil, valuation.ErrNoDataAvailable
	}
	return s, nil
}

func series(pairs ...string) *date.History[decimal.Decimal] {
	h := new(date.History[decimal.Decimal])
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Append(date.MustParse(pairs[i]), decimal.RequireFromString(pairs[i+1]))
	}
	return h
}

func TestCollect(t *testing.T) {
	f := &fakeFeed{
		prices: map[string]*date.History[decimal.Decimal]{
			"ABC":   series("2020-01-02", "5"),
			"SPY":   series("2020-01-02", "300"),
			"EMPTY": series(),
		},
		rates: map[string]*date.History[decimal.Decimal]{
			"EURUSD": series("2020-01-02", "1.1"),
		},
	}
	ledger := valuation.NewLedger(
		valuation.Trade{Date: date.MustParse("2020-01-02"), Symbol: "ABC", Action: valuation.Buy, Currency: "USD", Quantity: decimal.NewFromInt(1)},
		valuation.Trade{Date: date.MustParse("2020-01-02"), Symbol: "BOOM", Action: valuation.Buy, Currency: "EUR", Quantity: decimal.NewFromInt(1)},
		valuation.Trade{Date: date.MustParse("2020-01-02"), Symbol: "MISSING", Action: valuation.Buy, Currency: "GBP", Quantity: decimal.NewFromInt(1)},
		valuation.Trade{Date: date.MustParse("2020-01-02"), Symbol: "EMPTY", Action: valuation.Buy, Currency: "USD", Quantity: decimal.NewFromInt(1)},
	)
	req := RequestOf(ledger, valuation.Config{Benchmark: "SPY"}, date.Range{From: date.MustParse("2020-01-01"), To: date.MustParse("2020-01-03")})
	require.Equal(t, "USD", req.Base)

	prices, fx, skipped, err := Collect(context.Background(), req, f, f, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"ABC", "BOOM", "MISSING", "EMPTY", "SPY", "EURUSD", "GBPUSD"}, f.requested, "the base currency is never requested")
	assert.Contains(t, prices, "ABC")
	assert.Contains(t, prices, "SPY")
	assert.Len(t, prices, 2)
	assert.Contains(t, fx, "EUR")
	assert.Len(t, fx, 1)

	var names []string
	for _, s := range skipped {
		names = append(names, s.Symbol+s.Currency)
		var u *valuation.SymbolDataUnavailableError
		assert.ErrorAs(t, s.Err, &u)
		assert.Equal(t, -1, s.Trade)
	}
	assert.Equal(t, []string{"BOOM", "MISSING", "EMPTY", "GBP"}, names)
	assert.ErrorIs(t, skipped[1].Err, valuation.ErrNoDataAvailable)
	assert.ErrorIs(t, skipped[2].Err, valuation.ErrNoDataAvailable)
}

func TestCollectCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeFeed{}
	_, _, _, err := Collect(ctx, Request{Symbols: []string{"BOOM"}, Base: "USD"}, f, f, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type memStore struct {
	saved []string
}

func (m *memStore) SavePrices(ctx context.Context, symbol string, s valuation.PriceSeries) error {
	if symbol == "BAD" {
		return errors.New("disk full")
	}
	m.saved = append(m.saved, symbol)
	return nil
}

func (m *memStore) SaveRates(ctx context.Context, currency, base string, s valuation.ForexSeries) error {
	m.saved = append(m.saved, currency+"/"+base)
	return nil
}

func TestArchive(t *testing.T) {
	m := &memStore{}
	err := Archive(context.Background(), m, "USD",
		valuation.PriceTable{"ABC": series("2020-01-02", "5"), "BAD": series("2020-01-02", "1")},
		valuation.ForexTable{"EUR": series("2020-01-02", "1.1")},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving BAD")
	assert.ElementsMatch(t, []string{"ABC", "EUR/USD"}, m.saved)
}
