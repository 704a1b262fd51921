package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report(t *testing.T) (*valuation.Ledger, *valuation.Report) {
	t.Helper()
	buy := func(symbol string) valuation.Trade {
		return valuation.Trade{Date: date.MustParse("2020-01-02"), Symbol: symbol, Action: valuation.Buy, Currency: "USD", Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(5)}
	}
	ledger := valuation.NewLedger(buy("ABC"), buy("ABC"), buy("MISSING"))
	prices := new(date.History[decimal.Decimal]).Append(date.MustParse("2020-01-02"), decimal.RequireFromString("5.5"))
	r, err := valuation.ValuePortfolio(ledger, valuation.PriceTable{"ABC": prices}, nil, valuation.Config{Today: date.MustParse("2020-01-02")})
	require.NoError(t, err)
	return ledger, r
}

func TestObserveRun(t *testing.T) {
	rec := New()
	ledger, r := report(t)
	rec.ObserveRun(ledger, r, "USD", time.Unix(1600000000, 0))

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Runs))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.Trades.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Trades.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Dropped))
	assert.Equal(t, 110.0, testutil.ToFloat64(rec.Value.WithLabelValues("USD")))
	assert.Equal(t, 1600000000.0, testutil.ToFloat64(rec.LastRun))
}

func TestObserveRunBenchmarkSkip(t *testing.T) {
	on := date.MustParse("2020-01-01")
	buy := func(on date.Date) valuation.Trade {
		return valuation.Trade{Date: on, Symbol: "ABC", Action: valuation.Buy, Currency: "USD", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(5)}
	}
	ledger := valuation.NewLedger(buy(on), buy(on.Add(1)))
	prices := valuation.PriceTable{
		"ABC": new(date.History[decimal.Decimal]).Append(on, decimal.NewFromInt(5)).Append(on.Add(1), decimal.NewFromInt(5)),
		"SPY": new(date.History[decimal.Decimal]).Append(on, decimal.NewFromInt(100)),
	}
	r, err := valuation.ValuePortfolio(ledger, prices, nil, valuation.Config{Benchmark: "SPY", Today: on.Add(1)})
	require.NoError(t, err)
	require.Len(t, r.Skipped, 1)
	require.True(t, r.Skipped[0].Benchmark)

	rec := New()
	rec.ObserveRun(ledger, r, "USD", time.Unix(1600000000, 0))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.Trades.WithLabelValues("applied")), "both trades are in the holdings")
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.Trades.WithLabelValues("skipped")))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.Dropped))
	assert.Equal(t, 10.0, testutil.ToFloat64(rec.Value.WithLabelValues("USD")))
}

func TestObserveFetch(t *testing.T) {
	rec := New()
	rec.ObserveFetch(1500*time.Millisecond, 3, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.FetchedSeries.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.FetchedSeries.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.FetchDuration))
}

func TestWriteTextfile(t *testing.T) {
	rec := New()
	rec.Runs.Inc()
	path := filepath.Join(t.TempDir(), "valuation.prom")

	require.NoError(t, rec.WriteTextfile(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "valuation_runs_total 1")

	assert.NoError(t, rec.WriteTextfile(""))
}
