// Package metrics counts what valuation runs do, for the Prometheus node
// exporter textfile collector.
package metrics

import (
	"time"

	"github.com/etnz/valuation"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the metrics of one pval process in its own registry.
type Recorder struct {
	reg *prometheus.Registry

	Runs          prometheus.Counter
	Trades        *prometheus.CounterVec
	Dropped       prometheus.Counter
	Value         *prometheus.GaugeVec
	LastRun       prometheus.Gauge
	FetchDuration prometheus.Histogram
	FetchedSeries *prometheus.CounterVec
}

// New returns a Recorder with all its metrics registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "valuation_runs_total",
			Help: "Number of portfolio valuations.",
		}),
		Trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valuation_trades_total",
			Help: "Trades folded into holdings, by status (applied or skipped).",
		}, []string{"status"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "valuation_series_dropped_total",
			Help: "Symbols and currencies left out for lack of data.",
		}),
		Value: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "valuation_portfolio_value",
			Help: "Portfolio value on the last valuation date, in base currency.",
		}, []string{"currency"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "valuation_last_run_timestamp_seconds",
			Help: "Unix time of the last valuation.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "valuation_fetch_duration_seconds",
			Help:    "Time spent collecting price and forex series.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		FetchedSeries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valuation_fetched_series_total",
			Help: "Series collected from a feed, by result (ok or failed).",
		}, []string{"result"}),
	}
	r.reg.MustRegister(r.Runs, r.Trades, r.Dropped, r.Value, r.LastRun, r.FetchDuration, r.FetchedSeries)
	return r
}

// Registry returns the registry holding the metrics.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// ObserveRun records a valuation of ledger that produced report.
func (r *Recorder) ObserveRun(ledger *valuation.Ledger, report *valuation.Report, currency string, now time.Time) {
	r.Runs.Inc()
	skipped := make(map[int]struct{})
	for _, s := range report.Skipped {
		switch {
		case s.Benchmark:
			// valued in the holdings
		case s.Trade >= 0:
			skipped[s.Trade] = struct{}{}
		default:
			r.Dropped.Inc()
		}
	}
	r.Trades.WithLabelValues("skipped").Add(float64(len(skipped)))
	r.Trades.WithLabelValues("applied").Add(float64(ledger.Len() - len(skipped)))
	_, last := report.Holdings.Last()
	r.Value.WithLabelValues(currency).Set(last.InexactFloat64())
	r.LastRun.Set(float64(now.Unix()))
}

// ObserveFetch records a collection of series.
func (r *Recorder) ObserveFetch(elapsed time.Duration, ok, failed int) {
	r.FetchDuration.Observe(elapsed.Seconds())
	r.FetchedSeries.WithLabelValues("ok").Add(float64(ok))
	r.FetchedSeries.WithLabelValues("failed").Add(float64(failed))
}

// WriteTextfile writes all metrics to path in the text exposition format.
// Nothing is written when path is empty.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
