package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultYahooURL is the Yahoo Finance chart API host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

/*
Yahoo fetches daily, weekly or monthly closes from the v8 chart API:

	{
	  "chart": {
	    "result": [{
	      "meta": {"currency": "USD", "symbol": "AAPL", "gmtoffset": -18000},
	      "timestamp": [1577975400, 1578061800],
	      "indicators": {"quote": [{"close": [75.08, null]}]}
	    }],
	    "error": null
	  }
	}
*/
type Yahoo struct {
	baseURL string
	suffix  string
	client  *http.Client
	limiter *rate.Limiter
	cache   *cache.Cache
	log     *zap.Logger
}

var _ Feed = (*Yahoo)(nil)

// YahooOption configures a Yahoo feed.
type YahooOption func(*Yahoo)

// WithBaseURL sets the API host, mostly for tests.
func WithBaseURL(u string) YahooOption { return func(y *Yahoo) { y.baseURL = strings.TrimSuffix(u, "/") } }

// WithSuffix sets the exchange suffix appended to bare tickers, like ".AX".
func WithSuffix(s string) YahooOption { return func(y *Yahoo) { y.suffix = s } }

// WithTimeout sets the timeout of every HTTP request.
func WithTimeout(d time.Duration) YahooOption { return func(y *Yahoo) { y.client.Timeout = d } }

// WithRate limits requests to r per second with bursts of burst requests.
func WithRate(r float64, burst int) YahooOption {
	return func(y *Yahoo) {
		if r <= 0 {
			y.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		y.limiter = rate.NewLimiter(rate.Limit(r), max(burst, 1))
	}
}

// WithDiskCache caches HTTP responses in dir for the day. An empty dir means
// the system temporary directory.
func WithDiskCache(dir string) YahooOption {
	return func(y *Yahoo) {
		base := y.client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		y.client.Transport = &diskCache{base: base, dir: dir}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) YahooOption {
	return func(y *Yahoo) {
		if log != nil {
			y.log = log
		}
	}
}

// NewYahoo returns a Yahoo feed, by default limited to 2 requests per second.
func NewYahoo(opts ...YahooOption) *Yahoo {
	y := &Yahoo{
		baseURL: DefaultYahooURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		cache:   cache.New(time.Hour, 2*time.Hour),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(y)
	}
	if dc, ok := y.client.Transport.(*diskCache); ok {
		dc.log = y.log
	}
	return y
}

// Ticker returns the Yahoo ticker of symbol, with the exchange suffix when it has none.
func (y *Yahoo) Ticker(symbol string) string {
	if y.suffix == "" || strings.ContainsAny(symbol, ".=^") {
		return symbol
	}
	return symbol + y.suffix
}

// Prices implements PriceFeed.
func (y *Yahoo) Prices(ctx context.Context, symbol string, r date.Range, p date.Period) (valuation.PriceSeries, error) {
	return y.chart(ctx, y.Ticker(symbol), r, p)
}

// Rates implements ForexFeed using currency pair tickers like "EURUSD=X".
func (y *Yahoo) Rates(ctx context.Context, currency, base string, r date.Range, p date.Period) (valuation.ForexSeries, error) {
	return y.chart(ctx, currency+base+"=X", r, p)
}

func interval(p date.Period) string {
	switch p {
	case date.Weekly:
		return "1wk"
	case date.Monthly:
		return "1mo"
	default:
		return "1d"
	}
}

func (y *Yahoo) chart(ctx context.Context, ticker string, r date.Range, p date.Period) (*date.History[decimal.Decimal], error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprint(r.From.Time().Unix()))
	q.Set("period2", fmt.Sprint(r.To.Add(1).Time().Unix()))
	q.Set("interval", interval(p))
	q.Set("events", "history")
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(ticker), q.Encode())

	if s, found := y.cache.Get(addr); found {
		return s.(*date.History[decimal.Decimal]), nil
	}
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var jobj any
	if err := jwget(ctx, y.client, addr, &jobj); err != nil {
		var status *statusError
		if errors.As(err, &status) && status.Code == http.StatusNotFound {
			return nil, &valuation.SymbolDataUnavailableError{Symbol: ticker, Err: valuation.ErrNoDataAvailable}
		}
		return nil, &valuation.SymbolDataUnavailableError{Symbol: ticker, Err: err}
	}
	s, err := parseChart(ticker, jobj)
	if err != nil {
		return nil, err
	}
	y.log.Debug("yahoo chart", zap.String("ticker", ticker), zap.Stringer("range", r), zap.Int("points", s.Len()))
	y.cache.Set(addr, s, cache.DefaultExpiration)
	return s, nil
}

// parseChart extracts the close series of a chart response.
func parseChart(ticker string, jobj any) (*date.History[decimal.Decimal], error) {
	malformed := func(err error) error { return &valuation.MalformedSeriesError{Symbol: ticker, Err: err} }

	if desc, err := jsonpath.Get("$.chart.error.description", jobj); err == nil && desc != nil {
		return nil, &valuation.SymbolDataUnavailableError{Symbol: ticker, Err: fmt.Errorf("%v: %w", desc, valuation.ErrNoDataAvailable)}
	}

	var offset int64
	if v, err := jsonpath.Get("$.chart.result[0].meta.gmtoffset", jobj); err == nil {
		if f, ok := v.(float64); ok {
			offset = int64(f)
		}
	}

	jts, err := jsonpath.Get("$.chart.result[0].timestamp", jobj)
	if err != nil {
		// a range without any trading day has no timestamp at all.
		if _, e := jsonpath.Get("$.chart.result[0].meta", jobj); e == nil {
			return new(date.History[decimal.Decimal]), nil
		}
		return nil, malformed(err)
	}
	jclose, err := jsonpath.Get("$.chart.result[0].indicators.quote[0].close", jobj)
	if err != nil {
		return nil, malformed(err)
	}
	timestamps, ok1 := jts.([]any)
	closes, ok2 := jclose.([]any)
	if !ok1 || !ok2 || len(timestamps) != len(closes) {
		return nil, malformed(fmt.Errorf("timestamp and close are not arrays of the same length"))
	}

	h := new(date.History[decimal.Decimal])
	for i, jt := range timestamps {
		ts, ok := jt.(float64)
		if !ok {
			return nil, malformed(fmt.Errorf("timestamp[%d] is not a number: %v", i, jt))
		}
		c, ok := closes[i].(float64)
		if !ok {
			continue // null on days without trades
		}
		on := date.Of(time.Unix(int64(ts)+offset, 0).UTC())
		h.Append(on, decimal.NewFromFloat(c))
	}
	return h, nil
}
