package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultEODHDURL is the EODHD API host.
const DefaultEODHDURL = "https://eodhd.com/api"

// EODHD fetches end of day prices from the eodhd.com API:
//
//	[
//	  {"date": "2024-02-13", "open": 675.066, "close": 668.445, "adjusted_close": 67.705, "volume": 0}
//	]
//
// Bare symbols are looked for on the configured exchange (US by default),
// currency pairs on the FOREX exchange.
type EODHD struct {
	baseURL  string
	apiKey   string
	exchange string
	client   *http.Client
	limiter  *rate.Limiter
	log      *zap.Logger
}

var _ Feed = (*EODHD)(nil)

// NewEODHD returns an EODHD feed for apiKey. Responses are cached on disk in
// cacheDir for the day.
func NewEODHD(apiKey, exchange, cacheDir string, log *zap.Logger) *EODHD {
	if exchange == "" {
		exchange = "US"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EODHD{
		baseURL:  DefaultEODHDURL,
		apiKey:   apiKey,
		exchange: exchange,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &diskCache{base: http.DefaultTransport, dir: cacheDir, log: log},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		log:     log,
	}
}

// SetBaseURL changes the API host.
func (e *EODHD) SetBaseURL(u string) { e.baseURL = strings.TrimSuffix(u, "/") }

// Ticker returns the EODHD ticker of symbol, "SYMBOL.EXCHANGE".
func (e *EODHD) Ticker(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + "." + e.exchange
}

type eodQuote struct {
	Date  date.Date       `json:"date"`
	Open  decimal.Decimal `json:"open"`
	Close decimal.Decimal `json:"close"`
}

// Prices implements PriceFeed.
func (e *EODHD) Prices(ctx context.Context, symbol string, r date.Range, p date.Period) (valuation.PriceSeries, error) {
	quotes, err := e.eod(ctx, e.Ticker(symbol), r, p)
	if err != nil {
		return nil, err
	}
	s := new(date.History[decimal.Decimal])
	for _, q := range quotes {
		s.Append(q.Date, q.Close)
	}
	return s, nil
}

// Rates implements ForexFeed.
//
// Daily forex closes are mostly equal to the open of the same day, so the
// rate of a day is the open of the next one.
func (e *EODHD) Rates(ctx context.Context, currency, base string, r date.Range, p date.Period) (valuation.ForexSeries, error) {
	ticker := currency + base + ".FOREX"
	if p != date.Daily {
		return e.Prices(ctx, ticker, r, p)
	}
	quotes, err := e.eod(ctx, ticker, date.NewRange(r.From.Add(1), r.To.Add(1)), p)
	if err != nil {
		return nil, err
	}
	s := new(date.History[decimal.Decimal])
	for _, q := range quotes {
		s.Append(q.Date.Add(-1), q.Open)
	}
	return s, nil
}

func (e *EODHD) eod(ctx context.Context, ticker string, r date.Range, p date.Period) ([]eodQuote, error) {
	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("api_token", e.apiKey)
	q.Set("from", r.From.String())
	q.Set("to", r.To.String())
	q.Set("period", map[date.Period]string{date.Daily: "d", date.Weekly: "w", date.Monthly: "m"}[p])
	addr := fmt.Sprintf("%s/eod/%s?%s", e.baseURL, url.PathEscape(ticker), q.Encode())

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	quotes := make([]eodQuote, 0)
	if err := jwget(ctx, e.client, addr, &quotes); err != nil {
		var status *statusError
		if errors.As(err, &status) && status.Code == http.StatusNotFound {
			return nil, &valuation.SymbolDataUnavailableError{Symbol: ticker, Err: valuation.ErrNoDataAvailable}
		}
		return nil, &valuation.SymbolDataUnavailableError{Symbol: ticker, Err: err}
	}
	e.log.Debug("eodhd quotes", zap.String("ticker", ticker), zap.Stringer("range", r), zap.Int("points", len(quotes)))
	return quotes, nil
}
