// Package feed gets raw price and forex series for a valuation run.
//
// Feeds only know how to get a series for a symbol or a currency pair, Collect
// gathers everything a ledger needs and isolates failures per symbol.
package feed

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"go.uber.org/zap"
)

// PriceFeed provides closing prices of a symbol.
type PriceFeed interface {
	// Prices returns the closing prices of symbol in r. Implementations return an
	// error wrapping valuation.ErrNoDataAvailable when they do not know symbol.
	Prices(ctx context.Context, symbol string, r date.Range, p date.Period) (valuation.PriceSeries, error)
}

// ForexFeed provides the value of one unit of currency in base currency.
type ForexFeed interface {
	Rates(ctx context.Context, currency, base string, r date.Range, p date.Period) (valuation.ForexSeries, error)
}

// Feed is both a PriceFeed and a ForexFeed.
type Feed interface {
	PriceFeed
	ForexFeed
}

// Store saves series, so that a feed can be archived into another.
type Store interface {
	SavePrices(ctx context.Context, symbol string, s valuation.PriceSeries) error
	SaveRates(ctx context.Context, currency, base string, s valuation.ForexSeries) error
}

// Request describes what to collect.
type Request struct {
	Symbols    []string
	Currencies []string
	Base       string
	Range      date.Range
	Period     date.Period
}

// RequestOf returns the request covering all symbols and currencies of ledger.
// The benchmark, if any, is collected as a symbol.
func RequestOf(ledger *valuation.Ledger, cfg valuation.Config, r date.Range) Request {
	symbols := ledger.Symbols()
	if cfg.Benchmark != "" && !slices.Contains(symbols, cfg.Benchmark) {
		symbols = append(symbols, cfg.Benchmark)
	}
	base := cfg.BaseCurrency
	if base == "" {
		base = valuation.DefaultBaseCurrency
	}
	return Request{
		Symbols:    symbols,
		Currencies: ledger.Currencies(),
		Base:       base,
		Range:      r,
		Period:     cfg.Period,
	}
}

// Collect gets every series of req.
//
// A symbol or currency that fails is logged and reported as skipped, the
// others are still collected. The base currency is never requested.
// Collect stops early only when ctx is done.
func Collect(ctx context.Context, req Request, prices PriceFeed, fx ForexFeed, log *zap.Logger) (valuation.PriceTable, valuation.ForexTable, []valuation.Skipped, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pt := make(valuation.PriceTable)
	ft := make(valuation.ForexTable)
	var skipped []valuation.Skipped

	for _, symbol := range req.Symbols {
		if _, done := pt[symbol]; done {
			continue
		}
		s, err := prices.Prices(ctx, symbol, req.Range, req.Period)
		if err == nil && s.Len() == 0 {
			err = valuation.ErrNoDataAvailable
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, nil, ctxErr
			}
			err = unavailable(symbol, err)
			log.Warn("cannot get prices", zap.String("symbol", symbol), zap.Error(err))
			skipped = append(skipped, valuation.Skipped{Symbol: symbol, Trade: -1, Err: err})
			continue
		}
		pt[symbol] = s
		log.Debug("got prices", zap.String("symbol", symbol), zap.Int("points", s.Len()))
	}

	for _, cur := range req.Currencies {
		if _, done := ft[cur]; done || cur == req.Base {
			continue
		}
		s, err := fx.Rates(ctx, cur, req.Base, req.Range, req.Period)
		if err == nil && s.Len() == 0 {
			err = valuation.ErrNoDataAvailable
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, nil, ctxErr
			}
			err = unavailable(cur+"/"+req.Base, err)
			log.Warn("cannot get forex", zap.String("currency", cur), zap.String("base", req.Base), zap.Error(err))
			skipped = append(skipped, valuation.Skipped{Currency: cur, Trade: -1, Err: err})
			continue
		}
		ft[cur] = s
		log.Debug("got forex", zap.String("currency", cur), zap.Int("points", s.Len()))
	}
	return pt, ft, skipped, nil
}

// unavailable makes sure err is a SymbolDataUnavailableError.
func unavailable(symbol string, err error) error {
	var u *valuation.SymbolDataUnavailableError
	if errors.As(err, &u) {
		return err
	}
	return &valuation.SymbolDataUnavailableError{Symbol: symbol, Err: err}
}

// Archive copies every series of the tables into store.
// Failures are joined, a failing series does not stop the others.
func Archive(ctx context.Context, store Store, base string, prices valuation.PriceTable, fx valuation.ForexTable) error {
	var errs error
	for symbol, s := range prices {
		if err := store.SavePrices(ctx, symbol, s); err != nil {
			errs = errors.Join(errs, fmt.Errorf("saving %s: %w", symbol, err))
		}
	}
	for cur, s := range fx {
		if err := store.SaveRates(ctx, cur, base, s); err != nil {
			errs = errors.Join(errs, fmt.Errorf("saving %s/%s: %w", cur, base, err))
		}
	}
	return errs
}
