package valuation

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/etnz/valuation/date"
	"go.uber.org/zap"
)

// DefaultBaseCurrency is used when the configuration leaves it empty.
const DefaultBaseCurrency = "USD"

// DefaultWindow is the rolling mean window, in periods.
const DefaultWindow = 30

// Config drives a valuation run.
type Config struct {
	BaseCurrency string
	Period       date.Period
	Window       int
	Benchmark    string // optional benchmark symbol, quoted in base currency
	Fill         FillPolicy
	From         date.Date // optional first valuation date
	Today        date.Date // last valuation date, the system date when zero
	Logger       *zap.Logger
}

// Report is the result of a valuation run.
type Report struct {
	Calendar  *Calendar
	Holdings  *Values
	Benchmark *Values // nil when no benchmark was requested or available
	Skipped   []Skipped
}

// ValuePortfolio computes the value in base currency of the portfolio
// described by ledger, on every date of its calendar.
//
// Only an empty ledger, an empty calendar or an invalid base currency fail the
// run. Symbols, currencies and trades that can not be valued are left out and
// listed in Report.Skipped.
func ValuePortfolio(ledger *Ledger, prices PriceTable, fx ForexTable, cfg Config) (*Report, error) {
	log := orNop(cfg.Logger)
	base, err := ValidateCurrency(cfg.BaseCurrency)
	if err != nil {
		return nil, err
	}
	cal, err := NewCalendar(ledger, cfg.From, cfg.Today, cfg.Period)
	if err != nil {
		return nil, err
	}

	alignedPrices, skipped := AlignPrices(cal, ledger.Symbols(), prices, cfg.Fill, log)
	alignedFx, fxSkipped := AlignForex(cal, ledger.Currencies(), fx, base, cfg.Fill, log)
	skipped = append(skipped, fxSkipped...)

	holdings, tradeSkipped := Accrue(ledger, alignedPrices, alignedFx, log)
	skipped = append(skipped, tradeSkipped...)

	report := &Report{Calendar: cal, Holdings: holdings}
	if cfg.Benchmark != "" {
		bm, ok := prices[cfg.Benchmark]
		if !ok || bm.Len() == 0 {
			err := &SymbolDataUnavailableError{Symbol: cfg.Benchmark, Err: ErrNoDataAvailable}
			log.Warn("no benchmark series", zap.String("benchmark", cfg.Benchmark), zap.Error(err))
			skipped = append(skipped, Skipped{Symbol: cfg.Benchmark, Trade: -1, Err: err})
		} else {
			var bmSkipped []Skipped
			report.Benchmark, bmSkipped = AccrueBenchmark(ledger, Align(cal, bm, cfg.Fill), alignedPrices, alignedFx, log)
			skipped = append(skipped, bmSkipped...)
		}
	}
	report.Skipped = skipped

	_, last := holdings.Last()
	log.Info("portfolio valued",
		zap.Int("trades", ledger.Len()),
		zap.Int("dates", cal.Len()),
		zap.Stringer("period", cal.Period()),
		zap.Int("skipped", len(skipped)),
		zap.String("value", last.StringFixed(2)),
		zap.String("currency", base),
	)
	return report, nil
}

// Explain gives dropped symbols and currencies the cause collected reports
// for them, like a malformed series, instead of a bare ErrNoDataAvailable.
// Collected failures matching nothing in the report are appended.
func (r *Report) Explain(collected []Skipped) {
	for _, c := range collected {
		found := false
		for i, s := range r.Skipped {
			if s.Trade >= 0 || s.Benchmark {
				continue
			}
			if (c.Symbol != "" && s.Symbol == c.Symbol) || (c.Currency != "" && s.Currency == currencyCode(c.Currency)) {
				r.Skipped[i].Err = c.Err
				found = true
			}
		}
		if !found {
			r.Skipped = append(r.Skipped, c)
		}
	}
}

// ValidateCurrency normalizes an ISO 4217 code and checks that it is known.
// An empty code is DefaultBaseCurrency.
func ValidateCurrency(code string) (string, error) {
	code = currencyCode(code)
	if code == "" {
		code = DefaultBaseCurrency
	}
	if money.GetCurrency(code) == nil {
		return "", fmt.Errorf("%w: %q is not an ISO 4217 code", ErrBaseCurrency, code)
	}
	return code, nil
}

// Accrue folds the ledger into holdings: for every trade and every valuation
// date on or after it, the mark sign × quantity × price × fx, rounded to
// cents, is added to that date.
//
// Trades are independent so the result does not depend on ledger order.
func Accrue(ledger *Ledger, prices, fx *AlignedTable, log *zap.Logger) (*Values, []Skipped) {
	log = orNop(log)
	cal := prices.Calendar()
	holdings := NewValues(cal, nil)
	var skipped []Skipped
	for i, t := range ledger.Trades() {
		price, rate, start, err := resolve(t, prices, fx)
		if err != nil {
			log.Warn("skipping trade", zap.Int("trade", i), zap.Stringer("detail", t), zap.Error(err))
			skipped = append(skipped, Skipped{Symbol: t.Symbol, Currency: t.Currency, Trade: i, Err: err})
			continue
		}
		sign := t.Action.Sign()
		for j := start; j < cal.Len(); j++ {
			on := cal.At(j)
			mark := sign.Mul(t.Quantity).Mul(price.values[on]).Mul(rate.values[on]).Round(2)
			holdings.values[on] = holdings.values[on].Add(mark)
		}
	}
	return holdings, skipped
}

// AccrueBenchmark values a synthetic portfolio that trades the benchmark
// instead of each traded symbol, for the same base currency amount.
//
// Each trade buys (or sells) notional / benchmark[effective date] units of
// the benchmark, where notional is the execution amount converted on the
// effective date. Trades on a date where the benchmark is 0 are left out, so
// are the trades Accrue leaves out.
func AccrueBenchmark(ledger *Ledger, benchmark *Values, prices, fx *AlignedTable, log *zap.Logger) (*Values, []Skipped) {
	log = orNop(log)
	cal := benchmark.Calendar()
	series := NewValues(cal, nil)
	var skipped []Skipped
	for i, t := range ledger.Trades() {
		_, rate, start, err := resolve(t, prices, fx)
		if err != nil {
			continue // reported by Accrue
		}
		on := cal.At(start)
		bm := benchmark.values[on]
		if bm.IsZero() {
			err := fmt.Errorf("no benchmark price on %s: %w", on, ErrUndefinedRatio)
			log.Warn("skipping benchmark trade", zap.Int("trade", i), zap.Stringer("detail", t), zap.Error(err))
			skipped = append(skipped, Skipped{Symbol: t.Symbol, Currency: t.Currency, Trade: i, Benchmark: true, Err: err})
			continue
		}
		units := t.Notional().Mul(rate.values[on]).Div(bm)
		sign := t.Action.Sign()
		for j := start; j < cal.Len(); j++ {
			on := cal.At(j)
			series.values[on] = series.values[on].Add(sign.Mul(units).Mul(benchmark.values[on]).Round(2))
		}
	}
	return series, skipped
}

// resolve finds the aligned price and rate of a trade and the index of its effective date.
func resolve(t Trade, prices, fx *AlignedTable) (price, rate *Values, start int, err error) {
	price, ok := prices.Get(t.Symbol)
	if !ok {
		return nil, nil, 0, &SymbolDataUnavailableError{Symbol: t.Symbol, Err: ErrNoDataAvailable}
	}
	rate, ok = fx.Get(currencyCode(t.Currency))
	if !ok {
		return nil, nil, 0, &SymbolDataUnavailableError{Symbol: t.Currency, Err: ErrNoDataAvailable}
	}
	start, err = effectiveIndex(prices.Calendar(), t.Date)
	return price, rate, start, err
}

func effectiveIndex(cal *Calendar, on date.Date) (int, error) {
	eff, ok := cal.EffectiveDate(on)
	if !ok {
		return 0, fmt.Errorf("%s after %s: %w", on, cal.Last(), ErrOutOfRange)
	}
	i, _ := cal.Index(eff)
	return i, nil
}
