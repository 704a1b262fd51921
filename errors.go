package valuation

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyLedger is returned when there is no trade to derive a calendar from.
	ErrEmptyLedger = errors.New("empty ledger: no valid trade")
	// ErrEmptyCalendar is returned when no valuation date falls in the requested range.
	ErrEmptyCalendar = errors.New("empty calendar: no valuation date in range")
	// ErrPeriod is returned for a calendar period other than daily, weekly or month-start.
	ErrPeriod = errors.New("invalid calendar period")
	// ErrBaseCurrency is returned when the base currency is unset or unknown.
	ErrBaseCurrency = errors.New("invalid base currency")

	// ErrNoDataAvailable is what a feed returns for a symbol it knows nothing about.
	ErrNoDataAvailable = errors.New("no data available")
	// ErrUndefinedRatio marks a ratio whose denominator is zero.
	// Analytics never return it, they store an undefined value instead.
	ErrUndefinedRatio = errors.New("undefined ratio")
	// ErrOutOfRange marks a trade dated after the last valuation date.
	ErrOutOfRange = errors.New("trade is after the valuation range")
)

// SymbolDataUnavailableError reports a symbol (or a currency) that was dropped
// from the alignment because its series could not be obtained.
type SymbolDataUnavailableError struct {
	Symbol string
	Err    error
}

func (e *SymbolDataUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("no data for %s", e.Symbol)
	}
	return fmt.Sprintf("no data for %s: %v", e.Symbol, e.Err)
}

func (e *SymbolDataUnavailableError) Unwrap() error { return e.Err }

// MalformedSeriesError reports a series that could not be parsed into dates and values.
type MalformedSeriesError struct {
	Symbol string
	Line   int // 0 when unknown
	Err    error
}

func (e *MalformedSeriesError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed series for %s on line %d: %v", e.Symbol, e.Line, e.Err)
	}
	return fmt.Sprintf("malformed series for %s: %v", e.Symbol, e.Err)
}

func (e *MalformedSeriesError) Unwrap() error { return e.Err }

// Skipped records something a valuation run left out: a whole symbol, a whole
// currency, or a single trade.
//
// When Benchmark is set the trade was valued in the holdings and only left out
// of the benchmark series.
type Skipped struct {
	Symbol    string
	Currency  string
	Trade     int // index of the trade in the ledger, or -1 when not about a single trade
	Benchmark bool
	Err       error
}

func (s Skipped) String() string {
	switch {
	case s.Trade >= 0 && s.Benchmark:
		return fmt.Sprintf("benchmark of trade #%d (%s): %v", s.Trade, s.Symbol, s.Err)
	case s.Trade >= 0:
		return fmt.Sprintf("trade #%d (%s): %v", s.Trade, s.Symbol, s.Err)
	case s.Symbol != "":
		return fmt.Sprintf("symbol %s: %v", s.Symbol, s.Err)
	default:
		return fmt.Sprintf("currency %s: %v", s.Currency, s.Err)
	}
}
