package valuation

import (
	"fmt"
	"strings"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FillPolicy decides the value of a calendar date that the raw series does not have.
type FillPolicy int

const (
	// FillZero marks missing dates as 0, so that holdings drop on non trading days.
	FillZero FillPolicy = iota
	// FillForward carries the last known value forward, or 0 before the first one.
	FillForward
)

func (f FillPolicy) String() string {
	switch f {
	case FillZero:
		return "zero"
	case FillForward:
		return "forward"
	default:
		return fmt.Sprintf("FillPolicy(%d)", int(f))
	}
}

// ParseFillPolicy parses "zero" or "forward".
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero", "":
		return FillZero, nil
	case "forward", "ffill":
		return FillForward, nil
	default:
		return FillZero, fmt.Errorf("unknown fill policy %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FillPolicy) UnmarshalText(text []byte) error {
	v, err := ParseFillPolicy(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f FillPolicy) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// AlignedTable holds series aligned on a common Calendar, by key.
type AlignedTable struct {
	cal    *Calendar
	keys   []string
	series map[string]*Values
}

func newAlignedTable(cal *Calendar) *AlignedTable {
	return &AlignedTable{cal: cal, series: make(map[string]*Values)}
}

func (a *AlignedTable) put(key string, v *Values) {
	if _, exists := a.series[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.series[key] = v
}

// Calendar returns the calendar all series are aligned on.
func (a *AlignedTable) Calendar() *Calendar { return a.cal }

// Keys returns the aligned keys in the order they were requested.
func (a *AlignedTable) Keys() []string { return append([]string(nil), a.keys...) }

// Get returns the aligned series of a key.
func (a *AlignedTable) Get(key string) (*Values, bool) {
	v, ok := a.series[key]
	return v, ok
}

// Has reports whether key has an aligned series.
func (a *AlignedTable) Has(key string) bool {
	_, ok := a.series[key]
	return ok
}

// Align left joins a raw series onto the calendar, filling missing dates
// according to policy.
func Align(cal *Calendar, raw *date.History[decimal.Decimal], policy FillPolicy) *Values {
	s := newSeries[decimal.Decimal](cal)
	for on := range cal.Days() {
		var v decimal.Decimal
		var ok bool
		switch policy {
		case FillForward:
			v, ok = raw.ValueAsOf(on)
		default:
			v, ok = raw.Get(on)
		}
		if !ok {
			v = decimal.Zero
		}
		s.values[on] = v
	}
	return s
}

// AlignPrices aligns the price series of the requested symbols.
//
// A symbol without data is left out of the table and reported as skipped, the
// other symbols are unaffected.
func AlignPrices(cal *Calendar, symbols []string, table PriceTable, policy FillPolicy, log *zap.Logger) (*AlignedTable, []Skipped) {
	log = orNop(log)
	aligned := newAlignedTable(cal)
	var skipped []Skipped
	for _, symbol := range symbols {
		if aligned.Has(symbol) {
			continue
		}
		raw := table[symbol]
		if raw.Len() == 0 {
			err := &SymbolDataUnavailableError{Symbol: symbol, Err: ErrNoDataAvailable}
			log.Warn("dropping symbol", zap.String("symbol", symbol), zap.Error(err))
			skipped = append(skipped, Skipped{Symbol: symbol, Trade: -1, Err: err})
			continue
		}
		aligned.put(symbol, Align(cal, raw, policy))
	}
	return aligned, skipped
}

// AlignForex aligns the forex series of the requested currencies into base
// currency.
//
// The base currency itself is a constant 1 and never looked up in table.
func AlignForex(cal *Calendar, currencies []string, table ForexTable, base string, policy FillPolicy, log *zap.Logger) (*AlignedTable, []Skipped) {
	log = orNop(log)
	base = currencyCode(base)
	aligned := newAlignedTable(cal)
	var skipped []Skipped
	for _, cur := range currencies {
		cur = currencyCode(cur)
		if aligned.Has(cur) {
			continue
		}
		if cur == base {
			one := newSeries[decimal.Decimal](cal)
			for on := range cal.Days() {
				one.values[on] = decimal.NewFromInt(1)
			}
			aligned.put(cur, one)
			continue
		}
		raw := table[cur]
		if raw.Len() == 0 {
			err := &SymbolDataUnavailableError{Symbol: cur + "/" + base, Err: ErrNoDataAvailable}
			log.Warn("dropping currency", zap.String("currency", cur), zap.Error(err))
			skipped = append(skipped, Skipped{Currency: cur, Trade: -1, Err: err})
			continue
		}
		aligned.put(cur, Align(cal, raw, policy))
	}
	return aligned, skipped
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
