package valuation

import (
	"iter"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// PriceSeries is the sparse closing price history of one symbol, only trading days are present.
type PriceSeries = *date.History[decimal.Decimal]

// ForexSeries is the sparse history of the rate of one currency in base currency units.
type ForexSeries = *date.History[decimal.Decimal]

// PriceTable holds raw price series by symbol. A missing or nil entry means no data.
type PriceTable map[string]PriceSeries

// ForexTable holds raw forex series by currency. A missing or nil entry means no data.
type ForexTable map[string]ForexSeries

// Series maps every date of a Calendar to a value.
//
// Values are keyed by date, never by position, so two series built on the same
// calendar can not be misaligned.
type Series[T any] struct {
	cal    *Calendar
	values map[date.Date]T
}

// Values is a series of amounts, like the holdings of a portfolio or a price.
type Values = Series[decimal.Decimal]

// Ratios is a series of possibly undefined ratios. An invalid NullDecimal
// marks an undefined ratio (a division by zero, or not enough history).
type Ratios = Series[decimal.NullDecimal]

func newSeries[T any](cal *Calendar) *Series[T] {
	return &Series[T]{cal: cal, values: make(map[date.Date]T, cal.Len())}
}

// NewValues creates a series on cal from a date keyed map.
// Calendar dates missing from the map are zero, keys off the calendar are ignored.
func NewValues(cal *Calendar, values map[date.Date]decimal.Decimal) *Values {
	s := newSeries[decimal.Decimal](cal)
	for on := range cal.Days() {
		s.values[on] = values[on]
	}
	return s
}

// Calendar returns the calendar the series is defined on.
func (s *Series[T]) Calendar() *Calendar { return s.cal }

// Len returns the number of dates in the series.
func (s *Series[T]) Len() int { return s.cal.Len() }

// Get returns the value on a valuation date, and false if 'on' is not a valuation date.
func (s *Series[T]) Get(on date.Date) (value T, ok bool) {
	if !s.cal.Contains(on) {
		return value, false
	}
	return s.values[on], true
}

// At returns the value on the i-th valuation date.
func (s *Series[T]) At(i int) T { return s.values[s.cal.At(i)] }

// Last returns the last date and its value.
func (s *Series[T]) Last() (date.Date, T) {
	on := s.cal.Last()
	return on, s.values[on]
}

// Values iterates over dates and values in calendar order.
func (s *Series[T]) Values() iter.Seq2[date.Date, T] {
	return func(yield func(date.Date, T) bool) {
		for on := range s.cal.Days() {
			if !yield(on, s.values[on]) {
				return
			}
		}
	}
}

// Map returns the series as a plain date keyed map.
func (s *Series[T]) Map() map[date.Date]T {
	m := make(map[date.Date]T, len(s.values))
	for on, v := range s.values {
		m[on] = v
	}
	return m
}

// Equal reports whether two value series have the same calendar dates and values.
func Equal(a, b *Values) bool {
	if a.Len() != b.Len() {
		return false
	}
	for on, v := range a.Values() {
		w, ok := b.Get(on)
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}
