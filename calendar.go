package valuation

import (
	"fmt"
	"iter"
	"slices"

	"github.com/etnz/valuation/date"
)

// Calendar is the immutable, ordered set of valuation dates of a run.
//
// It is shared read-only by the aligner, the accrual engine and the analytics.
type Calendar struct {
	period date.Period
	days   []date.Date
	index  map[date.Date]int
}

// NewCalendar builds the valuation calendar of a ledger: every period start
// from the earliest trade (or 'from' when set) to 'today', both included.
//
// A zero 'today' means the system date.
func NewCalendar(ledger *Ledger, from, today date.Date, period date.Period) (*Calendar, error) {
	first, ok := ledger.First()
	if !ok {
		return nil, ErrEmptyLedger
	}
	if !from.IsZero() {
		first = from
	}
	if today.IsZero() {
		today = date.Today()
	}
	return NewCalendarRange(date.Range{From: first, To: today}, period)
}

// NewCalendarRange builds a calendar over an arbitrary range.
func NewCalendarRange(r date.Range, period date.Period) (*Calendar, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrPeriod, period)
	}
	c := &Calendar{period: period, index: make(map[date.Date]int)}
	for on := range r.Steps(period) {
		c.index[on] = len(c.days)
		c.days = append(c.days, on)
	}
	if len(c.days) == 0 {
		return nil, ErrEmptyCalendar
	}
	return c, nil
}

// Period returns the calendar granularity.
func (c *Calendar) Period() date.Period { return c.period }

// Len returns the number of valuation dates.
func (c *Calendar) Len() int { return len(c.days) }

// At returns the i-th valuation date.
func (c *Calendar) At(i int) date.Date { return c.days[i] }

// First returns the first valuation date.
func (c *Calendar) First() date.Date { return c.days[0] }

// Last returns the last valuation date.
func (c *Calendar) Last() date.Date { return c.days[len(c.days)-1] }

// Range returns the first and last valuation dates.
func (c *Calendar) Range() date.Range { return date.Range{From: c.First(), To: c.Last()} }

// Contains reports whether 'on' is a valuation date.
func (c *Calendar) Contains(on date.Date) bool {
	_, ok := c.index[on]
	return ok
}

// Index returns the position of a valuation date.
func (c *Calendar) Index(on date.Date) (int, bool) {
	i, ok := c.index[on]
	return i, ok
}

// Days iterates over valuation dates in chronological order.
func (c *Calendar) Days() iter.Seq[date.Date] { return slices.Values(c.days) }

// EffectiveDate returns the first valuation date on or after 'on'.
//
// Dates before the calendar are clipped to its first date; it returns false
// for dates after the last one.
func (c *Calendar) EffectiveDate(on date.Date) (date.Date, bool) {
	i, _ := slices.BinarySearchFunc(c.days, on, date.Date.Compare)
	if i == len(c.days) {
		return date.Date{}, false
	}
	return c.days[i], true
}
