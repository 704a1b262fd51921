package valuation

import (
	"testing"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// dec is a helper for test to create decimals from const.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// day is a helper for test to create dates from const.
func day(s string) date.Date { return date.MustParse(s) }

// history creates a raw series from date/value pairs.
func history(pairs ...string) *date.History[decimal.Decimal] {
	h := new(date.History[decimal.Decimal])
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Append(day(pairs[i]), dec(pairs[i+1]))
	}
	return h
}

func buy(on, symbol, currency, quantity, price string) Trade {
	return Trade{Date: day(on), Symbol: symbol, Action: Buy, Currency: currency, Quantity: dec(quantity), Price: dec(price)}
}

func sell(on, symbol, currency, quantity, price string) Trade {
	t := buy(on, symbol, currency, quantity, price)
	t.Action = Sell
	return t
}

// checkValues compares a series to date/value pairs, covering the whole calendar.
func checkValues(t *testing.T, name string, got *Values, want ...string) {
	t.Helper()
	if got.Len() != len(want)/2 {
		t.Errorf("%s.Len() = %d want %d", name, got.Len(), len(want)/2)
	}
	for i := 0; i+1 < len(want); i += 2 {
		v, ok := got.Get(day(want[i]))
		if !ok {
			t.Errorf("%s[%s] is not on the calendar", name, want[i])
			continue
		}
		if !v.Equal(dec(want[i+1])) {
			t.Errorf("%s[%s] = %s want %s", name, want[i], v, want[i+1])
		}
	}
}

// checkRatios compares a ratio series to date/value pairs, "" for undefined.
func checkRatios(t *testing.T, name string, got *Ratios, want ...string) {
	t.Helper()
	for i := 0; i+1 < len(want); i += 2 {
		v, ok := got.Get(day(want[i]))
		if !ok {
			t.Errorf("%s[%s] is not on the calendar", name, want[i])
			continue
		}
		switch {
		case want[i+1] == "" && v.Valid:
			t.Errorf("%s[%s] = %s want undefined", name, want[i], v.Decimal)
		case want[i+1] != "" && !v.Valid:
			t.Errorf("%s[%s] = undefined want %s", name, want[i], want[i+1])
		case want[i+1] != "" && !v.Decimal.Equal(dec(want[i+1])):
			t.Errorf("%s[%s] = %s want %s", name, want[i], v.Decimal, want[i+1])
		}
	}
}

func mustCalendar(t *testing.T, from, to string, p date.Period) *Calendar {
	t.Helper()
	cal, err := NewCalendarRange(date.Range{From: day(from), To: day(to)}, p)
	if err != nil {
		t.Fatalf("NewCalendarRange() error = %v", err)
	}
	return cal
}
