package date

import (
	"fmt"
	"strings"
	"time"
)

// Period is the spacing between two consecutive dates of a calendar.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
)

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "month-start"
	default:
		return fmt.Sprintf("Period(%d)", int(p))
	}
}

// Valid reports whether p is one of Daily, Weekly or Monthly.
func (p Period) Valid() bool { return p >= Daily && p <= Monthly }

// ParsePeriod parses a period name.
func ParsePeriod(p string) (Period, error) {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case "daily", "day", "d":
		return Daily, nil
	case "weekly", "week", "w":
		return Weekly, nil
	case "month-start", "monthly", "month", "ms":
		return Monthly, nil
	default:
		return Daily, fmt.Errorf("unknown period %q", p)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Period) UnmarshalText(text []byte) error {
	v, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Period) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// StartOf returns the first day of the period containing d.
func (d Date) StartOf(period Period) Date {
	switch period {
	case Daily:
		return d
	case Weekly:
		offset := int(d.Weekday() - time.Monday)
		for offset < 0 {
			offset += 7
		}
		return d.Add(-offset)
	case Monthly:
		return New(d.Year(), d.Month(), 1)
	default:
		panic("unknown period")
	}
}

// Ceil returns the first period start on or after d.
func (d Date) Ceil(period Period) Date {
	start := d.StartOf(period)
	if start == d {
		return d
	}
	return start.Next(period)
}

// Next returns the date one period after d.
func (d Date) Next(period Period) Date {
	switch period {
	case Daily:
		return d.Add(1)
	case Weekly:
		return d.Add(7)
	case Monthly:
		return d.AddMonth(1)
	default:
		panic("unknown period")
	}
}
