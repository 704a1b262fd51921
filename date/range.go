package date

import "iter"

// Range represents a range of dates, boundaries included.
type Range struct{ From, To Date }

// NewRange creates a new date range. If 'from' is after 'to', they are swapped.
func NewRange(from, to Date) Range {
	if from.After(to) {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// IsEmpty reports whether no date can be in the range.
func (r Range) IsEmpty() bool { return r.From.After(r.To) }

// Steps iterates over every period start within the range, in chronological order.
func (r Range) Steps(period Period) iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for on := r.From.Ceil(period); !on.After(r.To); on = on.Next(period) {
			if !yield(on) {
				return
			}
		}
	}
}

func (r Range) String() string { return r.From.String() + ".." + r.To.String() }
