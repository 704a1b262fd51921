package valuation

import "github.com/shopspring/decimal"

// undefined is the value of a ratio that can not be computed.
var undefined = decimal.NullDecimal{}

func defined(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ratio returns a/b, or an ErrUndefinedRatio when b is zero.
func ratio(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, ErrUndefinedRatio
	}
	return a.Div(b), nil
}

// Returns computes period over period returns of v.
//
// The first return is 0. A return whose previous value is 0 is undefined.
func Returns(v *Values) *Ratios {
	cal := v.Calendar()
	r := newSeries[decimal.NullDecimal](cal)
	for i := range cal.Len() {
		on := cal.At(i)
		if i == 0 {
			r.values[on] = defined(decimal.Zero)
			continue
		}
		q, err := ratio(v.At(i), v.At(i-1))
		if err != nil {
			r.values[on] = undefined
			continue
		}
		r.values[on] = defined(q.Sub(decimal.NewFromInt(1)))
	}
	return r
}

// RollingMean computes the simple moving average of r over window periods.
//
// The first window-1 means are undefined, so is every mean whose window
// contains an undefined ratio. A window of 0 or less means DefaultWindow.
func RollingMean(r *Ratios, window int) *Ratios {
	if window <= 0 {
		window = DefaultWindow
	}
	cal := r.Calendar()
	mean := newSeries[decimal.NullDecimal](cal)
	size := decimal.NewFromInt(int64(window))

	sum := decimal.Zero
	gaps := 0 // undefined ratios in the current window
	for i := range cal.Len() {
		in := r.At(i)
		if in.Valid {
			sum = sum.Add(in.Decimal)
		} else {
			gaps++
		}
		if i >= window {
			out := r.At(i - window)
			if out.Valid {
				sum = sum.Sub(out.Decimal)
			} else {
				gaps--
			}
		}
		on := cal.At(i)
		if i < window-1 || gaps > 0 {
			mean.values[on] = undefined
			continue
		}
		mean.values[on] = defined(sum.Div(size))
	}
	return mean
}

// RollingMeanReturns is the rolling mean of the returns of v.
func RollingMeanReturns(v *Values, window int) *Ratios { return RollingMean(Returns(v), window) }

// MovingAverage is the simple moving average of v itself over window
// periods. The first window-1 averages are undefined.
func MovingAverage(v *Values, window int) *Ratios {
	cal := v.Calendar()
	all := newSeries[decimal.NullDecimal](cal)
	for on, x := range v.Values() {
		all.values[on] = defined(x)
	}
	return RollingMean(all, window)
}

// Normalize divides every value by the first one, so that series of
// different magnitude can be compared. All ratios are undefined if the first
// value is 0.
func Normalize(v *Values) *Ratios {
	cal := v.Calendar()
	n := newSeries[decimal.NullDecimal](cal)
	first := v.At(0)
	for on, x := range v.Values() {
		q, err := ratio(x, first)
		if err != nil {
			n.values[on] = undefined
			continue
		}
		n.values[on] = defined(q)
	}
	return n
}
