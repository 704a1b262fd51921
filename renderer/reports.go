package renderer

import (
	"slices"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// Table is a date indexed table of preformatted cells.
type Table struct {
	Header []string
	Rows   []Row
}

type Row struct {
	Date  string
	Cells []string
}

// Valuation is the view of a valuation report.
type Valuation struct {
	Currency       string
	Period         string
	From, To       string
	Dates          int
	Trades         int
	Value          string
	Benchmark      string // benchmark symbol, empty when none
	BenchmarkValue string
	Commissions    []string
	Table          Table
	Skipped        []string
}

// Returns is the view of the returns of a value series.
type Returns struct {
	Title    string
	Currency string
	Period   string
	Window   int
	Table    Table
}

// Prices is the view of normalized price series.
type Prices struct {
	Period  string
	From    string
	To      string
	Table   Table
	Skipped []string
}

// tail returns the last n days of cal, or all of them when n <= 0.
func tail(cal *valuation.Calendar, n int) []date.Date {
	days := slices.Collect(cal.Days())
	if n > 0 && n < len(days) {
		days = days[len(days)-n:]
	}
	return days
}

func money(d decimal.Decimal, currency string) string { return valuation.M(d, currency).String() }

// percent formats a ratio as a percentage, "n/a" when undefined.
func percent(r decimal.NullDecimal) string {
	if !r.Valid {
		return "n/a"
	}
	return r.Decimal.Shift(2).StringFixed(2) + "%"
}

// factor formats a ratio with 4 decimals, "n/a" when undefined.
func factor(r decimal.NullDecimal) string {
	if !r.Valid {
		return "n/a"
	}
	return r.Decimal.StringFixed(4)
}

func skipped(s []valuation.Skipped) []string {
	var out []string
	for _, x := range s {
		out = append(out, x.String())
	}
	return out
}

// NewValuation builds the view of report, showing only the last rows dates (all when rows <= 0).
func NewValuation(ledger *valuation.Ledger, report *valuation.Report, currency, benchmark string, rows int) *Valuation {
	cal := report.Calendar
	v := &Valuation{
		Currency: currency,
		Period:   cal.Period().String(),
		From:     cal.First().String(),
		To:       cal.Last().String(),
		Dates:    cal.Len(),
		Trades:   ledger.Len(),
		Skipped:  skipped(report.Skipped),
		Table:    Table{Header: []string{"Value"}},
	}
	_, last := report.Holdings.Last()
	v.Value = money(last, currency)
	if report.Benchmark != nil {
		v.Benchmark = benchmark
		_, bm := report.Benchmark.Last()
		v.BenchmarkValue = money(bm, currency)
		v.Table.Header = append(v.Table.Header, benchmark)
	}
	commissions := ledger.Commissions()
	for _, cur := range ledger.Currencies() {
		if c := commissions[cur]; !c.IsZero() {
			v.Commissions = append(v.Commissions, money(c, cur))
		}
	}

	for _, on := range tail(cal, rows) {
		h, _ := report.Holdings.Get(on)
		row := Row{Date: on.String(), Cells: []string{money(h, currency)}}
		if report.Benchmark != nil {
			b, _ := report.Benchmark.Get(on)
			row.Cells = append(row.Cells, money(b, currency))
		}
		v.Table.Rows = append(v.Table.Rows, row)
	}
	return v
}

// NewReturns builds the view of the returns of values and of their rolling mean.
func NewReturns(title string, values *valuation.Values, currency string, window, rows int) *Returns {
	if window <= 0 {
		window = valuation.DefaultWindow
	}
	r := valuation.Returns(values)
	mean := valuation.RollingMean(r, window)
	out := &Returns{
		Title:    title,
		Currency: currency,
		Period:   values.Calendar().Period().String(),
		Window:   window,
		Table:    Table{Header: []string{"Value", "Return", "Rolling mean"}},
	}
	for _, on := range tail(values.Calendar(), rows) {
		v, _ := values.Get(on)
		ri, _ := r.Get(on)
		mi, _ := mean.Get(on)
		out.Table.Rows = append(out.Table.Rows, Row{Date: on.String(), Cells: []string{money(v, currency), percent(ri), percent(mi)}})
	}
	return out
}

// NewPrices builds the view of the normalized prices of the aligned symbols.
func NewPrices(prices *valuation.AlignedTable, skippedSymbols []valuation.Skipped, rows int) *Prices {
	cal := prices.Calendar()
	out := &Prices{
		Period:  cal.Period().String(),
		From:    cal.First().String(),
		To:      cal.Last().String(),
		Skipped: skipped(skippedSymbols),
	}
	var normalized []*valuation.Ratios
	for _, symbol := range prices.Keys() {
		v, _ := prices.Get(symbol)
		out.Table.Header = append(out.Table.Header, symbol)
		normalized = append(normalized, valuation.Normalize(v))
	}
	for _, on := range tail(cal, rows) {
		row := Row{Date: on.String()}
		for _, n := range normalized {
			x, _ := n.Get(on)
			row.Cells = append(row.Cells, factor(x))
		}
		out.Table.Rows = append(out.Table.Rows, row)
	}
	return out
}
