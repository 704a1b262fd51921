package valuation

import (
	"iter"
	"strings"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// Ledger is the ordered list of trades of a portfolio.
//
// Unlike a bookkeeping journal, a Ledger keeps trades in the order they were
// recorded: valuation does not depend on that order.
type Ledger struct {
	trades []Trade
}

// NewLedger creates a ledger holding the given trades.
func NewLedger(trades ...Trade) *Ledger {
	l := new(Ledger)
	l.Append(trades...)
	return l
}

// Append appends trades at the end of the ledger.
// Currency codes are stored upper case.
func (l *Ledger) Append(trades ...Trade) {
	for _, t := range trades {
		t.Currency = currencyCode(t.Currency)
		l.trades = append(l.trades, t)
	}
}

// currencyCode returns the canonical form of an ISO 4217 code.
func currencyCode(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }

// Len returns the number of trades.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.trades)
}

// Trade returns the i-th trade.
func (l *Ledger) Trade(i int) Trade { return l.trades[i] }

// Trades iterates over trades and their index in ledger order.
func (l *Ledger) Trades() iter.Seq2[int, Trade] {
	return func(yield func(int, Trade) bool) {
		if l == nil {
			return
		}
		for i, t := range l.trades {
			if !yield(i, t) {
				return
			}
		}
	}
}

// Symbols returns the traded symbols in the order they first appear.
func (l *Ledger) Symbols() []string {
	return l.unique(func(t Trade) string { return t.Symbol })
}

// Currencies returns the trade currencies in the order they first appear.
func (l *Ledger) Currencies() []string {
	return l.unique(func(t Trade) string { return t.Currency })
}

func (l *Ledger) unique(key func(Trade) string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, t := range l.Trades() {
		k := key(t)
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// First returns the earliest trade date, and false if the ledger is empty.
func (l *Ledger) First() (first date.Date, ok bool) {
	for _, t := range l.Trades() {
		if !ok || t.Date.Before(first) {
			first, ok = t.Date, true
		}
	}
	return first, ok
}

// Commissions sums the commissions paid per currency.
func (l *Ledger) Commissions() map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, t := range l.Trades() {
		sums[t.Currency] = sums[t.Currency].Add(t.Commission)
	}
	return sums
}
