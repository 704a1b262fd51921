package valuation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// Action tells whether a trade opens (Buy) or reduces (Sell) a position.
type Action int

const (
	Buy Action = iota + 1
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "unknown"
	}
}

// ParseAction parses a trade type as found in broker exports ("Buy", "sell", "B"...).
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b":
		return Buy, nil
	case "sell", "s":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown trade action %q", s)
	}
}

// Sign returns +1 for a Buy and -1 otherwise.
func (a Action) Sign() decimal.Decimal {
	if a == Buy {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

// Trade is one ledger entry.
//
// Quantity is always positive, the direction is given by Action.
type Trade struct {
	Date       date.Date
	Symbol     string
	Action     Action
	Currency   string
	Quantity   decimal.Decimal
	Price      decimal.Decimal // execution price, in Currency
	Commission decimal.Decimal
}

// Validate checks the fields a valuation cannot do without.
// Ledger producers drop trades failing it.
func (t Trade) Validate() error {
	var errs error
	if t.Date.IsZero() {
		errs = errors.Join(errs, errors.New("trade date is missing"))
	}
	if t.Symbol == "" {
		errs = errors.Join(errs, errors.New("trade symbol is missing"))
	}
	if t.Action != Buy && t.Action != Sell {
		errs = errors.Join(errs, errors.New("trade action is missing"))
	}
	if !t.Quantity.IsPositive() {
		errs = errors.Join(errs, fmt.Errorf("trade quantity must be positive, got %s", t.Quantity))
	}
	return errs
}

// Notional returns the trade amount in its own currency: quantity × execution price.
func (t Trade) Notional() decimal.Decimal { return t.Quantity.Mul(t.Price) }

func (t Trade) String() string {
	return fmt.Sprintf("%s %s %s %s@%s %s", t.Date, t.Action, t.Quantity, t.Symbol, t.Price, t.Currency)
}
