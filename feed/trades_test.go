package feed

import (
	"strings"
	"testing"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestReadTrades(t *testing.T) {
	const trades = `Date,Symbol,Type,Currency,Shares,Price,Commission
2020-01-02,ABC,Buy,USD,10,5.00,1.00
2020-01-03,XYZ,sell,eur,2,7.5,
2020-01-04,,Buy,USD,1,1,0
2020-01-05,ABC,Dividend,USD,1,1,0
not a date,ABC,Buy,USD,1,1,0
2020-01-06,ABC,Buy,USD,-1,1,0
2020-01-07,ABC,Buy,USD,1,abc,0
2020-01-08 00:00:00,DEF,B,USD,3,2,0.5
`
	core, logs := observer.New(zap.WarnLevel)
	ledger, err := ReadTrades(strings.NewReader(trades), zap.New(core))
	require.NoError(t, err)
	require.Equal(t, 3, ledger.Len())

	want := valuation.Trade{
		Date:       date.MustParse("2020-01-02"),
		Symbol:     "ABC",
		Action:     valuation.Buy,
		Currency:   "USD",
		Quantity:   decimal.RequireFromString("10"),
		Price:      decimal.RequireFromString("5.00"),
		Commission: decimal.RequireFromString("1.00"),
	}
	got := ledger.Trade(0)
	assert.Equal(t, want.Date, got.Date)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.Action, got.Action)
	assert.True(t, want.Quantity.Equal(got.Quantity))
	assert.True(t, want.Price.Equal(got.Price))
	assert.True(t, want.Commission.Equal(got.Commission))

	xyz := ledger.Trade(1)
	assert.Equal(t, valuation.Sell, xyz.Action)
	assert.Equal(t, "EUR", xyz.Currency)
	assert.True(t, xyz.Commission.IsZero())

	assert.Equal(t, date.MustParse("2020-01-08"), ledger.Trade(2).Date)
	assert.Equal(t, 5, logs.FilterMessage("dropping trade").Len())
}

func TestReadTradesHeader(t *testing.T) {
	_, err := ReadTrades(strings.NewReader("Date,Symbol,Type\n"), nil)
	assert.ErrorContains(t, err, "currency")

	_, err = ReadTrades(strings.NewReader(""), nil)
	assert.Error(t, err)

	ledger, err := ReadTrades(strings.NewReader("Symbol,Date,Currency,Type,Price,Shares\nABC,2020-01-02,USD,Buy,5,10\n"), nil)
	require.NoError(t, err)
	require.Equal(t, 1, ledger.Len())
	assert.True(t, ledger.Trade(0).Quantity.Equal(decimal.NewFromInt(10)))
}
