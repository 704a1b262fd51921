package feed

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestReadSeries(t *testing.T) {
	const yfinance = `Date,Open,High,Low,Close,Adj Close,Volume
2020-01-02,1,1,1,5.5,5.4,100
2020-01-03,1,1,1,,5.4,100
2020-01-06,1,1,1,6,5.9,100
`
	s, err := ReadSeries("ABC", strings.NewReader(yfinance))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	v, ok := s.Get(date.MustParse("2020-01-06"))
	assert.True(t, ok)
	assert.True(t, decimal.NewFromInt(6).Equal(v))

	_, err = ReadSeries("ABC", strings.NewReader("Date,Close\n2020-01-02,abc\n"))
	var malformed *valuation.MalformedSeriesError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Line)
	assert.Equal(t, "ABC", malformed.Symbol)

	_, err = ReadSeries("ABC", strings.NewReader("Date,Close\n2020-13-02,1\n"))
	assert.ErrorAs(t, err, &malformed)
}

func TestCSVDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := CSVDir{Dir: dir}
	writeFile(t, dir, "ABC.csv", "Date,Close\n2019-12-31,4\n2020-01-02,5\n2020-01-03,6\n")
	writeFile(t, dir, "USDEUR.csv", "Date,Close\n2020-01-02,0.8\n")
	r := date.Range{From: date.MustParse("2020-01-01"), To: date.MustParse("2020-01-31")}

	prices, err := c.Prices(ctx, "ABC", r, date.Daily)
	require.NoError(t, err)
	assert.Equal(t, 2, prices.Len(), "dates out of range are left out")

	_, err = c.Prices(ctx, "XYZ", r, date.Daily)
	assert.ErrorIs(t, err, valuation.ErrNoDataAvailable)

	rates, err := c.Rates(ctx, "EUR", "USD", r, date.Daily)
	require.NoError(t, err)
	v, _ := rates.Get(date.MustParse("2020-01-02"))
	assert.True(t, decimal.RequireFromString("1.25").Equal(v), "inverse pair is inverted, got %v", v)

	_, err = c.Rates(ctx, "GBP", "USD", r, date.Daily)
	assert.ErrorIs(t, err, valuation.ErrNoDataAvailable)

	require.NoError(t, c.SaveRates(ctx, "GBP", "USD", series("2020-01-02", "1.3")))
	rates, err = c.Rates(ctx, "GBP", "USD", r, date.Daily)
	require.NoError(t, err)
	assert.Equal(t, 1, rates.Len())
}

func TestWriteSeries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSeries(&buf, series("2020-01-03", "6", "2020-01-02", "5.5")))
	assert.Equal(t, "Date,Close\n2020-01-02,5.5\n2020-01-03,6\n", buf.String())
}
