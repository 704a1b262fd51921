package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEODServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("api_token"))
		switch r.URL.Path {
		case "/eod/ABC.US":
			assert.Equal(t, "2020-01-01", r.URL.Query().Get("from"))
			fmt.Fprint(w, `[{"date":"2020-01-02","open":5.1,"close":5.5},{"date":"2020-01-03","open":5.6,"close":6}]`)
		case "/eod/EURUSD.FOREX":
			assert.Equal(t, "2020-01-02", r.URL.Query().Get("from"), "rates are read from the next day")
			fmt.Fprint(w, `[{"date":"2020-01-03","open":1.12,"close":1.11}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEODHD(t *testing.T) {
	srv := newEODServer(t)
	e := NewEODHD("secret", "", t.TempDir(), nil)
	e.SetBaseURL(srv.URL)
	ctx := context.Background()

	s, err := e.Prices(ctx, "ABC", january, date.Daily)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	v, _ := s.Get(date.MustParse("2020-01-03"))
	assert.True(t, decimal.NewFromInt(6).Equal(v), "closes are used")

	fx, err := e.Rates(ctx, "EUR", "USD", january, date.Daily)
	require.NoError(t, err)
	v, ok := fx.Get(date.MustParse("2020-01-02"))
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("1.12").Equal(v), "next day open")

	_, err = e.Prices(ctx, "NOPE", january, date.Daily)
	assert.ErrorIs(t, err, valuation.ErrNoDataAvailable)
}

func TestEODHDTicker(t *testing.T) {
	e := NewEODHD("", "XETRA", "", nil)
	testCases := []struct {
		symbol, want string
	}{
		{"SAP", "SAP.XETRA"},
		{"AAPL.US", "AAPL.US"},
	}
	for _, tc := range testCases {
		if got := e.Ticker(tc.symbol); got != tc.want {
			t.Errorf("Ticker(%q) = %q want %q", tc.symbol, got, tc.want)
		}
	}
}
