package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", writeTempFile(t, ".env", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	path := writeTempFile(t, "valuation.yaml", `
base_currency: EUR
granularity: month-start
window: 12
benchmark: SPY
fill: forward
from: 2016-07-16
ledger: trades.csv
source: yahoo
log:
  level: debug
  format: json
yahoo:
  suffix: .AX
  rate: 0.5
  timeout: 10s
`)
	cfg, err := Load(path, writeTempFile(t, ".env", ""))
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.BaseCurrency)
	assert.Equal(t, 12, cfg.Window)
	assert.Equal(t, SourceYahoo, cfg.Source)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ".AX", cfg.Yahoo.Suffix)
	assert.Equal(t, 10*time.Second, cfg.Yahoo.Timeout)
	assert.Equal(t, 2, cfg.Yahoo.Burst, "unset keys keep their default")
	assert.Equal(t, "data", cfg.Prices)

	vc, err := cfg.Valuation(date.MustParse("2020-01-01"))
	require.NoError(t, err)
	assert.Equal(t, valuation.Config{
		BaseCurrency: "EUR",
		Period:       date.Monthly,
		Window:       12,
		Benchmark:    "SPY",
		Fill:         valuation.FillForward,
		From:         date.MustParse("2016-07-16"),
		Today:        date.MustParse("2020-01-01"),
	}, vc)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempFile(t, "valuation.yaml", "base_currency: EUR\nwindow: 12\n")
	env := writeTempFile(t, ".env", "VALUATION_BENCHMARK=VTI\nVALUATION_WINDOW=7\n")
	t.Setenv("VALUATION_BASE_CURRENCY", "GBP")
	t.Setenv("VALUATION_WINDOW", "20") // wins over .env
	t.Setenv("VALUATION_YAHOO_TIMEOUT", "1m")
	t.Cleanup(func() { os.Unsetenv("VALUATION_BENCHMARK") })

	cfg, err := Load(path, env)
	require.NoError(t, err)
	assert.Equal(t, "GBP", cfg.BaseCurrency)
	assert.Equal(t, 20, cfg.Window)
	assert.Equal(t, "VTI", cfg.Benchmark)
	assert.Equal(t, time.Minute, cfg.Yahoo.Timeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeTempFile(t, "bad.yaml", "window: [1, 2"), writeTempFile(t, ".env", ""))
	assert.ErrorContains(t, err, "parse yaml")

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	t.Setenv("VALUATION_WINDOW", "many")
	_, err = Load("", writeTempFile(t, ".env", ""))
	assert.ErrorContains(t, err, "VALUATION_WINDOW")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.BaseCurrency = "NOPE"
	cfg.Granularity = "hourly"
	cfg.Window = -1
	cfg.Fill = "linear"
	cfg.From = "yesterday"
	cfg.Source = "ftp"
	cfg.Log.Format = "xml"
	cfg.Yahoo.Rate = -1

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"base_currency", "granularity", "window", "fill", "from", "source", "log.format", "yahoo.rate"} {
		assert.ErrorContains(t, err, want)
	}
	assert.NoError(t, Default().Validate())
}

func TestValidateEODHD(t *testing.T) {
	cfg := Default()
	cfg.Source = SourceEODHD
	assert.ErrorContains(t, cfg.Validate(), "eodhd.api_key")

	t.Setenv("VALUATION_EODHD_API_KEY", "secret")
	t.Setenv("VALUATION_SOURCE", "eodhd")
	cfg, err := Load("", writeTempFile(t, ".env", ""))
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.EODHD.APIKey)
}
