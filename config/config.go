// Package config loads the settings of the pval command.
//
// Settings come, in increasing priority, from defaults, a YAML file, a .env
// file and VALUATION_* environment variables. Command line flags override
// them last.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VALUATION_"

// Config holds the settings of a valuation run and of its collaborators.
type Config struct {
	BaseCurrency string `yaml:"base_currency"`
	Granularity  string `yaml:"granularity"` // daily, weekly or month-start
	Window       int    `yaml:"window"`
	Benchmark    string `yaml:"benchmark"`
	Fill         string `yaml:"fill"` // zero or forward
	From         string `yaml:"from"` // optional first valuation date

	Ledger   string `yaml:"ledger"`   // trades CSV file
	Source   string `yaml:"source"`   // where prices come from: csv, db or yahoo
	Prices   string `yaml:"prices"`   // directory of CSV series
	Database string `yaml:"database"` // SQLite price archive

	Log         LogConfig   `yaml:"log"`
	MetricsFile string      `yaml:"metrics_file"`
	Yahoo       YahooConfig `yaml:"yahoo"`
	EODHD       EODHDConfig `yaml:"eodhd"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type YahooConfig struct {
	URL      string        `yaml:"url"`
	Suffix   string        `yaml:"suffix"` // exchange suffix like ".AX"
	Rate     float64       `yaml:"rate"`   // requests per second, 0 for unlimited
	Burst    int           `yaml:"burst"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheDir string        `yaml:"cache_dir"`
}

type EODHDConfig struct {
	APIKey   string `yaml:"api_key"`
	Exchange string `yaml:"exchange"` // exchange code of bare symbols, US when empty
	URL      string `yaml:"url"`
	CacheDir string `yaml:"cache_dir"`
}

// Sources of prices.
const (
	SourceCSV   = "csv"
	SourceDB    = "db"
	SourceYahoo = "yahoo"
	SourceEODHD = "eodhd"
)

// Default returns the settings used when nothing else is set.
func Default() Config {
	return Config{
		BaseCurrency: valuation.DefaultBaseCurrency,
		Granularity:  date.Daily.String(),
		Window:       valuation.DefaultWindow,
		Fill:         valuation.FillZero.String(),
		Ledger:       "trades.csv",
		Source:       SourceCSV,
		Prices:       "data",
		Database:     "prices.db",
		Log:          LogConfig{Level: "info", Format: "console"},
		Yahoo:        YahooConfig{Rate: 2, Burst: 2, Timeout: 30 * time.Second},
	}
}

// Load reads settings from the YAML file at path, if not empty, then from
// envFiles (".env" when none is given, ignored if missing) and the process
// environment. The result is validated.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml %q: %w", path, err)
		}
	}
	if err := loadDotEnv(envFiles...); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// loadDotEnv sets environment variables from files, without overriding the
// ones already set.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files %v: %w", files, err)
	}
	return nil
}

// applyEnv overrides settings from VALUATION_* variables.
func (c *Config) applyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("BASE_CURRENCY", &c.BaseCurrency)
	str("GRANULARITY", &c.Granularity)
	str("BENCHMARK", &c.Benchmark)
	str("FILL", &c.Fill)
	str("FROM", &c.From)
	str("LEDGER", &c.Ledger)
	str("SOURCE", &c.Source)
	str("PRICES", &c.Prices)
	str("DATABASE", &c.Database)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("METRICS_FILE", &c.MetricsFile)
	str("YAHOO_URL", &c.Yahoo.URL)
	str("YAHOO_SUFFIX", &c.Yahoo.Suffix)
	str("YAHOO_CACHE_DIR", &c.Yahoo.CacheDir)
	str("EODHD_API_KEY", &c.EODHD.APIKey)
	str("EODHD_EXCHANGE", &c.EODHD.Exchange)
	str("EODHD_URL", &c.EODHD.URL)

	var errs error
	if v, ok := os.LookupEnv(EnvPrefix + "WINDOW"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%sWINDOW: %w", EnvPrefix, err))
		}
		c.Window = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "YAHOO_RATE"); ok {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%sYAHOO_RATE: %w", EnvPrefix, err))
		}
		c.Yahoo.Rate = r
	}
	if v, ok := os.LookupEnv(EnvPrefix + "YAHOO_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%sYAHOO_TIMEOUT: %w", EnvPrefix, err))
		}
		c.Yahoo.Timeout = d
	}
	return errs
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs error
	if _, err := valuation.ValidateCurrency(c.BaseCurrency); err != nil {
		errs = errors.Join(errs, fmt.Errorf("base_currency: %w", err))
	}
	if _, err := date.ParsePeriod(c.Granularity); err != nil {
		errs = errors.Join(errs, fmt.Errorf("granularity: %w", err))
	}
	if c.Window < 0 {
		errs = errors.Join(errs, fmt.Errorf("window must be >= 0, got %d", c.Window))
	}
	if _, err := valuation.ParseFillPolicy(c.Fill); err != nil {
		errs = errors.Join(errs, fmt.Errorf("fill: %w", err))
	}
	if c.From != "" {
		if _, err := date.Parse(c.From); err != nil {
			errs = errors.Join(errs, fmt.Errorf("from: %w", err))
		}
	}
	switch c.Source {
	case SourceCSV, SourceDB, SourceYahoo:
	case SourceEODHD:
		if c.EODHD.APIKey == "" {
			errs = errors.Join(errs, errors.New("eodhd.api_key is required by the eodhd source"))
		}
	default:
		errs = errors.Join(errs, fmt.Errorf("source must be one of csv, db, yahoo or eodhd, got %q", c.Source))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		errs = errors.Join(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if c.Yahoo.Rate < 0 {
		errs = errors.Join(errs, errors.New("yahoo.rate must be >= 0"))
	}
	return errs
}

// Valuation returns the valuation settings. today is the last valuation
// date, the system date when zero.
func (c Config) Valuation(today date.Date) (valuation.Config, error) {
	base, err := valuation.ValidateCurrency(c.BaseCurrency)
	if err != nil {
		return valuation.Config{}, err
	}
	period, err := date.ParsePeriod(c.Granularity)
	if err != nil {
		return valuation.Config{}, err
	}
	fill, err := valuation.ParseFillPolicy(c.Fill)
	if err != nil {
		return valuation.Config{}, err
	}
	var from date.Date
	if err := from.UnmarshalText([]byte(c.From)); err != nil {
		return valuation.Config{}, err
	}
	return valuation.Config{
		BaseCurrency: base,
		Period:       period,
		Window:       c.Window,
		Benchmark:    c.Benchmark,
		Fill:         fill,
		From:         from,
		Today:        today,
	}, nil
}
