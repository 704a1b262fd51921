// Package cmd implements the pval command line application: it values a
// portfolio from a trades file and price series.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/valuation"
	"github.com/etnz/valuation/config"
	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/feed"
	"github.com/etnz/valuation/logger"
	"github.com/etnz/valuation/metrics"
	"github.com/etnz/valuation/pricedb"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultConfigFile is read when -config is not set and it exists.
const DefaultConfigFile = "valuation.yaml"

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&valueCmd{}, "valuation")
	c.Register(&returnsCmd{}, "valuation")
	c.Register(&pricesCmd{}, "valuation")
	c.Register(&fetchCmd{}, "market data")
	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the YAML configuration file (default "+DefaultConfigFile+" if it exists)")
var envFile = flag.String("env", "", "Path to a .env file with VALUATION_* variables (default .env if it exists)")
var raw = flag.Bool("raw", false, "print raw markdown instead of rendering it for the terminal")

// output is where reports are printed.
var output io.Writer = os.Stdout

// session holds what every subcommand needs.
type session struct {
	cfg     config.Config
	log     *zap.Logger
	metrics *metrics.Recorder
}

// runFlags are the flags shared by subcommands that value the portfolio.
type runFlags struct {
	currency    string
	granularity string
	fill        string
	from        string
	today       string
	benchmark   string
	source      string
	ledger      string
	window      int
	rows        int
}

func (r *runFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.currency, "c", "", "base currency (default from configuration, USD)")
	f.StringVar(&r.granularity, "g", "", "calendar granularity: daily, weekly or month-start")
	f.StringVar(&r.fill, "fill", "", "missing price policy: zero or forward")
	f.StringVar(&r.from, "from", "", "first valuation date (default the first trade)")
	f.StringVar(&r.today, "d", "", "last valuation date (default today)")
	f.StringVar(&r.benchmark, "benchmark", "", "benchmark symbol")
	f.StringVar(&r.source, "source", "", "price source: csv, db, yahoo or eodhd")
	f.StringVar(&r.ledger, "ledger", "", "trades CSV file")
	f.IntVar(&r.window, "window", 0, "rolling mean window, in dates (default from configuration, 30)")
	f.IntVar(&r.rows, "n", 20, "number of dates to print, all when 0")
}

// apply overrides cfg with the flags that were set.
func (r *runFlags) apply(cfg *config.Config) {
	set := func(v string, dst *string) {
		if v != "" {
			*dst = v
		}
	}
	set(r.currency, &cfg.BaseCurrency)
	set(r.granularity, &cfg.Granularity)
	set(r.fill, &cfg.Fill)
	set(r.from, &cfg.From)
	set(r.benchmark, &cfg.Benchmark)
	set(r.source, &cfg.Source)
	set(r.ledger, &cfg.Ledger)
	if r.window > 0 {
		cfg.Window = r.window
	}
}

// todayDate returns the -d date or the zero date meaning today.
func (r *runFlags) todayDate() (date.Date, error) {
	var on date.Date
	err := on.UnmarshalText([]byte(r.today))
	return on, err
}

// newSession loads the configuration, applies overrides and builds the logger.
func newSession(overrides func(*config.Config)) (*session, error) {
	path := *configFile
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(path, envFiles...)
	if err != nil {
		return nil, err
	}
	if overrides != nil {
		overrides(&cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("run", uuid.NewString()))
	return &session{cfg: cfg, log: log, metrics: metrics.New()}, nil
}

// close flushes the logger and writes metrics.
func (s *session) close() {
	if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		s.log.Warn("cannot write metrics", zap.String("file", s.cfg.MetricsFile), zap.Error(err))
	}
	_ = s.log.Sync()
}

// openFeed returns the configured price source.
func (s *session) openFeed(ctx context.Context) (feed.Feed, func() error, error) {
	noop := func() error { return nil }
	switch s.cfg.Source {
	case config.SourceDB:
		db, err := pricedb.Open(ctx, s.cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case config.SourceYahoo:
		return s.yahoo(), noop, nil
	case config.SourceEODHD:
		return s.eodhd(), noop, nil
	default:
		return feed.CSVDir{Dir: s.cfg.Prices}, noop, nil
	}
}

func (s *session) yahoo() *feed.Yahoo {
	opts := []feed.YahooOption{
		feed.WithLogger(s.log),
		feed.WithSuffix(s.cfg.Yahoo.Suffix),
		feed.WithRate(s.cfg.Yahoo.Rate, s.cfg.Yahoo.Burst),
		feed.WithDiskCache(s.cfg.Yahoo.CacheDir),
	}
	if s.cfg.Yahoo.URL != "" {
		opts = append(opts, feed.WithBaseURL(s.cfg.Yahoo.URL))
	}
	if s.cfg.Yahoo.Timeout > 0 {
		opts = append(opts, feed.WithTimeout(s.cfg.Yahoo.Timeout))
	}
	return feed.NewYahoo(opts...)
}

func (s *session) eodhd() *feed.EODHD {
	e := feed.NewEODHD(s.cfg.EODHD.APIKey, s.cfg.EODHD.Exchange, s.cfg.EODHD.CacheDir, s.log)
	if s.cfg.EODHD.URL != "" {
		e.SetBaseURL(s.cfg.EODHD.URL)
	}
	return e
}

// remote returns the online feed fetch downloads from: EODHD when it is the
// configured source, Yahoo otherwise.
func (s *session) remote() feed.Feed {
	if s.cfg.Source == config.SourceEODHD {
		return s.eodhd()
	}
	return s.yahoo()
}

// run is everything a valuation needs.
type run struct {
	ledger  *valuation.Ledger
	cfg     valuation.Config
	prices  valuation.PriceTable
	fx      valuation.ForexTable
	skipped []valuation.Skipped // collection failures
}

// collect reads the ledger and collects its series from the configured source.
func (s *session) collect(ctx context.Context, today date.Date) (*run, error) {
	ledger, err := feed.ReadTradesFile(s.cfg.Ledger, s.log)
	if err != nil {
		return nil, err
	}
	vc, err := s.cfg.Valuation(today)
	if err != nil {
		return nil, err
	}
	vc.Logger = s.log

	first, ok := ledger.First()
	if !ok {
		return nil, fmt.Errorf("%s: %w", s.cfg.Ledger, valuation.ErrEmptyLedger)
	}
	if !vc.From.IsZero() {
		first = vc.From
	}
	if today.IsZero() {
		today = date.Today()
	}

	src, closeFeed, err := s.openFeed(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFeed()

	start := time.Now()
	req := feed.RequestOf(ledger, vc, date.NewRange(first, today))
	prices, fx, skipped, err := feed.Collect(ctx, req, src, src, s.log)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveFetch(time.Since(start), len(prices)+len(fx), len(skipped))
	return &run{ledger: ledger, cfg: vc, prices: prices, fx: fx, skipped: skipped}, nil
}

// value collects and values the portfolio.
func (s *session) value(ctx context.Context, today date.Date) (*run, *valuation.Report, error) {
	r, err := s.collect(ctx, today)
	if err != nil {
		return nil, nil, err
	}
	report, err := valuation.ValuePortfolio(r.ledger, r.prices, r.fx, r.cfg)
	if err != nil {
		return nil, nil, err
	}
	report.Explain(r.skipped)
	s.metrics.ObserveRun(r.ledger, report, r.cfg.BaseCurrency, time.Now())
	return r, report, nil
}

// printMarkdown renders md for the terminal, or prints it as is with -raw.
func printMarkdown(md string) {
	if *raw {
		fmt.Fprint(output, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Fprint(output, out)
			return
		}
	}
	fmt.Fprint(output, md)
}

// fail prints err and returns the exit status matching it.
func fail(what string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	if errors.Is(err, fs.ErrNotExist) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}
