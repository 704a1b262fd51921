package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/feed"
	"github.com/etnz/valuation/pricedb"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// fetchCmd holds the flags for the 'fetch' subcommand.
type fetchCmd struct {
	runFlags
	csv bool
	db  bool
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download prices and exchange rates from Yahoo Finance or EODHD" }
func (*fetchCmd) Usage() string {
	return `pval fetch [-csv] [-db] [-from <date>] [-d <date>]

  Downloads, from EODHD when it is the configured source and from Yahoo
  Finance otherwise, the close prices of every traded symbol (and of the benchmark)
  and the exchange rates of every trade currency, and archives them into the
  prices directory and/or the SQLite database.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	c.runFlags.SetFlags(f)
	f.BoolVar(&c.csv, "csv", true, "archive series as CSV files in the prices directory")
	f.BoolVar(&c.db, "db", false, "archive series into the SQLite database")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.csv && !c.db {
		return fail("parsing flags", errors.New("nowhere to archive: set -csv or -db"))
	}
	today, err := c.todayDate()
	if err != nil {
		return fail("parsing date", err)
	}
	s, err := newSession(c.apply)
	if err != nil {
		return fail("loading configuration", err)
	}
	defer s.close()

	ledger, err := feed.ReadTradesFile(s.cfg.Ledger, s.log)
	if err != nil {
		return fail("reading trades", err)
	}
	vc, err := s.cfg.Valuation(today)
	if err != nil {
		return fail("reading configuration", err)
	}
	first, ok := ledger.First()
	if !ok {
		return fail("reading trades", fmt.Errorf("%s: no valid trade", s.cfg.Ledger))
	}
	if !vc.From.IsZero() {
		first = vc.From
	}
	if today.IsZero() {
		today = date.Today()
	}

	start := time.Now()
	req := feed.RequestOf(ledger, vc, date.NewRange(first, today))
	remote := s.remote()
	prices, fx, skipped, err := feed.Collect(ctx, req, remote, remote, s.log)
	if err != nil {
		return fail("fetching series", err)
	}
	s.metrics.ObserveFetch(time.Since(start), len(prices)+len(fx), len(skipped))

	var stores []feed.Store
	if c.csv {
		stores = append(stores, feed.CSVDir{Dir: s.cfg.Prices})
	}
	if c.db {
		db, err := pricedb.Open(ctx, s.cfg.Database)
		if err != nil {
			return fail("opening database", err)
		}
		defer db.Close()
		stores = append(stores, db)
	}
	for _, store := range stores {
		if err := feed.Archive(ctx, store, req.Base, prices, fx); err != nil {
			return fail("archiving series", err)
		}
	}
	s.log.Info("series fetched", zap.Int("prices", len(prices)), zap.Int("rates", len(fx)), zap.Int("skipped", len(skipped)))
	fmt.Fprintf(output, "fetched %d price series and %d rate series, %d unavailable\n", len(prices), len(fx), len(skipped))
	return subcommands.ExitSuccess
}
