package cmd

import (
	"context"
	"flag"
	"slices"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

// pricesCmd holds the flags for the 'prices' subcommand.
type pricesCmd struct {
	runFlags
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "print aligned prices normalized to their first value" }
func (*pricesCmd) Usage() string {
	return `pval prices [-g <granularity>] [-fill <policy>] [-d <date>]

  Aligns the prices of every traded symbol (and of the benchmark) on the
  valuation calendar and prints them as a growth factor of their first value.
`
}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	today, err := c.todayDate()
	if err != nil {
		return fail("parsing date", err)
	}
	s, err := newSession(c.apply)
	if err != nil {
		return fail("loading configuration", err)
	}
	defer s.close()

	r, err := s.collect(ctx, today)
	if err != nil {
		return fail("collecting prices", err)
	}
	cal, err := valuation.NewCalendar(r.ledger, r.cfg.From, r.cfg.Today, r.cfg.Period)
	if err != nil {
		return fail("building calendar", err)
	}
	symbols := r.ledger.Symbols()
	if r.cfg.Benchmark != "" && !slices.Contains(symbols, r.cfg.Benchmark) {
		symbols = append(symbols, r.cfg.Benchmark)
	}
	aligned, skipped := valuation.AlignPrices(cal, symbols, r.prices, r.cfg.Fill, s.log)
	printMarkdown(renderer.RenderPrices(renderer.NewPrices(aligned, skipped, c.rows)))
	return subcommands.ExitSuccess
}
