package cmd

import (
	"context"
	"flag"

	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

// valueCmd holds the flags for the 'value' subcommand.
type valueCmd struct {
	runFlags
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "value the portfolio on every date of a calendar" }
func (*valueCmd) Usage() string {
	return `pval value [-c <currency>] [-g <granularity>] [-benchmark <symbol>] [-d <date>]

  Values the trades of the ledger on a calendar running from the first trade
  to today, and compares them to the benchmark when one is set.
`
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	today, err := c.todayDate()
	if err != nil {
		return fail("parsing date", err)
	}
	s, err := newSession(c.apply)
	if err != nil {
		return fail("loading configuration", err)
	}
	defer s.close()

	r, report, err := s.value(ctx, today)
	if err != nil {
		return fail("valuing portfolio", err)
	}
	printMarkdown(renderer.RenderValuation(renderer.NewValuation(r.ledger, report, r.cfg.BaseCurrency, r.cfg.Benchmark, c.rows)))
	return subcommands.ExitSuccess
}
