package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

// returnsCmd holds the flags for the 'returns' subcommand.
type returnsCmd struct {
	runFlags
	symbol string
}

func (*returnsCmd) Name() string     { return "returns" }
func (*returnsCmd) Synopsis() string { return "print returns and their rolling mean" }
func (*returnsCmd) Usage() string {
	return `pval returns [-symbol <symbol>] [-window <n>] [-c <currency>] [-g <granularity>]

  Prints the period over period returns of the portfolio value, or of the
  price of a single symbol, together with their rolling mean.
`
}

func (c *returnsCmd) SetFlags(f *flag.FlagSet) {
	c.runFlags.SetFlags(f)
	f.StringVar(&c.symbol, "symbol", "", "symbol whose price returns are printed instead of the portfolio's")
}

func (c *returnsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	title, values, currency := "Portfolio", report.Holdings, r.cfg.BaseCurrency
	if c.symbol != "" {
		aligned, skipped := valuation.AlignPrices(report.Calendar, []string{c.symbol}, r.prices, r.cfg.Fill, s.log)
		if len(skipped) > 0 {
			return fail("aligning prices", fmt.Errorf("%s: %w", c.symbol, skipped[0].Err))
		}
		values, _ = aligned.Get(c.symbol)
		title, currency = c.symbol, ""
		for _, t := range r.ledger.Trades() {
			if t.Symbol == c.symbol {
				currency = t.Currency
				break
			}
		}
	}
	printMarkdown(renderer.RenderReturns(renderer.NewReturns(title, values, currency, r.cfg.Window, c.rows)))
	return subcommands.ExitSuccess
}
