package cmd

import (
	"github.com/etnz/valuation/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes pval's command line for shell completion.
func Completion() *complete.Command {
	run := map[string]complete.Predictor{
		"c":         predict.Set{"USD", "EUR", "GBP", "AUD", "CHF", "JPY"},
		"g":         predict.Set{"daily", "weekly", "month-start"},
		"fill":      predict.Set{"zero", "forward"},
		"from":      predict.Something,
		"d":         predict.Something,
		"benchmark": predict.Something,
		"source":    predict.Set{"csv", "db", "yahoo", "eodhd"},
		"ledger":    predict.Files("*.csv"),
		"window":    predict.Something,
		"n":         predict.Something,
	}
	with := func(extra map[string]complete.Predictor) map[string]complete.Predictor {
		flags := make(map[string]complete.Predictor, len(run)+len(extra))
		for k, v := range run {
			flags[k] = v
		}
		for k, v := range extra {
			flags[k] = v
		}
		return flags
	}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"value":   {Flags: with(nil)},
			"returns": {Flags: with(map[string]complete.Predictor{"symbol": predict.Something})},
			"prices":  {Flags: with(nil)},
			"fetch":   {Flags: with(map[string]complete.Predictor{"csv": predict.Nothing, "db": predict.Nothing})},
			"topic":   {Args: predict.Set(append(docs.All(), docs.Readme, "*"))},
			"help":    {},
		},
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.yaml"),
			"env":    predict.Files("*"),
			"raw":    predict.Nothing,
		},
	}
}
