package cmd

import (
	"github.com/etnz/finsim/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the finsim command line.
func Completion() *complete.Command {
	scenarios := predict.Files("*.toml")
	period := map[string]complete.Predictor{
		"from": predict.Something,
		"to":   predict.Something,
	}
	topics := complete.PredictFunc(func(string) []string {
		list, _ := docs.List()
		return list
	})
	commands := predict.Set{"backtest", "chart", "replay", "schedule", "debt", "fetch", "cdi", "topic"}

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.toml"),
			"market": predict.Files("*.jsonl"),
		},
		Sub: map[string]*complete.Command{
			"backtest": {
				Args: scenarios,
				Flags: map[string]complete.Predictor{
					"json":         predict.Nothing,
					"monthly":      predict.Nothing,
					"transactions": predict.Nothing,
					"ledger":       predict.Files("*.jsonl"),
					"metrics":      predict.Nothing,
				},
			},
			"chart": {
				Args:  scenarios,
				Flags: map[string]complete.Predictor{"o": predict.Files("*.png")},
			},
			"replay": {Args: predict.Files("*.jsonl")},
			"schedule": {
				Args: scenarios,
				Flags: map[string]complete.Predictor{
					"name":    predict.Something,
					"balance": predict.Something,
					"rate":    predict.Something,
					"term":    predict.Something,
					"system":  predict.Set{"SAC", "PRICE"},
					"tr":      predict.Something,
					"json":    predict.Nothing,
				},
			},
			"debt": {
				Args: scenarios,
				Flags: map[string]complete.Predictor{
					"json":    predict.Nothing,
					"monthly": predict.Nothing,
				},
			},
			"fetch": {
				Args:  predict.Something,
				Flags: with(period, "search", predict.Nothing),
			},
			"cdi": {
				Flags: with(with(period, "series", predict.Set{"CDI", "SELIC", "IPCA"}), "name", predict.Something),
			},
			"topic":    {Args: topics},
			"help":     {Args: commands},
			"flags":    {Args: commands},
			"commands": {},
		},
	}
}

// with returns a copy of flags with one more flag.
func with(flags map[string]complete.Predictor, name string, p complete.Predictor) map[string]complete.Predictor {
	out := make(map[string]complete.Predictor, len(flags)+1)
	for k, v := range flags {
		out[k] = v
	}
	out[name] = p
	return out
}
