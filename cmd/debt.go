package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/finsim/config"
	"github.com/etnz/finsim/renderer"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
)

type debtCmd struct {
	json    bool
	monthly bool
}

func (*debtCmd) Name() string     { return "debt" }
func (*debtCmd) Synopsis() string { return "compare paying a debt down with investing" }
func (*debtCmd) Usage() string {
	return `debt [flags] <scenario.toml>

Simulate the Sniper and Hybrid strategies on the debts of a scenario and
find the month where investing catches up with paying down.

See 'finsim topic debt'.
`
}

func (c *debtCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the comparison as JSON")
	f.BoolVar(&c.monthly, "monthly", false, "add the month by month net worth")
}

func (c *debtCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one scenario file is required")
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.log.Sync()

	s, err := config.LoadDebtScenario(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	d, err := s.Debt(a.settings.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid debt: %v\n", err)
		return subcommands.ExitFailure
	}
	// strategies need no market data.
	sim, err := a.simulator(nil, prometheus.NewRegistry())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	comparison, err := sim.CompareDebtStrategies(ctx, d, s.StrategyConfig(a.settings.Currency), s.Rentability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		if err := printJSON(comparison); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.ComparisonMarkdown(comparison, c.monthly))
	return subcommands.ExitSuccess
}
