package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/config"
	"github.com/etnz/finsim/renderer"
	"github.com/google/subcommands"
)

type scheduleCmd struct {
	name    string
	balance float64
	rate    float64
	term    int
	system  string
	tr      float64
	json    bool
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "print the amortization schedule of a debt" }
func (*scheduleCmd) Usage() string {
	return `schedule [flags] [scenario.toml]

Print the month by month SAC or PRICE schedule of a debt described by the
flags, or of the debts of a scenario file merged into one.

See 'finsim topic debt'.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "name of the debt")
	f.Float64Var(&c.balance, "balance", 0, "outstanding balance")
	f.Float64Var(&c.rate, "rate", 0, "annual interest rate, 0.12 for 12%")
	f.IntVar(&c.term, "term", 0, "remaining term in months")
	f.StringVar(&c.system, "system", "SAC", "amortization system: SAC or PRICE")
	f.Float64Var(&c.tr, "tr", 0, "monthly monetary correction (TR), 0.001 for 0.1%")
	f.BoolVar(&c.json, "json", false, "print the schedule as JSON")
}

func (c *scheduleCmd) debt(f *flag.FlagSet, currency string) (finsim.Debt, error) {
	if f.NArg() > 0 {
		s, err := config.LoadDebtScenario(f.Arg(0))
		if err != nil {
			return finsim.Debt{}, err
		}
		return s.Debt(currency)
	}
	system, err := finsim.ParseAmortizationSystem(c.system)
	if err != nil {
		return finsim.Debt{}, err
	}
	return finsim.Debt{
		Name:               c.name,
		Balance:            finsim.M(c.balance, currency),
		InterestRateAnnual: c.rate,
		TermMonths:         c.term,
		AmortizationSystem: system,
		MonthlyTR:          c.tr,
	}, nil
}

func (c *scheduleCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.log.Sync()

	d, err := c.debt(f, a.settings.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	rows, err := finsim.BuildSchedule(d)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid debt: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		if err := printJSON(rows); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.ScheduleMarkdown(d, rows))
	return subcommands.ExitSuccess
}
