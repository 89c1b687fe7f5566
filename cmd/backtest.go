package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/config"
	"github.com/etnz/finsim/renderer"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

type backtestCmd struct {
	json         bool
	monthly      bool
	transactions bool
	ledger       string
	metrics      bool
}

func (*backtestCmd) Name() string     { return "backtest" }
func (*backtestCmd) Synopsis() string { return "run portfolio backtests" }
func (*backtestCmd) Usage() string {
	return `backtest [flags] <scenario.toml>...

Run the backtest of each scenario against the market data file.
Several scenarios run in parallel.

See 'finsim topic backtest'.
`
}

func (c *backtestCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the full results as JSON")
	f.BoolVar(&c.monthly, "monthly", false, "add the month by month evolution")
	f.BoolVar(&c.transactions, "transactions", false, "add the ledger transactions")
	f.StringVar(&c.ledger, "ledger", "", "write the ledger of a single scenario to this JSONL file")
	f.BoolVar(&c.metrics, "metrics", false, "print the simulator metrics to stderr")
}

func (c *backtestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one scenario file is required")
		return subcommands.ExitUsageError
	}
	if c.ledger != "" && f.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Error: -ledger needs a single scenario")
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.log.Sync()

	cfgs := make([]finsim.SimulationConfig, 0, f.NArg())
	for _, path := range f.Args() {
		b, err := config.LoadBacktest(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		cfgs = append(cfgs, b.SimulationConfig(a.settings.Currency))
	}

	m, err := a.decodeMarket()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading market data: %v\n", err)
		return subcommands.ExitFailure
	}
	reg := prometheus.NewRegistry()
	sim, err := a.simulator(m, reg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	results, err := sim.RunBatch(ctx, cfgs)
	if c.metrics {
		if err := writeMetrics(os.Stderr, reg); err != nil {
			fmt.Fprintf(os.Stderr, "Error printing metrics: %v\n", err)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.ledger != "" {
		if err := writeLedger(c.ledger, results[0].Transactions); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing ledger %q: %v\n", c.ledger, err)
			return subcommands.ExitFailure
		}
	}

	for _, r := range results {
		if c.json {
			if err := printJSON(r); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitFailure
			}
			continue
		}
		printMarkdown(renderer.BacktestMarkdown(r, renderer.BacktestOptions{Monthly: c.monthly, Transactions: c.transactions}))
	}
	return subcommands.ExitSuccess
}

func writeLedger(path string, l finsim.Ledger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := finsim.EncodeLedger(f, l); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeMetrics writes the metrics gathered by g in the Prometheus text format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
