package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/etnz/finsim/bcb"
	"github.com/google/subcommands"
)

// series are the SGS series known by name.
var series = map[string]int{
	"CDI":   bcb.CDI,
	"SELIC": bcb.SELIC,
	"IPCA":  bcb.IPCA,
}

type cdiCmd struct {
	from   string
	to     string
	series string
	name   string
}

func (*cdiCmd) Name() string     { return "cdi" }
func (*cdiCmd) Synopsis() string { return "fetch a benchmark index from the Banco Central do Brasil" }
func (*cdiCmd) Usage() string {
	return `cdi [flags]

Fetch a rate series (CDI, SELIC or IPCA) from the Banco Central do Brasil
and store it in the market data file as a benchmark index starting at 1.
`
}

func (c *cdiCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "2000-01-01", "first day to fetch")
	f.StringVar(&c.to, "to", "", "last day to fetch, today by default")
	f.StringVar(&c.series, "series", "CDI", "series to fetch: CDI, SELIC or IPCA")
	f.StringVar(&c.name, "name", "", "benchmark name, the series name by default")
}

func (c *cdiCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := strings.ToUpper(c.series)
	code, ok := series[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown series %q, want CDI, SELIC or IPCA\n", c.series)
		return subcommands.ExitUsageError
	}
	if c.name != "" {
		name = c.name
	}
	from, to, err := parseRange(c.from, c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.log.Sync()

	settings := a.settings.Clients.BCB
	client := bcb.New(
		bcb.WithBaseURL(settings.BaseURL),
		bcb.WithHTTPClient(&http.Client{Timeout: settings.GetTimeout()}),
		bcb.WithLogger(a.log.Named("bcb")),
	)
	m, err := a.decodeMarket()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading market data: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := client.FetchIndex(ctx, m, name, code, from, to); err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not fetch %s: %v\n", c.series, err)
		return subcommands.ExitFailure
	}
	if err := a.encodeMarket(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing market data: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Fetched %s from %s to %s into %s\n", name, from, to, a.marketPath())
	return subcommands.ExitSuccess
}
