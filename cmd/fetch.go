package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/finsim/eodhd"
	"github.com/google/subcommands"
)

type fetchCmd struct {
	from   string
	to     string
	search bool
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetch prices and dividends from EODHD" }
func (*fetchCmd) Usage() string {
	return `fetch [flags] <TICKER.EXCHANGE>...

Fetch daily closes and dividends from eodhd.com and merge them into the
market data file, under the ticker without its exchange.
With -search, look tickers up instead.

Requires an API key, in the settings or FINSIM_EODHD_API_KEY.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "2000-01-01", "first day to fetch")
	f.StringVar(&c.to, "to", "", "last day to fetch, today by default")
	f.BoolVar(&c.search, "search", false, "search the arguments instead of fetching them")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one ticker is required")
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.log.Sync()

	settings := a.settings.Clients.EODHD
	if settings.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: EODHD API key is not set, use the settings or FINSIM_EODHD_API_KEY")
		return subcommands.ExitFailure
	}
	httpClient := eodhd.NewDailyCachingClient(settings.CacheDir, a.log)
	httpClient.Timeout = settings.GetTimeout()
	client := eodhd.New(settings.APIKey,
		eodhd.WithBaseURL(settings.BaseURL),
		eodhd.WithHTTPClient(httpClient),
		eodhd.WithRateLimit(settings.RateLimit, 1),
		eodhd.WithLogger(a.log.Named("eodhd")),
	)

	if c.search {
		for _, term := range f.Args() {
			results, err := client.Search(ctx, term)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error searching %q: %v\n", term, err)
				return subcommands.ExitFailure
			}
			for _, r := range results {
				fmt.Printf("%-16s %-6s %s\n", r.Ticker(), r.Currency, r.Name)
			}
		}
		return subcommands.ExitSuccess
	}

	from, to, err := parseRange(c.from, c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	m, err := a.decodeMarket()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading market data: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := client.Fetch(ctx, m, f.Args(), from, to); err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not fetch from eodhd.com: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.encodeMarket(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing market data: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Fetched %d tickers from %s to %s into %s\n", f.NArg(), from, to, a.marketPath())
	return subcommands.ExitSuccess
}
