package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/renderer"
	"github.com/google/subcommands"
)

type replayCmd struct{}

func (*replayCmd) Name() string     { return "replay" }
func (*replayCmd) Synopsis() string { return "rebuild positions from a ledger" }
func (*replayCmd) Usage() string {
	return `replay <ledger.jsonl>

Replay a backtest ledger and print the cash and holdings at the end of
every month. It fails on the first transaction whose running totals
disagree with the replayed ones.

See 'finsim topic ledger'.
`
}

func (*replayCmd) SetFlags(*flag.FlagSet) {}

func (*replayCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ledger file is required")
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer file.Close()
	l, err := finsim.DecodeLedger(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(l) == 0 {
		fmt.Println("Empty ledger.")
		return subcommands.ExitSuccess
	}
	positions, err := l.Replay(l[len(l)-1].Month + 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: ledger does not replay: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PositionsMarkdown(positions))
	return subcommands.ExitSuccess
}
