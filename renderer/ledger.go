package renderer

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/etnz/finsim"
	md "github.com/nao1215/markdown"
)

// PositionsMarkdown renders replayed month end positions.
func PositionsMarkdown(positions []finsim.Position) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Ledger Replay")
	doc.PlainText(fmt.Sprintf("%d months replayed, every running total matches.", len(positions)))

	t := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignRight, md.AlignLeft, md.AlignRight, md.AlignLeft},
		Header:    []string{"Month", "Date", "Cash", "Holdings"},
	}
	for _, p := range positions {
		var holdings []string
		for _, ticker := range slices.Sorted(maps.Keys(p.Shares)) {
			holdings = append(holdings, fmt.Sprintf("%s %s", p.Shares[ticker], ticker))
		}
		t.Rows = append(t.Rows, []string{fmt.Sprint(p.Month), p.Date.String(), p.Cash.String(), strings.Join(holdings, ", ")})
	}
	doc.Table(t)
	return doc.String()
}
