package renderer

import (
	"fmt"

	"github.com/etnz/finsim"
	md "github.com/nao1215/markdown"
)

// percent formats a ratio with its sign.
func percent(r float64) string { return finsim.Percent(r).SignedString() }

// optionalPercent formats an optional ratio, "n/a" when absent.
func optionalPercent(o finsim.Option[float64]) string {
	if v, ok := o.Get(); ok {
		return percent(v)
	}
	return "n/a"
}

func ratio(o finsim.Option[float64]) string { return o.Format("%.2f") }

func month(o finsim.Option[int]) string { return o.Format("month %d") }

// keyValues is a two column table, labels left and values right.
func keyValues(header [2]string, rows ...[2]string) md.TableSet {
	t := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    header[:],
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r[0], r[1]})
	}
	return t
}

func row(label string, value any) [2]string { return [2]string{label, fmt.Sprint(value)} }
