package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/finsim"
	md "github.com/nao1215/markdown"
)

// ComparisonMarkdown renders a Sniper versus Hybrid comparison. With monthly,
// the month by month net worth of both strategies follows.
func ComparisonMarkdown(c *finsim.StrategyComparison, monthly bool) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Sniper vs Hybrid on %s", debtName(c.Debt)))
	doc.PlainText(fmt.Sprintf("Budget %s a month, Hybrid invests %s of it at %s a year. Break-even: %s.",
		c.Config.MonthlyBudget, c.Config.InvestmentSplit, finsim.Percent(c.Rentability), month(c.BreakEvenMonth)))

	t := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"", "Sniper", "Hybrid"},
	}
	add := func(label string, f func(finsim.DebtSimulationResult) string) {
		t.Rows = append(t.Rows, []string{label, f(c.Sniper), f(c.Hybrid)})
	}
	add("Payoff", func(r finsim.DebtSimulationResult) string { return month(r.PayoffMonth) })
	add("Interest Paid", func(r finsim.DebtSimulationResult) string { return r.TotalInterestPaid.String() })
	add("Invested", func(r finsim.DebtSimulationResult) string { return r.TotalInvestmentContribution.String() })
	add("Investment Return", func(r finsim.DebtSimulationResult) string { return r.TotalInvestmentReturn.String() })
	add("Final Debt", func(r finsim.DebtSimulationResult) string { return r.FinalDebtBalance.String() })
	add("Final Investments", func(r finsim.DebtSimulationResult) string { return r.FinalInvestedBalance.String() })
	add(md.Bold("Net Worth"), func(r finsim.DebtSimulationResult) string { return md.Bold(r.FinalNetWorth.String()) })
	doc.Table(t)

	if monthly {
		doc.H2("Net Worth")
		t := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Month", "Sniper Debt", "Sniper Net Worth", "Hybrid Debt", "Hybrid Net Worth"},
		}
		for i := range min(len(c.Sniper.MonthlyData), len(c.Hybrid.MonthlyData)) {
			s, h := c.Sniper.MonthlyData[i], c.Hybrid.MonthlyData[i]
			t.Rows = append(t.Rows, []string{
				fmt.Sprint(s.Month), s.DebtBalance.String(), s.NetWorth.String(), h.DebtBalance.String(), h.NetWorth.String(),
			})
		}
		doc.Table(t)
	}
	return doc.String()
}

// ScheduleMarkdown renders the amortization schedule of d.
func ScheduleMarkdown(d finsim.Debt, rows []finsim.ScheduleRow) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("%s Schedule of %s", d.AmortizationSystem, debtName(d)))
	doc.PlainText(fmt.Sprintf("%s at %s a year over %d months.", d.Balance, finsim.Percent(d.InterestRateAnnual), d.TermMonths))

	t := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Month", "Correction", "Interest", "Amortization", "Payment", "Balance"},
	}
	total := finsim.M(0, d.Balance.Currency())
	for _, r := range rows {
		total = total.Add(r.Interest)
		t.Rows = append(t.Rows, []string{
			fmt.Sprint(r.Month), r.Correction.String(), r.Interest.String(), r.Amortization.String(), r.Payment.String(), r.Balance.String(),
		})
	}
	doc.Table(t)
	doc.PlainText(fmt.Sprintf("Total interest: %s.", total))
	return doc.String()
}

func debtName(d finsim.Debt) string {
	if d.Name == "" {
		return "the debt"
	}
	return d.Name
}
