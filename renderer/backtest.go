// Package renderer renders simulation results as markdown reports.
package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/finsim"
	md "github.com/nao1215/markdown"
)

// BacktestOptions selects the optional sections of a backtest report.
type BacktestOptions struct {
	Monthly      bool // month by month evolution
	Transactions bool // the full ledger
}

// BacktestMarkdown renders a backtest result.
func BacktestMarkdown(r *finsim.BacktestResult, opts BacktestOptions) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	cfg := r.Config

	doc.H1(fmt.Sprintf("Backtest from %s to %s", cfg.StartDate, cfg.EndDate))
	doc.PlainText(fmt.Sprintf("Run %s, %d assets, %s rebalancing, dividends %s.",
		r.RunID, len(cfg.Assets), cfg.RebalanceFrequency, cfg.DividendPolicy))

	doc.H2("Summary")
	doc.Table(keyValues([2]string{"", md.Bold(r.FinalValue.String())},
		row("Total Invested", r.TotalInvested),
		row("Cash", r.CashReserve),
		row("Dividends Received", r.DividendsReceived),
		row("Total Return", percent(r.TotalReturn)),
		row("CAGR", percent(r.CAGR)),
		row("Positive Months", r.PositiveMonths),
		row("Negative Months", r.NegativeMonths),
	))

	doc.H2("Risk")
	doc.Table(keyValues([2]string{"Metric", "Value"},
		row("Cumulative Return", percent(r.Risk.CumulativeReturn)),
		row("Annualized Return", percent(r.Risk.AnnualizedReturn)),
		row("Volatility", finsim.Percent(r.Risk.Volatility)),
		row("Sharpe Ratio", ratio(r.Risk.SharpeRatio)),
		row("Max Drawdown", finsim.Percent(r.Risk.MaxDrawdown)),
	))

	if len(r.Risk.Benchmarks) > 0 {
		doc.H2("Benchmarks")
		t := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
			Header:    []string{"Benchmark", "Return", "Outperformance"},
		}
		for _, b := range r.Risk.Benchmarks {
			t.Rows = append(t.Rows, []string{b.Name, optionalPercent(b.Return), optionalPercent(b.Outperformance)})
		}
		doc.Table(t)
	}

	doc.H2("Assets")
	assets := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Ticker", "Target", "Shares", "Average Price", "Value", "Dividends", "Return"},
	}
	for _, a := range r.AssetPerformance {
		assets.Rows = append(assets.Rows, []string{
			a.Ticker,
			finsim.Percent(a.Allocation).String(),
			a.Shares.String(),
			a.AveragePrice.String(),
			a.FinalValue.String(),
			a.Dividends.String(),
			percent(a.TotalReturn),
		})
	}
	doc.Table(assets)

	if len(r.Risk.Drawdowns) > 0 {
		doc.H2("Drawdowns")
		t := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignLeft},
			Header:    []string{"Peak", "Start", "Trough", "Months", "Depth", "Recovery"},
		}
		for _, d := range r.Risk.Drawdowns {
			t.Rows = append(t.Rows, []string{
				d.Peak.String(), d.Start.String(), d.Trough.String(),
				fmt.Sprint(d.Duration), finsim.Percent(d.Depth).String(), d.RecoveryDate.Format("%v"),
			})
		}
		doc.Table(t)
	}

	if opts.Monthly {
		doc.H2("Evolution")
		t := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignRight, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Month", "Date", "Contribution", "Cash", "Value", "Return"},
		}
		for _, s := range r.PortfolioEvolution {
			t.Rows = append(t.Rows, []string{
				fmt.Sprint(s.Month), s.Date.String(), s.Contribution.String(),
				s.CashBalance.String(), s.PortfolioValue.String(), percent(s.MonthlyReturn),
			})
		}
		doc.Table(t)
	}

	if len(r.DataQualityIssues) > 0 || len(r.Alerts) > 0 {
		doc.H2("Warnings")
		var items []string
		for _, i := range r.DataQualityIssues {
			items = append(items, fmt.Sprintf("%s %s: %s (%s)", i.Date, i.Ticker, i.Kind, i.Detail))
		}
		for _, a := range r.Alerts {
			items = append(items, fmt.Sprintf("%s: %s %s", a.Date, a.Kind, a.Amount))
		}
		doc.BulletList(items...)
	}

	if opts.Transactions {
		doc.H2("Transactions")
		var lines []string
		for _, tx := range r.Transactions {
			lines = append(lines, fmt.Sprintf("%s: %s", tx.Date, Transaction(tx)))
		}
		doc.OrderedList(lines...)
	}

	return doc.String()
}
