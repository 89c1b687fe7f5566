package finsim

import (
	"fmt"
	"strings"
	"testing"

	"github.com/etnz/finsim/date"
	"github.com/stretchr/testify/require"
)

// BRL is a helper for test to create reais from const
func BRL(v float64) Money { return M(v, "BRL") }

// day is a shortcut for date.MustParse.
func day(s string) date.Date { return date.MustParse(s) }

// decodeMarket parses JSONL market data.
func decodeMarket(t *testing.T, lines ...string) *MarketData {
	t.Helper()
	m := NewMarketData("BRL")
	require.NoError(t, DecodeMarketData(m, t.Name(), strings.NewReader(strings.Join(lines, "\n"))))
	return m
}

// monthlyMarket quotes each ticker on the 28th of consecutive months from
// first, one price per month. A zero price leaves the month without a close.
func monthlyMarket(t *testing.T, first date.Date, series map[string][]float64) *MarketData {
	t.Helper()
	m := NewMarketData("BRL")
	for ticker, prices := range series {
		for i, p := range prices {
			if p == 0 {
				continue
			}
			on := first.AddMonths(i).Add(27)
			m.SetPrice(ticker, on, newDecimal(p))
		}
	}
	return m
}

// flatSeries returns n times p.
func flatSeries(n int, p float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = p
	}
	return s
}

// twoAssets is a 50/50 config over AAA and BBB.
func twoAssets(start, end string, initial, monthly float64, freq date.Period) SimulationConfig {
	return SimulationConfig{
		Assets:              []PortfolioAsset{{"AAA", 0.5}, {"BBB", 0.5}},
		StartDate:           day(start),
		EndDate:             day(end),
		InitialCapital:      BRL(initial),
		MonthlyContribution: BRL(monthly),
		RebalanceFrequency:  freq,
	}
}

// requireConsistent checks the ledger invariants of a result.
func requireConsistent(t *testing.T, r *BacktestResult) {
	t.Helper()
	require.NoError(t, r.Verify(), "ledger replay")
	for _, s := range r.PortfolioEvolution {
		require.True(t, s.PortfolioValue.Equal(s.Value()), "month %d: value %s != cash + holdings %s", s.Month, s.PortfolioValue, s.Value())
		require.False(t, s.CashBalance.IsNegative(), "month %d: negative cash %s", s.Month, s.CashBalance)
	}
	for i, tx := range r.Transactions {
		require.False(t, tx.CashBalance.IsNegative(), "transaction %d %s", i, tx)
	}
}

func dump(l Ledger) string {
	var b strings.Builder
	for _, tx := range l {
		fmt.Fprintln(&b, tx)
	}
	return b.String()
}
