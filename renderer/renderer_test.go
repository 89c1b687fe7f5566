package renderer

import (
	"context"
	"testing"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backtest(t *testing.T) *finsim.BacktestResult {
	t.Helper()
	m := finsim.NewMarketData("BRL")
	for i, p := range []float64{10, 12, 9, 11} {
		on := date.New(2024, 1, 28).AddMonths(i).Add(27)
		m.SetPrice("AAA", on, decimal.NewFromFloat(p))
		m.SetPrice("BBB", on, decimal.NewFromFloat(20))
		m.SetLevel("CDI", on, 1+0.01*float64(i))
	}
	m.AddDividend(finsim.DividendEvent{Ticker: "BBB", ExDate: date.New(2024, 2, 10), AmountPerShare: finsim.M(1, "BRL")})
	cfg := finsim.SimulationConfig{
		Assets:              []finsim.PortfolioAsset{{Ticker: "AAA", TargetAllocation: 0.6}, {Ticker: "BBB", TargetAllocation: 0.4}},
		StartDate:           date.New(2024, 1, 1),
		EndDate:             date.New(2024, 4, 30),
		InitialCapital:      finsim.M(1000, "BRL"),
		MonthlyContribution: finsim.M(100, "BRL"),
		RebalanceFrequency:  date.Quarterly,
		Benchmarks:          []string{"CDI"},
	}
	r, err := finsim.NewEngine(nil).Run(context.Background(), cfg, m, m, m)
	require.NoError(t, err)
	return r
}

func TestBacktestMarkdown(t *testing.T) {
	r := backtest(t)

	got := BacktestMarkdown(r, BacktestOptions{})
	assert.Contains(t, got, "# Backtest from 2024-01-01 to 2024-04-30")
	assert.Contains(t, got, "## Summary")
	assert.Contains(t, got, "## Risk")
	assert.Contains(t, got, "| CDI ")
	assert.Contains(t, got, "| AAA ")
	assert.Contains(t, got, "## Drawdowns")
	assert.NotContains(t, got, "## Evolution")
	assert.NotContains(t, got, "## Transactions")
	assert.NotContains(t, got, "## Warnings")

	got = BacktestMarkdown(r, BacktestOptions{Monthly: true, Transactions: true})
	assert.Contains(t, got, "## Evolution")
	assert.Contains(t, got, "## Transactions")
	assert.Contains(t, got, "Dividend of ")
}

func TestBacktestMarkdown_Warnings(t *testing.T) {
	r := backtest(t)
	r.DataQualityIssues = append(r.DataQualityIssues, finsim.DataQualityIssue{
		Month: 1, Date: date.New(2024, 2, 29), Ticker: "AAA", Kind: finsim.MissingPrice, Detail: "no close in 2024-02",
	})

	got := BacktestMarkdown(r, BacktestOptions{})
	assert.Contains(t, got, "## Warnings")
	assert.Contains(t, got, "2024-02-29 AAA")
	assert.Contains(t, got, "no close in 2024-02")
}

func TestTransaction(t *testing.T) {
	brl := func(v float64) finsim.Money { return finsim.M(v, "BRL") }
	testCases := []struct {
		tx   finsim.Transaction
		want string
	}{
		{finsim.Transaction{Type: finsim.CashCredit, Amount: brl(1000)}, "Credited "},
		{finsim.Transaction{Type: finsim.Contribution, Ticker: "AAA", SharesAdded: finsim.Q(3), Price: brl(10), Amount: brl(-30)}, "Bought 3 AAA at "},
		{finsim.Transaction{Type: finsim.RebalanceSell, Ticker: "AAA", SharesAdded: finsim.Q(-2), Price: brl(10), Amount: brl(20)}, "sold 2 at "},
		{finsim.Transaction{Type: finsim.DividendReinvest, Ticker: "BBB", SharesAdded: finsim.Q(1), Price: brl(20), Amount: brl(-20)}, "Reinvested "},
		{finsim.Transaction{Type: finsim.CashReserve, CashBalance: brl(5)}, "Kept "},
	}
	for _, tc := range testCases {
		t.Run(string(tc.tx.Type), func(t *testing.T) {
			assert.Contains(t, Transaction(tc.tx), tc.want)
		})
	}
}

func TestComparisonMarkdown(t *testing.T) {
	d := finsim.Debt{
		Name:               "car",
		Balance:            finsim.M(10000, "BRL"),
		InterestRateAnnual: 0.12,
		TermMonths:         12,
		AmortizationSystem: finsim.PRICE,
	}
	c, err := finsim.CompareStrategies(d, finsim.StrategyConfig{
		MonthlyBudget:   finsim.M(1500, "BRL"),
		InvestmentSplit: finsim.M(300, "BRL"),
	}, 0.1)
	require.NoError(t, err)

	got := ComparisonMarkdown(c, false)
	assert.Contains(t, got, "# Sniper vs Hybrid on car")
	assert.Contains(t, got, "Break-even: month 1.")
	assert.Contains(t, got, "| Interest Paid ")
	assert.NotContains(t, got, "## Net Worth")

	got = ComparisonMarkdown(c, true)
	assert.Contains(t, got, "## Net Worth")
}

func TestScheduleMarkdown(t *testing.T) {
	d := finsim.Debt{
		Balance:            finsim.M(10000, "BRL"),
		InterestRateAnnual: 0.12,
		TermMonths:         12,
		AmortizationSystem: finsim.SAC,
	}
	rows, err := finsim.BuildSchedule(d)
	require.NoError(t, err)

	got := ScheduleMarkdown(d, rows)
	assert.Contains(t, got, "# SAC Schedule of the debt")
	assert.Contains(t, got, "Total interest: ")
}

func TestEvolutionChart(t *testing.T) {
	png, err := EvolutionChart(backtest(t))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	_, err = EvolutionChart(&finsim.BacktestResult{})
	assert.ErrorContains(t, err, "need at least 2 months")
}

func TestPositionsMarkdown(t *testing.T) {
	r := backtest(t)
	positions, err := r.Transactions.Replay(len(r.PortfolioEvolution))
	require.NoError(t, err)

	got := PositionsMarkdown(positions)
	assert.Contains(t, got, "# Ledger Replay")
	assert.Contains(t, got, "4 months replayed")
	assert.Contains(t, got, " AAA, ")
	assert.Contains(t, got, "2024-04-30")
}
