package finsim

import (
	"context"
	"testing"

	"github.com/etnz/finsim/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cfg SimulationConfig, m *MarketData) *BacktestResult {
	t.Helper()
	r, err := NewEngine(nil).Run(context.Background(), cfg, m, m, m)
	require.NoError(t, err)
	requireConsistent(t, r)
	return r
}

func TestRun_FlatPricesNoDrift(t *testing.T) {
	// 13 months so that the yearly rebalance is due on the last one.
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{
		"AAA": flatSeries(13, 10),
		"BBB": flatSeries(13, 20),
	})
	cfg := twoAssets("2023-01-01", "2024-01-31", 10000, 0, date.Yearly)

	r := run(t, cfg, m)

	require.Len(t, r.PortfolioEvolution, 13)
	assert.Equal(t, 0.0, r.TotalReturn)
	assert.Equal(t, 0.0, r.Risk.MaxDrawdown)
	assert.Empty(t, r.Risk.Drawdowns)
	assert.Equal(t, 0, r.Transactions.Count(RebalanceBuy)+r.Transactions.Count(RebalanceSell), dump(r.Transactions))
	assert.True(t, r.FinalValue.Equal(BRL(10000)))
	assert.True(t, r.TotalInvested.Equal(BRL(10000)))
	assert.Equal(t, 0, r.PositiveMonths)
	assert.Equal(t, 0, r.NegativeMonths)
	assert.Equal(t, 0.0, r.CAGR)
	assert.True(t, r.Risk.SharpeRatio.IsNone(), "no volatility, no sharpe ratio")

	first := r.PortfolioEvolution[0]
	assert.True(t, first.Holdings["AAA"].Equal(Q(500)))
	assert.True(t, first.Holdings["BBB"].Equal(Q(250)))
	assert.True(t, first.CashBalance.IsZero())
	assert.Equal(t, day("2023-01-31"), first.Date)
}

func TestRun_DividendIsReinvested(t *testing.T) {
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{"AAA": flatSeries(4, 50)})
	m.AddDividend(DividendEvent{Ticker: "AAA", ExDate: day("2023-03-15"), AmountPerShare: BRL(2)})
	cfg := SimulationConfig{
		Assets:             []PortfolioAsset{{"AAA", 1}},
		StartDate:          day("2023-01-01"),
		EndDate:            day("2023-04-30"),
		InitialCapital:     BRL(5000),
		RebalanceFrequency: date.Yearly,
	}

	r := run(t, cfg, m)

	march := r.Transactions.Month(2)
	require.Len(t, march, 2, dump(march))
	payment, reinvest := march[0], march[1]
	assert.Equal(t, DividendPayment, payment.Type)
	assert.True(t, payment.Amount.Equal(BRL(200)), "100 shares x 2 = %s", payment.Amount)
	assert.Equal(t, DividendReinvest, reinvest.Type)
	assert.True(t, reinvest.SharesAdded.IsPositive())
	assert.True(t, reinvest.SharesAdded.Equal(Q(4)))
	assert.True(t, reinvest.TotalShares.Equal(Q(104)))

	assert.True(t, r.DividendsReceived.Equal(BRL(200)))
	a, ok := r.Asset("AAA")
	require.True(t, ok)
	assert.True(t, a.Reinvestment.Equal(BRL(200)))
	assert.True(t, a.Contribution.Equal(BRL(5000)))
	assert.True(t, a.AveragePrice.Equal(BRL(50)))
	assert.True(t, a.Shares.Equal(Q(104)))
	// (104 x 50 + 200 - 200 - 5000) / 5000
	assert.InDelta(t, 200.0/5000, a.TotalReturn, 1e-12)
	assert.InDelta(t, 200.0/5000, r.TotalReturn, 1e-12)
}

func TestRun_DividendKeptInCash(t *testing.T) {
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{"AAA": flatSeries(4, 50)})
	m.AddDividend(DividendEvent{Ticker: "AAA", ExDate: day("2023-03-15"), AmountPerShare: BRL(2)})
	cfg := SimulationConfig{
		Assets:             []PortfolioAsset{{"AAA", 1}},
		StartDate:          day("2023-01-01"),
		EndDate:            day("2023-04-30"),
		InitialCapital:     BRL(5000),
		RebalanceFrequency: date.Yearly,
		DividendPolicy:     Accumulate,
	}

	r := run(t, cfg, m)

	assert.Equal(t, 0, r.Transactions.Count(DividendReinvest))
	assert.True(t, r.CashReserve.Equal(BRL(200)))
	a, _ := r.Asset("AAA")
	assert.InDelta(t, 200.0/5000, a.TotalReturn, 1e-12)
	// the dividend is a return, not new money.
	assert.InDelta(t, 200.0/5000, r.PortfolioEvolution[2].MonthlyReturn, 1e-12)
}

func TestRun_ContributionsAndQuarterlyRebalance(t *testing.T) {
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{
		"AAA": {10, 11, 12, 9, 10, 13},
		"BBB": {20, 19, 22, 25, 24, 21},
	})
	m.AddDividend(DividendEvent{Ticker: "BBB", ExDate: day("2023-05-10"), AmountPerShare: BRL(1)})
	cfg := twoAssets("2023-01-01", "2023-06-30", 10000, 1000, date.Quarterly)

	r := run(t, cfg, m)

	require.Len(t, r.PortfolioEvolution, 6)
	assert.True(t, r.TotalInvested.Equal(BRL(15000)))
	for i, s := range r.PortfolioEvolution {
		want := BRL(1000)
		if i == 0 {
			want = BRL(10000)
		}
		assert.True(t, s.Contribution.Equal(want), "month %d contribution %s", i, s.Contribution)
	}

	// month 3 is the quarterly rebalance: the contribution is invested by the rebalance.
	april := r.Transactions.Month(3)
	assert.Equal(t, 0, april.Count(Contribution), dump(april))
	assert.Positive(t, april.Count(RebalanceBuy), dump(april))
	assert.Equal(t, CashCredit, april[0].Type)
	for _, i := range []int{1, 2, 4, 5} {
		month := r.Transactions.Month(i)
		assert.Positive(t, month.Count(Contribution), "month %d\n%s", i, dump(month))
		assert.Equal(t, 0, month.Count(RebalanceBuy)+month.Count(RebalanceSell), "month %d", i)
	}
	assert.Equal(t, 1, r.Transactions.Count(DividendPayment))

	// returns are net of contributions.
	for i := 1; i < len(r.PortfolioEvolution); i++ {
		prev, cur := r.PortfolioEvolution[i-1], r.PortfolioEvolution[i]
		want := cur.PortfolioValue.Sub(prev.PortfolioValue).Sub(cur.Contribution).Ratio(prev.PortfolioValue)
		assert.InDelta(t, want, cur.MonthlyReturn, 1e-12)
	}
	assert.Len(t, r.MonthlyReturns, 5)
	assert.Equal(t, 5, r.PositiveMonths+r.NegativeMonths)
}

func TestRun_RebalanceRestoresTargets(t *testing.T) {
	// AAA doubles, BBB stays: the yearly rebalance sells AAA to buy BBB.
	aaa := append(flatSeries(12, 10), 20)
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{
		"AAA": aaa,
		"BBB": flatSeries(13, 10),
	})
	cfg := twoAssets("2023-01-01", "2024-01-31", 10000, 0, date.Yearly)

	r := run(t, cfg, m)

	last := r.PortfolioEvolution[12]
	assert.Equal(t, 1, r.Transactions.Count(RebalanceSell), dump(r.Transactions))
	assert.Equal(t, 1, r.Transactions.Count(RebalanceBuy), dump(r.Transactions))
	// 500 AAA at 20 and 500 BBB at 10: 15000, 7500 each.
	assert.True(t, last.Holdings["AAA"].Equal(Q(375)), "AAA %s", last.Holdings["AAA"])
	assert.True(t, last.Holdings["BBB"].Equal(Q(750)), "BBB %s", last.Holdings["BBB"])
	assert.InDelta(t, 0.5, last.Weight("AAA"), 1e-9)
	a, _ := r.Asset("AAA")
	// sells do not change the average price.
	assert.True(t, a.AveragePrice.Equal(BRL(10)))
	assert.True(t, a.Contribution.Equal(BRL(5000-2500)))
}

func TestRun_RebalanceThreshold(t *testing.T) {
	aaa := append(flatSeries(12, 10), 11)
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{
		"AAA": aaa,
		"BBB": flatSeries(13, 10),
	})
	cfg := twoAssets("2023-01-01", "2024-01-31", 10000, 0, date.Yearly)
	cfg.RebalanceThreshold = 0.05 // AAA drifts by 2.4%

	r := run(t, cfg, m)
	assert.Equal(t, 0, r.Transactions.Count(RebalanceSell)+r.Transactions.Count(RebalanceBuy), dump(r.Transactions))
}

func TestRun_MissingPriceIsCarriedForward(t *testing.T) {
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{
		"AAA": {10, 10, 0, 10},
		"BBB": {20, 20, 20, 20},
	})
	cfg := twoAssets("2023-01-01", "2023-04-30", 10000, 1000, date.Yearly)

	r := run(t, cfg, m)

	require.Len(t, r.DataQualityIssues, 1)
	issue := r.DataQualityIssues[0]
	assert.Equal(t, MissingPrice, issue.Kind)
	assert.Equal(t, "AAA", issue.Ticker)
	assert.Equal(t, 2, issue.Month)
	assert.True(t, r.PortfolioEvolution[2].Prices["AAA"].Equal(BRL(10)))
	// the run still trades AAA at the carried price.
	assert.Positive(t, r.Transactions.Month(2).Ticker("AAA").Count(Contribution))
}

func TestRun_TickerWithoutAnyPrice(t *testing.T) {
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{
		"AAA": {0, 10},
		"BBB": {20, 20},
	})
	cfg := twoAssets("2023-01-01", "2023-02-28", 10000, 0, date.Monthly)

	r := run(t, cfg, m)

	assert.Equal(t, NoPrice, r.DataQualityIssues[0].Kind)
	// AAA's half stays in cash until the rebalance of month 1 buys it.
	assert.True(t, r.PortfolioEvolution[0].CashBalance.Equal(BRL(5000)))
	assert.Equal(t, 1, r.Transactions.Month(0).Count(CashReserve))
	assert.True(t, r.PortfolioEvolution[1].Holdings["AAA"].Equal(Q(500)))
}

func TestRun_FractionalShares(t *testing.T) {
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{"AAA": {3}, "BBB": {7}})
	cfg := twoAssets("2023-01-01", "2023-01-31", 100, 0, date.Yearly)
	cfg.ShareDecimals = 2

	r := run(t, cfg, m)

	s := r.PortfolioEvolution[0]
	assert.True(t, s.Holdings["AAA"].Equal(Q(16.66)), "%s", s.Holdings["AAA"])
	assert.True(t, s.Holdings["BBB"].Equal(Q(7.14)), "%s", s.Holdings["BBB"])
	assert.True(t, s.CashBalance.Equal(BRL(0.04)), "%s", s.CashBalance)
}

func TestRun_NormalizesAllocations(t *testing.T) {
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{"AAA": {10}, "BBB": {10}})
	cfg := SimulationConfig{
		Assets:             []PortfolioAsset{{"BBB", 0.498}, {"AAA", 0.498}},
		StartDate:          day("2023-01-01"),
		EndDate:            day("2023-01-31"),
		InitialCapital:     BRL(1000),
		RebalanceFrequency: date.Monthly,
	}

	r := run(t, cfg, m)

	assert.Equal(t, "AAA", r.Config.Assets[0].Ticker)
	assert.InDelta(t, 1.0, r.Config.AllocationSum(), 1e-6)
	assert.True(t, r.PortfolioEvolution[0].Holdings["AAA"].Equal(Q(50)))
}

func TestRun_Benchmarks(t *testing.T) {
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{"AAA": {10, 11, 12}})
	m.SetLevel("CDI", day("2023-01-28"), 100)
	m.SetLevel("CDI", day("2023-03-28"), 102)
	cfg := SimulationConfig{
		Assets:             []PortfolioAsset{{"AAA", 1}},
		StartDate:          day("2023-01-01"),
		EndDate:            day("2023-03-31"),
		InitialCapital:     BRL(1000),
		RebalanceFrequency: date.Yearly,
		Benchmarks:         []string{"CDI", "IBOV"},
	}

	r := run(t, cfg, m)

	require.Len(t, r.Risk.Benchmarks, 2)
	cdi := r.Risk.Benchmarks[0]
	assert.Equal(t, "CDI", cdi.Name)
	assert.InDelta(t, 0.02, cdi.Return.OrElse(0), 1e-12)
	assert.InDelta(t, 0.2-0.02, cdi.Outperformance.OrElse(0), 1e-9)
	assert.True(t, r.Risk.Benchmarks[1].Outperformance.IsNone())
	assert.Equal(t, MissingBenchmark, r.DataQualityIssues[len(r.DataQualityIssues)-1].Kind)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := twoAssets("2023-01-01", "2022-01-01", 10000, 0, date.Yearly)
	cfg.Assets[0].TargetAllocation = 0.9

	_, err := NewEngine(nil).Run(context.Background(), cfg, NewMarketData(""), NewMarketData(""), nil)

	require.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "endDate")
	assert.ErrorContains(t, err, "assets: allocations sum to 140.00%")
}

func TestRun_MarketInAnotherCurrency(t *testing.T) {
	m := NewMarketData("USD")
	m.SetPrice("AAA", day("2023-01-28"), newDecimal(10))
	m.SetPrice("BBB", day("2023-01-28"), newDecimal(10))

	_, err := NewEngine(nil).Run(context.Background(), twoAssets("2023-01-01", "2023-01-31", 100, 0, date.Yearly), m, m, m)

	require.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "currency: market data quotes in USD, the run is in BRL")
}

func TestRun_Cancelled(t *testing.T) {
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{"AAA": {10}, "BBB": {10}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(nil).Run(ctx, twoAssets("2023-01-01", "2023-01-31", 100, 0, date.Yearly), m, m, m)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Deterministic(t *testing.T) {
	m := monthlyMarket(t, day("2023-01-01"), map[string][]float64{
		"AAA": {10, 11, 12, 9, 10, 13},
		"BBB": {20, 19, 22, 25, 24, 21},
	})
	cfg := twoAssets("2023-01-01", "2023-06-30", 10000, 1000, date.Monthly)

	a, b := run(t, cfg, m), run(t, cfg, m)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.Equal(t, dump(a.Transactions), dump(b.Transactions))
}
