package finsim

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"

	"github.com/etnz/finsim/date"
)

// PortfolioAsset is a ticker and its target weight in (0,1].
type PortfolioAsset struct {
	Ticker           string  `json:"ticker"`
	TargetAllocation float64 `json:"targetAllocation"`
}

// DividendMode selects the DividendPolicy of a run.
type DividendMode string

const (
	// Reinvest buys more of the paying asset with the dividend.
	Reinvest DividendMode = "reinvest"
	// Accumulate keeps dividends in cash until the next rebalance.
	Accumulate DividendMode = "cash"
)

// SimulationConfig describes a backtest. The engine works on a normalized copy.
type SimulationConfig struct {
	Assets              []PortfolioAsset `json:"assets"`
	StartDate           date.Date        `json:"startDate"`
	EndDate             date.Date        `json:"endDate"`
	InitialCapital      Money            `json:"initialCapital"`
	MonthlyContribution Money            `json:"monthlyContribution"`
	RebalanceFrequency  date.Period      `json:"rebalanceFrequency"`

	// Currency of every amount in the run. Defaults to DefaultCurrency.
	Currency string `json:"currency"`
	// ShareDecimals is the number of decimal places shares trade in, 0 for whole shares.
	ShareDecimals int32 `json:"shareDecimals"`
	// RebalanceThreshold is the absolute weight drift under which an asset is left alone.
	RebalanceThreshold float64 `json:"rebalanceThreshold"`
	// DividendPolicy defaults to Reinvest.
	DividendPolicy DividendMode `json:"dividendPolicy"`
	// RiskFreeRate is the annual rate used by the Sharpe ratio. Zero lets a
	// Simulator apply its default, see WithRiskFreeRate.
	RiskFreeRate float64 `json:"riskFreeRate"`
	// Benchmarks are the names of the benchmark series to compare against.
	Benchmarks []string `json:"benchmarks,omitempty"`
}

// AllocationSum returns the sum of target allocations.
func (c SimulationConfig) AllocationSum() float64 {
	var sum float64
	for _, a := range c.Assets {
		sum += a.TargetAllocation
	}
	return sum
}

// Normalize returns a copy with allocations scaled to sum to exactly 1, assets
// sorted by ticker, and defaults filled in. It does not validate.
func (c SimulationConfig) Normalize() SimulationConfig {
	n := c
	n.Assets = slices.Clone(c.Assets)
	if sum := c.AllocationSum(); sum > 0 && sum != 1 {
		for i := range n.Assets {
			n.Assets[i].TargetAllocation /= sum
		}
	}
	slices.SortFunc(n.Assets, func(a, b PortfolioAsset) int { return strings.Compare(a.Ticker, b.Ticker) })

	if n.Currency == "" {
		n.Currency = DefaultCurrency
	}
	n.Currency = strings.ToUpper(n.Currency)
	n.InitialCapital = M(c.InitialCapital.Decimal(), n.Currency)
	n.MonthlyContribution = M(c.MonthlyContribution.Decimal(), n.Currency)
	if n.DividendPolicy == "" {
		n.DividendPolicy = Reinvest
	}
	n.Benchmarks = slices.Clone(c.Benchmarks)
	slices.Sort(n.Benchmarks)
	n.Benchmarks = slices.Compact(n.Benchmarks)
	return n
}

// Fingerprint identifies the normalized config: two configs with the same
// fingerprint produce the same ledger over the same market data.
func (c SimulationConfig) Fingerprint() string {
	b, err := json.Marshal(c.Normalize())
	if err != nil {
		// every field marshals, this cannot happen.
		panic(err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// weight returns the target allocation of ticker.
func (c SimulationConfig) weight(ticker string) float64 {
	for _, a := range c.Assets {
		if a.Ticker == ticker {
			return a.TargetAllocation
		}
	}
	return 0
}

// Tickers returns the asset tickers, in config order.
func (c SimulationConfig) Tickers() []string {
	tickers := make([]string, len(c.Assets))
	for i, a := range c.Assets {
		tickers[i] = a.Ticker
	}
	return tickers
}
