package finsim

import (
	"maps"
	"slices"

	"github.com/etnz/finsim/date"
	"github.com/google/uuid"
)

// MonthlySnapshot is the state of the portfolio at the end of a simulated month.
//
// PortfolioValue is exactly CashBalance plus the sum of Holdings valued at Prices.
type MonthlySnapshot struct {
	Month          int                 `json:"month"`
	Date           date.Date           `json:"date"`
	PortfolioValue Money               `json:"portfolioValue"`
	Contribution   Money               `json:"contribution"`
	MonthlyReturn  float64             `json:"monthlyReturn"`
	Holdings       map[string]Quantity `json:"holdings"`
	Prices         map[string]Money    `json:"prices"`
	CashBalance    Money               `json:"cashBalance"`
}

// Value recomputes the portfolio value from cash, holdings and prices.
func (s MonthlySnapshot) Value() Money {
	v := s.CashBalance
	for _, t := range slices.Sorted(maps.Keys(s.Holdings)) {
		v = v.Add(s.Prices[t].Mul(s.Holdings[t]))
	}
	return v
}

// Weight returns the share of the portfolio value held in ticker.
func (s MonthlySnapshot) Weight(ticker string) float64 {
	return s.Prices[ticker].Mul(s.Holdings[ticker]).Ratio(s.PortfolioValue)
}

// AssetPerformance is the outcome of one asset over a run.
type AssetPerformance struct {
	Ticker     string   `json:"ticker"`
	Allocation float64  `json:"allocation"`
	Shares     Quantity `json:"shares"`
	FinalValue Money    `json:"finalValue"`
	// TotalReturn is the gain over the money put in from outside, dividends included.
	TotalReturn float64 `json:"totalReturn"`
	// Contribution is the new money spent on the asset, net of rebalance sales.
	Contribution Money `json:"contribution"`
	// Reinvestment is the dividend money spent on the asset.
	Reinvestment Money `json:"reinvestment"`
	Dividends    Money `json:"dividends"`
	// AveragePrice is the volume weighted cost of every purchase, rebalance buys included.
	AveragePrice Money `json:"averagePrice"`
}

// BacktestResult is the immutable outcome of a run.
type BacktestResult struct {
	RunID       uuid.UUID        `json:"runId"`
	Fingerprint string           `json:"fingerprint"`
	Config      SimulationConfig `json:"config"`

	TotalInvested     Money   `json:"totalInvested"`
	FinalValue        Money   `json:"finalValue"`
	CashReserve       Money   `json:"cashReserve"`
	DividendsReceived Money   `json:"dividendsReceived"`
	TotalReturn       float64 `json:"totalReturn"`
	CAGR              float64 `json:"cagr"`

	Risk           RiskSummary `json:"risk"`
	PositiveMonths int         `json:"positiveMonths"`
	NegativeMonths int         `json:"negativeMonths"`

	MonthlyReturns     []float64          `json:"monthlyReturns"`
	PortfolioEvolution []MonthlySnapshot  `json:"portfolioEvolution"`
	AssetPerformance   []AssetPerformance `json:"assetPerformance"`
	Transactions       Ledger             `json:"transactions"`
	DataQualityIssues  []DataQualityIssue `json:"dataQualityIssues"`
	Alerts             []Alert            `json:"alerts,omitempty"`
}

// Asset returns the performance of ticker.
func (r *BacktestResult) Asset(ticker string) (AssetPerformance, bool) {
	for _, a := range r.AssetPerformance {
		if a.Ticker == ticker {
			return a, true
		}
	}
	return AssetPerformance{}, false
}

// Verify replays the result's ledger against its snapshots.
func (r *BacktestResult) Verify() error {
	return VerifyLedger(r.Transactions, r.PortfolioEvolution)
}
