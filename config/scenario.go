package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/date"
	toml "github.com/pelletier/go-toml/v2"
)

// Backtest is a backtest scenario file.
//
//	start_date = "2020-01-01"
//	end_date = "2023-12-31"
//	initial_capital = 10000
//	monthly_contribution = 500
//	rebalance_frequency = "quarterly"
//	benchmarks = ["CDI"]
//
//	[[assets]]
//	ticker = "BOVA11"
//	target_allocation = 0.6
type Backtest struct {
	Assets              []Asset     `toml:"assets"`
	StartDate           date.Date   `toml:"start_date"`
	EndDate             date.Date   `toml:"end_date"`
	InitialCapital      float64     `toml:"initial_capital"`
	MonthlyContribution float64     `toml:"monthly_contribution"`
	RebalanceFrequency  date.Period `toml:"rebalance_frequency"`
	Currency            string      `toml:"currency"`
	ShareDecimals       int32       `toml:"share_decimals"`
	RebalanceThreshold  float64     `toml:"rebalance_threshold"`
	DividendPolicy      string      `toml:"dividend_policy"`
	RiskFreeRate        float64     `toml:"risk_free_rate"`
	Benchmarks          []string    `toml:"benchmarks"`
}

// Asset is a target allocation of a backtest scenario.
type Asset struct {
	Ticker           string  `toml:"ticker"`
	TargetAllocation float64 `toml:"target_allocation"`
}

// SimulationConfig converts the scenario. currency is used when the scenario names none.
func (b Backtest) SimulationConfig(currency string) finsim.SimulationConfig {
	if b.Currency != "" {
		currency = b.Currency
	}
	c := finsim.SimulationConfig{
		StartDate:           b.StartDate,
		EndDate:             b.EndDate,
		InitialCapital:      finsim.M(b.InitialCapital, currency),
		MonthlyContribution: finsim.M(b.MonthlyContribution, currency),
		RebalanceFrequency:  b.RebalanceFrequency,
		Currency:            currency,
		ShareDecimals:       b.ShareDecimals,
		RebalanceThreshold:  b.RebalanceThreshold,
		DividendPolicy:      finsim.DividendMode(b.DividendPolicy),
		RiskFreeRate:        b.RiskFreeRate,
		Benchmarks:          b.Benchmarks,
	}
	for _, a := range b.Assets {
		c.Assets = append(c.Assets, finsim.PortfolioAsset{Ticker: a.Ticker, TargetAllocation: a.TargetAllocation})
	}
	return c
}

// DebtScenario is a debt versus invest scenario file.
//
//	rentability = 0.10
//
//	[budget]
//	monthly_budget = 3000
//	investment_split = 500
//
//	[[debts]]
//	name = "house"
//	balance = 200000
//	interest_rate_annual = 0.09
//	term_months = 240
//	amortization_system = "SAC"
type DebtScenario struct {
	Currency    string  `toml:"currency"`
	Rentability float64 `toml:"rentability"`
	Budget      Budget  `toml:"budget"`
	Debts       []Debt  `toml:"debts"`
}

// Budget is the money available each month.
type Budget struct {
	MonthlyBudget   float64 `toml:"monthly_budget"`
	InvestmentSplit float64 `toml:"investment_split"`
	HorizonMonths   int     `toml:"horizon_months"`
}

// Debt is a loan of a debt scenario.
type Debt struct {
	Name               string  `toml:"name"`
	Balance            float64 `toml:"balance"`
	InterestRateAnnual float64 `toml:"interest_rate_annual"`
	TermMonths         int     `toml:"term_months"`
	MonthlyPayment     float64 `toml:"monthly_payment"`
	AmortizationSystem string  `toml:"amortization_system"`
	MonthlyTR          float64 `toml:"monthly_tr"`
}

// Debt returns the scenario's debts aggregated into one.
func (s DebtScenario) Debt(currency string) (finsim.Debt, error) {
	if s.Currency != "" {
		currency = s.Currency
	}
	debts := make([]finsim.Debt, 0, len(s.Debts))
	for _, d := range s.Debts {
		system, err := finsim.ParseAmortizationSystem(d.AmortizationSystem)
		if err != nil {
			return finsim.Debt{}, fmt.Errorf("debt %q: %w", d.Name, err)
		}
		debts = append(debts, finsim.Debt{
			Name:               d.Name,
			Balance:            finsim.M(d.Balance, currency),
			InterestRateAnnual: d.InterestRateAnnual,
			TermMonths:         d.TermMonths,
			MonthlyPayment:     finsim.M(d.MonthlyPayment, currency),
			AmortizationSystem: system,
			MonthlyTR:          d.MonthlyTR,
		})
	}
	if len(debts) == 1 {
		if err := finsim.ValidateDebt(debts[0]); err != nil {
			return finsim.Debt{}, err
		}
		return debts[0], nil
	}
	return finsim.AggregateDebts(debts...)
}

// StrategyConfig returns the budget of the scenario.
func (s DebtScenario) StrategyConfig(currency string) finsim.StrategyConfig {
	if s.Currency != "" {
		currency = s.Currency
	}
	return finsim.StrategyConfig{
		MonthlyBudget:   finsim.M(s.Budget.MonthlyBudget, currency),
		InvestmentSplit: finsim.M(s.Budget.InvestmentSplit, currency),
		HorizonMonths:   s.Budget.HorizonMonths,
	}
}

// LoadBacktest reads a backtest scenario file.
func LoadBacktest(path string) (*Backtest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	return DecodeBacktest(data)
}

// DecodeBacktest decodes a backtest scenario. Unknown keys are errors, the
// rebalance frequency defaults to monthly.
func DecodeBacktest(data []byte) (*Backtest, error) {
	b := &Backtest{RebalanceFrequency: date.Monthly}
	if err := decodeStrict(data, b); err != nil {
		return nil, err
	}
	return b, nil
}

// LoadDebtScenario reads a debt scenario file.
func LoadDebtScenario(path string) (*DebtScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	return DecodeDebtScenario(data)
}

// DecodeDebtScenario decodes a debt scenario. Unknown keys are errors.
func DecodeDebtScenario(data []byte) (*DebtScenario, error) {
	s := new(DebtScenario)
	if err := decodeStrict(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeStrict(data []byte, v any) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}
	return nil
}
