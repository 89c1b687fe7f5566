package finsim

import (
	"fmt"

	"github.com/etnz/finsim/date"
)

// Allocation sums outside [MinAllocationSum, MaxAllocationSum] are rejected.
const (
	MinAllocationSum = 0.995
	MaxAllocationSum = 1.005
)

// ValidateConfig checks a backtest configuration. It returns every
// ValidationError found, joined, or nil.
func ValidateConfig(c SimulationConfig) error {
	var errs validationErrors

	if len(c.Assets) == 0 {
		errs.add("assets", "at least one asset is required")
	}
	seen := make(map[string]bool)
	for i, a := range c.Assets {
		field := fmt.Sprintf("assets[%d]", i)
		switch {
		case a.Ticker == "":
			errs.add(field+".ticker", "is required")
		case seen[a.Ticker]:
			errs.add(field+".ticker", "%q is duplicated", a.Ticker)
		}
		seen[a.Ticker] = true
		if a.TargetAllocation <= 0 || a.TargetAllocation > 1 {
			errs.add(field+".targetAllocation", "%g is not in (0,1]", a.TargetAllocation)
		}
	}
	if len(c.Assets) > 0 {
		if sum := c.AllocationSum(); sum < MinAllocationSum || sum > MaxAllocationSum {
			errs.add("assets", "allocations sum to %.2f%%, want between 99.5%% and 100.5%%", sum*100)
		}
	}

	switch {
	case c.StartDate.IsZero():
		errs.add("startDate", "is required")
	case c.EndDate.IsZero():
		errs.add("endDate", "is required")
	case c.EndDate.Before(c.StartDate):
		errs.add("endDate", "%s is before startDate %s", c.EndDate, c.StartDate)
	}

	if c.InitialCapital.IsNegative() {
		errs.add("initialCapital", "must not be negative")
	}
	if c.MonthlyContribution.IsNegative() {
		errs.add("monthlyContribution", "must not be negative")
	}
	if !c.InitialCapital.IsPositive() && !c.MonthlyContribution.IsPositive() {
		errs.add("initialCapital", "nothing to invest, initialCapital and monthlyContribution are both zero")
	}

	switch c.RebalanceFrequency {
	case date.Monthly, date.Quarterly, date.Yearly:
	default:
		errs.add("rebalanceFrequency", "%v is not one of monthly, quarterly, yearly", c.RebalanceFrequency)
	}

	if c.Currency != "" && !KnownCurrency(c.Currency) {
		errs.add("currency", "%q is not a known currency", c.Currency)
	}
	if c.ShareDecimals < 0 || c.ShareDecimals > 8 {
		errs.add("shareDecimals", "%d is not in [0,8]", c.ShareDecimals)
	}
	if c.RebalanceThreshold < 0 || c.RebalanceThreshold >= 1 {
		errs.add("rebalanceThreshold", "%g is not in [0,1)", c.RebalanceThreshold)
	}
	switch c.DividendPolicy {
	case "", Reinvest, Accumulate:
	default:
		errs.add("dividendPolicy", "%q is not one of %q, %q", c.DividendPolicy, Reinvest, Accumulate)
	}
	if c.RiskFreeRate <= -1 {
		errs.add("riskFreeRate", "%g must be greater than -100%%", c.RiskFreeRate)
	}
	return errs.err()
}

// ValidateDebt checks the fields required to build a schedule.
func ValidateDebt(d Debt) error {
	var errs validationErrors
	if !d.Balance.IsPositive() {
		errs.add("balance", "must be positive")
	}
	if d.InterestRateAnnual < 0 {
		errs.add("interestRateAnnual", "must not be negative")
	}
	if d.TermMonths <= 0 {
		errs.add("termMonths", "must be positive")
	}
	if d.MonthlyPayment.IsNegative() {
		errs.add("monthlyPayment", "must not be negative")
	}
	if c := d.MonthlyPayment.Currency(); c != "" && c != d.Balance.Currency() {
		errs.add("monthlyPayment", "currency %s differs from the balance currency %s", c, d.Balance.Currency())
	}
	switch d.AmortizationSystem {
	case SAC, PRICE:
	case "":
		errs.add("amortizationSystem", "is required")
	default:
		errs.add("amortizationSystem", "%q is not one of SAC, PRICE", d.AmortizationSystem)
	}
	if d.MonthlyTR < 0 {
		errs.add("monthlyTR", "must not be negative")
	}
	return errs.err()
}

// ValidateStrategy checks a debt and the budget meant to repay it. The
// budget must cover every payment due over the horizon (see PeakPayment) and
// the split must fit in the surplus left by the largest one.
func ValidateStrategy(d Debt, s StrategyConfig) error {
	if err := ValidateDebt(d); err != nil {
		return err
	}
	var errs validationErrors
	for _, f := range []struct {
		name string
		m    Money
	}{{"monthlyBudget", s.MonthlyBudget}, {"investmentSplit", s.InvestmentSplit}} {
		if c := f.m.Currency(); c != "" && c != d.Balance.Currency() {
			errs.add(f.name, "currency %s differs from the debt currency %s", c, d.Balance.Currency())
		}
	}
	if len(errs) > 0 {
		return errs.err()
	}
	if s.HorizonMonths < 0 {
		errs.add("horizonMonths", "must not be negative")
	}
	payment := PeakPayment(d, s.HorizonMonths)
	if s.MonthlyBudget.LessThan(payment) {
		errs.add("monthlyBudget", "%s does not cover the largest debt payment %s", s.MonthlyBudget, payment)
	}
	if s.InvestmentSplit.IsNegative() {
		errs.add("investmentSplit", "must not be negative")
	} else if surplus := s.MonthlyBudget.Sub(payment); s.InvestmentSplit.GreaterThan(surplus.Max(M(0, surplus.Currency()))) {
		errs.add("investmentSplit", "%s exceeds the monthly surplus %s", s.InvestmentSplit, surplus)
	}
	return errs.err()
}

// CheckCoverage lists the months without a close for each asset, ahead of a run.
func CheckCoverage(c SimulationConfig, prices PriceSource) []DataQualityIssue {
	var issues []DataQualityIssue
	for i, month := range date.Months(c.StartDate, c.EndDate) {
		for _, a := range c.Assets {
			if _, ok := prices.Close(a.Ticker, month); !ok {
				issues = append(issues, DataQualityIssue{
					Month:  i,
					Date:   month.To,
					Ticker: a.Ticker,
					Kind:   MissingPrice,
					Detail: "no close in " + month.From.Format("2006-01"),
				})
			}
		}
	}
	return issues
}
