package finsim

import "fmt"

// Strategy is a way to split the monthly budget between a debt and investing.
type Strategy string

const (
	// Sniper puts the whole surplus into extra amortization until the debt is paid.
	Sniper Strategy = "sniper"
	// Hybrid invests a fixed amount of the surplus and puts the rest into extra amortization.
	Hybrid Strategy = "hybrid"
)

// StrategyConfig is the budget side of a debt versus invest comparison.
type StrategyConfig struct {
	// MonthlyBudget is the money available each month for the debt and investing.
	MonthlyBudget Money `json:"monthlyBudget"`
	// InvestmentSplit is the amount of the surplus the Hybrid strategy invests each month.
	InvestmentSplit Money `json:"investmentSplit"`
	// HorizonMonths is the simulated length, the debt term when zero.
	HorizonMonths int `json:"horizonMonths"`
}

// DebtMonth is a month of a strategy simulation.
type DebtMonth struct {
	Month             int   `json:"month"`
	Payment           Money `json:"payment"`
	Interest          Money `json:"interest"`
	Amortization      Money `json:"amortization"`
	ExtraAmortization Money `json:"extraAmortization"`
	Correction        Money `json:"correction"`
	DebtBalance       Money `json:"debtBalance"`
	// Surplus is the budget left after the payment, the "sobra".
	Surplus Money `json:"surplus"`
	// Shortfall is the part of the payment the budget did not cover, taken
	// from the invested balance.
	Shortfall        Money `json:"shortfall"`
	Invested         Money `json:"invested"`
	InvestmentReturn Money `json:"investmentReturn"`
	InvestedBalance  Money `json:"investedBalance"`
	NetWorth         Money `json:"netWorth"`
}

// DebtSimulationResult is the outcome of a strategy.
type DebtSimulationResult struct {
	Strategy                    Strategy    `json:"strategy"`
	BreakEvenMonth              Option[int] `json:"breakEvenMonth"`
	PayoffMonth                 Option[int] `json:"payoffMonth"`
	FinalDebtBalance            Money       `json:"finalDebtBalance"`
	FinalInvestedBalance        Money       `json:"finalInvestedBalance"`
	FinalNetWorth               Money       `json:"finalNetWorth"`
	TotalInterestPaid           Money       `json:"totalInterestPaid"`
	TotalInvestmentContribution Money       `json:"totalInvestmentContribution"`
	TotalInvestmentReturn       Money       `json:"totalInvestmentReturn"`
	MonthlyData                 []DebtMonth `json:"monthlyData"`
}

// StrategyComparison holds both strategies over the same horizon.
type StrategyComparison struct {
	Debt        Debt                 `json:"debt"`
	Config      StrategyConfig       `json:"config"`
	Rentability float64              `json:"rentability"`
	Sniper      DebtSimulationResult `json:"sniper"`
	Hybrid      DebtSimulationResult `json:"hybrid"`
	// BreakEvenMonth is the first month Hybrid's net worth reaches Sniper's.
	BreakEvenMonth Option[int] `json:"breakEvenMonth"`
}

// CompareStrategies simulates Sniper and Hybrid on debt with an investment
// yielding rentability a year. Preconditions are checked first and reported
// as ValidationErrors.
func CompareStrategies(d Debt, cfg StrategyConfig, rentability float64) (*StrategyComparison, error) {
	if err := ValidateStrategy(d, cfg); err != nil {
		return nil, err
	}
	sniper := SimulateStrategy(Sniper, d, cfg, rentability)
	hybrid := SimulateStrategy(Hybrid, d, cfg, rentability)
	return newComparison(d, cfg, rentability, sniper, hybrid), nil
}

func newComparison(d Debt, cfg StrategyConfig, rentability float64, sniper, hybrid DebtSimulationResult) *StrategyComparison {
	be := BreakEvenMonth(sniper, hybrid)
	sniper.BreakEvenMonth, hybrid.BreakEvenMonth = be, be
	return &StrategyComparison{
		Debt:           d,
		Config:         cfg,
		Rentability:    rentability,
		Sniper:         sniper,
		Hybrid:         hybrid,
		BreakEvenMonth: be,
	}
}

// BreakEvenMonth returns the first month where hybrid's net worth is at least sniper's.
func BreakEvenMonth(sniper, hybrid DebtSimulationResult) Option[int] {
	for i := range min(len(sniper.MonthlyData), len(hybrid.MonthlyData)) {
		if hybrid.MonthlyData[i].NetWorth.GreaterThanOrEqual(sniper.MonthlyData[i].NetWorth) {
			return Some(hybrid.MonthlyData[i].Month)
		}
	}
	return None[int]()
}

// SimulateStrategy runs strategy s month by month. The payment is due first:
// the scheduled one, or the declared MonthlyPayment when it is higher, its
// excess going to principal. The surplus is then split according to s. Extra
// amortization shortens the term. Once the debt is paid, the whole budget is
// invested. Investments compound monthly, contributions land at month end.
//
// The inputs are expected valid, see ValidateStrategy. A month whose payment
// exceeds the budget records the difference as Shortfall and pays it from the
// invested balance.
func SimulateStrategy(s Strategy, d Debt, cfg StrategyConfig, rentability float64) DebtSimulationResult {
	horizon := cfg.HorizonMonths
	if horizon == 0 {
		horizon = d.TermMonths
	}
	currency := d.Balance.Currency()
	zero := M(0, currency)
	rm := MonthlyRate(rentability)

	r := DebtSimulationResult{
		Strategy:                    s,
		TotalInterestPaid:           zero,
		TotalInvestmentContribution: zero,
		TotalInvestmentReturn:       zero,
		MonthlyData:                 make([]DebtMonth, 0, horizon),
	}
	in := newInstallment(d)
	invested := zero
	for month := 1; month <= horizon; month++ {
		m := DebtMonth{
			Month:             month,
			Payment:           zero,
			Interest:          zero,
			Amortization:      zero,
			ExtraAmortization: zero,
			Correction:        zero,
			DebtBalance:       zero,
			Shortfall:         zero,
		}
		toInvest := cfg.MonthlyBudget
		if !in.paid() {
			row := in.next()
			payment, excess := in.due(row)
			m.Interest, m.Amortization, m.Correction = row.Interest, row.Amortization, row.Correction
			m.Surplus = cfg.MonthlyBudget.Sub(payment)
			if m.Surplus.IsNegative() {
				m.Shortfall = m.Surplus.Neg()
				m.Surplus = zero
			}

			toInvest = zero
			extra := m.Surplus
			if s == Hybrid {
				toInvest = cfg.InvestmentSplit.Min(m.Surplus)
				extra = m.Surplus.Sub(toInvest)
			}
			absorbed := in.apply(row, excess.Add(extra))
			contractual := excess.Min(absorbed)
			m.Payment = row.Payment.Add(contractual)
			m.ExtraAmortization = absorbed.Sub(contractual)
			// what the debt could not absorb is invested.
			toInvest = toInvest.Add(excess.Add(extra).Sub(absorbed))
			m.DebtBalance = in.balance
			r.TotalInterestPaid = r.TotalInterestPaid.Add(row.Interest)
			if in.paid() {
				r.PayoffMonth = Some(month)
			}
		} else {
			m.Surplus = cfg.MonthlyBudget
		}

		m.InvestmentReturn = invested.MulRate(rm).Round()
		m.Invested = toInvest
		invested = invested.Add(m.InvestmentReturn).Add(toInvest).Sub(m.Shortfall)
		m.InvestedBalance = invested
		m.NetWorth = invested.Sub(m.DebtBalance)

		r.TotalInvestmentContribution = r.TotalInvestmentContribution.Add(toInvest)
		r.TotalInvestmentReturn = r.TotalInvestmentReturn.Add(m.InvestmentReturn)
		r.MonthlyData = append(r.MonthlyData, m)
	}
	r.FinalDebtBalance = in.balance
	r.FinalInvestedBalance = invested
	r.FinalNetWorth = invested.Sub(in.balance)
	return r
}

func (r DebtSimulationResult) String() string {
	return fmt.Sprintf("%s: net worth %s, debt %s, invested %s, interest paid %s",
		r.Strategy, r.FinalNetWorth, r.FinalDebtBalance, r.FinalInvestedBalance, r.TotalInterestPaid)
}
