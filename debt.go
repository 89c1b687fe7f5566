package finsim

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// AmortizationSystem is the way a debt is repaid.
type AmortizationSystem string

const (
	// SAC repays a constant amortization, payments decrease.
	SAC AmortizationSystem = "SAC"
	// PRICE repays a constant payment (French system), amortization increases.
	PRICE AmortizationSystem = "PRICE"
)

// ParseAmortizationSystem accepts any case.
func ParseAmortizationSystem(s string) (AmortizationSystem, error) {
	switch a := AmortizationSystem(strings.ToUpper(strings.TrimSpace(s))); a {
	case SAC, PRICE:
		return a, nil
	default:
		return "", &ValidationError{Field: "amortizationSystem", Reason: "unknown system " + s}
	}
}

// Debt is an outstanding loan.
type Debt struct {
	Name               string             `json:"name,omitempty"`
	Balance            Money              `json:"balance"`
	InterestRateAnnual float64            `json:"interestRateAnnual"`
	TermMonths         int                `json:"termMonths"`
	MonthlyPayment     Money              `json:"monthlyPayment"`
	AmortizationSystem AmortizationSystem `json:"amortizationSystem"`
	// MonthlyTR is the monthly monetary correction applied to the balance.
	MonthlyTR float64 `json:"monthlyTR"`
}

// AggregateDebts merges debts into one: balances and payments sum, rates
// and TR are balance weighted, the term is the longest. Mixed systems
// aggregate as PRICE.
func AggregateDebts(debts ...Debt) (Debt, error) {
	if len(debts) == 0 {
		return Debt{}, &ValidationError{Field: "debts", Reason: "at least one debt is required"}
	}
	var errs []error
	agg := Debt{Name: "aggregate", AmortizationSystem: debts[0].AmortizationSystem}
	agg.Balance = M(0, debts[0].Balance.Currency())
	agg.MonthlyPayment = M(0, debts[0].Balance.Currency())
	var names []string
	var rate, tr float64
	for i, d := range debts {
		if err := ValidateDebt(d); err != nil {
			errs = append(errs, err)
			continue
		}
		if c := d.Balance.Currency(); c != "" && agg.Balance.Currency() != "" && c != agg.Balance.Currency() {
			errs = append(errs, &ValidationError{
				Field:  fmt.Sprintf("debts[%d].balance", i),
				Reason: fmt.Sprintf("currency %s differs from %s, debts aggregate in a single currency", c, agg.Balance.Currency()),
			})
			continue
		}
		if d.Name != "" {
			names = append(names, d.Name)
		}
		w := d.Balance.Float()
		rate += d.InterestRateAnnual * w
		tr += d.MonthlyTR * w
		agg.Balance = agg.Balance.Add(d.Balance)
		agg.MonthlyPayment = agg.MonthlyPayment.Add(RequiredPayment(d))
		agg.TermMonths = max(agg.TermMonths, d.TermMonths)
		if d.AmortizationSystem != agg.AmortizationSystem {
			agg.AmortizationSystem = PRICE
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Debt{}, err
	}
	total := agg.Balance.Float()
	agg.InterestRateAnnual = rate / total
	agg.MonthlyTR = tr / total
	if len(names) > 0 {
		agg.Name = strings.Join(names, "+")
	}
	return agg, nil
}

// MonthlyRate converts an annual rate with monthly compounding: (1+annual)^(1/12) - 1.
func MonthlyRate(annual float64) float64 {
	return math.Pow(1+annual, 1.0/12) - 1
}

// annuity returns the constant payment repaying balance in n months at rate r.
func annuity(balance Money, r float64, n int) Money {
	if r == 0 {
		return balance.DivInt(n)
	}
	factor := r / (1 - math.Pow(1+r, -float64(n)))
	return balance.MulRate(factor)
}

// ScheduleRow is a month of an amortization schedule.
//
// Correction is the TR applied to OpeningBalance before the split, Interest
// and Amortization are computed on the corrected balance.
type ScheduleRow struct {
	Month          int   `json:"month"`
	OpeningBalance Money `json:"openingBalance"`
	Correction     Money `json:"correction"`
	Interest       Money `json:"interest"`
	Amortization   Money `json:"amortization"`
	Payment        Money `json:"payment"`
	Balance        Money `json:"balance"`
}

// installment is the contractual state machine shared by the schedule and the strategies.
type installment struct {
	debt     Debt
	rate     float64
	base     Money // SAC amortization or PRICE payment before correction
	factor   float64
	balance  Money
	month    int
	interest Money
}

func newInstallment(d Debt) *installment {
	in := &installment{debt: d, rate: MonthlyRate(d.InterestRateAnnual), factor: 1, balance: d.Balance}
	if d.AmortizationSystem == SAC {
		in.base = d.Balance.DivInt(d.TermMonths)
	} else {
		in.base = annuity(d.Balance, in.rate, d.TermMonths).Round()
	}
	return in
}

// next computes the contractual split of the next month without applying it.
func (in *installment) next() ScheduleRow {
	month := in.month + 1
	factor := in.factor * (1 + in.debt.MonthlyTR)
	row := ScheduleRow{Month: month, OpeningBalance: in.balance}
	row.Correction = in.balance.MulRate(in.debt.MonthlyTR).Round()
	corrected := in.balance.Add(row.Correction)
	row.Interest = corrected.MulRate(in.rate).Round()

	scheduled := in.base.MulRate(factor).Round()
	if in.debt.AmortizationSystem == SAC {
		row.Amortization = scheduled
	} else {
		row.Amortization = scheduled.Sub(row.Interest)
	}
	if row.Amortization.IsNegative() {
		row.Amortization = M(0, corrected.Currency())
	}
	if month >= in.debt.TermMonths || row.Amortization.GreaterThanOrEqual(corrected) {
		row.Amortization = corrected
	}
	row.Payment = row.Interest.Add(row.Amortization)
	row.Balance = corrected.Sub(row.Amortization)
	return row
}

// apply moves to the next month with extra principal repaid on top of row.
func (in *installment) apply(row ScheduleRow, extra Money) Money {
	extra = extra.Min(row.Balance)
	in.month = row.Month
	in.factor *= 1 + in.debt.MonthlyTR
	in.balance = row.Balance.Sub(extra)
	return extra
}

func (in *installment) paid() bool { return !in.balance.IsPositive() }

// BuildSchedule returns the month by month schedule of d. It ends when the
// balance reaches zero or at the last month of the term, whichever comes
// first, the final payment clearing the exact remaining balance.
func BuildSchedule(d Debt) ([]ScheduleRow, error) {
	if err := ValidateDebt(d); err != nil {
		return nil, err
	}
	in := newInstallment(d)
	rows := make([]ScheduleRow, 0, d.TermMonths)
	for !in.paid() && in.month < d.TermMonths {
		row := in.next()
		in.apply(row, Money{})
		rows = append(rows, row)
	}
	return rows, nil
}

// RequiredPayment is the debt's declared monthly payment, or its first
// scheduled payment. It is what a debt contributes to an aggregate payment.
func RequiredPayment(d Debt) Money {
	if d.MonthlyPayment.IsPositive() {
		return d.MonthlyPayment
	}
	if !d.Balance.IsPositive() || d.TermMonths <= 0 {
		return M(0, d.Balance.Currency())
	}
	return newInstallment(d).next().Payment
}

// due returns what the borrower pays on row: the scheduled payment, or the
// declared MonthlyPayment when it is higher. The excess over the schedule is
// extra principal.
func (in *installment) due(row ScheduleRow) (payment, excess Money) {
	declared := in.debt.MonthlyPayment
	if declared.Currency() == "" {
		declared = M(declared.Decimal(), row.Payment.Currency())
	}
	if declared.LessThanOrEqual(row.Payment) {
		return row.Payment, M(0, row.Payment.Currency())
	}
	excess = declared.Sub(row.Payment)
	return declared, excess
}

// PeakPayment is the largest monthly payment due over the first months of d,
// the declared MonthlyPayment or the scheduled one, whichever is higher.
// Monetary correction makes scheduled payments grow, so this is the budget
// needed to never fall short. Extra amortization only lowers later payments.
func PeakPayment(d Debt, months int) Money {
	peak := M(0, d.Balance.Currency())
	if !d.Balance.IsPositive() || d.TermMonths <= 0 {
		return peak
	}
	if months <= 0 || months > d.TermMonths {
		months = d.TermMonths
	}
	in := newInstallment(d)
	for !in.paid() && in.month < months {
		row := in.next()
		payment, excess := in.due(row)
		in.apply(row, excess)
		peak = peak.Max(payment)
	}
	return peak
}
