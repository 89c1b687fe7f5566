package renderer

import (
	"fmt"

	"github.com/etnz/finsim"
)

// Transaction renders a ledger line to a sentence.
func Transaction(tx finsim.Transaction) string {
	switch tx.Type {
	case finsim.CashCredit:
		return fmt.Sprintf("Credited %s", tx.Amount)
	case finsim.CashDebit:
		return fmt.Sprintf("Debited %s", tx.Amount.Neg())
	case finsim.Contribution:
		return fmt.Sprintf("Bought %s %s at %s for %s", tx.SharesAdded, tx.Ticker, tx.Price, tx.Amount.Neg())
	case finsim.RebalanceBuy:
		return fmt.Sprintf("Rebalanced into %s: bought %s at %s for %s", tx.Ticker, tx.SharesAdded, tx.Price, tx.Amount.Neg())
	case finsim.RebalanceSell:
		return fmt.Sprintf("Rebalanced out of %s: sold %s at %s for %s", tx.Ticker, tx.SharesAdded.Neg(), tx.Price, tx.Amount)
	case finsim.DividendPayment:
		return fmt.Sprintf("Dividend of %s from %s", tx.Amount, tx.Ticker)
	case finsim.DividendReinvest:
		return fmt.Sprintf("Reinvested %s in %s %s at %s", tx.Amount.Neg(), tx.SharesAdded, tx.Ticker, tx.Price)
	case finsim.CashReserve:
		return fmt.Sprintf("Kept %s in cash", tx.CashBalance)
	default:
		return tx.String()
	}
}
