package finsim

import (
	"encoding/json"
	"fmt"

	"github.com/etnz/finsim/date"
)

// TxType is the type of a Transaction.
type TxType string

const (
	// CashCredit is external money coming in: initial capital or a monthly contribution.
	CashCredit TxType = "CASH_CREDIT"
	// CashDebit is external money going out.
	CashDebit TxType = "CASH_DEBIT"
	// Contribution is a purchase funded by new money.
	Contribution TxType = "CONTRIBUTION"
	// RebalanceBuy is a purchase made while restoring target weights.
	RebalanceBuy TxType = "REBALANCE_BUY"
	// RebalanceSell is a sale made while restoring target weights.
	RebalanceSell TxType = "REBALANCE_SELL"
	// CashReserve records the cash left over after a purchase round. It moves nothing.
	CashReserve TxType = "CASH_RESERVE"
	// DividendPayment credits a dividend to cash.
	DividendPayment TxType = "DIVIDEND_PAYMENT"
	// DividendReinvest is a purchase funded by a dividend.
	DividendReinvest TxType = "DIVIDEND_REINVEST"
)

// IsBuy reports whether t adds shares.
func (t TxType) IsBuy() bool {
	return t == Contribution || t == RebalanceBuy || t == DividendReinvest
}

// Transaction is one line of the audit trail.
//
// Amount is the signed impact on cash, positive for credits. SharesAdded is
// signed too, negative for sales. TotalShares and CashBalance are the
// running totals right after the transaction.
type Transaction struct {
	Month       int
	Date        date.Date
	Ticker      string
	Type        TxType
	Price       Money
	SharesAdded Quantity
	TotalShares Quantity
	Amount      Money
	CashBalance Money
}

// MarshalJSON writes fields in a stable order, ticker and price only when relevant.
func (tx Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("month", tx.Month)
	w.Append("date", tx.Date)
	w.Append("type", tx.Type)
	w.Optional("ticker", tx.Ticker)
	if tx.Ticker != "" {
		w.Append("price", tx.Price)
		w.Append("sharesAdded", tx.SharesAdded)
		w.Append("totalShares", tx.TotalShares)
	}
	w.Append("amount", tx.Amount)
	w.Append("cashBalance", tx.CashBalance)
	return w.MarshalJSON()
}

func (tx *Transaction) UnmarshalJSON(b []byte) error {
	var j struct {
		Month       int       `json:"month"`
		Date        date.Date `json:"date"`
		Type        TxType    `json:"type"`
		Ticker      string    `json:"ticker"`
		Price       Money     `json:"price"`
		SharesAdded Quantity  `json:"sharesAdded"`
		TotalShares Quantity  `json:"totalShares"`
		Amount      Money     `json:"amount"`
		CashBalance Money     `json:"cashBalance"`
	}
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*tx = Transaction{
		Month:       j.Month,
		Date:        j.Date,
		Ticker:      j.Ticker,
		Type:        j.Type,
		Price:       j.Price,
		SharesAdded: j.SharesAdded,
		TotalShares: j.TotalShares,
		Amount:      j.Amount,
		CashBalance: j.CashBalance,
	}
	return nil
}

func (tx Transaction) String() string {
	if tx.Ticker == "" {
		return fmt.Sprintf("%s #%d %s %s cash=%s", tx.Date, tx.Month, tx.Type, tx.Amount.SignedString(), tx.CashBalance)
	}
	return fmt.Sprintf("%s #%d %s %s %s@%s %s cash=%s", tx.Date, tx.Month, tx.Type, tx.Ticker, tx.SharesAdded, tx.Price, tx.Amount.SignedString(), tx.CashBalance)
}
