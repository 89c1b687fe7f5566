package finsim

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/etnz/finsim/date"
)

// Ledger is the append-only list of transactions of a run, in emission order.
type Ledger []Transaction

// Count returns the number of transactions of type t.
func (l Ledger) Count(t TxType) int {
	n := 0
	for _, tx := range l {
		if tx.Type == t {
			n++
		}
	}
	return n
}

// Ticker returns the transactions on ticker.
func (l Ledger) Ticker(ticker string) Ledger {
	var out Ledger
	for _, tx := range l {
		if tx.Ticker == ticker {
			out = append(out, tx)
		}
	}
	return out
}

// Month returns the transactions of month i.
func (l Ledger) Month(i int) Ledger {
	var out Ledger
	for _, tx := range l {
		if tx.Month == i {
			out = append(out, tx)
		}
	}
	return out
}

// Position is the replayed state at the end of a month.
type Position struct {
	Month  int
	Date   date.Date
	Cash   Money
	Shares map[string]Quantity
}

// Replay rebuilds the end-of-month positions of months 0 to months-1 from
// the transactions alone. A month without transactions carries the previous
// position. It fails on the first transaction whose running totals disagree
// with the replayed ones.
func (l Ledger) Replay(months int) ([]Position, error) {
	positions := make([]Position, 0, months)
	shares := make(map[string]Quantity)
	var cash Money
	var on date.Date
	i := 0
	for m := 0; m < months; m++ {
		for ; i < len(l) && l[i].Month == m; i++ {
			tx := l[i]
			on = tx.Date
			cash = cash.Add(tx.Amount)
			if !tx.CashBalance.Equal(cash) {
				return nil, fmt.Errorf("transaction %d (%s): cash balance %s, replayed %s", i, tx, tx.CashBalance, cash)
			}
			if tx.Ticker == "" {
				continue
			}
			held := shares[tx.Ticker].Add(tx.SharesAdded)
			if !tx.TotalShares.Equal(held) {
				return nil, fmt.Errorf("transaction %d (%s): total shares %s, replayed %s", i, tx, tx.TotalShares, held)
			}
			if held.IsZero() {
				delete(shares, tx.Ticker)
			} else {
				shares[tx.Ticker] = held
			}
		}
		positions = append(positions, Position{Month: m, Date: on, Cash: cash, Shares: maps.Clone(shares)})
	}
	if i < len(l) {
		return nil, fmt.Errorf("transaction %d (%s) is out of order or after month %d", i, l[i], months-1)
	}
	return positions, nil
}

// VerifyLedger replays l and checks it reproduces the holdings and cash of every snapshot.
func VerifyLedger(l Ledger, snapshots []MonthlySnapshot) error {
	positions, err := l.Replay(len(snapshots))
	if err != nil {
		return err
	}
	for i, s := range snapshots {
		p := positions[i]
		if !p.Cash.Equal(s.CashBalance) {
			return fmt.Errorf("month %d: replayed cash %s, snapshot %s", s.Month, p.Cash, s.CashBalance)
		}
		for _, t := range sortedKeys(s.Holdings, p.Shares) {
			if !p.Shares[t].Equal(s.Holdings[t]) {
				return fmt.Errorf("month %d: replayed %s shares %s, snapshot %s", s.Month, t, p.Shares[t], s.Holdings[t])
			}
		}
	}
	return nil
}

func sortedKeys(a, b map[string]Quantity) []string {
	keys := slices.Collect(maps.Keys(a))
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// EncodeLedger writes l as JSONL, one transaction per line.
func EncodeLedger(w io.Writer, l Ledger) error {
	bw := bufio.NewWriter(w)
	for _, tx := range l {
		b, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("cannot encode %s: %w", tx, err)
		}
		bw.Write(b)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// DecodeLedger reads a JSONL ledger.
func DecodeLedger(r io.Reader) (Ledger, error) {
	var l Ledger
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	i := 0
	for scanner.Scan() {
		i++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var tx Transaction
		if err := json.Unmarshal(line, &tx); err != nil {
			return nil, fmt.Errorf("ledger line %d: %w", i, err)
		}
		l = append(l, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read ledger: %w", err)
	}
	return l, nil
}
