package finsim

import (
	"cmp"
	"math"
	"slices"

	"github.com/etnz/finsim/date"
)

// PortfolioView is the read-only state the policies decide on.
type PortfolioView interface {
	// Tickers returns the assets of the run, in a stable order.
	Tickers() []string
	// Target returns the normalized target weight of ticker.
	Target(ticker string) float64
	Shares(ticker string) Quantity
	// Price returns the price of ticker for the current month, carried forward if needed.
	Price(ticker string) (Money, bool)
	Cash() Money
	// Value is cash plus every holding at its price.
	Value() Money
	// Unit is the number of decimal places shares trade in.
	Unit() int32
}

// Order asks the engine to trade Shares (always positive) of Ticker.
// The engine caps purchases to the available cash.
type Order struct {
	Ticker string
	Type   TxType
	Shares Quantity
}

// RebalancingPolicy decides when and how to restore target weights.
type RebalancingPolicy interface {
	// Due reports whether month (0 for the first simulated month) is a rebalance month.
	Due(month int) bool
	// Plan returns sales first, then purchases.
	Plan(v PortfolioView) []Order
}

// CalendarRebalancing rebalances every Frequency, counted from the first month.
type CalendarRebalancing struct {
	Frequency date.Period
	// Threshold is the absolute weight drift under which an asset is not traded.
	Threshold float64
}

// Due never fires on month 0, the initial purchase is already on target.
func (p CalendarRebalancing) Due(month int) bool {
	n := p.Frequency.Months()
	return month > 0 && n > 0 && month%n == 0
}

// Plan sells overweight assets down to their target, then buys underweight
// ones up to their target, largest deficit first, with the cash available
// after the sales. Quantities are floored to the trading unit so cash never
// goes negative.
func (p CalendarRebalancing) Plan(v PortfolioView) []Order {
	total := v.Value()
	if !total.IsPositive() {
		return nil
	}
	cash := v.Cash()

	type deficit struct {
		ticker string
		price  Money
		amount Money
	}
	var orders []Order
	var deficits []deficit
	for _, t := range v.Tickers() {
		price, ok := v.Price(t)
		if !ok || !price.IsPositive() {
			continue
		}
		current := price.Mul(v.Shares(t))
		if p.Threshold > 0 && math.Abs(current.Ratio(total)-v.Target(t)) < p.Threshold {
			continue
		}
		target := total.MulRate(v.Target(t))
		switch {
		case current.GreaterThan(target):
			n := current.Sub(target).DivPrice(price).Floor(v.Unit())
			if n.IsPositive() {
				orders = append(orders, Order{Ticker: t, Type: RebalanceSell, Shares: n})
				cash = cash.Add(price.Mul(n))
			}
		case current.LessThan(target):
			deficits = append(deficits, deficit{ticker: t, price: price, amount: target.Sub(current)})
		}
	}

	slices.SortStableFunc(deficits, func(a, b deficit) int {
		if c := b.amount.Decimal().Cmp(a.amount.Decimal()); c != 0 {
			return c
		}
		return cmp.Compare(a.ticker, b.ticker)
	})
	for _, d := range deficits {
		n := d.amount.Min(cash).DivPrice(d.price).Floor(v.Unit())
		if !n.IsPositive() {
			continue
		}
		orders = append(orders, Order{Ticker: d.ticker, Type: RebalanceBuy, Shares: n})
		cash = cash.Sub(d.price.Mul(n))
	}
	return orders
}

// DividendPolicy decides what to do with a dividend once credited to cash.
type DividendPolicy interface {
	OnDividend(ticker string, amount Money, v PortfolioView) []Order
}

// ReinvestDividends buys the paying asset with the dividend.
type ReinvestDividends struct{}

func (ReinvestDividends) OnDividend(ticker string, amount Money, v PortfolioView) []Order {
	price, ok := v.Price(ticker)
	if !ok || !price.IsPositive() {
		return nil
	}
	n := amount.Min(v.Cash()).DivPrice(price).Floor(v.Unit())
	if !n.IsPositive() {
		return nil
	}
	return []Order{{Ticker: ticker, Type: DividendReinvest, Shares: n}}
}

// HoldDividends leaves dividends in cash, the next rebalance invests them.
type HoldDividends struct{}

func (HoldDividends) OnDividend(string, Money, PortfolioView) []Order { return nil }

// policiesFor returns the default policies of a normalized config.
func policiesFor(c SimulationConfig) (RebalancingPolicy, DividendPolicy) {
	rebalancing := CalendarRebalancing{Frequency: c.RebalanceFrequency, Threshold: c.RebalanceThreshold}
	if c.DividendPolicy == Accumulate {
		return rebalancing, HoldDividends{}
	}
	return rebalancing, ReinvestDividends{}
}
