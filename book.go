package finsim

import (
	"fmt"
	"maps"

	"github.com/etnz/finsim/date"
	"go.uber.org/zap"
)

// assetTotals accumulates what happened to an asset during a run.
type assetTotals struct {
	bought       Quantity // every purchase, for the average price
	cost         Money    // cost of every purchase
	contribution Money
	reinvestment Money
	dividends    Money
}

// book is the mutable state of a single run. Every change to cash or shares
// goes through record, so the ledger always explains the state.
type book struct {
	cfg    SimulationConfig
	log    *zap.Logger
	month  int
	on     date.Date
	cash   Money
	shares map[string]Quantity
	prices map[string]Money
	quoted map[string]date.Date // day of the last actual close
	totals map[string]*assetTotals
	ledger Ledger
	issues []DataQualityIssue
}

func newBook(cfg SimulationConfig, log *zap.Logger) *book {
	b := &book{
		cfg:    cfg,
		log:    log,
		cash:   M(0, cfg.Currency),
		shares: make(map[string]Quantity),
		prices: make(map[string]Money),
		quoted: make(map[string]date.Date),
		totals: make(map[string]*assetTotals),
	}
	for _, t := range cfg.Tickers() {
		zero := M(0, cfg.Currency)
		b.totals[t] = &assetTotals{cost: zero, contribution: zero, reinvestment: zero, dividends: zero}
	}
	return b
}

var _ PortfolioView = (*book)(nil)

func (b *book) Tickers() []string             { return b.cfg.Tickers() }
func (b *book) Target(ticker string) float64  { return b.cfg.weight(ticker) }
func (b *book) Shares(ticker string) Quantity { return b.shares[ticker] }
func (b *book) Cash() Money                   { return b.cash }
func (b *book) Unit() int32                   { return b.cfg.ShareDecimals }

func (b *book) Price(ticker string) (Money, bool) {
	p, ok := b.prices[ticker]
	return p, ok
}

func (b *book) Value() Money {
	v := b.cash
	for _, t := range b.cfg.Tickers() {
		if n := b.shares[t]; !n.IsZero() {
			v = v.Add(b.prices[t].Mul(n))
		}
	}
	return v
}

// open starts month i, dated on.
func (b *book) open(i int, on date.Date) {
	b.month, b.on = i, on
}

// quote sets the price of every asset for the month. A missing close carries
// the last known price forward and is reported.
func (b *book) quote(prices PriceSource, month date.Range) {
	for _, t := range b.cfg.Tickers() {
		if p, ok := prices.Close(t, month); ok {
			b.prices[t] = M(p.Decimal(), b.cfg.Currency)
			b.quoted[t] = month.To
			continue
		}
		issue := DataQualityIssue{Month: b.month, Date: b.on, Ticker: t, Kind: MissingPrice}
		if last, ok := b.quoted[t]; ok {
			issue.Detail = fmt.Sprintf("no close in %s, using the price of %s", month.From.Format("2006-01"), last.Format("2006-01"))
		} else {
			issue.Kind = NoPrice
			issue.Detail = fmt.Sprintf("no close in %s and no earlier price, cannot trade", month.From.Format("2006-01"))
		}
		b.issues = append(b.issues, issue)
		b.log.Warn("data quality issue", zap.String("ticker", t), zap.Int("month", b.month), zap.String("kind", string(issue.Kind)))
	}
}

// record appends a transaction and applies it.
func (b *book) record(typ TxType, ticker string, price Money, shares Quantity, amount Money) {
	b.cash = b.cash.Add(amount)
	tx := Transaction{
		Month:       b.month,
		Date:        b.on,
		Ticker:      ticker,
		Type:        typ,
		Price:       price,
		SharesAdded: shares,
		Amount:      amount,
		CashBalance: b.cash,
	}
	if ticker != "" {
		held := b.shares[ticker].Add(shares)
		b.shares[ticker] = held
		tx.TotalShares = held
	}
	b.ledger = append(b.ledger, tx)
	b.log.Debug("transaction", zap.Stringer("tx", tx))
}

// credit brings external money in.
func (b *book) credit(amount Money) {
	if amount.IsZero() {
		return
	}
	b.record(CashCredit, "", Money{}, Quantity{}, amount)
}

// reserve records the cash left over after a purchase round.
func (b *book) reserve() {
	if b.cash.IsPositive() {
		b.record(CashReserve, "", Money{}, Quantity{}, M(0, b.cfg.Currency))
	}
}

// execute applies orders in sequence. Purchases are capped to the cash at hand.
func (b *book) execute(orders []Order) {
	for _, o := range orders {
		price, ok := b.prices[o.Ticker]
		if !ok || !price.IsPositive() || !o.Shares.IsPositive() {
			continue
		}
		t := b.totals[o.Ticker]
		if o.Type == RebalanceSell {
			n := o.Shares
			if held := b.shares[o.Ticker]; held.LessThan(n) {
				n = held
			}
			if !n.IsPositive() {
				continue
			}
			proceeds := price.Mul(n)
			b.record(o.Type, o.Ticker, price, n.Neg(), proceeds)
			t.contribution = t.contribution.Sub(proceeds)
			continue
		}

		n := o.Shares
		if affordable := b.cash.DivPrice(price).Floor(b.Unit()); affordable.LessThan(n) {
			n = affordable
		}
		if !n.IsPositive() {
			continue
		}
		cost := price.Mul(n)
		b.record(o.Type, o.Ticker, price, n, cost.Neg())
		t.bought = t.bought.Add(n)
		t.cost = t.cost.Add(cost)
		if o.Type == DividendReinvest {
			t.reinvestment = t.reinvestment.Add(cost)
		} else {
			t.contribution = t.contribution.Add(cost)
		}
	}
}

// invest spends budget across the assets at their target weight.
func (b *book) invest(budget Money, typ TxType) {
	var orders []Order
	for _, a := range b.cfg.Assets {
		price, ok := b.prices[a.Ticker]
		if !ok || !price.IsPositive() {
			continue
		}
		n := budget.MulRate(a.TargetAllocation).DivPrice(price).Floor(b.Unit())
		orders = append(orders, Order{Ticker: a.Ticker, Type: typ, Shares: n})
	}
	b.execute(orders)
	b.reserve()
}

// payDividends credits the month's dividends and hands them to the policy.
func (b *book) payDividends(dividends DividendSource, month date.Range, policy DividendPolicy) {
	for _, t := range b.cfg.Tickers() {
		for _, e := range dividends.Dividends(t, month) {
			held := b.shares[t]
			if !held.IsPositive() {
				continue
			}
			amount := M(e.AmountPerShare.Decimal(), b.cfg.Currency).Mul(held)
			b.record(DividendPayment, t, M(e.AmountPerShare.Decimal(), b.cfg.Currency), Q(0), amount)
			b.totals[t].dividends = b.totals[t].dividends.Add(amount)
			b.execute(policy.OnDividend(t, amount, b))
		}
	}
}

// snapshot closes the month.
func (b *book) snapshot(contribution, previous Money) MonthlySnapshot {
	holdings := make(map[string]Quantity)
	for t, n := range b.shares {
		if !n.IsZero() {
			holdings[t] = n
		}
	}
	s := MonthlySnapshot{
		Month:        b.month,
		Date:         b.on,
		Contribution: contribution,
		Holdings:     holdings,
		Prices:       maps.Clone(b.prices),
		CashBalance:  b.cash,
	}
	s.PortfolioValue = s.Value()
	if b.month > 0 && previous.IsPositive() {
		s.MonthlyReturn = s.PortfolioValue.Sub(previous).Sub(contribution).Ratio(previous)
	}
	return s
}
