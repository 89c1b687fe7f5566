package finsim

import (
	"slices"

	"github.com/etnz/finsim/date"
	"github.com/shopspring/decimal"
)

// PriceSource looks up closing prices.
type PriceSource interface {
	// Close returns the last close of ticker within r.
	Close(ticker string, r date.Range) (Money, bool)
}

// DividendEvent is a dividend per share with its ex-date.
type DividendEvent struct {
	Ticker         string    `json:"ticker"`
	ExDate         date.Date `json:"ex"`
	AmountPerShare Money     `json:"amount"`
}

// DividendSource looks up dividend events.
type DividendSource interface {
	// Dividends returns ticker's events with an ex-date within r, chronologically.
	Dividends(ticker string, r date.Range) []DividendEvent
}

// BenchmarkSource looks up benchmark index levels (CDI, IBOV...).
type BenchmarkSource interface {
	// Level returns the level of the named benchmark on day, or the latest before it.
	Level(name string, on date.Date) (float64, bool)
}

// Market is the full read-only market data a run consumes.
type Market interface {
	PriceSource
	DividendSource
	BenchmarkSource
}

// MarketData is an in-memory Market. It is not safe for concurrent writes,
// once loaded it can be read concurrently.
type MarketData struct {
	currency   string
	prices     map[string]*date.History[decimal.Decimal]
	dividends  map[string][]DividendEvent
	benchmarks map[string]*date.History[float64]
}

// NewMarketData returns an empty MarketData quoting in currency.
func NewMarketData(currency string) *MarketData {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &MarketData{
		currency:   currency,
		prices:     make(map[string]*date.History[decimal.Decimal]),
		dividends:  make(map[string][]DividendEvent),
		benchmarks: make(map[string]*date.History[float64]),
	}
}

var _ Market = (*MarketData)(nil)

// Currency returns the currency of every price in m.
func (m *MarketData) Currency() string { return m.currency }

// SetPrice records the close of ticker on day.
func (m *MarketData) SetPrice(ticker string, on date.Date, price decimal.Decimal) {
	h, ok := m.prices[ticker]
	if !ok {
		h = new(date.History[decimal.Decimal])
		m.prices[ticker] = h
	}
	h.Append(on, price)
}

// AddDividend records a dividend event, keeping events sorted by ex-date.
// An event on the same ex-date replaces the previous one.
func (m *MarketData) AddDividend(e DividendEvent) {
	e.AmountPerShare = M(e.AmountPerShare.Decimal(), m.currency)
	events := m.dividends[e.Ticker]
	if i := slices.IndexFunc(events, func(x DividendEvent) bool { return x.ExDate == e.ExDate }); i >= 0 {
		events[i] = e
		return
	}
	events = append(events, e)
	slices.SortStableFunc(events, func(a, b DividendEvent) int { return a.ExDate.Compare(b.ExDate) })
	m.dividends[e.Ticker] = events
}

// SetLevel records the level of a benchmark on day.
func (m *MarketData) SetLevel(name string, on date.Date, level float64) {
	h, ok := m.benchmarks[name]
	if !ok {
		h = new(date.History[float64])
		m.benchmarks[name] = h
	}
	h.Append(on, level)
}

func (m *MarketData) Close(ticker string, r date.Range) (Money, bool) {
	h, ok := m.prices[ticker]
	if !ok {
		return Money{}, false
	}
	_, p, ok := h.LastIn(r)
	if !ok {
		return Money{}, false
	}
	return M(p, m.currency), true
}

func (m *MarketData) Dividends(ticker string, r date.Range) []DividendEvent {
	var events []DividendEvent
	for _, e := range m.dividends[ticker] {
		if r.Contains(e.ExDate) {
			events = append(events, e)
		}
	}
	return events
}

func (m *MarketData) Level(name string, on date.Date) (float64, bool) {
	h, ok := m.benchmarks[name]
	if !ok {
		return 0, false
	}
	return h.ValueAsOf(on)
}

// Tickers returns the tickers with prices, sorted.
func (m *MarketData) Tickers() []string {
	tickers := make([]string, 0, len(m.prices))
	for t := range m.prices {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)
	return tickers
}

// Benchmarks returns the names of the benchmark series, sorted.
func (m *MarketData) Benchmarks() []string {
	names := make([]string, 0, len(m.benchmarks))
	for n := range m.benchmarks {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Merge copies every point of o into m, o wins on conflicts.
func (m *MarketData) Merge(o *MarketData) {
	for t, h := range o.prices {
		for on, p := range h.Values() {
			m.SetPrice(t, on, p)
		}
	}
	for _, events := range o.dividends {
		for _, e := range events {
			m.AddDividend(e)
		}
	}
	for n, h := range o.benchmarks {
		for on, v := range h.Values() {
			m.SetLevel(n, on, v)
		}
	}
}
