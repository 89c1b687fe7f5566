package finsim

import (
	"context"

	"github.com/etnz/finsim/date"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine runs backtests. It holds no run state and can be shared between goroutines.
type Engine struct {
	log *zap.Logger

	// Rebalancing and Dividends override the policies derived from the config when set.
	Rebalancing RebalancingPolicy
	Dividends   DividendPolicy
}

// NewEngine returns an Engine logging to log, which may be nil.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// Run simulates cfg month by month from its start to its end month, both included.
//
// Each month:
//   - prices are looked up, missing ones carried forward and reported;
//   - month 0 invests the initial capital at the target weights;
//   - later months credit the monthly contribution, invested at the target
//     weights unless the month is a rebalance month, in which case the
//     rebalance invests it;
//   - dividends are credited, then handed to the dividend policy;
//   - on a rebalance month, the rebalancing policy restores the target weights.
//
// An invalid config fails before any work with the joined ValidationErrors.
// Gaps in the market data never fail a run.
func (e *Engine) Run(ctx context.Context, cfg SimulationConfig, prices PriceSource, dividends DividendSource, benchmarks BenchmarkSource) (*BacktestResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	fingerprint := cfg.Fingerprint()
	cfg = cfg.Normalize()
	if err := checkCurrency(cfg, prices, dividends); err != nil {
		return nil, err
	}
	rebalancing, dividendPolicy := policiesFor(cfg)
	if e.Rebalancing != nil {
		rebalancing = e.Rebalancing
	}
	if e.Dividends != nil {
		dividendPolicy = e.Dividends
	}

	log := e.log.With(zap.String("start", cfg.StartDate.String()), zap.String("end", cfg.EndDate.String()))
	log.Info("backtest started", zap.Int("assets", len(cfg.Assets)))

	b := newBook(cfg, log)
	var evolution []MonthlySnapshot
	previous := M(0, cfg.Currency)
	for i, month := range date.Months(cfg.StartDate, cfg.EndDate) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.open(i, month.To)
		b.quote(prices, month)

		contribution := M(0, cfg.Currency)
		due := rebalancing.Due(i)
		switch {
		case i == 0:
			contribution = cfg.InitialCapital
			b.credit(contribution)
			b.invest(b.cash, Contribution)
		case cfg.MonthlyContribution.IsPositive():
			contribution = cfg.MonthlyContribution
			b.credit(contribution)
			if !due {
				b.invest(contribution, Contribution)
			}
		}

		b.payDividends(dividends, month, dividendPolicy)

		if due {
			b.execute(rebalancing.Plan(b))
			b.reserve()
		}

		s := b.snapshot(contribution, previous)
		evolution = append(evolution, s)
		previous = s.PortfolioValue
	}

	r := e.summarize(cfg, fingerprint, b, evolution, benchmarks)
	log.Info("backtest finished",
		zap.Stringer("runID", r.RunID),
		zap.Int("months", len(evolution)),
		zap.Int("transactions", len(r.Transactions)),
		zap.Int("issues", len(r.DataQualityIssues)),
		zap.Stringer("finalValue", r.FinalValue),
	)
	return r, nil
}

// summarize derives the result from the closed book.
func (e *Engine) summarize(cfg SimulationConfig, fingerprint string, b *book, evolution []MonthlySnapshot, benchmarks BenchmarkSource) *BacktestResult {
	zero := M(0, cfg.Currency)
	r := &BacktestResult{
		RunID:              uuid.New(),
		Fingerprint:        fingerprint,
		Config:             cfg,
		TotalInvested:      zero,
		FinalValue:         zero,
		CashReserve:        zero,
		DividendsReceived:  zero,
		PortfolioEvolution: evolution,
		Transactions:       b.ledger,
		DataQualityIssues:  b.issues,
	}

	for _, s := range evolution {
		r.TotalInvested = r.TotalInvested.Add(s.Contribution)
		if s.CashBalance.IsNegative() {
			r.Alerts = append(r.Alerts, Alert{Month: s.Month, Date: s.Date, Kind: NegativeCash, Amount: s.CashBalance})
		}
	}
	if len(evolution) > 0 {
		last := evolution[len(evolution)-1]
		r.FinalValue = last.PortfolioValue
		r.CashReserve = last.CashBalance
		r.MonthlyReturns = make([]float64, 0, len(evolution)-1)
		for _, s := range evolution[1:] {
			r.MonthlyReturns = append(r.MonthlyReturns, s.MonthlyReturn)
			switch {
			case s.MonthlyReturn > 0:
				r.PositiveMonths++
			case s.MonthlyReturn < 0:
				r.NegativeMonths++
			}
		}
	}
	if r.TotalInvested.IsPositive() {
		r.TotalReturn = r.FinalValue.Sub(r.TotalInvested).Ratio(r.TotalInvested)
	}
	r.CAGR = CAGR(r.FinalValue, r.TotalInvested, len(evolution))

	for _, a := range cfg.Assets {
		p := assetPerformance(a, b, evolution)
		r.DividendsReceived = r.DividendsReceived.Add(p.Dividends)
		r.AssetPerformance = append(r.AssetPerformance, p)
	}

	var series []BenchmarkSeries
	if benchmarks != nil {
		for _, name := range cfg.Benchmarks {
			bs := BenchmarkSeries{Name: name, Levels: make([]Option[float64], len(evolution))}
			found := false
			for i, s := range evolution {
				if v, ok := benchmarks.Level(name, s.Date); ok {
					bs.Levels[i] = Some(v)
					found = true
				}
			}
			if !found {
				r.DataQualityIssues = append(r.DataQualityIssues, DataQualityIssue{Ticker: name, Kind: MissingBenchmark, Detail: "no level over the run"})
			}
			series = append(series, bs)
		}
	}
	r.Risk = ComputeRisk(ValuePoints(evolution), cfg.RiskFreeRate, series...)
	return r
}

// assetPerformance derives the outcome of asset a.
func assetPerformance(a PortfolioAsset, b *book, evolution []MonthlySnapshot) AssetPerformance {
	t := b.totals[a.Ticker]
	p := AssetPerformance{
		Ticker:       a.Ticker,
		Allocation:   a.TargetAllocation,
		Shares:       b.shares[a.Ticker],
		FinalValue:   M(0, b.cfg.Currency),
		Contribution: t.contribution,
		Reinvestment: t.reinvestment,
		Dividends:    t.dividends,
		AveragePrice: M(0, b.cfg.Currency),
	}
	if len(evolution) > 0 {
		last := evolution[len(evolution)-1]
		p.FinalValue = last.Prices[a.Ticker].Mul(p.Shares)
	}
	if t.bought.IsPositive() {
		p.AveragePrice = M(t.cost.Decimal().Div(t.bought.value), b.cfg.Currency)
	}
	if p.Contribution.IsPositive() {
		// dividends kept in cash are a gain, reinvested ones already are in FinalValue.
		gain := p.FinalValue.Add(p.Dividends).Sub(p.Reinvestment).Sub(p.Contribution)
		p.TotalReturn = gain.Ratio(p.Contribution)
	}
	return p
}

// checkCurrency rejects sources quoting in another currency than cfg. Sources
// that do not tell their currency are trusted.
func checkCurrency(cfg SimulationConfig, sources ...any) error {
	var errs validationErrors
	for _, src := range sources {
		q, ok := src.(interface{ Currency() string })
		if !ok {
			continue
		}
		if c := q.Currency(); c != "" && c != cfg.Currency {
			errs.add("currency", "market data quotes in %s, the run is in %s", c, cfg.Currency)
			break
		}
	}
	return errs.err()
}
