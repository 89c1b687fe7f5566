package finsim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Simulator is the entry point for callers: it validates inputs, memoizes
// backtests by config fingerprint and runs independent simulations in parallel.
type Simulator struct {
	engine      *Engine
	market      Market
	cache       ResultCache
	log         *zap.Logger
	metrics     *Metrics
	concurrency int
	riskFree    float64
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithLogger sets the logger, the default discards everything.
func WithLogger(log *zap.Logger) SimulatorOption {
	return func(s *Simulator) { s.log = log }
}

// WithCache memoizes backtests in c.
func WithCache(c ResultCache) SimulatorOption {
	return func(s *Simulator) { s.cache = c }
}

// WithMetrics records runs in m.
func WithMetrics(m *Metrics) SimulatorOption {
	return func(s *Simulator) { s.metrics = m }
}

// WithConcurrency bounds the number of backtests RunBatch runs at once.
func WithConcurrency(n int) SimulatorOption {
	return func(s *Simulator) { s.concurrency = n }
}

// WithRiskFreeRate sets the annual rate used for configs that declare none.
// A config RiskFreeRate of zero counts as undeclared, so a Simulator with a
// non zero default cannot run at 0%: use one without this option instead.
func WithRiskFreeRate(rate float64) SimulatorOption {
	return func(s *Simulator) { s.riskFree = rate }
}

// NewSimulator returns a Simulator over read-only market data.
func NewSimulator(market Market, opts ...SimulatorOption) *Simulator {
	s := &Simulator{market: market, log: zap.NewNop(), concurrency: 4}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = NewEngine(s.log.Named("engine"))
	return s
}

// RunBacktest runs cfg, or returns the cached result of an identical config.
func (s *Simulator) RunBacktest(ctx context.Context, cfg SimulationConfig) (r *BacktestResult, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("backtest", start, err) }()

	if err := ValidateConfig(cfg); err != nil {
		s.log.Info("backtest rejected", zap.Error(err))
		return nil, err
	}
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = s.riskFree
	}
	key := cfg.Fingerprint()
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			s.metrics.cacheHit()
			s.log.Debug("backtest cache hit", zap.String("fingerprint", key))
			return r, nil
		}
	}

	r, err = s.engine.Run(ctx, cfg, s.market, s.market, s.market)
	if err != nil {
		s.log.Error("backtest failed", zap.String("fingerprint", key), zap.Error(err))
		return nil, fmt.Errorf("backtest %s: %w", key[:12], err)
	}
	s.metrics.dataIssues(len(r.DataQualityIssues))
	if s.cache != nil {
		s.cache.Add(key, r)
	}
	return r, nil
}

// RunBatch runs independent backtests in parallel. Results are in cfgs order.
// The first failure cancels the remaining runs.
func (s *Simulator) RunBatch(ctx context.Context, cfgs []SimulationConfig) ([]*BacktestResult, error) {
	results := make([]*BacktestResult, len(cfgs))
	g, ctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, cfg := range cfgs {
		g.Go(func() error {
			r, err := s.RunBacktest(ctx, cfg)
			if err != nil {
				return fmt.Errorf("config %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CompareDebtStrategies simulates Sniper and Hybrid concurrently, then finds their break-even month.
func (s *Simulator) CompareDebtStrategies(ctx context.Context, d Debt, cfg StrategyConfig, rentability float64) (c *StrategyComparison, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("debt", start, err) }()

	if err := ValidateStrategy(d, cfg); err != nil {
		s.log.Info("debt comparison rejected", zap.Error(err))
		return nil, err
	}
	var sniper, hybrid DebtSimulationResult
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sniper = SimulateStrategy(Sniper, d, cfg, rentability)
		return ctx.Err()
	})
	g.Go(func() error {
		hybrid = SimulateStrategy(Hybrid, d, cfg, rentability)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c = newComparison(d, cfg, rentability, sniper, hybrid)
	s.log.Info("debt comparison finished",
		zap.String("debt", d.Name),
		zap.Stringer("sniper", sniper.FinalNetWorth),
		zap.Stringer("hybrid", hybrid.FinalNetWorth),
		zap.Stringer("breakEven", c.BreakEvenMonth),
	)
	return c, nil
}
