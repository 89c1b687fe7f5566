// Package finsim is the simulation core of a retail investor dashboard.
//
// It provides two deterministic simulators:
//   - Backtesting: the Engine replays a SimulationConfig month by month over
//     historical prices and dividends, applying contributions, dividend
//     reinvestment and calendar rebalancing. Every cash or share movement is
//     recorded as a Transaction in an append-only Ledger, and each month ends
//     with a MonthlySnapshot. Replaying the Ledger reproduces every snapshot.
//   - Debt versus invest: BuildSchedule produces SAC or PRICE amortization
//     schedules with a monthly TR correction, and CompareStrategies pits the
//     Sniper strategy (all surplus to the debt) against the Hybrid strategy
//     (a fixed amount invested, the rest to the debt).
//
// Monetary amounts are exact decimals (Money, Quantity). Risk metrics are
// floats (Percent and plain ratios). Metrics that may be undefined use Option.
//
// The Simulator wraps both for callers: input validation, result caching by
// config Fingerprint, parallel runs, logging and metrics.
package finsim
