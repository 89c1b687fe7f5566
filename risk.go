package finsim

import (
	"math"

	"github.com/etnz/finsim/date"
)

// ValuePoint is a month of portfolio evolution as seen by the risk metrics.
// Return is the month's return net of new money, ignored on the first point.
type ValuePoint struct {
	Date   date.Date
	Value  float64
	Return float64
}

// ValuePoints converts snapshots for ComputeRisk.
func ValuePoints(evolution []MonthlySnapshot) []ValuePoint {
	points := make([]ValuePoint, len(evolution))
	for i, s := range evolution {
		points[i] = ValuePoint{Date: s.Date, Value: s.PortfolioValue.Float(), Return: s.MonthlyReturn}
	}
	return points
}

// BenchmarkSeries holds the benchmark levels aligned with the value points.
type BenchmarkSeries struct {
	Name   string
	Levels []Option[float64]
}

// BenchmarkComparison compares the portfolio with a benchmark over the same window.
type BenchmarkComparison struct {
	Name string `json:"name"`
	// Return is the benchmark cumulative return, none without levels at both ends.
	Return         Option[float64] `json:"return"`
	Outperformance Option[float64] `json:"outperformance"`
}

// DrawdownPeriod is a contiguous run of months below the running peak.
type DrawdownPeriod struct {
	Peak  date.Date `json:"peak"`  // last month at the peak
	Start date.Date `json:"start"` // first month below the peak
	End   date.Date `json:"end"`   // last month below the peak
	// Trough is the deepest month.
	Trough   date.Date `json:"trough"`
	Duration int       `json:"duration"` // in months
	Depth    float64   `json:"depth"`
	// Recovered is true once the value climbed back to the peak.
	Recovered    bool              `json:"recovered"`
	RecoveryDate Option[date.Date] `json:"recoveryDate"`
}

// RiskSummary gathers the risk metrics of a run.
type RiskSummary struct {
	CumulativeReturn float64               `json:"cumulativeReturn"`
	AnnualizedReturn float64               `json:"annualizedReturn"`
	Volatility       float64               `json:"volatility"`
	SharpeRatio      Option[float64]       `json:"sharpeRatio"`
	MaxDrawdown      float64               `json:"maxDrawdown"`
	Drawdowns        []DrawdownPeriod      `json:"drawdowns"`
	Benchmarks       []BenchmarkComparison `json:"benchmarks,omitempty"`
}

// ComputeRisk computes the risk summary of an evolution. The returns used are
// those of the points after the first.
func ComputeRisk(points []ValuePoint, riskFreeRate float64, benchmarks ...BenchmarkSeries) RiskSummary {
	var returns []float64
	if len(points) > 1 {
		returns = make([]float64, 0, len(points)-1)
		for _, p := range points[1:] {
			returns = append(returns, p.Return)
		}
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}

	r := RiskSummary{
		CumulativeReturn: CumulativeReturn(returns),
		AnnualizedReturn: AnnualizedReturn(returns),
		Volatility:       Volatility(returns),
		SharpeRatio:      SharpeRatio(returns, riskFreeRate),
		MaxDrawdown:      MaxDrawdown(values),
		Drawdowns:        DrawdownPeriods(points),
	}
	for _, b := range benchmarks {
		r.Benchmarks = append(r.Benchmarks, compareBenchmark(r.CumulativeReturn, b))
	}
	return r
}

func compareBenchmark(cumulative float64, b BenchmarkSeries) BenchmarkComparison {
	c := BenchmarkComparison{Name: b.Name}
	if len(b.Levels) == 0 {
		return c
	}
	first, okFirst := b.Levels[0].Get()
	last, okLast := b.Levels[len(b.Levels)-1].Get()
	if !okFirst || !okLast || first <= 0 {
		return c
	}
	ret := last/first - 1
	c.Return = Some(ret)
	c.Outperformance = Some(cumulative - ret)
	return c
}

// CumulativeReturn chains monthly returns.
func CumulativeReturn(returns []float64) float64 {
	c := 1.0
	for _, r := range returns {
		c *= 1 + r
	}
	return c - 1
}

// AnnualizedReturn is the geometric annualization of monthly returns.
func AnnualizedReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	growth := 1 + CumulativeReturn(returns)
	if growth <= 0 {
		return -1
	}
	return math.Pow(growth, 12/float64(len(returns))) - 1
}

// Volatility is the annualized sample standard deviation of monthly returns,
// 0 with less than two returns.
func Volatility(returns []float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)
	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss/float64(n-1)) * math.Sqrt(12)
}

// SharpeRatio is the annualized excess return per unit of volatility. It is
// none with less than two returns or a zero volatility.
func SharpeRatio(returns []float64, riskFreeRate float64) Option[float64] {
	vol := Volatility(returns)
	if len(returns) < 2 || vol == 0 {
		return None[float64]()
	}
	return Some((AnnualizedReturn(returns) - riskFreeRate) / vol)
}

// MaxDrawdown is the largest decline from a running peak, as a positive ratio.
// It is 0 iff values never decrease.
func MaxDrawdown(values []float64) float64 {
	var peak, deepest float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak; dd > deepest {
			deepest = dd
		}
	}
	return deepest
}

// DrawdownPeriods extracts the runs of months below the running peak.
func DrawdownPeriods(points []ValuePoint) []DrawdownPeriod {
	var periods []DrawdownPeriod
	var peak float64
	var peakDate date.Date
	var open *DrawdownPeriod
	for _, p := range points {
		if p.Value >= peak {
			if open != nil {
				open.Recovered = true
				open.RecoveryDate = Some(p.Date)
				periods = append(periods, *open)
				open = nil
			}
			peak, peakDate = p.Value, p.Date
			continue
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Value) / peak
		if open == nil {
			open = &DrawdownPeriod{Peak: peakDate, Start: p.Date}
		}
		open.End = p.Date
		open.Duration++
		if dd > open.Depth {
			open.Depth, open.Trough = dd, p.Date
		}
	}
	if open != nil {
		periods = append(periods, *open)
	}
	return periods
}

// CAGR is (final/invested)^(12/months) - 1, 0 when nothing was invested.
func CAGR(final, invested Money, months int) float64 {
	if !invested.IsPositive() || months <= 0 {
		return 0
	}
	ratio := final.Ratio(invested)
	if ratio <= 0 {
		return -1
	}
	return math.Pow(ratio, 12/float64(months)) - 1
}
