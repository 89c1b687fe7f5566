package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/etnz/finsim"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// EvolutionChart renders a PNG line chart of a backtest: the portfolio value
// (blue solid) and the money put in so far (gray dashed).
func EvolutionChart(r *finsim.BacktestResult) ([]byte, error) {
	evolution := r.PortfolioEvolution
	if len(evolution) < 2 {
		return nil, fmt.Errorf("need at least 2 months, got %d", len(evolution))
	}

	xValues := make([]time.Time, len(evolution))
	valueY := make([]float64, len(evolution))
	investedY := make([]float64, len(evolution))
	invested := finsim.M(0, r.Config.Currency)
	for i, s := range evolution {
		invested = invested.Add(s.Contribution)
		xValues[i] = s.Date.Time()
		valueY[i] = s.PortfolioValue.Float()
		investedY[i] = invested.Float()
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Backtest from %s to %s", r.Config.StartDate, r.Config.EndDate),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0fk", f/1000)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "Portfolio Value",
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("2563eb"),
					StrokeWidth: 2.5,
				},
				XValues: xValues,
				YValues: valueY,
			},
			chart.TimeSeries{
				Name: "Invested",
				Style: chart.Style{
					StrokeColor:     drawing.ColorFromHex("9ca3af"),
					StrokeWidth:     1.5,
					StrokeDashArray: []float64{5.0, 3.0},
				},
				XValues: xValues,
				YValues: investedY,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
