package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, "BRL", c.Currency)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, 4, c.Simulation.Concurrency)
	assert.Equal(t, 30*time.Second, c.Clients.EODHD.GetTimeout())
	assert.False(t, c.IsProduction())
}

func TestLoadConfig_FilesMerge(t *testing.T) {
	base := writeFile(t, "base.toml", `
environment = "production"
currency = "usd"

[clients.eodhd]
api_key = "base"
timeout = "5s"
`)
	local := writeFile(t, "local.toml", `
[clients.eodhd]
api_key = "local"

[simulation]
risk_free_rate = 0.1
`)
	c, err := LoadConfig(base, local)
	require.NoError(t, err)
	assert.True(t, c.IsProduction())
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, "local", c.Clients.EODHD.APIKey)
	assert.Equal(t, 5*time.Second, c.Clients.EODHD.GetTimeout())
	assert.Equal(t, 0.1, c.Simulation.RiskFreeRate)
	// untouched sections keep their defaults.
	assert.Equal(t, "https://eodhd.com/api", c.Clients.EODHD.BaseURL)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FINSIM_EODHD_API_KEY", "env")
	t.Setenv("FINSIM_LOG_LEVEL", "debug")
	t.Setenv("FINSIM_RISK_FREE_RATE", "0.105")
	t.Setenv("FINSIM_CONCURRENCY", "8")
	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "env", c.Clients.EODHD.APIKey)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, 0.105, c.Simulation.RiskFreeRate)
	assert.Equal(t, 8, c.Simulation.Concurrency)

	t.Setenv("FINSIM_CONCURRENCY", "many")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "FINSIM_CONCURRENCY")
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "bad.toml", "currency = "))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestGetTimeout_Invalid(t *testing.T) {
	c := BCBConfig{Timeout: "soon"}
	assert.Equal(t, 30*time.Second, c.GetTimeout())
}

const backtestScenario = `
start_date = "2020-01-01"
end_date = "2020-12-31"
initial_capital = 10000
monthly_contribution = 500.5
rebalance_frequency = "quarterly"
dividend_policy = "cash"
benchmarks = ["CDI"]

[[assets]]
ticker = "BOVA11"
target_allocation = 0.6

[[assets]]
ticker = "IVVB11"
target_allocation = 0.4
`

func TestDecodeBacktest(t *testing.T) {
	b, err := DecodeBacktest([]byte(backtestScenario))
	require.NoError(t, err)

	c := b.SimulationConfig("BRL")
	assert.Equal(t, date.New(2020, time.January, 1), c.StartDate)
	assert.Equal(t, date.New(2020, time.December, 31), c.EndDate)
	assert.Equal(t, date.Quarterly, c.RebalanceFrequency)
	assert.Equal(t, finsim.Accumulate, c.DividendPolicy)
	assert.Equal(t, 500.5, c.MonthlyContribution.Float())
	assert.Equal(t, []string{"BOVA11", "IVVB11"}, c.Tickers())
	assert.Equal(t, []string{"CDI"}, c.Benchmarks)
	assert.NoError(t, finsim.ValidateConfig(c))
}

func TestDecodeBacktest_Defaults(t *testing.T) {
	b, err := DecodeBacktest([]byte(`
start_date = "2020-01-01"
end_date = "2020-03-31"
initial_capital = 100
currency = "USD"
`))
	require.NoError(t, err)
	c := b.SimulationConfig("BRL")
	assert.Equal(t, date.Monthly, c.RebalanceFrequency)
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, "USD", c.InitialCapital.Currency())
}

func TestDecodeBacktest_Errors(t *testing.T) {
	for name, content := range map[string]string{
		"unknown key":  "start = \"2020-01-01\"",
		"bad date":     "start_date = \"01/01/2020\"",
		"bad period":   "rebalance_frequency = \"fortnightly\"",
		"invalid toml": "[[assets]",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeBacktest([]byte(content))
			assert.ErrorContains(t, err, "invalid scenario")
		})
	}
}

func TestLoadBacktest(t *testing.T) {
	b, err := LoadBacktest(writeFile(t, "backtest.toml", backtestScenario))
	require.NoError(t, err)
	assert.Len(t, b.Assets, 2)

	_, err = LoadBacktest(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "failed to read scenario")
}

const debtScenario = `
rentability = 0.10

[budget]
monthly_budget = 1500
investment_split = 300
horizon_months = 24

[[debts]]
name = "car"
balance = 10000
interest_rate_annual = 0.12
term_months = 12
amortization_system = "price"
`

func TestDecodeDebtScenario(t *testing.T) {
	s, err := DecodeDebtScenario([]byte(debtScenario))
	require.NoError(t, err)
	assert.Equal(t, 0.10, s.Rentability)

	d, err := s.Debt("BRL")
	require.NoError(t, err)
	assert.Equal(t, "car", d.Name)
	assert.Equal(t, finsim.PRICE, d.AmortizationSystem)

	cfg := s.StrategyConfig("BRL")
	assert.Equal(t, 24, cfg.HorizonMonths)
	assert.Equal(t, 300.0, cfg.InvestmentSplit.Float())

	c, err := finsim.CompareStrategies(d, cfg, s.Rentability)
	require.NoError(t, err)
	assert.Len(t, c.Sniper.MonthlyData, 24)
}

func TestDebtScenario_Aggregates(t *testing.T) {
	s, err := DecodeDebtScenario([]byte(debtScenario + `
[[debts]]
name = "house"
balance = 30000
interest_rate_annual = 0.08
term_months = 24
amortization_system = "SAC"
`))
	require.NoError(t, err)
	d, err := s.Debt("BRL")
	require.NoError(t, err)
	assert.Equal(t, "car+house", d.Name)
	assert.Equal(t, 24, d.TermMonths)
	assert.Equal(t, finsim.PRICE, d.AmortizationSystem)
	assert.InDelta(t, 0.09, d.InterestRateAnnual, 1e-12)
}

func TestDebtScenario_Errors(t *testing.T) {
	s, err := DecodeDebtScenario([]byte(`
[[debts]]
name = "car"
balance = 10000
term_months = 12
amortization_system = "german"
`))
	require.NoError(t, err)
	_, err = s.Debt("BRL")
	assert.ErrorContains(t, err, `debt "car"`)

	s, err = DecodeDebtScenario([]byte(`
[[debts]]
name = "car"
balance = -1
term_months = 12
amortization_system = "SAC"
`))
	require.NoError(t, err)
	_, err = s.Debt("BRL")
	var verr *finsim.ValidationError
	assert.ErrorAs(t, err, &verr)
}
