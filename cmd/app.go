// Package cmd implements the finsim command line.
package cmd

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/finsim"
	"github.com/etnz/finsim/config"
	"github.com/etnz/finsim/date"
	"github.com/etnz/finsim/logging"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&backtestCmd{}, "simulation")
	c.Register(&chartCmd{}, "simulation")
	c.Register(&replayCmd{}, "simulation")

	c.Register(&scheduleCmd{}, "debt")
	c.Register(&debtCmd{}, "debt")

	c.Register(&fetchCmd{}, "market data")
	c.Register(&cdiCmd{}, "market data")

	c.Register(&topicCmd{}, "help")
}

// DefaultConfigFile is read from the working directory when it exists.
const DefaultConfigFile = "finsim.toml"

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to a settings file (TOML), overriding "+DefaultConfigFile)
var marketFile = flag.String("market", "", "Path to the market data file (JSONL), overriding the settings")

// app is what every command needs: the settings and a logger.
type app struct {
	settings *config.Config
	log      *zap.Logger
}

func newApp() (*app, error) {
	settings, err := config.LoadConfig(DefaultConfigFile, *configFile)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(settings.Logging.Level, settings.Environment)
	if err != nil {
		return nil, err
	}
	return &app{settings: settings, log: log}, nil
}

func (a *app) marketPath() string {
	if *marketFile != "" {
		return *marketFile
	}
	return a.settings.Market.Path
}

// decodeMarket loads the market data file, an empty one if it does not exist yet.
func (a *app) decodeMarket() (*finsim.MarketData, error) {
	path := a.marketPath()
	m := finsim.NewMarketData(a.settings.Currency)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		a.log.Warn("market data file does not exist, starting empty", zap.String("path", path))
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := finsim.DecodeMarketData(m, path, f); err != nil {
		return nil, err
	}
	a.log.Debug("market data loaded", zap.String("path", path), zap.Strings("tickers", m.Tickers()))
	return m, nil
}

// encodeMarket writes m over the market data file.
func (a *app) encodeMarket(m *finsim.MarketData) error {
	path := a.marketPath()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := finsim.EncodeMarketData(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// simulator returns a Simulator over m configured from the settings.
func (a *app) simulator(m finsim.Market, reg prometheus.Registerer) (*finsim.Simulator, error) {
	cache, err := finsim.NewLRUCache(a.settings.Simulation.CacheSize)
	if err != nil {
		return nil, err
	}
	return finsim.NewSimulator(m,
		finsim.WithLogger(a.log),
		finsim.WithCache(cache),
		finsim.WithMetrics(finsim.NewMetrics(reg)),
		finsim.WithConcurrency(a.settings.Simulation.Concurrency),
		finsim.WithRiskFreeRate(a.settings.Simulation.RiskFreeRate),
	), nil
}

// parseRange parses the -from and -to flags, to defaults to today.
func parseRange(from, to string) (date.Date, date.Date, error) {
	start, err := date.Parse(from)
	if err != nil {
		return date.Date{}, date.Date{}, fmt.Errorf("invalid -from: %w", err)
	}
	end := date.Today()
	if to != "" {
		if end, err = date.Parse(to); err != nil {
			return date.Date{}, date.Date{}, fmt.Errorf("invalid -to: %w", err)
		}
	}
	if end.Before(start) {
		return date.Date{}, date.Date{}, fmt.Errorf("-to %s is before -from %s", end, start)
	}
	return start, end, nil
}

// printMarkdown renders md for the terminal, or prints it raw when it cannot.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
