package eodhd

import (
	"context"
	"strings"

	"github.com/etnz/finsim"
	"github.com/etnz/finsim/date"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetch downloads the closes and dividends of tickers between from and to
// into m. Tickers are EODHD codes and are recorded under the symbol without
// the exchange suffix, "PETR4.SA" is recorded as "PETR4".
//
// Dividends in a currency other than m's are skipped.
func (c *Client) Fetch(ctx context.Context, m *finsim.MarketData, tickers []string, from, to date.Date) error {
	type series struct {
		closes    []Close
		dividends []Dividend
	}
	fetched := make([]series, len(tickers))
	g, ctx := errgroup.WithContext(ctx)
	for i, ticker := range tickers {
		g.Go(func() error {
			closes, err := c.Prices(ctx, ticker, from, to)
			if err != nil {
				return err
			}
			dividends, err := c.Dividends(ctx, ticker, from, to)
			if err != nil {
				return err
			}
			fetched[i] = series{closes, dividends}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// MarketData is not safe for concurrent writes.
	for i, ticker := range tickers {
		symbol := Symbol(ticker)
		for _, p := range fetched[i].closes {
			m.SetPrice(symbol, p.Date, p.Close)
		}
		for _, d := range fetched[i].dividends {
			if d.Currency != "" && !strings.EqualFold(d.Currency, m.Currency()) {
				c.log.Warn("dividend skipped", zap.String("ticker", ticker), zap.Stringer("ex", d.Date), zap.String("currency", d.Currency))
				continue
			}
			m.AddDividend(finsim.DividendEvent{Ticker: symbol, ExDate: d.Date, AmountPerShare: finsim.M(d.Value, m.Currency())})
		}
		c.log.Info("fetched", zap.String("ticker", ticker), zap.Int("closes", len(fetched[i].closes)), zap.Int("dividends", len(fetched[i].dividends)))
	}
	return nil
}

// Symbol strips the exchange suffix of an EODHD code.
func Symbol(ticker string) string {
	symbol, _, _ := strings.Cut(ticker, ".")
	return symbol
}
