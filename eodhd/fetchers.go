package eodhd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/etnz/finsim/date"
	"github.com/shopspring/decimal"
)

// Close is a daily closing price.
type Close struct {
	Date  date.Date       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// Dividend is a cash dividend per share, dated at its ex-date.
type Dividend struct {
	Date     date.Date       `json:"date"`
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// SearchResult is an item of the EODHD search API response.
type SearchResult struct {
	Code              string    `json:"Code"`
	Exchange          string    `json:"Exchange"`
	Name              string    `json:"Name"`
	Type              string    `json:"Type"`
	Country           string    `json:"Country"`
	Currency          string    `json:"Currency"`
	ISIN              string    `json:"ISIN"`
	PreviousClose     float64   `json:"previousClose"`
	PreviousCloseDate date.Date `json:"previousCloseDate"`
}

// Ticker returns the code to query this result's prices with.
func (r SearchResult) Ticker() string { return r.Code + "." + r.Exchange }

// Prices returns the daily closes of ticker ("SYMBOL.EXCHANGE") between from and to, bounds included.
func (c *Client) Prices(ctx context.Context, ticker string, from, to date.Date) ([]Close, error) {
	// [{"date":"2024-02-13","open":675.066,"high":684.219,"low":648.659,"close":668.445,"adjusted_close":67.705,"volume":0}]
	addr := fmt.Sprintf("%s/eod/%s?fmt=json&api_token=%s&from=%s&to=%s", c.base, url.PathEscape(ticker), url.QueryEscape(c.key), from, to)
	content := make([]Close, 0)
	if err := c.jwget(ctx, addr, &content); err != nil {
		return nil, fmt.Errorf("prices of %s: %w", ticker, err)
	}
	return content, nil
}

// Dividends returns the dividends of ticker with an ex-date between from and to.
func (c *Client) Dividends(ctx context.Context, ticker string, from, to date.Date) ([]Dividend, error) {
	addr := fmt.Sprintf("%s/div/%s?fmt=json&api_token=%s&from=%s&to=%s", c.base, url.PathEscape(ticker), url.QueryEscape(c.key), from, to)
	content := make([]Dividend, 0)
	if err := c.jwget(ctx, addr, &content); err != nil {
		return nil, fmt.Errorf("dividends of %s: %w", ticker, err)
	}
	return content, nil
}

// Search looks up securities by name, code or ISIN.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	addr := fmt.Sprintf("%s/search/%s?fmt=json&api_token=%s", c.base, url.PathEscape(term), url.QueryEscape(c.key))
	var results []SearchResult
	if err := c.jwget(ctx, addr, &results); err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	return results, nil
}
