// Package eodhd fetches closing prices and dividends from EOD Historical Data
// into finsim market data.
package eodhd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the EODHD API root.
const DefaultBaseURL = "https://eodhd.com/api"

// Client is an EODHD API client. It is safe for concurrent use.
type Client struct {
	key     string
	base    string
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client to another API root, typically a test server.
func WithBaseURL(u string) Option { return func(c *Client) { c.base = u } }

// WithHTTPClient replaces the default daily caching client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithRateLimit allows at most perSecond requests per second, with bursts of burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithLogger logs the requests sent over the network.
func WithLogger(log *zap.Logger) Option { return func(c *Client) { c.log = log } }

// New returns a client authenticated with key. By default responses are
// cached on disk for the day, and requests are limited to 5 per second.
func New(key string, opts ...Option) *Client {
	c := &Client{
		key:     key,
		base:    DefaultBaseURL,
		limiter: rate.NewLimiter(5, 1),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = NewDailyCachingClient("", c.log)
	}
	return c
}

// jwget performs an HTTP GET request to addr and unmarshals the JSON response
// body into data.
func (c *Client) jwget(ctx context.Context, addr string, data any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}
