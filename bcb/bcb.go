// Package bcb reads time series of the Banco Central do Brasil SGS service,
// such as the CDI rate, and turns rate series into benchmark index levels.
package bcb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/finsim"
	"github.com/etnz/finsim/date"
	"go.uber.org/zap"
)

// DefaultBaseURL is the SGS API root.
const DefaultBaseURL = "https://api.bcb.gov.br/dados/serie"

// Well known SGS series codes.
const (
	CDI   = 12  // daily CDI rate, % a day
	SELIC = 11  // daily SELIC rate, % a day
	IPCA  = 433 // monthly IPCA inflation, % a month
)

// maxWindow is the longest range the API serves for daily series.
const maxWindow = 10 * 12

const sgsDateFormat = "02/01/2006"

// Point is a value of a series, in percent.
type Point struct {
	Date  date.Date
	Value float64
}

// Client reads SGS series.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option          { return func(c *Client) { c.base = u } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithLogger(log *zap.Logger) Option    { return func(c *Client) { c.log = log } }

// New returns a Client. Requests time out after 30s unless an HTTP client is given.
func New(opts ...Option) *Client {
	c := &Client{base: DefaultBaseURL, http: &http.Client{Timeout: 30 * time.Second}, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Series returns the points of series code between from and to, bounds
// included, in chronological order. Long ranges are fetched in windows.
func (c *Client) Series(ctx context.Context, code int, from, to date.Date) ([]Point, error) {
	var points []Point
	for start := from; !start.After(to); {
		end := start.AddMonths(maxWindow).Add(-1)
		if end.After(to) {
			end = to
		}
		window, err := c.window(ctx, code, start, end)
		if err != nil {
			return nil, err
		}
		points = append(points, window...)
		start = end.Add(1)
	}
	return points, nil
}

func (c *Client) window(ctx context.Context, code int, from, to date.Date) ([]Point, error) {
	addr := fmt.Sprintf("%s/bcdata.sgs.%d/dados?formato=json&dataInicial=%s&dataFinal=%s",
		c.base, code, from.Format(sgsDateFormat), to.Format(sgsDateFormat))
	var jobj any
	if err := c.jwget(ctx, addr, &jobj); err != nil {
		return nil, fmt.Errorf("series %d: %w", code, err)
	}
	// [{"data":"02/01/2024","valor":"0.043739"}, ...]
	days, err := stringsAt(jobj, "$[*].data")
	if err != nil {
		return nil, fmt.Errorf("series %d: %w", code, err)
	}
	values, err := stringsAt(jobj, "$[*].valor")
	if err != nil {
		return nil, fmt.Errorf("series %d: %w", code, err)
	}
	if len(days) != len(values) {
		return nil, fmt.Errorf("series %d: %d dates for %d values", code, len(days), len(values))
	}

	points := make([]Point, len(days))
	for i := range days {
		on, err := time.Parse(sgsDateFormat, days[i])
		if err != nil {
			return nil, fmt.Errorf("series %d: invalid date %q: %w", code, days[i], err)
		}
		var v float64
		if _, err := fmt.Sscan(values[i], &v); err != nil {
			return nil, fmt.Errorf("series %d: invalid value %q on %s: %w", code, values[i], days[i], err)
		}
		points[i] = Point{Date: date.New(on.Date()), Value: v}
	}
	c.log.Info("series fetched", zap.Int("code", code), zap.Stringer("from", from), zap.Stringer("to", to), zap.Int("points", len(points)))
	return points, nil
}

// stringsAt evaluates a jsonpath expected to select strings.
func stringsAt(jobj any, path string) ([]string, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("cannot evaluate %q: %w", path, err)
	}
	jlist, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("%q is not a list: %v", path, jval)
	}
	out := make([]string, len(jlist))
	for i, v := range jlist {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%q item %d is not a string: %v", path, i, v)
		}
		out[i] = s
	}
	return out, nil
}

func (c *Client) jwget(ctx context.Context, addr string, data any) error {
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

// Index compounds a series of percent rates into index levels starting at
// base: the level on a point's date includes that point's rate.
func Index(points []Point, base float64) []Point {
	levels := make([]Point, len(points))
	level := base
	for i, p := range points {
		level *= 1 + p.Value/100
		levels[i] = Point{Date: p.Date, Value: level}
	}
	return levels
}

// FetchIndex fetches the rate series code and records it in m as the
// benchmark name, compounded from 1.
func (c *Client) FetchIndex(ctx context.Context, m *finsim.MarketData, name string, code int, from, to date.Date) error {
	points, err := c.Series(ctx, code, from, to)
	if err != nil {
		return err
	}
	for _, p := range Index(points, 1) {
		m.SetLevel(name, p.Date, p.Value)
	}
	return nil
}
