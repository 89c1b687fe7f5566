package finsim

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/etnz/finsim/date"
	"github.com/shopspring/decimal"
)

// Market data is persisted as JSONL, one object per line, human-readable and git-friendly:
//
//	{"on":"2024-01-31","AAA":10.5,"BBB":20}            closes of a day, one property per ticker
//	{"ex":"2024-03-15","ticker":"AAA","dividend":2}    a dividend per share
//	{"on":"2024-01-31","benchmark":"CDI","level":1.01} a benchmark level
const (
	attrOn        = "on"
	attrEx        = "ex"
	attrTicker    = "ticker"
	attrDividend  = "dividend"
	attrBenchmark = "benchmark"
	attrLevel     = "level"
)

// DecodeMarketData reads a JSONL market data stream into m. name is for error messages only.
func DecodeMarketData(m *MarketData, name string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	i := 0
	for scanner.Scan() {
		i++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := decodeMarketLine(m, line); err != nil {
			return fmt.Errorf("parse error %s:%d: %w", name, i, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("cannot read %s: %w", name, err)
	}
	return nil
}

func decodeMarketLine(m *MarketData, line []byte) error {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	jobj := make(map[string]any)
	if err := dec.Decode(&jobj); err != nil {
		return fmt.Errorf("not a correct json: %w", err)
	}

	if _, ok := jobj[attrEx]; ok {
		ex, err := dateAttr(jobj, attrEx)
		if err != nil {
			return err
		}
		ticker, _ := jobj[attrTicker].(string)
		if ticker == "" {
			return fmt.Errorf("property %q must be a non empty string", attrTicker)
		}
		amount, err := decimalAttr(jobj, attrDividend)
		if err != nil {
			return err
		}
		m.AddDividend(DividendEvent{Ticker: ticker, ExDate: ex, AmountPerShare: M(amount, m.currency)})
		return nil
	}

	on, err := dateAttr(jobj, attrOn)
	if err != nil {
		return err
	}

	if name, ok := jobj[attrBenchmark].(string); ok {
		level, err := decimalAttr(jobj, attrLevel)
		if err != nil {
			return err
		}
		m.SetLevel(name, on, level.InexactFloat64())
		return nil
	}

	// Read all other attributes as (ticker, price) pairs.
	for ticker := range jobj {
		if ticker == attrOn {
			continue
		}
		p, err := decimalAttr(jobj, ticker)
		if err != nil {
			return err
		}
		m.SetPrice(ticker, on, p)
	}
	return nil
}

func dateAttr(jobj map[string]any, key string) (date.Date, error) {
	s, ok := jobj[key].(string)
	if !ok {
		return date.Date{}, fmt.Errorf("missing the property %q with a date", key)
	}
	on, err := date.Parse(s)
	if err != nil {
		return date.Date{}, fmt.Errorf("property %q must be a valid date: %w", key, err)
	}
	return on, nil
}

func decimalAttr(jobj map[string]any, key string) (decimal.Decimal, error) {
	n, ok := jobj[key].(json.Number)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("property %q must be of type 'number'", key)
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("property %q: %w", key, err)
	}
	return d, nil
}

// EncodeMarketData writes m as JSONL: closes by day, then dividends, then benchmark levels.
func EncodeMarketData(w io.Writer, m *MarketData) error {
	tickers := m.Tickers()
	days := make(map[date.Date]bool)
	for _, h := range m.prices {
		for on := range h.Values() {
			days[on] = true
		}
	}
	sorted := make([]date.Date, 0, len(days))
	for on := range days {
		sorted = append(sorted, on)
	}
	slices.SortFunc(sorted, date.Date.Compare)

	for _, on := range sorted {
		var jw jsonObjectWriter
		jw.Append(attrOn, on)
		for _, t := range tickers {
			if p, ok := m.prices[t].Get(on); ok {
				jw.Append(t, json.Number(p.String()))
			}
		}
		if err := writeLine(w, &jw); err != nil {
			return err
		}
	}

	divTickers := make([]string, 0, len(m.dividends))
	for t := range m.dividends {
		divTickers = append(divTickers, t)
	}
	slices.Sort(divTickers)
	for _, t := range divTickers {
		for _, e := range m.dividends[t] {
			var jw jsonObjectWriter
			jw.Append(attrEx, e.ExDate).Append(attrTicker, e.Ticker).Append(attrDividend, json.Number(e.AmountPerShare.Decimal().String()))
			if err := writeLine(w, &jw); err != nil {
				return err
			}
		}
	}

	for _, name := range m.Benchmarks() {
		for on, v := range m.benchmarks[name].Values() {
			var jw jsonObjectWriter
			jw.Append(attrOn, on).Append(attrBenchmark, name).Append(attrLevel, v)
			if err := writeLine(w, &jw); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeLine(w io.Writer, jw *jsonObjectWriter) error {
	b, err := jw.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, string(b)); err != nil {
		return fmt.Errorf("cannot write market data: %w", err)
	}
	return nil
}

// ParseTickers splits a comma separated list of tickers.
func ParseTickers(s string) []string {
	var tickers []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}
