// Package twelvedata fetches OHLC time-series bars from the TwelveData
// HTTP API and normalizes them into chronologically ascending order.
package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"forex-bar-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.twelvedata.com"
	DefaultTimeout = 20 * time.Second
)

// Client issues time-series requests against the TwelveData API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a TwelveData client authenticated with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchBars retrieves the last count bars for symbol at the given interval.
//
// The provider returns bars newest-first; the result is reversed so it is
// strictly ascending by timestamp. An empty result set is not an error.
// Any record with a malformed timestamp or price fails the whole fetch.
//
// Error messages never contain the API key.
func (c *Client) FetchBars(ctx context.Context, symbol, interval string, count int) ([]domain.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("apikey", c.apiKey)
	q.Set("outputsize", strconv.Itoa(count))
	q.Set("timezone", "UTC")

	reqURL := c.baseURL + "/time_series?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("get time_series for %s: %w", symbol, redactErr(err, c.apiKey))}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Status: resp.StatusCode}
	}

	var payload timeSeriesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ParseError{Field: "body", Value: truncate(string(body), 128), Err: err}
	}

	if payload.Status == statusError {
		return nil, &ProviderError{Code: payload.Code, Message: payload.Message}
	}

	return normalizeBars(symbol, payload.Values)
}

// normalizeBars parses raw records and reverses them into ascending order.
// Downstream consumers depend on the oldest-first guarantee.
func normalizeBars(symbol string, values []timeSeriesValue) ([]domain.Bar, error) {
	bars := make([]domain.Bar, 0, len(values))

	for i := len(values) - 1; i >= 0; i-- {
		v := values[i]

		ts, err := time.ParseInLocation(datetimeLayout, v.Datetime, time.UTC)
		if err != nil {
			return nil, &ParseError{Field: "datetime", Value: v.Datetime, Err: err}
		}

		open, err := parsePrice("open", v.Open)
		if err != nil {
			return nil, err
		}
		high, err := parsePrice("high", v.High)
		if err != nil {
			return nil, err
		}
		low, err := parsePrice("low", v.Low)
		if err != nil {
			return nil, err
		}
		clos, err := parsePrice("close", v.Close)
		if err != nil {
			return nil, err
		}

		bars = append(bars, domain.Bar{
			Symbol:   symbol,
			Datetime: ts,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    clos,
		})
	}

	return bars, nil
}

// parsePrice parses one price field. A missing field arrives as the empty
// string and is rejected the same way as garbage.
func parsePrice(field, raw string) (float64, error) {
	if raw == "" {
		return 0, &ParseError{Field: field, Value: raw, Err: fmt.Errorf("missing field")}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Value: raw, Err: err}
	}
	return f, nil
}

// redactErr strips the API key out of transport errors. url.Error includes
// the full request URL, query string included.
func redactErr(err error, apiKey string) error {
	if apiKey == "" {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
			q := u.Query()
			if q.Has("apikey") {
				q.Set("apikey", "REDACTED")
				u.RawQuery = q.Encode()
				urlErr.URL = u.String()
			}
		}
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
