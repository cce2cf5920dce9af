package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"
	DefaultChartURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	DefaultUserAgent = "Mozilla/5.0"
	DefaultTimeout   = 5 * time.Second

	maxErrorBody = 512
)

// Client talks to the public Yahoo Finance search and chart endpoints.
type Client struct {
	searchURL  string
	chartURL   string
	userAgent  string
	httpClient *http.Client
	logger     *logrus.Entry
}

type Option func(*Client)

func WithSearchURL(u string) Option {
	return func(c *Client) { c.searchURL = u }
}

func WithChartURL(u string) Option {
	return func(c *Client) { c.chartURL = u }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client. Its Timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		searchURL:  DefaultSearchURL,
		chartURL:   DefaultChartURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithField("component", "yahoo_client")
	return c
}

// getJSON issues a GET to rawURL and decodes a 200 response into out.
// Non-200 responses are returned as *APIError with the body attached so
// callers can inspect provider error payloads.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"took_ms":  time.Since(start).Milliseconds(),
	}).Debug("yahoo request")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: body}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
