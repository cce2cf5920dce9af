package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	domain "marketquotes/internal/domain/entity/quotes"
)

const (
	snapshotRange = "1d"
	notFoundCode  = "Not Found"
)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       domain.Snapshot `json:"meta"`
	Timestamp  []int64         `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open  []*float64 `json:"open"`
			High  []*float64 `json:"high"`
			Low   []*float64 `json:"low"`
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Snapshot returns the latest price and 52-week range from the chart meta
// block. Unknown symbols yield an empty snapshot.
func (c *Client) Snapshot(ctx context.Context, symbol string) (domain.Snapshot, error) {
	result, err := c.chart(ctx, symbol, snapshotRange)
	if errors.Is(err, ErrNoData) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return domain.Snapshot{}, err
	}
	return result.Meta, nil
}

// History returns daily sessions over period (e.g. "2d"), oldest first.
// Sessions without both high and low are skipped; unknown symbols yield an
// empty slice.
func (c *Client) History(ctx context.Context, symbol, period string) ([]domain.Session, error) {
	result, err := c.chart(ctx, symbol, period)
	if errors.Is(err, ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result.sessions(), nil
}

// Load returns the snapshot and the sessions over period from one chart
// request. The meta block does not depend on the range.
func (c *Client) Load(ctx context.Context, symbol, period string) (domain.Snapshot, []domain.Session, error) {
	result, err := c.chart(ctx, symbol, period)
	if errors.Is(err, ErrNoData) {
		return domain.Snapshot{}, nil, nil
	}
	if err != nil {
		return domain.Snapshot{}, nil, err
	}
	return result.Meta, result.sessions(), nil
}

func (r *chartResult) sessions() []domain.Session {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}

	quote := r.Indicators.Quote[0]
	sessions := make([]domain.Session, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		high, low := at(quote.High, i), at(quote.Low, i)
		if high == nil || low == nil {
			continue
		}
		s := domain.Session{
			Date: time.Unix(ts, 0),
			High: *high,
			Low:  *low,
		}
		if v := at(quote.Open, i); v != nil {
			s.Open = *v
		}
		if v := at(quote.Close, i); v != nil {
			s.Close = *v
		}
		sessions = append(sessions, s)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Date.Before(sessions[j].Date)
	})
	return sessions
}

func (c *Client) chart(ctx context.Context, symbol, period string) (*chartResult, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", period)
	rawURL := fmt.Sprintf("%s/%s?%s", c.chartURL, url.PathEscape(symbol), params.Encode())

	var resp chartResponse
	if err := c.getJSON(ctx, "chart", rawURL, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound && isNotFound(apiErr.Body) {
			return nil, ErrNoData
		}
		return nil, err
	}
	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == notFoundCode {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("yahoo chart: %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, ErrNoData
	}
	return &resp.Chart.Result[0], nil
}

func isNotFound(body []byte) bool {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false
	}
	return resp.Chart.Error != nil && resp.Chart.Error.Code == notFoundCode
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
