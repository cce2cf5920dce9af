package yahoo

import (
	"context"
	"net/url"
	"strings"

	domain "marketquotes/internal/domain/entity/quotes"
)

type searchResponse struct {
	Quotes []domain.Candidate `json:"quotes"`
}

// Search returns the candidate listings for query in the order Yahoo ranked
// them.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	var resp searchResponse
	if err := c.getJSON(ctx, "search", c.searchURL+"?q="+encodeQuery(query), &resp); err != nil {
		return nil, err
	}
	return resp.Quotes, nil
}

// encodeQuery escapes query for use as a URL parameter, with spaces as %20.
func encodeQuery(query string) string {
	return strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}
