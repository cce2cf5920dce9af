package symbols

import (
	"strings"

	domain "marketquotes/internal/domain/entity/quotes"
)

// selectSymbol applies strict first-match in response order. The first
// candidate on an accepted exchange decides the outcome, even when its
// symbol is empty.
func (s *Service) selectSymbol(candidates []domain.Candidate) (string, bool) {
	for _, c := range candidates {
		if _, ok := s.exchanges[c.Exchange]; !ok {
			continue
		}
		symbol := strings.TrimSpace(c.Symbol)
		return symbol, symbol != ""
	}
	return "", false
}
