package pipeline

import (
	"time"

	domain "marketquotes/internal/domain/entity/quotes"

	"github.com/google/uuid"
)

// Report is the outcome of one pipeline run.
type Report struct {
	RunID      uuid.UUID              `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Mappings   []domain.SymbolMapping `json:"mappings"`
	Quotes     []domain.QuoteRecord   `json:"quotes"`
}

func (r *Report) Resolved() int {
	n := 0
	for _, m := range r.Mappings {
		if m.Resolved() {
			n++
		}
	}
	return n
}

// Dropped is the number of companies excluded from stage two.
func (r *Report) Dropped() int {
	return len(r.Mappings) - r.Resolved()
}

func (r *Report) StatusCounts() map[domain.Status]int {
	counts := make(map[domain.Status]int, 3)
	for _, q := range r.Quotes {
		counts[q.Status]++
	}
	return counts
}

// AllTodayUnavailable reports the systemic case where no record has today's
// high or low. It is false for an empty run.
func (r *Report) AllTodayUnavailable() bool {
	if len(r.Quotes) == 0 {
		return false
	}
	for _, q := range r.Quotes {
		if q.TodayHigh.State != domain.MetricUnavailable || q.TodayLow.State != domain.MetricUnavailable {
			return false
		}
	}
	return true
}
