package interfaces

import (
	"context"

	domain "marketquotes/internal/domain/entity/quotes"

	"github.com/google/uuid"
)

// SymbolSearcher queries a ticker search endpoint.
type SymbolSearcher interface {
	Search(ctx context.Context, query string) ([]domain.Candidate, error)
}

// QuoteProvider serves snapshot and short history data for a symbol.
// A symbol the provider has no data for yields an empty snapshot or an
// empty history, not an error.
type QuoteProvider interface {
	Snapshot(ctx context.Context, symbol string) (domain.Snapshot, error)
	History(ctx context.Context, symbol, period string) ([]domain.Session, error)
}

// QuoteLoader is implemented by providers that can serve the snapshot and
// the history of a symbol from a single upstream request.
type QuoteLoader interface {
	Load(ctx context.Context, symbol, period string) (domain.Snapshot, []domain.Session, error)
}

// SymbolCache is a look-aside store for company name resolutions.
type SymbolCache interface {
	GetSymbol(ctx context.Context, companyName string) (string, bool, error)
	SetSymbol(ctx context.Context, companyName, symbol string) error
}

// SymbolResolver maps a company name to a ticker symbol.
type SymbolResolver interface {
	Resolve(ctx context.Context, companyName string) (string, bool)
}

// QuoteFetcher builds a quote record for a symbol. It never fails; failures
// are encoded in the record.
type QuoteFetcher interface {
	Fetch(ctx context.Context, symbol, identifier string) domain.QuoteRecord
}

// QuotePublisher ships a run's records to downstream consumers.
type QuotePublisher interface {
	PublishQuotes(ctx context.Context, runID uuid.UUID, records []domain.QuoteRecord) error
	Close() error
}
