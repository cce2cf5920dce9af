package pipeline

import (
	"context"
	"errors"
	"time"

	"marketquotes/internal/application/parallel"
	domain "marketquotes/internal/domain/entity/quotes"
	interfaces "marketquotes/internal/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultResolveWorkers = 20
	DefaultFetchWorkers   = 15
)

var errNotResolved = errors.New("symbol not resolved")

// Service runs the two pipeline stages: symbol resolution, then quote
// retrieval for every resolved symbol.
type Service struct {
	resolver       interfaces.SymbolResolver
	fetcher        interfaces.QuoteFetcher
	resolveWorkers int
	fetchWorkers   int
	now            func() time.Time
	logger         *logrus.Entry
}

type Option func(*Service)

// WithWorkers sets the pool width of each stage. Non-positive values keep
// the defaults.
func WithWorkers(resolve, fetch int) Option {
	return func(s *Service) {
		if resolve > 0 {
			s.resolveWorkers = resolve
		}
		if fetch > 0 {
			s.fetchWorkers = fetch
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(resolver interfaces.SymbolResolver, fetcher interfaces.QuoteFetcher, logger *logrus.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Service{
		resolver:       resolver,
		fetcher:        fetcher,
		resolveWorkers: DefaultResolveWorkers,
		fetchWorkers:   DefaultFetchWorkers,
		now:            time.Now,
		logger:         logger.WithField("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveSymbols maps every company to a symbol. The result has one mapping
// per company, in input order; unresolved companies get an absent symbol.
func (s *Service) ResolveSymbols(ctx context.Context, companies []domain.CompanyRecord) []domain.SymbolMapping {
	results := parallel.Map(ctx, companies, s.resolveWorkers, func(ctx context.Context, c domain.CompanyRecord) (string, error) {
		symbol, ok := s.resolver.Resolve(ctx, c.Name)
		if !ok {
			return "", errNotResolved
		}
		return symbol, nil
	})

	mappings := make([]domain.SymbolMapping, len(companies))
	for _, r := range results {
		mappings[r.Index] = domain.NewMapping(companies[r.Index], r.Value)
		if r.Err != nil && !errors.Is(r.Err, errNotResolved) {
			s.logger.WithError(r.Err).WithField("company", companies[r.Index].Name).Warn("symbol resolution failed")
		}
	}
	return mappings
}

// FetchQuotes retrieves a quote record for every resolved mapping, in input
// order. Unresolved mappings are dropped.
func (s *Service) FetchQuotes(ctx context.Context, mappings []domain.SymbolMapping) []domain.QuoteRecord {
	resolved := Resolved(mappings)
	results := parallel.Map(ctx, resolved, s.fetchWorkers, func(ctx context.Context, m domain.SymbolMapping) (domain.QuoteRecord, error) {
		return s.fetcher.Fetch(ctx, m.Symbol.String, m.Identifier), nil
	})

	records := make([]domain.QuoteRecord, len(resolved))
	for _, r := range results {
		if r.Err != nil {
			m := resolved[r.Index]
			s.logger.WithError(r.Err).WithField("symbol", m.Symbol.String).Error("quote fetch failed")
			records[r.Index] = domain.ErrorRecord(m.Identifier, m.Symbol.String, s.now())
			continue
		}
		records[r.Index] = r.Value
	}
	return records
}

// Run executes both stages. Stage two starts only after every stage one
// result has been collected.
func (s *Service) Run(ctx context.Context, companies []domain.CompanyRecord) *Report {
	report := &Report{
		RunID:     uuid.New(),
		StartedAt: s.now(),
	}
	log := s.logger.WithField("run_id", report.RunID)

	report.Mappings = s.ResolveSymbols(ctx, companies)
	log.WithFields(logrus.Fields{
		"companies": len(companies),
		"resolved":  report.Resolved(),
	}).Info("symbols resolved")

	report.Quotes = s.FetchQuotes(ctx, report.Mappings)
	report.FinishedAt = s.now()

	s.logReport(log, report)
	return report
}

// RunMappings executes stage two only, for mappings persisted by an earlier
// run.
func (s *Service) RunMappings(ctx context.Context, mappings []domain.SymbolMapping) *Report {
	report := &Report{
		RunID:     uuid.New(),
		StartedAt: s.now(),
		Mappings:  mappings,
	}
	report.Quotes = s.FetchQuotes(ctx, mappings)
	report.FinishedAt = s.now()

	s.logReport(s.logger.WithField("run_id", report.RunID), report)
	return report
}

func (s *Service) logReport(log *logrus.Entry, report *Report) {
	counts := report.StatusCounts()
	log.WithFields(logrus.Fields{
		"quotes":         len(report.Quotes),
		"ok":             counts[domain.StatusOK],
		"errors":         counts[domain.StatusError],
		"invalid_symbol": counts[domain.StatusInvalidSymbol],
		"took_ms":        report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	}).Info("quotes fetched")

	if report.AllTodayUnavailable() {
		log.Warn("all today's high/low values are unavailable; market may be closed or symbols invalid")
	}
}

// Resolved filters mappings down to those carrying a symbol.
func Resolved(mappings []domain.SymbolMapping) []domain.SymbolMapping {
	out := make([]domain.SymbolMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.Resolved() {
			out = append(out, m)
		}
	}
	return out
}
