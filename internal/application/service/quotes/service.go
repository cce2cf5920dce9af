package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "marketquotes/internal/domain/entity/quotes"
	interfaces "marketquotes/internal/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultHistoryRange covers the last two sessions so a fetch made before
// the open still sees the previous session.
const DefaultHistoryRange = "2d"

// Service builds quote records from a market data provider.
type Service struct {
	provider     interfaces.QuoteProvider
	historyRange string
	now          func() time.Time
	logger       *logrus.Entry
}

var _ interfaces.QuoteFetcher = (*Service)(nil)

type Option func(*Service)

func WithHistoryRange(r string) Option {
	return func(s *Service) {
		if r = strings.TrimSpace(r); r != "" {
			s.historyRange = r
		}
	}
}

// WithClock overrides the wall clock used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(provider interfaces.QuoteProvider, logger *logrus.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Service{
		provider:     provider,
		historyRange: DefaultHistoryRange,
		now:          time.Now,
		logger:       logger.WithField("component", "quote_fetcher"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns the quote record for symbol. It never fails: a blank symbol
// gives an invalid_symbol record without touching the provider, a provider
// failure gives an error record, and missing fields degrade to unavailable.
func (s *Service) Fetch(ctx context.Context, symbol, identifier string) (record domain.QuoteRecord) {
	if strings.TrimSpace(symbol) == "" {
		return domain.InvalidSymbolRecord(identifier, symbol, s.now())
	}
	log := s.logger.WithFields(logrus.Fields{"symbol": symbol, "identifier": identifier})

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("quote provider panicked")
			record = domain.ErrorRecord(identifier, symbol, s.now())
		}
	}()

	snapshot, sessions, err := s.load(ctx, symbol)
	if err != nil {
		log.WithError(err).Warn("quote lookup failed")
		return domain.ErrorRecord(identifier, symbol, s.now())
	}

	todayHigh, todayLow := domain.Unavailable(), domain.Unavailable()
	if n := len(sessions); n > 0 {
		latest := sessions[n-1]
		todayHigh = domain.NewMetric(round2(latest.High))
		todayLow = domain.NewMetric(round2(latest.Low))
	} else {
		log.Debug("no recent sessions")
	}

	return domain.QuoteRecord{
		Identifier:   identifier,
		Symbol:       symbol,
		CurrentPrice: domain.FromNullFloat(snapshot.RegularMarketPrice),
		Week52High:   domain.FromNullFloat(snapshot.FiftyTwoWeekHigh),
		Week52Low:    domain.FromNullFloat(snapshot.FiftyTwoWeekLow),
		TodayHigh:    todayHigh,
		TodayLow:     todayLow,
		FetchedAt:    s.now(),
		Status:       domain.StatusOK,
	}
}

// load prefers a single round trip when the provider supports it.
func (s *Service) load(ctx context.Context, symbol string) (domain.Snapshot, []domain.Session, error) {
	if loader, ok := s.provider.(interfaces.QuoteLoader); ok {
		return loader.Load(ctx, symbol, s.historyRange)
	}

	snapshot, err := s.provider.Snapshot(ctx, symbol)
	if err != nil {
		return domain.Snapshot{}, nil, fmt.Errorf("snapshot: %w", err)
	}
	sessions, err := s.provider.History(ctx, symbol, s.historyRange)
	if err != nil {
		return domain.Snapshot{}, nil, fmt.Errorf("history: %w", err)
	}
	return snapshot, sessions, nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
