package symbols

import (
	"context"
	"strings"

	interfaces "marketquotes/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// DefaultExchanges are the Yahoo codes for the National Stock Exchange of
// India and the Bombay Stock Exchange.
var DefaultExchanges = []string{"NSI", "BSE"}

// Service resolves company names to exchange-qualified ticker symbols.
type Service struct {
	searcher  interfaces.SymbolSearcher
	cache     interfaces.SymbolCache
	exchanges map[string]struct{}
	logger    *logrus.Entry
}

var _ interfaces.SymbolResolver = (*Service)(nil)

type Option func(*Service)

// WithExchanges replaces the accepted exchange set.
func WithExchanges(codes ...string) Option {
	return func(s *Service) {
		set := make(map[string]struct{}, len(codes))
		for _, code := range codes {
			if code = strings.TrimSpace(code); code != "" {
				set[code] = struct{}{}
			}
		}
		if len(set) > 0 {
			s.exchanges = set
		}
	}
}

// WithCache puts a look-aside cache in front of the searcher.
func WithCache(cache interfaces.SymbolCache) Option {
	return func(s *Service) { s.cache = cache }
}

func NewService(searcher interfaces.SymbolSearcher, logger *logrus.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Service{
		searcher: searcher,
		logger:   logger.WithField("component", "symbol_resolver"),
	}
	WithExchanges(DefaultExchanges...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the symbol of the first search candidate listed on an
// accepted exchange. Every failure, including a blank name, is reported as
// ("", false).
func (s *Service) Resolve(ctx context.Context, companyName string) (symbol string, ok bool) {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return "", false
	}
	log := s.logger.WithField("company", name)

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("symbol search panicked")
			symbol, ok = "", false
		}
	}()

	if cached, hit := s.lookupCache(ctx, log, name); hit {
		return cached, true
	}

	candidates, err := s.searcher.Search(ctx, name)
	if err != nil {
		log.WithError(err).Debug("symbol search failed")
		return "", false
	}

	symbol, ok = s.selectSymbol(candidates)
	if !ok {
		log.WithField("candidates", len(candidates)).Debug("no candidate on an accepted exchange")
		return "", false
	}

	if s.cache != nil {
		if err := s.cache.SetSymbol(ctx, name, symbol); err != nil {
			log.WithError(err).Warn("symbol cache write failed")
		}
	}
	return symbol, true
}

func (s *Service) lookupCache(ctx context.Context, log *logrus.Entry, name string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	symbol, hit, err := s.cache.GetSymbol(ctx, name)
	if err != nil {
		log.WithError(err).Warn("symbol cache read failed")
		return "", false
	}
	if !hit || symbol == "" {
		return "", false
	}
	return symbol, true
}
