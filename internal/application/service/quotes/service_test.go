package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "marketquotes/internal/domain/entity/quotes"
	interfaces "marketquotes/internal/domain/interfaces"

	"github.com/guregu/null/v6"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type mockProvider struct {
	snapshotCalls int
	historyCalls  int
	lastPeriod    string

	snapshotFunc func(ctx context.Context, symbol string) (domain.Snapshot, error)
	historyFunc  func(ctx context.Context, symbol, period string) ([]domain.Session, error)
}

func (m *mockProvider) Snapshot(ctx context.Context, symbol string) (domain.Snapshot, error) {
	m.snapshotCalls++
	if m.snapshotFunc != nil {
		return m.snapshotFunc(ctx, symbol)
	}
	return domain.Snapshot{}, nil
}

func (m *mockProvider) History(ctx context.Context, symbol, period string) ([]domain.Session, error) {
	m.historyCalls++
	m.lastPeriod = period
	if m.historyFunc != nil {
		return m.historyFunc(ctx, symbol, period)
	}
	return nil, nil
}

type mockLoader struct {
	mockProvider
	loadCalls int
	loadFunc  func(ctx context.Context, symbol, period string) (domain.Snapshot, []domain.Session, error)
}

func (m *mockLoader) Load(ctx context.Context, symbol, period string) (domain.Snapshot, []domain.Session, error) {
	m.loadCalls++
	m.lastPeriod = period
	return m.loadFunc(ctx, symbol, period)
}

var fixedNow = time.Date(2026, time.March, 2, 15, 4, 5, 0, time.Local)

func newTestService(p interfaces.QuoteProvider, opts ...Option) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(p, logrus.NewEntry(logger), opts...)
}

func snapshotOf(price, high, low null.Float) func(context.Context, string) (domain.Snapshot, error) {
	return func(context.Context, string) (domain.Snapshot, error) {
		return domain.Snapshot{RegularMarketPrice: price, FiftyTwoWeekHigh: high, FiftyTwoWeekLow: low}, nil
	}
}

func sessionsOf(sessions ...domain.Session) func(context.Context, string, string) ([]domain.Session, error) {
	return func(context.Context, string, string) ([]domain.Session, error) {
		return sessions, nil
	}
}

func TestFetch_FullRecord(t *testing.T) {
	p := &mockProvider{
		snapshotFunc: snapshotOf(null.FloatFrom(100.5), null.FloatFrom(120), null.FloatFrom(80)),
		historyFunc:  sessionsOf(domain.Session{High: 101, Low: 99}),
	}

	rec := newTestService(p).Fetch(context.Background(), "EXMP.NS", "A1")

	assert.Equal(t, domain.QuoteRecord{
		Identifier:   "A1",
		Symbol:       "EXMP.NS",
		CurrentPrice: domain.NewMetric(100.5),
		Week52High:   domain.NewMetric(120),
		Week52Low:    domain.NewMetric(80),
		TodayHigh:    domain.NewMetric(101),
		TodayLow:     domain.NewMetric(99),
		FetchedAt:    fixedNow,
		Status:       domain.StatusOK,
	}, rec)
	assert.Equal(t, DefaultHistoryRange, p.lastPeriod)
}

func TestFetch_InvalidSymbolMakesNoCalls(t *testing.T) {
	for _, symbol := range []string{"", "   ", "\t"} {
		p := &mockProvider{}
		rec := newTestService(p).Fetch(context.Background(), symbol, "A1")

		assert.Equal(t, domain.StatusInvalidSymbol, rec.Status)
		for _, m := range []domain.Metric{rec.CurrentPrice, rec.Week52High, rec.Week52Low, rec.TodayHigh, rec.TodayLow} {
			assert.Equal(t, domain.MetricInvalid, m.State)
		}
		assert.Zero(t, p.snapshotCalls)
		assert.Zero(t, p.historyCalls)
		assert.Equal(t, fixedNow, rec.FetchedAt)
	}
}

func TestFetch_PartialSnapshotDegradesPerField(t *testing.T) {
	p := &mockProvider{
		snapshotFunc: snapshotOf(null.FloatFrom(100.5), null.Float{}, null.FloatFrom(80)),
		historyFunc:  sessionsOf(domain.Session{High: 101, Low: 99}),
	}

	rec := newTestService(p).Fetch(context.Background(), "EXMP.NS", "A1")

	assert.Equal(t, domain.StatusOK, rec.Status)
	assert.Equal(t, domain.Unavailable(), rec.Week52High)
	assert.Equal(t, domain.NewMetric(100.5), rec.CurrentPrice)
	assert.Equal(t, domain.NewMetric(80), rec.Week52Low)
	assert.Equal(t, domain.NewMetric(101), rec.TodayHigh)
}

func TestFetch_EmptyHistoryIsNotAnError(t *testing.T) {
	p := &mockProvider{
		snapshotFunc: snapshotOf(null.FloatFrom(55), null.FloatFrom(60), null.FloatFrom(40)),
	}

	rec := newTestService(p).Fetch(context.Background(), "HOLI.NS", "B2")

	assert.Equal(t, domain.StatusOK, rec.Status)
	assert.Equal(t, domain.Unavailable(), rec.TodayHigh)
	assert.Equal(t, domain.Unavailable(), rec.TodayLow)
	assert.Equal(t, domain.NewMetric(55), rec.CurrentPrice)
}

func TestFetch_UsesMostRecentSessionRounded(t *testing.T) {
	p := &mockProvider{
		historyFunc: sessionsOf(
			domain.Session{High: 90, Low: 80},
			domain.Session{High: 101.456, Low: 98.994},
		),
	}

	rec := newTestService(p, WithHistoryRange("5d")).Fetch(context.Background(), "EXMP.NS", "A1")

	assert.Equal(t, domain.NewMetric(101.46), rec.TodayHigh)
	assert.Equal(t, domain.NewMetric(98.99), rec.TodayLow)
	assert.Equal(t, "5d", p.lastPeriod)
	assert.Equal(t, domain.Unavailable(), rec.CurrentPrice)
}

func TestFetch_ProviderFailures(t *testing.T) {
	errUpstream := errors.New("upstream unavailable")
	tests := []struct {
		name     string
		provider *mockProvider
	}{
		{
			name: "snapshot error",
			provider: &mockProvider{snapshotFunc: func(context.Context, string) (domain.Snapshot, error) {
				return domain.Snapshot{}, errUpstream
			}},
		},
		{
			name: "history error",
			provider: &mockProvider{
				snapshotFunc: snapshotOf(null.FloatFrom(1), null.FloatFrom(2), null.FloatFrom(0.5)),
				historyFunc: func(context.Context, string, string) ([]domain.Session, error) {
					return nil, context.DeadlineExceeded
				},
			},
		},
		{
			name: "provider panics",
			provider: &mockProvider{snapshotFunc: func(context.Context, string) (domain.Snapshot, error) {
				panic("nil map")
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestService(tt.provider).Fetch(context.Background(), "EXMP.NS", "A1")

			assert.Equal(t, domain.StatusError, rec.Status)
			assert.Equal(t, "EXMP.NS", rec.Symbol)
			assert.Equal(t, "A1", rec.Identifier)
			for _, m := range []domain.Metric{rec.CurrentPrice, rec.Week52High, rec.Week52Low, rec.TodayHigh, rec.TodayLow} {
				assert.Equal(t, domain.MetricError, m.State)
				assert.NotEqual(t, domain.Unavailable(), m)
			}
		})
	}
}

func TestFetch_PrefersSingleLoad(t *testing.T) {
	p := &mockLoader{loadFunc: func(context.Context, string, string) (domain.Snapshot, []domain.Session, error) {
		return domain.Snapshot{
			RegularMarketPrice: null.FloatFrom(100.5),
			FiftyTwoWeekHigh:   null.FloatFrom(120),
			FiftyTwoWeekLow:    null.FloatFrom(80),
		}, []domain.Session{{High: 101.456, Low: 98.994}}, nil
	}}

	rec := newTestService(p).Fetch(context.Background(), "EXMP.NS", "A1")

	assert.Equal(t, domain.StatusOK, rec.Status)
	assert.Equal(t, domain.NewMetric(100.5), rec.CurrentPrice)
	assert.Equal(t, domain.NewMetric(101.46), rec.TodayHigh)
	assert.Equal(t, domain.NewMetric(98.99), rec.TodayLow)
	assert.Equal(t, 1, p.loadCalls)
	assert.Equal(t, DefaultHistoryRange, p.lastPeriod)
	assert.Zero(t, p.snapshotCalls)
	assert.Zero(t, p.historyCalls)
}

func TestFetch_LoadFailureIsErrorRecord(t *testing.T) {
	p := &mockLoader{loadFunc: func(context.Context, string, string) (domain.Snapshot, []domain.Session, error) {
		return domain.Snapshot{}, nil, errors.New("upstream unavailable")
	}}

	rec := newTestService(p).Fetch(context.Background(), "EXMP.NS", "A1")

	assert.Equal(t, domain.StatusError, rec.Status)
	assert.Equal(t, domain.Failed(), rec.CurrentPrice)
}
