package app

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"marketquotes/internal/application/service/pipeline"
	"marketquotes/internal/config"
	domain "marketquotes/internal/domain/entity/quotes"
	"marketquotes/internal/infrastructure/tabular"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	calls   atomic.Int32
	symbols map[string]string
}

func (r *countingResolver) Resolve(_ context.Context, name string) (string, bool) {
	r.calls.Add(1)
	symbol, ok := r.symbols[name]
	return symbol, ok
}

type countingFetcher struct {
	calls atomic.Int32
}

func (f *countingFetcher) Fetch(_ context.Context, symbol, identifier string) domain.QuoteRecord {
	f.calls.Add(1)
	return domain.QuoteRecord{
		Identifier:   identifier,
		Symbol:       symbol,
		CurrentPrice: domain.NewMetric(100.5),
		Week52High:   domain.NewMetric(120),
		Week52Low:    domain.NewMetric(80),
		TodayHigh:    domain.NewMetric(101.46),
		TodayLow:     domain.NewMetric(98.99),
		FetchedAt:    time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Status:       domain.StatusOK,
	}
}

var reportCompanies = []domain.CompanyRecord{
	{Identifier: "INE000A01", Name: "Example Corp"},
	{Identifier: "INE000B01", Name: "Unknown Co"},
}

func newReportFixture(t *testing.T) (*countingResolver, *countingFetcher, *pipeline.Service, *logrus.Logger) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	resolver := &countingResolver{symbols: map[string]string{"Example Corp": "EXMP.NS"}}
	fetcher := &countingFetcher{}
	svc := pipeline.NewService(resolver, fetcher, logrus.NewEntry(logger), pipeline.WithWorkers(2, 2))
	return resolver, fetcher, svc, logger
}

func TestProduceReport_ReusesMappingFile(t *testing.T) {
	resolver, fetcher, svc, logger := newReportFixture(t)
	path := filepath.Join(t.TempDir(), "Tickers.csv")
	require.NoError(t, tabular.WriteMappingsFile(path, []domain.SymbolMapping{
		domain.NewMapping(domain.CompanyRecord{Identifier: "INE000Z01", Name: "Stored Corp"}, "STOR.BO"),
	}))

	report, err := ProduceReport(context.Background(), config.FilesConfig{TickersCSV: path}, svc, reportCompanies, logger)

	require.NoError(t, err)
	assert.Zero(t, resolver.calls.Load())
	assert.EqualValues(t, 1, fetcher.calls.Load())
	require.Len(t, report.Quotes, 1)
	assert.Equal(t, "INE000Z01", report.Quotes[0].Identifier)
	assert.Equal(t, "STOR.BO", report.Quotes[0].Symbol)
}

func TestProduceReport_ResolvesWhenFileMissing(t *testing.T) {
	resolver, fetcher, svc, logger := newReportFixture(t)
	path := filepath.Join(t.TempDir(), "Tickers.csv")

	report, err := ProduceReport(context.Background(), config.FilesConfig{TickersCSV: path}, svc, reportCompanies, logger)

	require.NoError(t, err)
	assert.EqualValues(t, 2, resolver.calls.Load())
	assert.EqualValues(t, 1, fetcher.calls.Load())
	require.Len(t, report.Quotes, 1)
	assert.Equal(t, "EXMP.NS", report.Quotes[0].Symbol)

	saved, err := tabular.ReadMappingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.SymbolMapping{report.Mappings[0]}, saved)
}

func TestProduceReport_RefreshIgnoresExistingFile(t *testing.T) {
	resolver, _, svc, logger := newReportFixture(t)
	path := filepath.Join(t.TempDir(), "Tickers.csv")
	require.NoError(t, tabular.WriteMappingsFile(path, []domain.SymbolMapping{
		domain.NewMapping(domain.CompanyRecord{Identifier: "INE000Z01", Name: "Stored Corp"}, "STOR.BO"),
	}))

	report, err := ProduceReport(context.Background(), config.FilesConfig{TickersCSV: path, RefreshTickers: true}, svc, reportCompanies, logger)

	require.NoError(t, err)
	assert.EqualValues(t, 2, resolver.calls.Load())
	require.Len(t, report.Quotes, 1)
	assert.Equal(t, "EXMP.NS", report.Quotes[0].Symbol)

	saved, err := tabular.ReadMappingsFile(path)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "INE000A01", saved[0].Identifier)
	assert.Equal(t, "EXMP.NS", saved[0].Symbol.String)
}

func TestProduceReport_UnreadableFile(t *testing.T) {
	resolver, _, svc, logger := newReportFixture(t)
	path := filepath.Join(t.TempDir(), "Tickers.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := ProduceReport(context.Background(), config.FilesConfig{TickersCSV: path}, svc, reportCompanies, logger)

	assert.ErrorIs(t, err, tabular.ErrEmptyFile)
	assert.Zero(t, resolver.calls.Load())
}
