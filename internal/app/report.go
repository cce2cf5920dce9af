package app

import (
	"context"
	"errors"
	"io/fs"

	"marketquotes/internal/application/service/pipeline"
	"marketquotes/internal/config"
	domain "marketquotes/internal/domain/entity/quotes"
	"marketquotes/internal/infrastructure/tabular"

	"github.com/sirupsen/logrus"
)

// ProduceReport reuses the ticker mapping file when present, unless a
// refresh was requested. A fresh resolution rewrites the file.
func ProduceReport(ctx context.Context, files config.FilesConfig, svc *pipeline.Service, companies []domain.CompanyRecord, logger *logrus.Logger) (*pipeline.Report, error) {
	path := files.TickersCSV
	if !files.RefreshTickers {
		mappings, err := tabular.ReadMappingsFile(path)
		switch {
		case err == nil:
			logger.WithField("mappings", len(mappings)).Infof("reusing %s", path)
			return svc.RunMappings(ctx, mappings), nil
		case errors.Is(err, fs.ErrNotExist):
			logger.Infof("%s not found, resolving symbols", path)
		default:
			return nil, err
		}
	}

	report := svc.Run(ctx, companies)
	if err := tabular.WriteMappingsFile(path, report.Mappings); err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"resolved": report.Resolved(),
		"dropped":  report.Dropped(),
	}).Infof("saved %s", path)
	return report, nil
}
