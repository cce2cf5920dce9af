package tabular

import (
	"fmt"
	"io"
	"time"

	domain "marketquotes/internal/domain/entity/quotes"

	"github.com/xuri/excelize/v2"
)

const (
	QuotesSheet = "Quotes"

	invalidSymbolText = "Invalid Symbol"
	workbookPrefix    = "Yahoo_ISIN_Current_"
	workbookStamp     = "20060102_150405"
)

var workbookHeader = []any{
	"ISIN", "Symbol", "Current Price", "52-Week High", "52-Week Low",
	"Today's High", "Today's Low", "Scraped At", "Status",
}

// WorkbookName returns the timestamped output file name for a run started at t.
func WorkbookName(t time.Time) string {
	return workbookPrefix + t.Format(workbookStamp) + ".xlsx"
}

// WriteWorkbook renders records into a single-sheet workbook. Values are
// numeric cells and sentinels are text.
func WriteWorkbook(w io.Writer, records []domain.QuoteRecord) error {
	f, err := buildWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func WriteWorkbookFile(path string, records []domain.QuoteRecord) error {
	f, err := buildWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func buildWorkbook(records []domain.QuoteRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), QuotesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(QuotesSheet, "A1", &workbookHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := workbookRow(rec)
		if err := f.SetSheetRow(QuotesSheet, cellRef, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

func workbookRow(rec domain.QuoteRecord) []any {
	current := metricCell(rec.CurrentPrice)
	if rec.Status == domain.StatusInvalidSymbol {
		current = invalidSymbolText
	}
	return []any{
		rec.Identifier,
		rec.Symbol,
		current,
		metricCell(rec.Week52High),
		metricCell(rec.Week52Low),
		metricCell(rec.TodayHigh),
		metricCell(rec.TodayLow),
		rec.FetchedAt.Format(domain.TimestampLayout),
		string(rec.Status),
	}
}

func metricCell(m domain.Metric) any {
	if v, ok := m.Float(); ok {
		return v
	}
	return m.String()
}
