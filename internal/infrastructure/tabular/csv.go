package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	domain "marketquotes/internal/domain/entity/quotes"
)

const (
	ColumnIdentifier  = "ISIN"
	ColumnCompanyName = "COMPANYNAME"
	ColumnSymbol      = "YAHOO_SYMBOL"
)

var (
	ErrMissingCompanyColumn = errors.New("COMPANYNAME column not found")
	ErrMissingSymbolColumn  = errors.New("YAHOO_SYMBOL column not found")
	ErrEmptyFile            = errors.New("file has no header row")
)

// LoadCompanies reads the master company list. Header names are trimmed and
// upper-cased before lookup; COMPANYNAME is required and ISIN optional.
// Rows with a blank company name are kept so stage one reports them as
// unresolved.
func LoadCompanies(r io.Reader) ([]domain.CompanyRecord, error) {
	rows, header, err := readTable(r)
	if err != nil {
		return nil, err
	}
	nameCol, ok := header[ColumnCompanyName]
	if !ok {
		return nil, ErrMissingCompanyColumn
	}
	idCol, hasID := header[ColumnIdentifier]

	companies := make([]domain.CompanyRecord, 0, len(rows))
	for _, row := range rows {
		c := domain.CompanyRecord{Name: strings.TrimSpace(cell(row, nameCol))}
		if hasID {
			c.Identifier = strings.TrimSpace(cell(row, idCol))
		}
		companies = append(companies, c)
	}
	return companies, nil
}

func LoadCompaniesFile(path string) ([]domain.CompanyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	companies, err := LoadCompanies(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return companies, nil
}

// WriteMappings writes resolved mappings as ISIN,COMPANYNAME,YAHOO_SYMBOL.
// Unresolved mappings are left out.
func WriteMappings(w io.Writer, mappings []domain.SymbolMapping) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnIdentifier, ColumnCompanyName, ColumnSymbol}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range mappings {
		if !m.Resolved() {
			continue
		}
		if err := cw.Write([]string{m.Identifier, m.CompanyName, m.Symbol.String}); err != nil {
			return fmt.Errorf("write row for %q: %w", m.CompanyName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteMappingsFile(path string, mappings []domain.SymbolMapping) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return WriteMappings(f, mappings)
}

// ReadMappings reads a file produced by WriteMappings. Rows with an empty
// symbol come back unresolved.
func ReadMappings(r io.Reader) ([]domain.SymbolMapping, error) {
	rows, header, err := readTable(r)
	if err != nil {
		return nil, err
	}
	symCol, ok := header[ColumnSymbol]
	if !ok {
		return nil, ErrMissingSymbolColumn
	}
	nameCol, hasName := header[ColumnCompanyName]
	idCol, hasID := header[ColumnIdentifier]

	mappings := make([]domain.SymbolMapping, 0, len(rows))
	for _, row := range rows {
		var c domain.CompanyRecord
		if hasName {
			c.Name = strings.TrimSpace(cell(row, nameCol))
		}
		if hasID {
			c.Identifier = strings.TrimSpace(cell(row, idCol))
		}
		mappings = append(mappings, domain.NewMapping(c, cell(row, symCol)))
	}
	return mappings, nil
}

func ReadMappingsFile(path string) ([]domain.SymbolMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	mappings, err := ReadMappings(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return mappings, nil
}

func readTable(r io.Reader) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, ErrEmptyFile
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		name = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}
	return records[1:], header, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
