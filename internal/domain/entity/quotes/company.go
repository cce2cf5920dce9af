package quotes

import (
	"strings"

	"github.com/guregu/null/v6"
)

// CompanyRecord is one row of the reference list. Identifier is the external
// reference code (ISIN in the NSE master file) and may be empty.
type CompanyRecord struct {
	Identifier string `json:"identifier"`
	Name       string `json:"company_name"`
}

// SymbolMapping ties a company to the ticker symbol found for it.
// An invalid Symbol means the company could not be resolved.
type SymbolMapping struct {
	Identifier  string      `json:"identifier"`
	CompanyName string      `json:"company_name"`
	Symbol      null.String `json:"symbol"`
}

// NewMapping builds a mapping for company. An empty symbol yields an
// unresolved mapping.
func NewMapping(company CompanyRecord, symbol string) SymbolMapping {
	symbol = strings.TrimSpace(symbol)
	return SymbolMapping{
		Identifier:  company.Identifier,
		CompanyName: company.Name,
		Symbol:      null.NewString(symbol, symbol != ""),
	}
}

// Resolved reports whether the mapping carries a symbol.
func (m SymbolMapping) Resolved() bool {
	return m.Symbol.Valid && m.Symbol.String != ""
}

// Candidate is a single hit returned by the symbol search endpoint.
type Candidate struct {
	Exchange  string  `json:"exchange"`
	Symbol    string  `json:"symbol"`
	ShortName string  `json:"shortname"`
	LongName  string  `json:"longname"`
	QuoteType string  `json:"quoteType"`
	Score     float64 `json:"score"`
}
