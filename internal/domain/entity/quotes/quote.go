package quotes

import (
	"time"

	"github.com/guregu/null/v6"
)

type Status string

const (
	StatusOK            Status = "ok"
	StatusInvalidSymbol Status = "invalid_symbol"
	StatusError         Status = "error"
)

// TimestampLayout is how FetchedAt is rendered in exported tables.
const TimestampLayout = "2006-01-02 15:04:05"

// QuoteRecord is the stage-two result for one resolved symbol.
type QuoteRecord struct {
	Identifier   string    `json:"identifier"`
	Symbol       string    `json:"symbol"`
	CurrentPrice Metric    `json:"current_price"`
	Week52High   Metric    `json:"week52_high"`
	Week52Low    Metric    `json:"week52_low"`
	TodayHigh    Metric    `json:"today_high"`
	TodayLow     Metric    `json:"today_low"`
	FetchedAt    time.Time `json:"fetched_at"`
	Status       Status    `json:"status"`
}

// InvalidSymbolRecord is returned for symbols rejected before any network call.
func InvalidSymbolRecord(identifier, symbol string, at time.Time) QuoteRecord {
	return filledRecord(identifier, symbol, Invalid(), StatusInvalidSymbol, at)
}

// ErrorRecord is returned when the provider call failed as a whole.
func ErrorRecord(identifier, symbol string, at time.Time) QuoteRecord {
	return filledRecord(identifier, symbol, Failed(), StatusError, at)
}

func filledRecord(identifier, symbol string, m Metric, status Status, at time.Time) QuoteRecord {
	return QuoteRecord{
		Identifier:   identifier,
		Symbol:       symbol,
		CurrentPrice: m,
		Week52High:   m,
		Week52Low:    m,
		TodayHigh:    m,
		TodayLow:     m,
		FetchedAt:    at,
		Status:       status,
	}
}

// Snapshot is the provider's point-in-time summary for a symbol. Fields the
// provider did not send are left invalid.
type Snapshot struct {
	RegularMarketPrice null.Float `json:"regularMarketPrice"`
	FiftyTwoWeekHigh   null.Float `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow    null.Float `json:"fiftyTwoWeekLow"`
}

// Session is one trading session of OHLC data.
type Session struct {
	Date  time.Time `json:"date"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// FromNullFloat maps an optional provider field to a Metric.
func FromNullFloat(f null.Float) Metric {
	if !f.Valid {
		return Unavailable()
	}
	return NewMetric(f.Float64)
}
