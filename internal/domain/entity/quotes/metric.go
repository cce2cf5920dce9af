package quotes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MetricState tells whether a Metric holds a real number or a sentinel.
type MetricState uint8

const (
	MetricValue MetricState = iota
	MetricUnavailable
	MetricError
	MetricInvalid
)

const (
	UnavailableText = "N/A"
	ErrorText       = "Error"
	InvalidText     = "Invalid"
)

func (s MetricState) String() string {
	switch s {
	case MetricValue:
		return "value"
	case MetricUnavailable:
		return "unavailable"
	case MetricError:
		return "error"
	case MetricInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("MetricState(%d)", uint8(s))
	}
}

// Metric is a single quote figure. Only MetricValue carries a number; the
// sentinel states never expose one.
type Metric struct {
	State MetricState
	Value float64
}

func NewMetric(v float64) Metric { return Metric{State: MetricValue, Value: v} }
func Unavailable() Metric        { return Metric{State: MetricUnavailable} }
func Failed() Metric             { return Metric{State: MetricError} }
func Invalid() Metric            { return Metric{State: MetricInvalid} }

// Float returns the number and true for MetricValue, 0 and false otherwise.
func (m Metric) Float() (float64, bool) {
	if m.State != MetricValue {
		return 0, false
	}
	return m.Value, true
}

func (m Metric) IsValue() bool { return m.State == MetricValue }

// String renders the metric the way it appears in exported tables.
func (m Metric) String() string {
	switch m.State {
	case MetricValue:
		return strconv.FormatFloat(m.Value, 'f', -1, 64)
	case MetricUnavailable:
		return UnavailableText
	case MetricError:
		return ErrorText
	case MetricInvalid:
		return InvalidText
	default:
		return ""
	}
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if m.State == MetricValue {
		return json.Marshal(m.Value)
	}
	return json.Marshal(m.String())
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		switch text {
		case UnavailableText:
			*m = Unavailable()
		case ErrorText:
			*m = Failed()
		case InvalidText:
			*m = Invalid()
		default:
			return fmt.Errorf("unknown metric placeholder %q", text)
		}
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*m = Unavailable()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode metric: %w", err)
	}
	*m = NewMetric(v)
	return nil
}
