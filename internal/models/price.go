package models

import (
	"fmt"
	"strings"
	"time"
)

// Period is the lookback window for a price history request.
type Period string

const (
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
	Period2Years  Period = "2y"
	Period5Years  Period = "5y"
)

// Periods lists the supported lookback windows in ascending order.
func Periods() []Period {
	return []Period{Period1Month, Period3Months, Period6Months, Period1Year, Period2Years, Period5Years}
}

// ParsePeriod validates a period string. Empty input defaults to 6mo.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return Period6Months, nil
	}
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Periods() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q (supported: 1mo, 3mo, 6mo, 1y, 2y, 5y)", s)
}

// Bar is a single OHLCV observation.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an ordered-by-date price history for one symbol.
// Immutable once fetched; it lives for a single analysis request.
type PriceSeries struct {
	Symbol string `json:"symbol"`
	Period Period `json:"period"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the close prices in bar order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Validate checks the series invariants: dates strictly ascending, prices
// positive, volume non-negative, and OHLC consistency (high >= low,
// high >= max(open, close), low <= min(open, close)).
func (s *PriceSeries) Validate() error {
	for i, b := range s.Bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return &InvalidSeriesError{Index: i, Reason: "non-positive price"}
		}
		if b.Volume < 0 {
			return &InvalidSeriesError{Index: i, Reason: "negative volume"}
		}
		if b.High < b.Low {
			return &InvalidSeriesError{Index: i, Reason: "high below low"}
		}
		if b.High < b.Open || b.High < b.Close {
			return &InvalidSeriesError{Index: i, Reason: "high below open/close"}
		}
		if b.Low > b.Open || b.Low > b.Close {
			return &InvalidSeriesError{Index: i, Reason: "low above open/close"}
		}
		if i > 0 && !b.Time.After(s.Bars[i-1].Time) {
			return &InvalidSeriesError{Index: i, Reason: "dates not strictly ascending"}
		}
	}
	return nil
}
