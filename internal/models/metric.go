package models

import (
	"encoding/json"
	"math"
)

// Metric is a numeric value that may be undefined (division by zero,
// insufficient history). Undefined metrics marshal to JSON null so
// downstream consumers never see sentinel strings or NaN.
type Metric struct {
	Value   float64
	Defined bool
}

// DefinedMetric wraps a concrete value.
func DefinedMetric(v float64) Metric {
	return Metric{Value: v, Defined: true}
}

// UndefinedMetric is the absent-value marker.
func UndefinedMetric() Metric {
	return Metric{}
}

// Float64 returns the value, or NaN when undefined.
func (m Metric) Float64() float64 {
	if !m.Defined {
		return math.NaN()
	}
	return m.Value
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Metric{Value: v, Defined: true}
	return nil
}

// Series is an indicator series aligned to its source PriceSeries. The
// warm-up prefix is NaN; NaN marshals to JSON null.
type Series []float64

func (s Series) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(s))
	for i := range s {
		if !math.IsNaN(s[i]) && !math.IsInf(s[i], 0) {
			v := s[i]
			out[i] = &v
		}
	}
	return json.Marshal(out)
}

func (s *Series) UnmarshalJSON(data []byte) error {
	var in []*float64
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := make(Series, len(in))
	for i, v := range in {
		if v == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *v
		}
	}
	*s = out
	return nil
}

// Last returns the final value of the series as a Metric; undefined when the
// series is empty or ends in NaN.
func (s Series) Last() Metric {
	if len(s) == 0 {
		return UndefinedMetric()
	}
	v := s[len(s)-1]
	if math.IsNaN(v) {
		return UndefinedMetric()
	}
	return DefinedMetric(v)
}
