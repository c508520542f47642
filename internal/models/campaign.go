package models

import "fmt"

// Required campaign file columns, case-sensitive.
const (
	ColumnBudget      = "Budget"
	ColumnClicks      = "Clicks"
	ColumnConversions = "Conversions"
	ColumnRevenue     = "Revenue"
)

// RequiredCampaignColumns returns the mandatory header set in canonical order.
func RequiredCampaignColumns() []string {
	return []string{ColumnBudget, ColumnClicks, ColumnConversions, ColumnRevenue}
}

// CampaignRecord is one row of an uploaded campaign table. Conversions may
// exceed clicks in dirty exports; that is validated as a warning, never
// assumed away.
type CampaignRecord struct {
	Name        string  `json:"name,omitempty"`
	Budget      float64 `json:"budget" validate:"gte=0"`
	Clicks      float64 `json:"clicks" validate:"gte=0"`
	Conversions float64 `json:"conversions" validate:"gte=0"`
	Revenue     float64 `json:"revenue" validate:"gte=0"`
}

// CampaignTable is an ordered sequence of campaign records. Names are
// optional and need not be unique.
type CampaignTable struct {
	Records []CampaignRecord `json:"records"`
}

// Len returns the number of records.
func (t *CampaignTable) Len() int {
	return len(t.Records)
}

// RecordName returns the record's name, or a positional identifier when the
// upload carried no name column.
func (t *CampaignTable) RecordName(i int) string {
	if i < 0 || i >= len(t.Records) {
		return ""
	}
	if name := t.Records[i].Name; name != "" {
		return name
	}
	return fmt.Sprintf("Campaign %d", i+1)
}

// CampaignKPIs holds the derived metrics for a single record. Ratios with a
// zero divisor are undefined for that record only; Notes records why.
type CampaignKPIs struct {
	Index             int      `json:"index"`
	Name              string   `json:"name"`
	ROI               Metric   `json:"roi"`
	ConversionRate    Metric   `json:"conversion_rate"`
	CostPerConversion Metric   `json:"cost_per_conversion"`
	CostPerClick      Metric   `json:"cost_per_click"`
	RevenuePerClick   Metric   `json:"revenue_per_click"`
	ClickShare        Metric   `json:"click_share"`
	Profit            float64  `json:"profit"`
	ProfitMargin      Metric   `json:"profit_margin"`
	Notes             []string `json:"notes,omitempty"`
}

// KPISet is the full derived output for a campaign table. Aggregate ratios
// are ratios of sums, never means of per-record ratios.
type KPISet struct {
	Records []CampaignKPIs `json:"records"`

	TotalBudget      float64 `json:"total_budget"`
	TotalRevenue     float64 `json:"total_revenue"`
	TotalClicks      float64 `json:"total_clicks"`
	TotalConversions float64 `json:"total_conversions"`
	TotalProfit      float64 `json:"total_profit"`

	OverallROI            Metric `json:"overall_roi"`
	OverallConversionRate Metric `json:"overall_conversion_rate"`

	Warnings []string `json:"warnings,omitempty"`
}

// RankedRecord points at the record winning a ranked metric.
type RankedRecord struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Ranking holds argmax/argmin per ranked metric over defined records only.
// Ties resolve to the earliest row; nil when no record has the metric
// defined.
type Ranking struct {
	BestROI             *RankedRecord `json:"best_roi,omitempty"`
	WorstROI            *RankedRecord `json:"worst_roi,omitempty"`
	BestConversionRate  *RankedRecord `json:"best_conversion_rate,omitempty"`
	WorstConversionRate *RankedRecord `json:"worst_conversion_rate,omitempty"`
	MostProfitable      *RankedRecord `json:"most_profitable,omitempty"`
	LeastProfitable     *RankedRecord `json:"least_profitable,omitempty"`
}

// ColumnStats are descriptive statistics for one input column.
type ColumnStats struct {
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// SummaryStats covers the four input columns of a campaign table.
type SummaryStats struct {
	Budget      ColumnStats `json:"budget"`
	Clicks      ColumnStats `json:"clicks"`
	Conversions ColumnStats `json:"conversions"`
	Revenue     ColumnStats `json:"revenue"`
}
