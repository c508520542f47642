package campaigns

import (
	"math"
	"sort"

	"github.com/ternarybob/insightx/internal/models"
)

// summarize computes descriptive statistics for the four input columns.
func summarize(table *models.CampaignTable) *models.SummaryStats {
	budgets := make([]float64, table.Len())
	clicks := make([]float64, table.Len())
	conversions := make([]float64, table.Len())
	revenues := make([]float64, table.Len())
	for i, r := range table.Records {
		budgets[i] = r.Budget
		clicks[i] = r.Clicks
		conversions[i] = r.Conversions
		revenues[i] = r.Revenue
	}

	return &models.SummaryStats{
		Budget:      columnStats(budgets),
		Clicks:      columnStats(clicks),
		Conversions: columnStats(conversions),
		Revenue:     columnStats(revenues),
	}
}

func columnStats(values []float64) models.ColumnStats {
	if len(values) == 0 {
		return models.ColumnStats{}
	}

	stats := models.ColumnStats{Min: values[0], Max: values[0]}
	for _, v := range values {
		stats.Total += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Mean = stats.Total / float64(len(values))
	stats.Median = median(values)

	if len(values) > 1 {
		var sum float64
		for _, v := range values {
			d := v - stats.Mean
			sum += d * d
		}
		stats.StdDev = math.Sqrt(sum / float64(len(values)-1))
	}

	return stats
}

// median sorts a copy; input order is never disturbed.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
