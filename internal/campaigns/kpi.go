package campaigns

import (
	"github.com/ternarybob/insightx/internal/models"
)

// computeKPIs derives per-record metrics and the aggregate ratios. Aggregate
// ratios divide totals; they are never means of per-record ratios.
func (e *Engine) computeKPIs(table *models.CampaignTable) *models.KPISet {
	set := &models.KPISet{
		Records: make([]models.CampaignKPIs, 0, table.Len()),
	}

	for _, record := range table.Records {
		set.TotalBudget += record.Budget
		set.TotalRevenue += record.Revenue
		set.TotalClicks += record.Clicks
		set.TotalConversions += record.Conversions
	}
	set.TotalProfit = set.TotalRevenue - set.TotalBudget

	for i, record := range table.Records {
		kpis := models.CampaignKPIs{
			Index:  i,
			Name:   table.RecordName(i),
			Profit: record.Revenue - record.Budget,
		}

		kpis.ROI = recordRatio(i, "roi", "budget",
			record.Revenue-record.Budget, record.Budget, 100, &kpis.Notes)
		kpis.ConversionRate = recordRatio(i, "conversion_rate", "clicks",
			record.Conversions, record.Clicks, 100, &kpis.Notes)
		kpis.CostPerConversion = recordRatio(i, "cost_per_conversion", "conversions",
			record.Budget, record.Conversions, 1, &kpis.Notes)
		kpis.CostPerClick = recordRatio(i, "cost_per_click", "clicks",
			record.Budget, record.Clicks, 1, &kpis.Notes)
		kpis.RevenuePerClick = recordRatio(i, "revenue_per_click", "clicks",
			record.Revenue, record.Clicks, 1, &kpis.Notes)
		kpis.ProfitMargin = recordRatio(i, "profit_margin", "revenue",
			kpis.Profit, record.Revenue, 100, &kpis.Notes)
		kpis.ClickShare = recordRatio(i, "click_share", "total clicks",
			record.Clicks, set.TotalClicks, 100, &kpis.Notes)

		set.Records = append(set.Records, kpis)
	}

	if set.TotalBudget > 0 {
		set.OverallROI = models.DefinedMetric((set.TotalRevenue - set.TotalBudget) / set.TotalBudget * 100)
	}
	if set.TotalClicks > 0 {
		set.OverallConversionRate = models.DefinedMetric(set.TotalConversions / set.TotalClicks * 100)
	}

	return set
}

// recordRatio computes numerator/divisor*scale. A zero divisor leaves the
// metric undefined for that record and appends a note; the batch continues.
func recordRatio(row int, metric, divisorName string, numerator, divisor, scale float64, notes *[]string) models.Metric {
	if divisor == 0 {
		err := &models.DivisionUndefinedError{Row: row + 1, Metric: metric, Divisor: divisorName}
		*notes = append(*notes, err.Error())
		return models.UndefinedMetric()
	}
	return models.DefinedMetric(numerator / divisor * scale)
}
