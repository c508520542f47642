package campaigns

import (
	"github.com/ternarybob/insightx/internal/models"
)

// rank selects argmax/argmin per ranked metric over defined records only.
// Ties resolve to the earliest row index.
func rank(set *models.KPISet) *models.Ranking {
	ranking := &models.Ranking{}

	ranking.BestROI, ranking.WorstROI = extremes(set.Records, func(r models.CampaignKPIs) models.Metric {
		return r.ROI
	})
	ranking.BestConversionRate, ranking.WorstConversionRate = extremes(set.Records, func(r models.CampaignKPIs) models.Metric {
		return r.ConversionRate
	})
	ranking.MostProfitable, ranking.LeastProfitable = extremes(set.Records, func(r models.CampaignKPIs) models.Metric {
		return models.DefinedMetric(r.Profit)
	})

	return ranking
}

// extremes walks the records once, keeping the first-seen max and min of the
// selected metric. Undefined values are skipped; nil results mean no record
// had the metric defined.
func extremes(records []models.CampaignKPIs, metric func(models.CampaignKPIs) models.Metric) (best, worst *models.RankedRecord) {
	for _, record := range records {
		m := metric(record)
		if !m.Defined {
			continue
		}
		if best == nil || m.Value > best.Value {
			best = &models.RankedRecord{Index: record.Index, Name: record.Name, Value: m.Value}
		}
		if worst == nil || m.Value < worst.Value {
			worst = &models.RankedRecord{Index: record.Index, Name: record.Name, Value: m.Value}
		}
	}
	return best, worst
}
