package interfaces

import (
	"context"

	"github.com/ternarybob/insightx/internal/models"
)

// InsightRequest carries the computed facts an insight is generated from.
// Exactly one of Trading or Marketing is set depending on the analysis kind.
type InsightRequest struct {
	Kind     models.AnalysisKind
	Language models.Language
	Style    models.Style

	Trading   *TradingFacts
	Marketing *MarketingFacts
}

// TradingFacts is the numeric summary handed to the model for a stock
// analysis. Raw series never cross this boundary.
type TradingFacts struct {
	Symbol     string
	Period     models.Period
	Indicators *models.IndicatorSet
	Trend      *models.TrendClassification
	Stats      *models.SeriesStats
}

// MarketingFacts is the numeric summary handed to the model for a
// campaign analysis.
type MarketingFacts struct {
	KPIs    *models.KPISet
	Ranking *models.Ranking
	Summary *models.SummaryStats
}

// InsightService generates narrative commentary from computed analysis facts.
type InsightService interface {
	// Generate produces commentary for the request. A failure returns
	// models.InsightUnavailableError so callers can degrade without
	// discarding the numeric results.
	Generate(ctx context.Context, req *InsightRequest) (*models.Insight, error)

	// Summarize produces a short executive summary over an assembled
	// bundle, used by report generation.
	Summarize(ctx context.Context, bundle *models.AnalysisBundle, language models.Language) (*models.Insight, error)
}
