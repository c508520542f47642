package interfaces

import (
	"context"

	"github.com/ternarybob/insightx/internal/models"
)

// ReportRequest selects which analysis results feed a report. Any subset
// may be present; sections for absent results are omitted.
type ReportRequest struct {
	Title    string
	Language models.Language

	Trading   *TradingFacts
	Marketing *MarketingFacts

	TradingInsight   *models.Insight
	MarketingInsight *models.Insight

	// IncludeSummary requests an executive summary section. Summary
	// failure degrades to omitting the section, never to a report error.
	IncludeSummary bool
}

// ReportService assembles analysis results into rendered documents.
type ReportService interface {
	// BuildMarkdown assembles the report as markdown.
	BuildMarkdown(ctx context.Context, req *ReportRequest) (string, error)

	// BuildPDF assembles the report and renders it to PDF bytes.
	BuildPDF(ctx context.Context, req *ReportRequest) ([]byte, error)
}
