package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/interfaces"
	"github.com/ternarybob/insightx/internal/models"
)

// Service assembles analysis results into an ordered report document and
// renders it to markdown or PDF. Any subset of results is accepted; sections
// for absent results are omitted rather than erroring.
type Service struct {
	insights interfaces.InsightService
	pdf      interfaces.PDFService
	logger   arbor.ILogger
}

var _ interfaces.ReportService = (*Service)(nil)

// NewService creates a report service. The insight service may be nil; the
// executive summary section is then never produced.
func NewService(insightService interfaces.InsightService, pdfService interfaces.PDFService, logger arbor.ILogger) *Service {
	return &Service{
		insights: insightService,
		pdf:      pdfService,
		logger:   logger,
	}
}

// BuildMarkdown assembles the report and renders it as markdown.
func (s *Service) BuildMarkdown(ctx context.Context, req *interfaces.ReportRequest) (string, error) {
	doc, err := s.assemble(ctx, req)
	if err != nil {
		return "", err
	}
	return renderMarkdown(doc), nil
}

// BuildPDF assembles the report and renders it to PDF bytes.
func (s *Service) BuildPDF(ctx context.Context, req *interfaces.ReportRequest) ([]byte, error) {
	if s.pdf == nil {
		return nil, fmt.Errorf("no pdf renderer configured")
	}
	markdown, err := s.BuildMarkdown(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.pdf.ConvertMarkdownToPDF(markdown, resolveTitle(req))
}

func (s *Service) assemble(ctx context.Context, req *interfaces.ReportRequest) (*models.ReportDocument, error) {
	if req == nil {
		return nil, fmt.Errorf("report request is required")
	}

	doc := &models.ReportDocument{
		Title:       resolveTitle(req),
		Language:    req.Language,
		GeneratedAt: time.Now(),
	}

	if summary := s.executiveSummary(ctx, req); summary != "" {
		doc.Sections = append(doc.Sections, models.ReportSection{
			Title: "Executive Summary",
			Prose: summary,
		})
	}

	if req.Trading != nil {
		doc.Sections = append(doc.Sections, tradingSection(req.Trading))
		if req.TradingInsight != nil {
			doc.Sections = append(doc.Sections, models.ReportSection{
				Title: "Indicator Commentary",
				Prose: req.TradingInsight.Text,
			})
		}
	}

	if req.Marketing != nil {
		doc.Sections = append(doc.Sections, campaignSection(req.Marketing))
		if sec, ok := highlightsSection(req.Marketing.Ranking); ok {
			doc.Sections = append(doc.Sections, sec)
		}
		if req.MarketingInsight != nil {
			doc.Sections = append(doc.Sections, models.ReportSection{
				Title: "Campaign Commentary",
				Prose: req.MarketingInsight.Text,
			})
		}
	}

	s.logger.Debug().
		Str("title", doc.Title).
		Int("sections", len(doc.Sections)).
		Msg("Report assembled")

	return doc, nil
}

// executiveSummary asks the insight service for a cross-analysis summary.
// Produced only when both analyses are present; a generation failure omits
// the section, never the report.
func (s *Service) executiveSummary(ctx context.Context, req *interfaces.ReportRequest) string {
	if !req.IncludeSummary || req.Trading == nil || req.Marketing == nil || s.insights == nil {
		return ""
	}

	bundle := &models.AnalysisBundle{
		Symbol:     req.Trading.Symbol,
		Period:     req.Trading.Period,
		Indicators: req.Trading.Indicators,
		Trend:      req.Trading.Trend,
		Stats:      req.Trading.Stats,
		KPIs:       req.Marketing.KPIs,
		Ranking:    req.Marketing.Ranking,
		Summary:    req.Marketing.Summary,
	}

	insight, err := s.insights.Summarize(ctx, bundle, req.Language)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Executive summary unavailable, section omitted")
		return ""
	}
	return insight.Text
}

func resolveTitle(req *interfaces.ReportRequest) string {
	if strings.TrimSpace(req.Title) != "" {
		return req.Title
	}
	switch {
	case req.Trading != nil && req.Marketing == nil:
		return fmt.Sprintf("Stock Analysis: %s", req.Trading.Symbol)
	case req.Marketing != nil && req.Trading == nil:
		return "Campaign Performance Report"
	default:
		return "Analytics Report"
	}
}

func tradingSection(f *interfaces.TradingFacts) models.ReportSection {
	sec := models.ReportSection{Title: fmt.Sprintf("Stock Analysis: %s", f.Symbol)}

	sec.Facts = append(sec.Facts, models.Fact{Label: "Period", Value: string(f.Period)})

	if f.Stats != nil {
		sec.Facts = append(sec.Facts,
			models.Fact{Label: "Bars", Value: strconv.Itoa(f.Stats.Bars)},
			models.Fact{Label: "Current Price", Value: fmt.Sprintf("%.2f", f.Stats.CurrentPrice)},
			models.Fact{Label: "Change", Value: fmt.Sprintf("%+.2f%%", f.Stats.ChangePct)},
			models.Fact{Label: "Highest Close", Value: fmt.Sprintf("%.2f", f.Stats.HighestClose)},
			models.Fact{Label: "Lowest Close", Value: fmt.Sprintf("%.2f", f.Stats.LowestClose)},
		)
	}

	if f.Indicators != nil {
		latest := f.Indicators.Latest
		sec.Facts = append(sec.Facts,
			models.Fact{Label: "RSI", Value: metricString(latest.RSI, 2, "")},
			models.Fact{Label: "MACD", Value: metricString(latest.MACD, 4, "")},
			models.Fact{Label: "MACD Signal", Value: metricString(latest.MACDSignal, 4, "")},
			models.Fact{Label: "MACD Histogram", Value: metricString(latest.MACDHistogram, 4, "")},
			models.Fact{Label: "Short MA", Value: metricString(latest.ShortMA, 2, "")},
			models.Fact{Label: "Long MA", Value: metricString(latest.LongMA, 2, "")},
		)
		if f.Indicators.Volatility.Defined {
			sec.Facts = append(sec.Facts, models.Fact{
				Label: "Annualized Volatility",
				Value: fmt.Sprintf("%.1f%%", f.Indicators.Volatility.Value*100),
			})
		}
	}

	if f.Trend != nil {
		sec.Facts = append(sec.Facts,
			models.Fact{Label: "Trend", Value: string(f.Trend.Trend)},
			models.Fact{Label: "Signal", Value: string(f.Trend.Signal)},
			models.Fact{Label: "Risk", Value: string(f.Trend.Risk)},
		)
	}

	return sec
}

func campaignSection(f *interfaces.MarketingFacts) models.ReportSection {
	sec := models.ReportSection{Title: "Campaign Performance"}
	if f.KPIs == nil {
		return sec
	}

	k := f.KPIs
	sec.Facts = append(sec.Facts,
		models.Fact{Label: "Campaigns", Value: strconv.Itoa(len(k.Records))},
		models.Fact{Label: "Total Budget", Value: fmt.Sprintf("%.2f", k.TotalBudget)},
		models.Fact{Label: "Total Revenue", Value: fmt.Sprintf("%.2f", k.TotalRevenue)},
		models.Fact{Label: "Total Profit", Value: fmt.Sprintf("%.2f", k.TotalProfit)},
		models.Fact{Label: "Total Clicks", Value: fmt.Sprintf("%.0f", k.TotalClicks)},
		models.Fact{Label: "Total Conversions", Value: fmt.Sprintf("%.0f", k.TotalConversions)},
		models.Fact{Label: "Overall ROI", Value: metricString(k.OverallROI, 2, "%")},
		models.Fact{Label: "Overall Conversion Rate", Value: metricString(k.OverallConversionRate, 2, "%")},
	)

	if len(k.Records) > 0 {
		table := &models.ReportTable{
			Header: []string{"Campaign", "ROI", "Conv. Rate", "Cost/Conv.", "Profit", "Margin"},
		}
		for _, rec := range k.Records {
			table.Rows = append(table.Rows, []string{
				rec.Name,
				metricString(rec.ROI, 2, "%"),
				metricString(rec.ConversionRate, 2, "%"),
				metricString(rec.CostPerConversion, 2, ""),
				fmt.Sprintf("%.2f", rec.Profit),
				metricString(rec.ProfitMargin, 2, "%"),
			})
		}
		sec.Table = table
	}

	if len(k.Warnings) > 0 {
		var w strings.Builder
		w.WriteString("Data warnings:\n")
		for _, warning := range k.Warnings {
			fmt.Fprintf(&w, "\n- %s", warning)
		}
		sec.Prose = w.String()
	}

	return sec
}

func highlightsSection(r *models.Ranking) (models.ReportSection, bool) {
	if r == nil {
		return models.ReportSection{}, false
	}

	sec := models.ReportSection{Title: "Highlights"}
	add := func(label string, rec *models.RankedRecord, suffix string) {
		if rec != nil {
			sec.Facts = append(sec.Facts, models.Fact{
				Label: label,
				Value: fmt.Sprintf("%s (%.2f%s)", rec.Name, rec.Value, suffix),
			})
		}
	}

	add("Best ROI", r.BestROI, "%")
	add("Worst ROI", r.WorstROI, "%")
	add("Best Conversion Rate", r.BestConversionRate, "%")
	add("Worst Conversion Rate", r.WorstConversionRate, "%")
	add("Most Profitable", r.MostProfitable, "")
	add("Least Profitable", r.LeastProfitable, "")

	return sec, len(sec.Facts) > 0
}
