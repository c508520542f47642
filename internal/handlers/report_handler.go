package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/interfaces"
	"github.com/ternarybob/insightx/internal/models"
)

// ReportHandler renders stored analyses into PDF reports
type ReportHandler struct {
	reports interfaces.ReportService
	bundles interfaces.BundleStorage
	events  interfaces.EventService
	logger  arbor.ILogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(
	reportService interfaces.ReportService,
	bundleStorage interfaces.BundleStorage,
	eventService interfaces.EventService,
	logger arbor.ILogger,
) *ReportHandler {
	return &ReportHandler{
		reports: reportService,
		bundles: bundleStorage,
		events:  eventService,
		logger:  logger,
	}
}

// ReportRequest is the POST /api/report body. Bundle ids reference results
// from earlier analysis calls.
type ReportRequest struct {
	TradingID      string `json:"trading_id,omitempty"`
	MarketingID    string `json:"marketing_id,omitempty"`
	Title          string `json:"title,omitempty"`
	Language       string `json:"language,omitempty"`
	IncludeSummary bool   `json:"include_summary,omitempty"`
}

// ReportHandler handles POST /api/report requests, responding with the
// rendered PDF bytes.
func (h *ReportHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode report request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TradingID == "" && req.MarketingID == "" {
		WriteError(w, http.StatusBadRequest, "At least one bundle id is required")
		return
	}

	reportReq := &interfaces.ReportRequest{
		Title:          req.Title,
		Language:       models.ParseLanguage(req.Language),
		IncludeSummary: req.IncludeSummary,
	}

	if req.TradingID != "" {
		bundle, status, err := h.loadBundle(r, req.TradingID, models.AnalysisTrading)
		if err != nil {
			WriteError(w, status, err.Error())
			return
		}
		reportReq.Trading = &interfaces.TradingFacts{
			Symbol:     bundle.Symbol,
			Period:     bundle.Period,
			Indicators: bundle.Indicators,
			Trend:      bundle.Trend,
			Stats:      bundle.Stats,
		}
		reportReq.TradingInsight = bundle.Insight
	}

	if req.MarketingID != "" {
		bundle, status, err := h.loadBundle(r, req.MarketingID, models.AnalysisMarketing)
		if err != nil {
			WriteError(w, status, err.Error())
			return
		}
		reportReq.Marketing = &interfaces.MarketingFacts{
			KPIs:    bundle.KPIs,
			Ranking: bundle.Ranking,
			Summary: bundle.Summary,
		}
		reportReq.MarketingInsight = bundle.Insight
	}

	h.logger.Info().
		Str("trading_id", req.TradingID).
		Str("marketing_id", req.MarketingID).
		Msg("Building PDF report")

	pdfBytes, err := h.reports.BuildPDF(r.Context(), reportReq)
	if err != nil {
		h.logger.Error().Err(err).Msg("Report rendering failed")
		WriteError(w, StatusForError(err), "Failed to render report: "+err.Error())
		return
	}

	if h.events != nil {
		h.events.Publish(interfaces.Event{
			Level:   interfaces.EventLevelInfo,
			Source:  "report",
			Message: fmt.Sprintf("Report rendered (%d bytes)", len(pdfBytes)),
		})
	}

	filename := fmt.Sprintf("insightx-report-%s.pdf", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

// loadBundle fetches a stored bundle and checks it holds the expected
// analysis kind. The returned status is meaningful only when err is set.
func (h *ReportHandler) loadBundle(r *http.Request, id string, kind models.AnalysisKind) (*models.AnalysisBundle, int, error) {
	if h.bundles == nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("bundle storage not configured")
	}

	bundle, err := h.bundles.GetBundle(r.Context(), id)
	if err != nil {
		return nil, StatusForError(err), err
	}
	if bundle.Kind != kind {
		return nil, http.StatusBadRequest, fmt.Errorf("bundle %s holds a %s analysis, not %s", id, bundle.Kind, kind)
	}
	return bundle, 0, nil
}
