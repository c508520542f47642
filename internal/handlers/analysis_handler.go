package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/campaigns"
	"github.com/ternarybob/insightx/internal/common"
	"github.com/ternarybob/insightx/internal/indicators"
	"github.com/ternarybob/insightx/internal/interfaces"
	"github.com/ternarybob/insightx/internal/models"
)

// AnalysisHandler runs the two analysis pipelines and returns bundles
type AnalysisHandler struct {
	marketData interfaces.MarketDataService
	indicators *indicators.Engine
	campaigns  *campaigns.Engine
	insights   interfaces.InsightService
	bundles    interfaces.BundleStorage
	events     interfaces.EventService
	logger     arbor.ILogger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(
	marketData interfaces.MarketDataService,
	indicatorEngine *indicators.Engine,
	campaignEngine *campaigns.Engine,
	insightService interfaces.InsightService,
	bundleStorage interfaces.BundleStorage,
	eventService interfaces.EventService,
	logger arbor.ILogger,
) *AnalysisHandler {
	return &AnalysisHandler{
		marketData: marketData,
		indicators: indicatorEngine,
		campaigns:  campaignEngine,
		insights:   insightService,
		bundles:    bundleStorage,
		events:     eventService,
		logger:     logger,
	}
}

// StockAnalysisRequest is the POST /api/analysis/stock body
type StockAnalysisRequest struct {
	Ticker   string `json:"ticker"`
	Period   string `json:"period,omitempty"`
	Language string `json:"language,omitempty"`
	Style    string `json:"style,omitempty"`
	// Insight defaults to true when omitted
	Insight *bool `json:"insight,omitempty"`
}

// StockAnalysisHandler handles POST /api/analysis/stock
func (h *AnalysisHandler) StockAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req StockAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode stock analysis request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Ticker) == "" {
		WriteError(w, http.StatusBadRequest, "Ticker field is required")
		return
	}

	period, err := models.ParsePeriod(req.Period)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info().
		Str("ticker", req.Ticker).
		Str("period", string(period)).
		Msg("Processing stock analysis request")

	series, err := h.marketData.GetPriceData(r.Context(), req.Ticker, period)
	if err != nil {
		h.logger.Warn().Err(err).Str("ticker", req.Ticker).Msg("Price data fetch failed")
		WriteError(w, StatusForError(err), err.Error())
		return
	}

	indicatorSet, trend, stats, err := h.indicators.Compute(series)
	if err != nil {
		h.logger.Warn().Err(err).Str("symbol", series.Symbol).Msg("Indicator computation failed")
		WriteError(w, StatusForError(err), err.Error())
		return
	}

	bundle := &models.AnalysisBundle{
		ID:         common.NewBundleID(),
		Kind:       models.AnalysisTrading,
		CreatedAt:  time.Now(),
		Symbol:     series.Symbol,
		Period:     period,
		Indicators: indicatorSet,
		Trend:      trend,
		Stats:      stats,
	}

	if req.Insight == nil || *req.Insight {
		h.attachInsight(r, bundle, &interfaces.InsightRequest{
			Kind:     models.AnalysisTrading,
			Language: models.ParseLanguage(req.Language),
			Style:    models.ParseStyle(req.Style),
			Trading: &interfaces.TradingFacts{
				Symbol:     series.Symbol,
				Period:     period,
				Indicators: indicatorSet,
				Trend:      trend,
				Stats:      stats,
			},
		})
	}

	h.storeBundle(r, bundle)
	h.publishEvent(interfaces.EventLevelInfo, fmt.Sprintf("Stock analysis complete for %s (%s, %s)", series.Symbol, period, trend.Trend))

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"analysis": bundle,
	})
}

// CampaignAnalysisHandler handles POST /api/analysis/campaigns. Accepts a
// multipart CSV upload (field "file") or a JSON body with inline records.
func (h *AnalysisHandler) CampaignAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	table, opts, err := h.readCampaignInput(r)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read campaign input")
		WriteError(w, StatusForError(err), err.Error())
		return
	}

	h.logger.Info().
		Int("records", table.Len()).
		Msg("Processing campaign analysis request")

	kpis, ranking, summary, err := h.campaigns.Analyze(table)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Campaign analysis failed")
		WriteError(w, StatusForError(err), err.Error())
		return
	}

	bundle := &models.AnalysisBundle{
		ID:        common.NewBundleID(),
		Kind:      models.AnalysisMarketing,
		CreatedAt: time.Now(),
		KPIs:      kpis,
		Ranking:   ranking,
		Summary:   summary,
	}

	if opts.insight {
		h.attachInsight(r, bundle, &interfaces.InsightRequest{
			Kind:     models.AnalysisMarketing,
			Language: opts.language,
			Style:    opts.style,
			Marketing: &interfaces.MarketingFacts{
				KPIs:    kpis,
				Ranking: ranking,
				Summary: summary,
			},
		})
	}

	h.storeBundle(r, bundle)
	h.publishEvent(interfaces.EventLevelInfo, fmt.Sprintf("Campaign analysis complete (%d records)", table.Len()))

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"analysis": bundle,
	})
}

// campaignOptions are the non-data knobs of a campaign request, shared
// between the multipart and JSON input paths.
type campaignOptions struct {
	language models.Language
	style    models.Style
	insight  bool
}

// CampaignAnalysisJSON is the JSON body variant of a campaign request
type CampaignAnalysisJSON struct {
	Records  []models.CampaignRecord `json:"records"`
	Language string                  `json:"language,omitempty"`
	Style    string                  `json:"style,omitempty"`
	Insight  *bool                   `json:"insight,omitempty"`
}

const maxUploadBytes = 10 << 20 // 10 MB

func (h *AnalysisHandler) readCampaignInput(r *http.Request) (*models.CampaignTable, campaignOptions, error) {
	opts := campaignOptions{language: models.LanguageEnglish, style: models.StyleConcise, insight: true}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, opts, fmt.Errorf("invalid multipart form: %w", err)
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, opts, fmt.Errorf("missing file field: %w", err)
		}
		defer file.Close()

		opts.language = models.ParseLanguage(r.FormValue("language"))
		opts.style = models.ParseStyle(r.FormValue("style"))
		if v := r.FormValue("insight"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				opts.insight = b
			}
		}

		table, err := h.campaigns.ParseCSV(file)
		if err != nil {
			return nil, opts, err
		}
		return table, opts, nil
	}

	var req CampaignAnalysisJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, opts, fmt.Errorf("invalid request body: %w", err)
	}
	if len(req.Records) == 0 {
		return nil, opts, fmt.Errorf("records field is required")
	}

	opts.language = models.ParseLanguage(req.Language)
	opts.style = models.ParseStyle(req.Style)
	if req.Insight != nil {
		opts.insight = *req.Insight
	}

	return &models.CampaignTable{Records: req.Records}, opts, nil
}

// attachInsight generates commentary for the bundle. Generation failure is
// recorded inline and never fails the analysis.
func (h *AnalysisHandler) attachInsight(r *http.Request, bundle *models.AnalysisBundle, req *interfaces.InsightRequest) {
	if h.insights == nil {
		return
	}

	insight, err := h.insights.Generate(r.Context(), req)
	if err != nil {
		var unavailable *models.InsightUnavailableError
		if errors.As(err, &unavailable) {
			bundle.InsightFailure = unavailable.Failure()
		} else {
			bundle.InsightFailure = &models.InsightFailure{Reason: "generation failed", Detail: err.Error(), OccurredAt: time.Now()}
		}
		h.logger.Warn().Err(err).Str("bundle_id", bundle.ID).Msg("Insight generation degraded")
		h.publishEvent(interfaces.EventLevelWarn, "Insight generation degraded: "+bundle.InsightFailure.Reason)
		return
	}

	bundle.Insight = insight
}

func (h *AnalysisHandler) storeBundle(r *http.Request, bundle *models.AnalysisBundle) {
	if h.bundles == nil {
		return
	}
	if err := h.bundles.StoreBundle(r.Context(), bundle); err != nil {
		// The response still carries the full bundle; only report reuse is lost.
		h.logger.Warn().Err(err).Str("bundle_id", bundle.ID).Msg("Failed to store analysis bundle")
	}
}

func (h *AnalysisHandler) publishEvent(level interfaces.EventLevel, message string) {
	if h.events == nil {
		return
	}
	h.events.Publish(interfaces.Event{Level: level, Source: "analysis", Message: message})
}
