package insights

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/interfaces"
	"github.com/ternarybob/insightx/internal/models"
	"github.com/ternarybob/insightx/internal/services/llm"
)

// Service generates narrative commentary from computed analysis facts.
// Generation failures surface as models.InsightUnavailableError so callers
// keep the numeric results and degrade the commentary only.
type Service struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

var _ interfaces.InsightService = (*Service)(nil)

// NewService creates an insight service. A nil LLM service is allowed; every
// generation then degrades with a configuration reason.
func NewService(llmService interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{
		llm:    llmService,
		logger: logger,
	}
}

// Generate produces commentary for a trading or marketing analysis.
func (s *Service) Generate(ctx context.Context, req *interfaces.InsightRequest) (*models.Insight, error) {
	if s.llm == nil {
		return nil, &models.InsightUnavailableError{Reason: "no language model configured"}
	}

	userPrompt, err := buildUserPrompt(req)
	if err != nil {
		return nil, &models.InsightUnavailableError{Reason: "invalid insight request", Cause: err}
	}

	messages := []interfaces.Message{
		{Role: "system", Content: buildSystemPrompt(req.Language, req.Style)},
		{Role: "user", Content: userPrompt},
	}

	text, err := s.llm.Complete(ctx, messages)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("kind", string(req.Kind)).
			Msg("Insight generation failed")
		return nil, &models.InsightUnavailableError{Reason: failureReason(err), Cause: err}
	}

	intent := IntentTrading
	if req.Kind == models.AnalysisMarketing {
		intent = IntentMarketing
	}

	insight := &models.Insight{
		Text:        ensureDisclaimer(text, req.Language),
		Intent:      string(intent),
		Language:    req.Language,
		Style:       req.Style,
		Provider:    s.llm.Provider(),
		Model:       s.llm.Model(),
		GeneratedAt: time.Now(),
	}

	s.logger.Debug().
		Str("kind", string(req.Kind)).
		Str("language", string(req.Language)).
		Int("length", len(insight.Text)).
		Msg("Insight generated")

	return insight, nil
}

// Summarize produces a short executive summary over an assembled bundle.
func (s *Service) Summarize(ctx context.Context, bundle *models.AnalysisBundle, language models.Language) (*models.Insight, error) {
	if s.llm == nil {
		return nil, &models.InsightUnavailableError{Reason: "no language model configured"}
	}
	if bundle == nil {
		return nil, &models.InsightUnavailableError{Reason: "nothing to summarize"}
	}

	system, user := buildSummaryPrompt(bundle, language)
	messages := []interfaces.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}

	text, err := s.llm.Complete(ctx, messages)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Summary generation failed")
		return nil, &models.InsightUnavailableError{Reason: failureReason(err), Cause: err}
	}

	return &models.Insight{
		Text:        ensureDisclaimer(text, language),
		Intent:      string(IntentGeneral),
		Language:    language,
		Style:       models.StyleConcise,
		Provider:    s.llm.Provider(),
		Model:       s.llm.Model(),
		GeneratedAt: time.Now(),
	}, nil
}

// ensureDisclaimer guarantees the localized disclaimer opens the text even
// when the model drops it.
func ensureDisclaimer(text string, lang models.Language) string {
	trimmed := strings.TrimSpace(text)
	if strings.Contains(trimmed, Disclaimer(lang)) {
		return trimmed
	}
	return Disclaimer(lang) + "\n\n" + trimmed
}

// failureReason maps a provider error to a stable degradation reason.
func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "generation timed out"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	case llm.IsRateLimitError(err):
		return "provider rate limited"
	default:
		return "provider error"
	}
}
