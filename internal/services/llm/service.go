package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/common"
	"github.com/ternarybob/insightx/internal/interfaces"
)

// Service adapts the provider factory to the LLMService interface. The
// active provider and model come from configuration; callers never see
// provider SDK types.
type Service struct {
	factory  *ProviderFactory
	logger   arbor.ILogger
	timeout  time.Duration
	provider ProviderType
	model    string
}

var _ interfaces.LLMService = (*Service)(nil)

// NewService creates an LLM service backed by the configured provider.
func NewService(cfg *common.Config, logger arbor.ILogger) (*Service, error) {
	factory := NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, logger)

	provider := ProviderType(cfg.LLM.DefaultProvider)
	model := factory.GetDefaultModel(provider)

	timeout, err := time.ParseDuration(cfg.LLM.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid llm timeout duration '%s': %w", cfg.LLM.Timeout, err)
	}

	service := &Service{
		factory:  factory,
		logger:   logger,
		timeout:  timeout,
		provider: provider,
		model:    model,
	}

	logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Dur("timeout", timeout).
		Msg("LLM service initialized")

	return service, nil
}

// Complete sends the conversation to the configured model and returns the
// assistant's reply text.
func (s *Service) Complete(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()

	resp, err := s.factory.GenerateContent(timeoutCtx, &ContentRequest{
		Messages: messages,
		Model:    s.model,
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Completion failed")
		return "", fmt.Errorf("completion failed: %w", err)
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(resp.Text)).
		Dur("duration", time.Since(startTime)).
		Msg("Completion finished")

	return resp.Text, nil
}

// Provider returns the provider name ("claude", "gemini").
func (s *Service) Provider() string {
	return string(s.provider)
}

// Model returns the configured model identifier.
func (s *Service) Model() string {
	return s.model
}

// Close releases provider client resources.
func (s *Service) Close() error {
	return s.factory.Close()
}
