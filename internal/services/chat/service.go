package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/common"
	"github.com/ternarybob/insightx/internal/interfaces"
	"github.com/ternarybob/insightx/internal/models"
	"github.com/ternarybob/insightx/internal/services/insights"
)

// Refusal lines for off-topic questions. Returned without an external call.
const (
	refusalEnglish = "I can only help with questions about stock indicators and marketing campaign KPIs. Please ask about one of those topics."
	refusalArabic  = "يمكنني فقط المساعدة في الأسئلة المتعلقة بمؤشرات الأسهم ومؤشرات أداء الحملات التسويقية. يرجى السؤال عن أحد هذه المواضيع."
)

func refusal(lang models.Language) string {
	if lang == models.LanguageArabic {
		return refusalArabic
	}
	return refusalEnglish
}

// Service implements session-scoped conversational help over analytics
// topics. Each turn loads the session, gates the message on topic, builds a
// prompt from the recent context window, and appends both turns back.
type Service struct {
	llm           interfaces.LLMService
	sessions      interfaces.SessionStorage
	logger        arbor.ILogger
	historyTurns  int
	maxTurnLength int
}

var _ interfaces.ChatService = (*Service)(nil)

// NewService creates a chat service.
func NewService(
	llmService interfaces.LLMService,
	sessionStorage interfaces.SessionStorage,
	logger arbor.ILogger,
	historyTurns int,
	maxTurnLength int,
) *Service {
	return &Service{
		llm:           llmService,
		sessions:      sessionStorage,
		logger:        logger,
		historyTurns:  historyTurns,
		maxTurnLength: maxTurnLength,
	}
}

// Ask answers one user message within a session. Off-topic messages receive
// a fixed localized refusal and never reach the language model.
func (s *Service) Ask(ctx context.Context, req *interfaces.ChatRequest) (*interfaces.ChatResponse, error) {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is required")
	}
	if s.maxTurnLength > 0 && utf8.RuneCountInString(req.Message) > s.maxTurnLength {
		return nil, fmt.Errorf("message exceeds %d characters", s.maxTurnLength)
	}

	lang := models.ParseLanguage(req.Language)

	session, err := s.loadOrCreateSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("session_id", session.ID).
		Int("turns", len(session.Turns)).
		Msg("Processing chat message")

	if !insights.IsOnTopic(req.Message) {
		reply := refusal(lang)
		session.Append(models.RoleUser, req.Message, lang)
		session.Append(models.RoleAssistant, reply, lang)
		if err := s.sessions.StoreSession(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}

		s.logger.Info().
			Str("session_id", session.ID).
			Msg("Chat message refused as off-topic")

		return &interfaces.ChatResponse{
			SessionID: session.ID,
			Reply:     reply,
			Language:  lang,
			Refused:   true,
		}, nil
	}

	if s.llm == nil {
		return nil, fmt.Errorf("no language model configured")
	}

	messages := s.buildMessages(session, req.Message, lang)

	reply, err := s.llm.Complete(ctx, messages)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("session_id", session.ID).
			Msg("Chat completion failed")
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	session.Append(models.RoleUser, req.Message, lang)
	session.Append(models.RoleAssistant, reply, lang)
	if err := s.sessions.StoreSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug().
		Str("session_id", session.ID).
		Int("turns", len(session.Turns)).
		Int("reply_length", len(reply)).
		Msg("Chat message answered")

	return &interfaces.ChatResponse{
		SessionID: session.ID,
		Reply:     reply,
		Language:  lang,
	}, nil
}

// GetSession returns a session transcript.
func (s *Service) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	return s.sessions.GetSession(ctx, id)
}

// loadOrCreateSession resolves the session for a request. An unknown or
// expired session id starts a fresh conversation under a new id; the caller
// learns the replacement from the response.
func (s *Service) loadOrCreateSession(ctx context.Context, id string) (*models.ChatSession, error) {
	if id != "" {
		session, err := s.sessions.GetSession(ctx, id)
		if err == nil {
			return session, nil
		}
		if !models.IsNotFound(err) {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		s.logger.Debug().Str("session_id", id).Msg("Session expired or unknown, starting a new one")
	}

	now := time.Now()
	return &models.ChatSession{
		ID:        common.NewSessionID(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// buildMessages assembles the prompt: system instruction, the recent context
// window, then the current user message. The session is read before the new
// turns are appended so the window never duplicates the live message.
func (s *Service) buildMessages(session *models.ChatSession, message string, lang models.Language) []interfaces.Message {
	recent := session.Recent(s.historyTurns)

	messages := make([]interfaces.Message, 0, len(recent)+2)
	messages = append(messages, interfaces.Message{
		Role:    "system",
		Content: insights.ChatSystemPrompt(lang),
	})

	for _, turn := range recent {
		messages = append(messages, interfaces.Message{
			Role:    turn.Role,
			Content: turn.Text,
		})
	}

	messages = append(messages, interfaces.Message{
		Role:    models.RoleUser,
		Content: message,
	})

	return messages
}
