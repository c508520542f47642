package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/interfaces"
	"github.com/ternarybob/insightx/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SessionStorage implements the SessionStorage interface for Badger
type SessionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSessionStorage creates a new SessionStorage instance
func NewSessionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SessionStorage {
	return &SessionStorage{
		db:     db,
		logger: logger,
	}
}

// StoreSession inserts or updates a chat session
func (s *SessionStorage) StoreSession(ctx context.Context, session *models.ChatSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session id is required")
	}

	if err := s.db.Store().Upsert(session.ID, session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// GetSession retrieves a chat session by ID
func (s *SessionStorage) GetSession(ctx context.Context, id string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.Store().Get(id, &session)
	if err == badgerhold.ErrNotFound {
		return nil, &models.NotFoundError{Kind: "session", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// DeleteSession removes a chat session
func (s *SessionStorage) DeleteSession(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.ChatSession{})
	if err == badgerhold.ErrNotFound {
		return &models.NotFoundError{Kind: "session", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CountSessions returns the number of stored chat sessions
func (s *SessionStorage) CountSessions(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ChatSession{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return int(count), nil
}

// DeleteExpired removes sessions idle longer than maxAge seconds. Idle time
// is measured from the last appended turn, not session creation.
func (s *SessionStorage) DeleteExpired(ctx context.Context, maxAge int64) (int, error) {
	cutoff := time.Now().Add(-time.Duration(maxAge) * time.Second)

	var sessions []models.ChatSession
	err := s.db.Store().Find(&sessions, badgerhold.Where("UpdatedAt").Lt(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to find expired sessions: %w", err)
	}

	removed := 0
	for i := range sessions {
		if err := s.db.Store().Delete(sessions[i].ID, &models.ChatSession{}); err != nil {
			s.logger.Warn().Str("session_id", sessions[i].ID).Err(err).Msg("Failed to delete expired session")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("count", removed).Msg("Deleted expired chat sessions")
	}

	return removed, nil
}
