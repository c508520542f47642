// -----------------------------------------------------------------------
// Last Modified: Tuesday, 10th February 2026 4:41:18 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/insightx/internal/models"
)

// SessionStorage - interface for chat session persistence
type SessionStorage interface {
	StoreSession(ctx context.Context, session *models.ChatSession) error
	GetSession(ctx context.Context, id string) (*models.ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
	CountSessions(ctx context.Context) (int, error)

	// DeleteExpired removes sessions idle longer than maxAge seconds and
	// returns the number removed.
	DeleteExpired(ctx context.Context, maxAge int64) (int, error)
}

// BundleStorage - interface for analysis result persistence
type BundleStorage interface {
	StoreBundle(ctx context.Context, bundle *models.AnalysisBundle) error
	GetBundle(ctx context.Context, id string) (*models.AnalysisBundle, error)
	ListBundles(ctx context.Context, kind models.AnalysisKind, limit int) ([]*models.AnalysisBundle, error)
	DeleteBundle(ctx context.Context, id string) error
	CountBundles(ctx context.Context) (int, error)

	// DeleteExpired removes bundles older than maxAge seconds and returns
	// the number removed.
	DeleteExpired(ctx context.Context, maxAge int64) (int, error)
}

// StorageManager - manages storage lifecycle and provides typed accessors
type StorageManager interface {
	SessionStorage() SessionStorage
	BundleStorage() BundleStorage

	// RunGC reclaims space freed by bulk deletions. A no-op for in-memory
	// stores.
	RunGC() error

	Close() error
}
