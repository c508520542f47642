package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/common"
	"github.com/ternarybob/insightx/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	session interfaces.SessionStorage
	bundle  interfaces.BundleStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		session: NewSessionStorage(db, logger),
		bundle:  NewBundleStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// SessionStorage returns the chat session storage interface
func (m *Manager) SessionStorage() interfaces.SessionStorage {
	return m.session
}

// BundleStorage returns the analysis bundle storage interface
func (m *Manager) BundleStorage() interfaces.BundleStorage {
	return m.bundle
}

// RunGC compacts the underlying value log
func (m *Manager) RunGC() error {
	return m.db.RunGC(0.5)
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
