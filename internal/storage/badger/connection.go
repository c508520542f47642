package badger

import (
	"fmt"
	"os"
	"path/filepath"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// BadgerDB represents a Badger database connection
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.BadgerConfig
}

// NewBadgerDB opens the store described by config. With InMemory set the
// database lives entirely in process memory and the path is ignored.
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	options := badgerhold.DefaultOptions
	options.Logger = nil

	if config.InMemory {
		options.InMemory = true
		logger.Info().Msg("Opening in-memory Badger database")
	} else {
		if config.ResetOnStartup {
			if _, err := os.Stat(config.Path); err == nil {
				logger.Info().Str("path", config.Path).Msg("Resetting database on startup")
				if err := os.RemoveAll(config.Path); err != nil {
					logger.Warn().Err(err).Msg("Failed to reset database")
				}
			}
		}

		if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		options.Dir = config.Path
		options.ValueDir = config.Path
	}

	store, err := badgerhold.Open(options)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open Badger database")
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	if !config.InMemory {
		logger.Info().Str("path", config.Path).Msg("Badger database opened")
	}

	return &BadgerDB{
		store:  store,
		logger: logger,
		config: config,
	}, nil
}

// Store returns the underlying badgerhold store
func (db *BadgerDB) Store() *badgerhold.Store {
	return db.store
}

// RunGC rewrites the value log, reclaiming space freed by deletions.
// In-memory stores have no value log, so there is nothing to do there.
func (db *BadgerDB) RunGC(discardRatio float64) error {
	if db.config.InMemory {
		return nil
	}

	err := db.store.Badger().RunValueLogGC(discardRatio)
	if err != nil && err != badgerdb.ErrNoRewrite {
		return err
	}
	return nil
}

// Close closes the database connection
func (db *BadgerDB) Close() error {
	if db.store != nil {
		return db.store.Close()
	}
	return nil
}
