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

// BundleStorage implements the BundleStorage interface for Badger
type BundleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewBundleStorage creates a new BundleStorage instance
func NewBundleStorage(db *BadgerDB, logger arbor.ILogger) interfaces.BundleStorage {
	return &BundleStorage{
		db:     db,
		logger: logger,
	}
}

// StoreBundle inserts or updates an analysis bundle
func (s *BundleStorage) StoreBundle(ctx context.Context, bundle *models.AnalysisBundle) error {
	if bundle == nil || bundle.ID == "" {
		return fmt.Errorf("bundle id is required")
	}

	if err := s.db.Store().Upsert(bundle.ID, bundle); err != nil {
		return fmt.Errorf("failed to store bundle: %w", err)
	}

	return nil
}

// GetBundle retrieves an analysis bundle by ID
func (s *BundleStorage) GetBundle(ctx context.Context, id string) (*models.AnalysisBundle, error) {
	var bundle models.AnalysisBundle
	err := s.db.Store().Get(id, &bundle)
	if err == badgerhold.ErrNotFound {
		return nil, &models.NotFoundError{Kind: "bundle", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bundle: %w", err)
	}

	return &bundle, nil
}

// ListBundles returns bundles of the given kind ordered by creation time,
// newest first. An empty kind matches all bundles.
func (s *BundleStorage) ListBundles(ctx context.Context, kind models.AnalysisKind, limit int) ([]*models.AnalysisBundle, error) {
	query := badgerhold.Where("ID").Ne("")
	if kind != "" {
		query = badgerhold.Where("Kind").Eq(kind)
	}
	query = query.SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var bundles []models.AnalysisBundle
	if err := s.db.Store().Find(&bundles, query); err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}

	result := make([]*models.AnalysisBundle, len(bundles))
	for i := range bundles {
		result[i] = &bundles[i]
	}
	return result, nil
}

// DeleteBundle removes an analysis bundle
func (s *BundleStorage) DeleteBundle(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.AnalysisBundle{})
	if err == badgerhold.ErrNotFound {
		return &models.NotFoundError{Kind: "bundle", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to delete bundle: %w", err)
	}
	return nil
}

// CountBundles returns the number of stored analysis bundles
func (s *BundleStorage) CountBundles(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.AnalysisBundle{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count bundles: %w", err)
	}
	return int(count), nil
}

// DeleteExpired removes bundles older than maxAge seconds
func (s *BundleStorage) DeleteExpired(ctx context.Context, maxAge int64) (int, error) {
	cutoff := time.Now().Add(-time.Duration(maxAge) * time.Second)

	var bundles []models.AnalysisBundle
	err := s.db.Store().Find(&bundles, badgerhold.Where("CreatedAt").Lt(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to find expired bundles: %w", err)
	}

	removed := 0
	for i := range bundles {
		if err := s.db.Store().Delete(bundles[i].ID, &models.AnalysisBundle{}); err != nil {
			s.logger.Warn().Str("bundle_id", bundles[i].ID).Err(err).Msg("Failed to delete expired bundle")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("count", removed).Msg("Deleted expired analysis bundles")
	}

	return removed, nil
}
