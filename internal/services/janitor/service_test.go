package janitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/common"
	"github.com/ternarybob/insightx/internal/interfaces"
	"github.com/ternarybob/insightx/internal/models"
	"github.com/ternarybob/insightx/internal/storage/badger"
)

func newTestStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()
	manager, err := badger.NewManager(arbor.NewLogger(), &common.BadgerConfig{InMemory: true})
	require.NoError(t, err, "in-memory storage should open")
	t.Cleanup(func() { manager.Close() })
	return manager
}

func retentionConfig() *common.RetentionConfig {
	return &common.RetentionConfig{
		Enabled:    true,
		Schedule:   "*/10 * * * *",
		SessionTTL: "1h",
		BundleTTL:  "24h",
	}
}

func TestRunNowSweepsExpired(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	stale := &models.ChatSession{ID: "chat_stale", CreatedAt: time.Now().Add(-3 * time.Hour), UpdatedAt: time.Now().Add(-2 * time.Hour)}
	fresh := &models.ChatSession{ID: "chat_fresh", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, storage.SessionStorage().StoreSession(ctx, stale))
	require.NoError(t, storage.SessionStorage().StoreSession(ctx, fresh))

	oldBundle := &models.AnalysisBundle{ID: "bundle_old", Kind: models.AnalysisTrading, CreatedAt: time.Now().Add(-25 * time.Hour)}
	newBundle := &models.AnalysisBundle{ID: "bundle_new", Kind: models.AnalysisTrading, CreatedAt: time.Now()}
	require.NoError(t, storage.BundleStorage().StoreBundle(ctx, oldBundle))
	require.NoError(t, storage.BundleStorage().StoreBundle(ctx, newBundle))

	svc := NewService(storage, retentionConfig(), arbor.NewLogger())
	svc.RunNow()

	sessionCount, err := storage.SessionStorage().CountSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sessionCount, "only the fresh session should survive")
	_, err = storage.SessionStorage().GetSession(ctx, "chat_fresh")
	assert.NoError(t, err)

	bundleCount, err := storage.BundleStorage().CountBundles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, bundleCount, "only the recent bundle should survive")
	_, err = storage.BundleStorage().GetBundle(ctx, "bundle_new")
	assert.NoError(t, err)
}

func TestRunNowEmptyStore(t *testing.T) {
	storage := newTestStorage(t)
	svc := NewService(storage, retentionConfig(), arbor.NewLogger())

	// Nothing stored; sweep should be a quiet no-op.
	svc.RunNow()

	count, err := storage.SessionStorage().CountSessions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStartDisabled(t *testing.T) {
	storage := newTestStorage(t)
	cfg := retentionConfig()
	cfg.Enabled = false

	svc := NewService(storage, cfg, arbor.NewLogger())
	require.NoError(t, svc.Start(), "disabled retention should not error")
	svc.Stop()
}

func TestStartLifecycle(t *testing.T) {
	storage := newTestStorage(t)
	svc := NewService(storage, retentionConfig(), arbor.NewLogger())

	require.NoError(t, svc.Start())
	err := svc.Start()
	assert.Error(t, err, "second start should report already running")
	svc.Stop()
	svc.Stop() // idempotent
}

func TestStartRejectsBadSchedule(t *testing.T) {
	storage := newTestStorage(t)
	cfg := retentionConfig()
	cfg.Schedule = "not a cron expression"

	svc := NewService(storage, cfg, arbor.NewLogger())
	assert.Error(t, svc.Start())
}
