package scheduler

import (
	"context"
	"testing"

	"pennylane-sync-service/service/config"
	"pennylane-sync-service/service/history"
	"pennylane-sync-service/service/mapper"
	"pennylane-sync-service/service/meta"
	"pennylane-sync-service/service/store"
	"pennylane-sync-service/service/syncer"
	"pennylane-sync-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulerFixture struct {
	scheduler *SchedulerService
	history   *history.HistoryService
	config    *config.ConfigService
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	configService := config.NewConfigService(tdb.DB)
	require.NoError(t, configService.Set(config.KeyAPIKey, "test-key", ""))

	st := store.NewStore(tdb.DB)
	historyService := history.NewHistoryService(tdb.DB, configService)
	syncers := syncer.NewSyncers(&syncer.Dependencies{
		Store:     st,
		Config:    configService,
		Validator: mapper.NewValidator(),
		History:   historyService,
	})

	return &schedulerFixture{
		scheduler: NewSchedulerService(st, syncers, configService, historyService, nil),
		history:   historyService,
		config:    configService,
	}
}

func TestRunPassWritesStartAndSummaryEntries(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	// Nothing is dirty and every toggle is off, so the pass is an empty one;
	// both markers are still written.
	f.scheduler.RunPass()

	entries, total, err := f.history.List(ctx, history.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	var messages string
	for _, e := range entries {
		assert.Equal(t, meta.SyncTypeBatch, e.SyncType)
		assert.Equal(t, meta.SyncModeCron, e.SyncMode)
		messages += e.Message + "\n"
	}
	assert.Contains(t, messages, "scheduled pass started")
	assert.Contains(t, messages, "0 processed")
}

func TestRunPassMissingCredentialWritesSingleSkippedEntry(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	require.NoError(t, f.config.Set(config.KeyAPIKey, "", ""))

	f.scheduler.RunPass()

	entries, total, err := f.history.List(ctx, history.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, meta.SyncStatusSkipped, entries[0].Status)
	assert.Contains(t, entries[0].Message, "credential")
}
