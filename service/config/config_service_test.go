package config

import (
	"testing"

	"pennylane-sync-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfigService(t *testing.T) *ConfigService {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return NewConfigService(tdb.DB)
}

func TestGetSetRoundTrip(t *testing.T) {
	s := newConfigService(t)

	assert.Empty(t, s.Get(KeyJournalCode))

	require.NoError(t, s.Set(KeyJournalCode, "VTE", "sales journal"))
	assert.Equal(t, "VTE", s.Get(KeyJournalCode))

	// Upsert overwrites.
	require.NoError(t, s.Set(KeyJournalCode, "VT2", ""))
	assert.Equal(t, "VT2", s.Get(KeyJournalCode))
}

func TestEnvOverrideWins(t *testing.T) {
	s := newConfigService(t)

	require.NoError(t, s.Set(KeyCurrency, "usd", ""))
	t.Setenv("PENNYLANE_SYNC_CURRENCY", "gbp")

	assert.Equal(t, "GBP", s.Currency())
}

func TestTypedGettersApplyDefaults(t *testing.T) {
	s := newConfigService(t)

	assert.Equal(t, DefaultBatchLimit, s.BatchLimit())
	assert.Equal(t, DefaultHistoryRetentionDays, s.HistoryRetentionDays())
	assert.Equal(t, DefaultCountry, s.DefaultVATCountry())
	assert.Equal(t, DefaultCurrency, s.Currency())
	assert.Equal(t, DefaultSyncCron, s.SyncCron())
	assert.False(t, s.AutoSyncEnabled(KeyAutoSyncProducts))
	assert.False(t, s.DebugMode())

	require.NoError(t, s.Set(KeyBatchLimit, "50", ""))
	assert.Equal(t, 50, s.BatchLimit())

	require.NoError(t, s.Set(KeyBatchLimit, "not-a-number", ""))
	assert.Equal(t, DefaultBatchLimit, s.BatchLimit())

	require.NoError(t, s.Set(KeyDefaultCountry, "be", ""))
	assert.Equal(t, "BE", s.DefaultVATCountry())

	require.NoError(t, s.Set(KeyAutoSyncProducts, "true", ""))
	assert.True(t, s.AutoSyncEnabled(KeyAutoSyncProducts))
}

func TestAllRedactsSecrets(t *testing.T) {
	s := newConfigService(t)

	require.NoError(t, s.Set(KeyAPIKey, "super-secret", ""))
	require.NoError(t, s.Set(KeyJournalCode, "VTE", ""))

	items, err := s.All()
	require.NoError(t, err)

	values := make(map[string]string, len(items))
	for _, item := range items {
		values[item.Key] = item.Value
	}
	assert.Equal(t, "***", values[KeyAPIKey])
	assert.Equal(t, "VTE", values[KeyJournalCode])
}

func TestWebhookSecret(t *testing.T) {
	s := newConfigService(t)

	// Unconfigured secret never verifies, not even the empty string.
	assert.False(t, s.VerifyWebhookSecret(""))
	assert.False(t, s.VerifyWebhookSecret("anything"))

	require.NoError(t, s.SetWebhookSecret("a-long-shared-secret"))
	assert.True(t, s.VerifyWebhookSecret("a-long-shared-secret"))
	assert.False(t, s.VerifyWebhookSecret("wrong"))
	assert.False(t, s.VerifyWebhookSecret(""))

	// The stored value is a hash, never the secret itself.
	assert.NotEqual(t, "a-long-shared-secret", s.Get(KeyWebhookSecretHash))
}
