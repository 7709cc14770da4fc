package syncer

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"pennylane-sync-service/client"
	"pennylane-sync-service/service/config"
	"pennylane-sync-service/service/history"
	"pennylane-sync-service/service/mapper"
	"pennylane-sync-service/service/meta"
	"pennylane-sync-service/service/store"
	"pennylane-sync-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) FindCustomerByExternalReference(ctx context.Context, ref string) (*client.RemoteRecord, error) {
	args := m.Called(ctx, ref)
	return recordArg(args.Get(0)), args.Error(1)
}

func (m *mockAPI) CreateCustomer(ctx context.Context, payload interface{}) (*client.RemoteRecord, error) {
	args := m.Called(ctx, payload)
	return recordArg(args.Get(0)), args.Error(1)
}

func (m *mockAPI) UpdateCustomer(ctx context.Context, remoteID string, payload interface{}) error {
	return m.Called(ctx, remoteID, payload).Error(0)
}

func (m *mockAPI) FindProductByExternalReference(ctx context.Context, ref string) (*client.RemoteRecord, error) {
	args := m.Called(ctx, ref)
	return recordArg(args.Get(0)), args.Error(1)
}

func (m *mockAPI) CreateProduct(ctx context.Context, payload interface{}) (*client.RemoteRecord, error) {
	args := m.Called(ctx, payload)
	return recordArg(args.Get(0)), args.Error(1)
}

func (m *mockAPI) UpdateProduct(ctx context.Context, remoteID string, payload interface{}) error {
	return m.Called(ctx, remoteID, payload).Error(0)
}

func (m *mockAPI) FindInvoiceByExternalReference(ctx context.Context, ref string) (*client.RemoteRecord, error) {
	args := m.Called(ctx, ref)
	return recordArg(args.Get(0)), args.Error(1)
}

func (m *mockAPI) CreateInvoice(ctx context.Context, payload interface{}) (*client.RemoteRecord, error) {
	args := m.Called(ctx, payload)
	return recordArg(args.Get(0)), args.Error(1)
}

func (m *mockAPI) UpdateInvoice(ctx context.Context, remoteID string, payload interface{}) error {
	return m.Called(ctx, remoteID, payload).Error(0)
}

func recordArg(v interface{}) *client.RemoteRecord {
	if v == nil {
		return nil
	}
	return v.(*client.RemoteRecord)
}

func remoteRecord(id string) *client.RemoteRecord {
	return &client.RemoteRecord{ID: client.RecordID(id)}
}

type syncerFixture struct {
	syncers *Syncers
	api     *mockAPI
	store   *store.Store
	history *history.HistoryService
	factory *testutil.TestDataFactory
	config  *config.ConfigService
}

func newSyncerFixture(t *testing.T) *syncerFixture {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	configService := config.NewConfigService(tdb.DB)
	require.NoError(t, configService.Set(config.KeyJournalCode, "VTE", ""))

	st := store.NewStore(tdb.DB)
	historyService := history.NewHistoryService(tdb.DB, configService)
	api := &mockAPI{}

	syncers := NewSyncers(&Dependencies{
		Store:     st,
		API:       api,
		Config:    configService,
		Validator: mapper.NewValidator(),
		History:   historyService,
		Locks:     nil,
	})

	return &syncerFixture{
		syncers: syncers,
		api:     api,
		store:   st,
		history: historyService,
		factory: testutil.NewTestDataFactory(tdb.DB),
		config:  configService,
	}
}

func (f *syncerFixture) historyEntries(t *testing.T) []string {
	t.Helper()
	entries, _, err := f.history.List(context.Background(), history.ListFilter{Size: 100})
	require.NoError(t, err)
	statuses := make([]string, 0, len(entries))
	for _, e := range entries {
		statuses = append(statuses, e.Status)
	}
	return statuses
}

func TestCustomerSyncerCreatesThenUpdates(t *testing.T) {
	f := newSyncerFixture(t)
	ctx := context.Background()
	customer := f.factory.CreateCustomer()
	ref := mapper.CustomerExternalReference(customer.ID)

	// First sync: no remote counterpart, expect a create.
	f.api.On("FindCustomerByExternalReference", mock.Anything, ref).Return(nil, nil).Once()
	f.api.On("CreateCustomer", mock.Anything, mock.Anything).Return(remoteRecord("500"), nil).Once()

	result, err := f.syncers.Customer.Sync(ctx, customer.ID, Request{Mode: meta.SyncModeManual})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "500", result.RemoteID)

	state, err := f.store.GetSyncState(ctx, meta.EntityKindCustomer, customer.ID)
	require.NoError(t, err)
	assert.True(t, state.Synced)
	assert.Equal(t, "500", state.RemoteID)

	// Second sync: the stored remote ID short-circuits the lookup.
	require.NoError(t, f.store.MarkDirty(ctx, meta.EntityKindCustomer, customer.ID))
	f.api.On("UpdateCustomer", mock.Anything, "500", mock.Anything).Return(nil).Once()

	result, err = f.syncers.Customer.Sync(ctx, customer.ID, Request{Mode: meta.SyncModeManual})
	require.NoError(t, err)
	assert.True(t, result.Success)

	f.api.AssertExpectations(t)
	f.api.AssertNumberOfCalls(t, "FindCustomerByExternalReference", 1)
}

func TestCustomerSyncerUpdatesExistingRemote(t *testing.T) {
	f := newSyncerFixture(t)
	ctx := context.Background()
	customer := f.factory.CreateCustomer()
	ref := mapper.CustomerExternalReference(customer.ID)

	f.api.On("FindCustomerByExternalReference", mock.Anything, ref).Return(remoteRecord("777"), nil).Once()
	f.api.On("UpdateCustomer", mock.Anything, "777", mock.Anything).Return(nil).Once()

	result, err := f.syncers.Customer.Sync(ctx, customer.ID, Request{Mode: meta.SyncModeManual})
	require.NoError(t, err)
	assert.Equal(t, "777", result.RemoteID)

	f.api.AssertExpectations(t)
	f.api.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
}

func TestCustomerSyncerExcludedSkipsWithoutNetwork(t *testing.T) {
	f := newSyncerFixture(t)
	ctx := context.Background()
	customer := f.factory.CreateCustomer()
	require.NoError(t, f.store.SetExcluded(ctx, meta.EntityKindCustomer, customer.ID, true))

	result, err := f.syncers.Customer.Sync(ctx, customer.ID, Request{Mode: meta.SyncModeManual})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, meta.SyncStatusSkipped, result.Status)

	f.api.AssertNotCalled(t, "FindCustomerByExternalReference", mock.Anything, mock.Anything)
	f.api.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	assert.Equal(t, []string{meta.SyncStatusSkipped}, f.historyEntries(t))
}

func TestCustomerSyncerAlreadySyncedFastPath(t *testing.T) {
	f := newSyncerFixture(t)
	ctx := context.Background()
	customer := f.factory.CreateCustomer()
	require.NoError(t, f.store.RecordSuccess(ctx, meta.EntityKindCustomer, customer.ID, "500"))

	result, err := f.syncers.Customer.Sync(ctx, customer.ID, Request{Mode: meta.SyncModeManual})
	require.NoError(t, err)
	assert.Equal(t, meta.SyncStatusSkipped, result.Status)
	assert.Equal(t, "500", result.RemoteID)

	f.api.AssertNotCalled(t, "UpdateCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func TestCustomerSyncerForcedResync(t *testing.T) {
	f := newSyncerFixture(t)
	ctx := context.Background()
	customer := f.factory.CreateCustomer()
	ref := mapper.CustomerExternalReference(customer.ID)

	// Excluded and already synced with an old remote ID: force bypasses both
	// gates and the lookup runs again because the state was reset.
	require.NoError(t, f.store.RecordSuccess(ctx, meta.EntityKindCustomer, customer.ID, "old-id"))
	require.NoError(t, f.store.RecordFailure(ctx, meta.EntityKindCustomer, customer.ID, "stale failure"))
	require.NoError(t, f.store.SetExcluded(ctx, meta.EntityKindCustomer, customer.ID, true))

	f.api.On("FindCustomerByExternalReference", mock.Anything, ref).Return(nil, nil).Once()
	f.api.On("CreateCustomer", mock.Anything, mock.Anything).Return(remoteRecord("900"), nil).Once()

	result, err := f.syncers.Customer.Sync(ctx, customer.ID, Request{Mode: meta.SyncModeManual, Force: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "900", result.RemoteID)

	state, err := f.store.GetSyncState(ctx, meta.EntityKindCustomer, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "900", state.RemoteID)
	assert.Empty(t, state.LastSyncError)
	// The exclusion flag survives the forced resync.
	assert.True(t, state.Excluded)

	f.api.AssertExpectations(t)
}

func TestCustomerSyncerValidationRunsBeforeNetwork(t *testing.T) {
	f := newSyncerFixture(t)
	ctx := context.Background()

	broken := f.factory.CreateCustomer()
	broken.FirstName = ""
	broken.LastName = ""
	broken.Email = ""
	require.NoError(t, f.factory.DB.Save(broken).Error)

	_, err := f.syncers.Customer.Sync(ctx, broken.ID, Request{Mode: meta.SyncModeManual})
	require.Error(t, err)

	var validationErr *mapper.ValidationError
	assert.True(t, errors.As(err, &validationErr))

	f.api.AssertNotCalled(t, "FindCustomerByExternalReference", mock.Anything, mock.Anything)
	f.api.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)

	state, err := f.store.GetSyncState(ctx, meta.EntityKindCustomer, broken.ID)
	require.NoError(t, err)
	assert.False(t, state.Synced)
	assert.NotEmpty(t, state.LastSyncError)
}

func TestProductSyncerRemoteFailureKeepsDirtyFlag(t *testing.T) {
	f := newSyncerFixture(t)
	ctx := context.Background()
	product := f.factory.CreateProduct()
	require.NoError(t, f.store.MarkDirty(ctx, meta.EntityKindProduct, product.ID))

	apiErr := &client.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "vat rate unknown"}
	f.api.On("FindProductByExternalReference", mock.Anything, mock.Anything).Return(nil, nil).Once()
	f.api.On("CreateProduct", mock.Anything, mock.Anything).Return(nil, apiErr).Once()

	_, err := f.syncers.Product.Sync(ctx, product.ID, Request{Mode: meta.SyncModeManual})
	require.Error(t, err)

	var gotAPIErr *client.APIError
	assert.True(t, errors.As(err, &gotAPIErr))

	state, err := f.store.GetSyncState(ctx, meta.EntityKindProduct, product.ID)
	require.NoError(t, err)
	assert.False(t, state.Synced)
	// The dirty flag stays so the next pass retries.
	assert.True(t, state.NeedsSync)
	assert.Contains(t, state.LastSyncError, "vat rate unknown")

	assert.Equal(t, []string{meta.SyncStatusError}, f.historyEntries(t))
}

func TestProductSyncerVanishedEntity(t *testing.T) {
	f := newSyncerFixture(t)

	_, err := f.syncers.Product.Sync(context.Background(), 99999, Request{Mode: meta.SyncModeManual})
	require.Error(t, err)

	var notFound *store.NotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, []string{meta.SyncStatusSkipped}, f.historyEntries(t))
}

func TestGuestCustomerSyncer(t *testing.T) {
	f := newSyncerFixture(t)
	ctx := context.Background()
	f.factory.CreateOrder(nil, testutil.WithGuestEmail("guest@example.com"))

	ref := mapper.GuestExternalReference("guest@example.com")
	f.api.On("FindCustomerByExternalReference", mock.Anything, ref).Return(nil, nil).Once()
	f.api.On("CreateCustomer", mock.Anything, mock.Anything).Return(remoteRecord("321"), nil).Once()

	result, err := f.syncers.Guest.Sync(ctx, "Guest@Example.COM", Request{Mode: meta.SyncModeManual})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "321", result.RemoteID)

	state, err := f.store.GetGuestSyncState(ctx, "guest@example.com")
	require.NoError(t, err)
	assert.True(t, state.Synced)
	assert.Equal(t, "321", state.RemoteID)

	f.api.AssertExpectations(t)
}

func TestGuestCustomerSyncerWithoutOrders(t *testing.T) {
	f := newSyncerFixture(t)

	_, err := f.syncers.Guest.Sync(context.Background(), "nobody@example.com", Request{Mode: meta.SyncModeManual})
	require.Error(t, err)

	var notFound *store.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestOrderSyncerCreatesInvoice(t *testing.T) {
	f := newSyncerFixture(t)
	ctx := context.Background()
	customer := f.factory.CreateCustomer()
	order := f.factory.CreateOrder(&customer.ID)
	ref := mapper.OrderExternalReference(order.ID)

	f.api.On("FindInvoiceByExternalReference", mock.Anything, ref).Return(nil, nil).Once()
	f.api.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(payload interface{}) bool {
		invoice, ok := payload.(*mapper.InvoicePayload)
		return ok && invoice.InvoiceNumber == order.Number && invoice.JournalCode == "VTE"
	})).Return(remoteRecord("inv-1"), nil).Once()

	result, err := f.syncers.Order.Sync(ctx, order.ID, Request{Mode: meta.SyncModeManual})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "inv-1", result.RemoteID)

	f.api.AssertExpectations(t)
}

func TestSyncerWritesOneHistoryEntryPerAttempt(t *testing.T) {
	f := newSyncerFixture(t)
	ctx := context.Background()
	product := f.factory.CreateProduct()

	f.api.On("FindProductByExternalReference", mock.Anything, mock.Anything).Return(nil, nil).Once()
	f.api.On("CreateProduct", mock.Anything, mock.Anything).Return(remoteRecord("10"), nil).Once()

	_, err := f.syncers.Product.Sync(ctx, product.ID, Request{Mode: meta.SyncModeManual, Actor: "admin"})
	require.NoError(t, err)

	entries, total, err := f.history.List(ctx, history.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, meta.SyncTypeProduct, entries[0].SyncType)
	assert.Equal(t, meta.SyncModeManual, entries[0].SyncMode)
	assert.Equal(t, meta.SyncStatusSuccess, entries[0].Status)
	require.NotNil(t, entries[0].Actor)
	assert.Equal(t, "admin", *entries[0].Actor)
	assert.GreaterOrEqual(t, entries[0].ExecutionTime, 0.0)
}
