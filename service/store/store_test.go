package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"pennylane-sync-service/service/meta"
	"pennylane-sync-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *testutil.TestDataFactory) {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return NewStore(tdb.DB), testutil.NewTestDataFactory(tdb.DB)
}

func TestGetCustomer(t *testing.T) {
	st, factory := newTestStore(t)
	ctx := context.Background()

	created := factory.CreateCustomer()

	customer, err := st.GetCustomer(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, customer.Email)

	_, err = st.GetCustomer(ctx, 99999)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "customer", notFound.Kind)
}

func TestGetOrderPreloadsItems(t *testing.T) {
	st, factory := newTestStore(t)
	ctx := context.Background()

	customer := factory.CreateCustomer()
	created := factory.CreateOrder(&customer.ID)

	order, err := st.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.False(t, order.IsGuest())
}

func TestGetLatestGuestOrder(t *testing.T) {
	st, factory := newTestStore(t)
	ctx := context.Background()

	older := factory.CreateOrder(nil, testutil.WithGuestEmail("guest@example.com"))
	older.OrderedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, factory.DB.Save(older).Error)

	newer := factory.CreateOrder(nil, testutil.WithGuestEmail("Guest@Example.com"))

	order, err := st.GetLatestGuestOrder(ctx, "GUEST@example.com")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, order.ID)

	_, err = st.GetLatestGuestOrder(ctx, "nobody@example.com")
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestListEntityIDs(t *testing.T) {
	st, factory := newTestStore(t)
	ctx := context.Background()

	var created []int64
	for i := 0; i < 5; i++ {
		created = append(created, factory.CreateProduct().ID)
	}

	ids, total, err := st.ListEntityIDs(ctx, meta.EntityKindProduct, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, created[:3], ids)

	ids, total, err = st.ListEntityIDs(ctx, meta.EntityKindProduct, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, created[3:], ids)

	_, _, err = st.ListEntityIDs(ctx, "banana", 0, 10)
	assert.Error(t, err)
}

func TestListGuestEmails(t *testing.T) {
	st, factory := newTestStore(t)
	ctx := context.Background()

	factory.CreateOrder(nil, testutil.WithGuestEmail("a@example.com"))
	factory.CreateOrder(nil, testutil.WithGuestEmail("A@Example.com"))
	factory.CreateOrder(nil, testutil.WithGuestEmail("b@example.com"))
	customer := factory.CreateCustomer()
	factory.CreateOrder(&customer.ID)

	emails, total, err := st.ListGuestEmails(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, emails)
}

func TestListDirtyIDs(t *testing.T) {
	st, factory := newTestStore(t)
	ctx := context.Background()

	dirty := factory.CreateProduct()
	clean := factory.CreateProduct()
	excluded := factory.CreateProduct()

	require.NoError(t, st.MarkDirty(ctx, meta.EntityKindProduct, dirty.ID))
	require.NoError(t, st.MarkDirty(ctx, meta.EntityKindProduct, excluded.ID))
	require.NoError(t, st.SetExcluded(ctx, meta.EntityKindProduct, excluded.ID, true))

	ids, total, err := st.ListDirtyIDs(ctx, meta.EntityKindProduct, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []int64{dirty.ID}, ids)
	assert.NotContains(t, ids, clean.ID)
}

func TestListOrderIDsInRange(t *testing.T) {
	st, factory := newTestStore(t)
	ctx := context.Background()

	customer := factory.CreateCustomer()
	recent := factory.CreateOrder(&customer.ID)

	old := factory.CreateOrder(&customer.ID)
	old.OrderedAt = time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, factory.DB.Save(old).Error)

	ids, total, err := st.ListOrderIDsInRange(ctx, time.Now().Add(-48*time.Hour), time.Now(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []int64{recent.ID}, ids)
}
