package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stock-ledger/internal/adapters/memory"
	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/test/helpers"
)

func newCheckout(t *testing.T, reference string) *domain.CheckoutItem {
	t.Helper()
	c, err := domain.NewCheckoutItem("customer-1", reference, uuid.New(), nil, uuid.New(), 1, decimal.NewFromInt(10))
	require.NoError(t, err)
	return c
}

func TestCheckoutRepository_OptimisticUpdate(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCheckoutRepository()

	c := newCheckout(t, "CO-1")
	require.NoError(t, repo.Create(ctx, c))
	assert.Error(t, repo.Create(ctx, c), "ids are unique")

	stale, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)

	fresh, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NoError(t, fresh.TransitionTo(domain.CheckoutCancelled, time.Now()))
	require.NoError(t, repo.Update(ctx, fresh, 0))

	require.NoError(t, stale.TransitionTo(domain.CheckoutExpired, time.Now()))
	assert.ErrorIs(t, repo.Update(ctx, stale, 0), domain.ErrVersionConflict)

	stored, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutCancelled, stored.Status)
	assert.Equal(t, int64(1), stored.Version)

	assert.ErrorIs(t, repo.Update(ctx, newCheckout(t, ""), 0), domain.ErrNotFound)
	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckoutRepository_ListByReference(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCheckoutRepository()

	first := newCheckout(t, "CO-SHARED")
	second := newCheckout(t, "CO-SHARED")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, newCheckout(t, "CO-OTHER")))

	items, err := repo.ListByReference(ctx, "CO-SHARED")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
}

func TestCheckoutRepository_ListStale(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCheckoutRepository()
	now := time.Now().UTC()

	reserved := func(age time.Duration) *domain.CheckoutItem {
		c := newCheckout(t, "")
		id := uuid.New()
		c.ReservationID = &id
		require.NoError(t, c.TransitionTo(domain.CheckoutReserved, now.Add(-age)))
		require.NoError(t, repo.Create(ctx, c))
		return c
	}

	oldest := reserved(time.Hour)
	older := reserved(30 * time.Minute)
	reserved(time.Minute)

	pending := newCheckout(t, "")
	pending.CreatedAt = now.Add(-2 * time.Hour)
	require.NoError(t, repo.Create(ctx, pending))

	cutoff := now.Add(-15 * time.Minute)

	items, err := repo.ListStale(ctx, domain.CheckoutReserved, cutoff, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, oldest.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)

	items, err = repo.ListStale(ctx, domain.CheckoutReserved, cutoff, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, oldest.ID, items[0].ID)

	items, err = repo.ListStale(ctx, domain.CheckoutPending, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, pending.ID, items[0].ID)
}

func TestCatalog_Save(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalog()

	item := helpers.NewTestItem()
	require.NoError(t, catalog.SaveItem(ctx, item))

	got, err := catalog.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.SKU, got.SKU)

	variant := helpers.NewTestVariant(item)
	require.NoError(t, catalog.SaveVariant(ctx, variant))
	gotVariant, err := catalog.GetVariant(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, gotVariant.ItemID)

	orphan := helpers.NewTestVariant(helpers.NewTestItem())
	assert.ErrorIs(t, catalog.SaveVariant(ctx, orphan), domain.ErrNotFound)

	bad := helpers.NewTestItem(func(i *domain.Item) { i.SKU = "lower case" })
	assert.ErrorIs(t, catalog.SaveItem(ctx, bad), domain.ErrValidation)

	_, err = catalog.GetVariant(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
