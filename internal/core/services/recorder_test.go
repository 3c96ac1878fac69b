package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stock-ledger/internal/adapters/memory"
	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/core/services"
	"github.com/ammerola/stock-ledger/test/helpers"
	"github.com/ammerola/stock-ledger/test/mocks"
)

// seededStore returns a memory store holding one record with quantity on hand.
func seededStore(t *testing.T, quantity int) (*memory.StockStore, uuid.UUID) {
	t.Helper()

	store := memory.NewStockStore()
	stock, err := domain.NewStockRecord(uuid.New(), nil, "WH-A-01")
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), stock))

	_, err = store.ApplyDelta(context.Background(), stock.ID, quantity, 0, 0)
	require.NoError(t, err)
	return store, stock.ID
}

func TestMovementRecorder_CompensatesWhenAppendFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := helpers.TestLogger()

	store, stockID := seededStore(t, 10)
	ledger := mocks.NewMockMovementLedger(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)

	ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(uuid.Nil, errors.New("connection reset"))
	cache.EXPECT().Delete(gomock.Any(), services.AvailabilityCacheKey(stockID)).Return(nil)

	cc := services.NewConcurrencyController(store, fastRetry(), nil, logger)
	recorder := services.NewMovementRecorder(ledger, cc, services.RecorderOptions{Cache: cache}, logger)
	reservations := services.NewReservationManager(ledger, mocks.NewMockReservationSettler(ctrl), cc, recorder, nil, logger)

	id, err := reservations.Reserve(context.Background(), ports.ReserveRequest{
		StockID:   stockID,
		Quantity:  4,
		CreatedBy: "customer-1",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to append RESERVE movement")
	assert.Equal(t, uuid.Nil, id)

	after, err := store.GetByID(context.Background(), stockID)
	require.NoError(t, err)
	assert.Equal(t, 10, after.Quantity)
	assert.Equal(t, 0, after.ReservedQuantity)
	// seed, reserve, compensation
	assert.Equal(t, int64(3), after.Version)
}

func TestMovementRecorder_CompensatesInvalidMovement(t *testing.T) {
	ctx := context.Background()
	logger := helpers.TestLogger()

	store, stockID := seededStore(t, 10)
	ledger := memory.NewMovementLedger()
	cc := services.NewConcurrencyController(store, fastRetry(), nil, logger)
	recorder := services.NewMovementRecorder(ledger, cc, services.RecorderOptions{}, logger)

	mut, err := cc.Mutate(ctx, "test", stockID, func(*domain.StockRecord) (int, int, error) {
		return 0, 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, mut.After.ReservedQuantity)

	// A RELEASE without its RESERVE link can never be recorded.
	movement, err := recorder.Record(ctx, "test", mut, domain.MovementParams{
		Type:          domain.MovementRelease,
		QuantityDelta: -3,
		CreatedBy:     "test",
	})

	assert.Nil(t, movement)
	assert.ErrorIs(t, err, domain.ErrInvalidLinkage)

	after, err := store.GetByID(ctx, stockID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.ReservedQuantity)
	assert.Equal(t, 0, ledger.Count(stockID))
}

func TestMovementRecorder_FanOutFailuresDoNotFailTheOperation(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := helpers.TestLogger()

	store, stockID := seededStore(t, 10)
	ledger := mocks.NewMockMovementLedger(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	publisher := mocks.NewMockMovementPublisher(ctrl)

	appended := uuid.New()
	ledger.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, m *domain.MovementRecord) (uuid.UUID, error) {
			assert.Equal(t, domain.MovementReserve, m.MovementType)
			assert.Equal(t, 0, m.ReservedBefore)
			assert.Equal(t, 6, m.ReservedAfter)
			assert.Equal(t, 6, m.QuantityDelta)
			return appended, nil
		})
	cache.EXPECT().Delete(gomock.Any(), services.AvailabilityCacheKey(stockID)).Return(errors.New("redis down"))
	publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, m *domain.MovementRecord) error {
			assert.Equal(t, appended, m.ID)
			assert.Equal(t, stockID, m.StockID)
			return errors.New("broker unavailable")
		})

	cc := services.NewConcurrencyController(store, fastRetry(), nil, logger)
	recorder := services.NewMovementRecorder(ledger, cc, services.RecorderOptions{
		Cache:     cache,
		Publisher: publisher,
	}, logger)
	reservations := services.NewReservationManager(ledger, mocks.NewMockReservationSettler(ctrl), cc, recorder, nil, logger)

	id, err := reservations.Reserve(context.Background(), ports.ReserveRequest{
		StockID:   stockID,
		Quantity:  6,
		CreatedBy: "customer-1",
	})

	require.NoError(t, err)
	assert.Equal(t, appended, id)

	after, err := store.GetByID(context.Background(), stockID)
	require.NoError(t, err)
	assert.Equal(t, 6, after.ReservedQuantity)
}
