package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stock-ledger/internal/adapters/memory"
	redis_a "github.com/ammerola/stock-ledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/core/services"
	"github.com/ammerola/stock-ledger/test/helpers"
)

func TestStockService_CreateStock(t *testing.T) {
	tests := []struct {
		name          string
		initial       int
		location      string
		inactive      bool
		unknownItem   bool
		expectedError error
	}{
		{name: "with_initial_quantity", initial: 25, location: "WH-A-01"},
		{name: "empty_stock", initial: 0, location: "WH-A-01"},
		{name: "negative_initial_quantity", initial: -1, location: "WH-A-01", expectedError: domain.ErrValidation},
		{name: "malformed_location", initial: 5, location: "wh a", expectedError: domain.ErrValidation},
		{name: "inactive_item", initial: 5, location: "WH-A-01", inactive: true, expectedError: domain.ErrInactiveProduct},
		{name: "unknown_item", initial: 5, location: "WH-A-01", unknownItem: true, expectedError: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			item := f.newItem(func(i *domain.Item) { i.IsActive = !tt.inactive })

			itemID := item.ID
			if tt.unknownItem {
				itemID = uuid.New()
			}

			stock, err := f.stocks.CreateStock(context.Background(), ports.CreateStockRequest{
				ItemID:            itemID,
				WarehouseLocation: tt.location,
				InitialQuantity:   tt.initial,
				CreatedBy:         "receiving",
			})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Zero(t, f.store.Len())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.initial, stock.Quantity)
			assert.Equal(t, 0, stock.ReservedQuantity)
			assert.Equal(t, tt.location, stock.WarehouseLocation)

			receipts := f.movements(t, stock.ID, domain.MovementReceipt)
			if tt.initial == 0 {
				assert.Empty(t, receipts)
				assert.Equal(t, int64(0), stock.Version)
				return
			}
			require.Len(t, receipts, 1)
			assert.Equal(t, tt.initial, receipts[0].QuantityDelta)
			assert.Equal(t, "INITIAL-STOCK", receipts[0].ReferenceNumber)
			assert.Equal(t, "receiving", receipts[0].CreatedBy)
			assert.Equal(t, int64(1), stock.Version)
		})
	}
}

func TestStockService_CreateStockRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	item := f.newItem()
	variant := helpers.NewTestVariant(item)
	f.catalog.PutVariant(*variant)

	req := ports.CreateStockRequest{ItemID: item.ID, WarehouseLocation: "WH-A-01", InitialQuantity: 3}
	_, err := f.stocks.CreateStock(ctx, req)
	require.NoError(t, err)

	_, err = f.stocks.CreateStock(ctx, req)
	assert.ErrorIs(t, err, domain.ErrDuplicateStock)

	// The variant is tracked separately from its parent item.
	req.VariantID = &variant.ID
	stock, err := f.stocks.CreateStock(ctx, req)
	require.NoError(t, err)
	assert.True(t, stock.HasVariant())

	found, err := f.stocks.FindStock(ctx, item.ID, &variant.ID)
	require.NoError(t, err)
	assert.Equal(t, stock.ID, found.ID)
}

func TestStockService_AdjustStock(t *testing.T) {
	tests := []struct {
		name             string
		adjustType       ports.AdjustmentType
		quantity         int
		expectedQuantity int
		expectedType     domain.MovementType
		expectedDelta    int
		expectedError    error
	}{
		{
			name:             "in_books_receipt",
			adjustType:       ports.AdjustIn,
			quantity:         10,
			expectedQuantity: 110,
			expectedType:     domain.MovementReceipt,
			expectedDelta:    10,
		},
		{
			name:             "out_reduces_on_hand",
			adjustType:       ports.AdjustOut,
			quantity:         20,
			expectedQuantity: 80,
			expectedType:     domain.MovementAdjustment,
			expectedDelta:    -20,
		},
		{
			name:             "set_lowers_to_target",
			adjustType:       ports.AdjustSet,
			quantity:         50,
			expectedQuantity: 50,
			expectedType:     domain.MovementAdjustment,
			expectedDelta:    -50,
		},
		{
			name:             "set_raises_to_target",
			adjustType:       ports.AdjustSet,
			quantity:         120,
			expectedQuantity: 120,
			expectedType:     domain.MovementAdjustment,
			expectedDelta:    20,
		},
		{
			name:             "set_down_to_reserved_is_allowed",
			adjustType:       ports.AdjustSet,
			quantity:         30,
			expectedQuantity: 30,
			expectedType:     domain.MovementAdjustment,
			expectedDelta:    -70,
		},
		{
			name:          "out_below_reserved",
			adjustType:    ports.AdjustOut,
			quantity:      80,
			expectedError: domain.ErrInvalidAdjustment,
		},
		{
			name:          "set_below_reserved",
			adjustType:    ports.AdjustSet,
			quantity:      29,
			expectedError: domain.ErrInvalidAdjustment,
		},
		{
			name:          "out_below_zero",
			adjustType:    ports.AdjustOut,
			quantity:      200,
			expectedError: domain.ErrInvalidAdjustment,
		},
		{
			name:          "set_to_current_quantity",
			adjustType:    ports.AdjustSet,
			quantity:      100,
			expectedError: domain.ErrInvalidAdjustment,
		},
		{
			name:          "out_zero",
			adjustType:    ports.AdjustOut,
			quantity:      0,
			expectedError: domain.ErrValidation,
		},
		{
			name:          "set_negative",
			adjustType:    ports.AdjustSet,
			quantity:      -1,
			expectedError: domain.ErrValidation,
		},
		{
			name:          "in_zero",
			adjustType:    ports.AdjustIn,
			quantity:      0,
			expectedError: domain.ErrValidation,
		},
		{
			name:          "unknown_type",
			adjustType:    "SHRINK",
			quantity:      1,
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			stock := f.newStock(t, 100)
			f.reserve(t, stock.ID, 30)
			before := f.current(t, stock.ID)

			movement, err := f.stocks.AdjustStock(context.Background(), ports.AdjustRequest{
				StockID:         stock.ID,
				Type:            tt.adjustType,
				Quantity:        tt.quantity,
				Reason:          "cycle count",
				ReferenceNumber: "CC-2024-01",
				CreatedBy:       "auditor",
			})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				if errors.Is(tt.expectedError, domain.ErrInvalidAdjustment) {
					assert.Equal(t, domain.CodeInvalidOperation, domain.ErrorCode(err))
				}
				assert.Equal(t, before, f.current(t, stock.ID))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedType, movement.MovementType)
			assert.Equal(t, tt.expectedDelta, movement.QuantityDelta)
			assert.Equal(t, 100, movement.QuantityBefore)
			assert.Equal(t, tt.expectedQuantity, movement.QuantityAfter)

			after := f.current(t, stock.ID)
			assert.Equal(t, tt.expectedQuantity, after.Quantity)
			assert.Equal(t, 30, after.ReservedQuantity)
			if tt.expectedType == domain.MovementAdjustment {
				assert.Equal(t, "cycle count", movement.Notes)
			}
			f.assertBalanced(t, stock.ID)
		})
	}
}

func TestStockService_TransferStock(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	from := f.newStock(t, 50)
	to := f.newStock(t, 5)

	result, err := f.stocks.TransferStock(ctx, ports.TransferRequest{
		FromStockID:     from.ID,
		ToStockID:       to.ID,
		Quantity:        12,
		ReferenceNumber: "TR-1",
		CreatedBy:       "ops",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MovementTransferOut, result.Out.MovementType)
	assert.Equal(t, -12, result.Out.QuantityDelta)
	assert.Equal(t, from.ID, result.Out.StockID)
	assert.Equal(t, domain.MovementTransferIn, result.In.MovementType)
	assert.Equal(t, 12, result.In.QuantityDelta)
	assert.Equal(t, to.ID, result.In.StockID)
	require.NotNil(t, result.In.RelatedMovementID)
	assert.Equal(t, result.Out.ID, *result.In.RelatedMovementID)

	assert.Equal(t, 38, f.current(t, from.ID).Quantity)
	assert.Equal(t, 17, f.current(t, to.ID).Quantity)
	f.assertBalanced(t, from.ID)
	f.assertBalanced(t, to.ID)

	closing, err := f.ledger.FindClosing(ctx, result.Out.ID)
	require.NoError(t, err)
	assert.Equal(t, result.In.ID, closing.ID)
}

func TestStockService_TransferStockRejections(t *testing.T) {
	tests := []struct {
		name          string
		quantity      int
		sameStock     bool
		missingTarget bool
		expectedError error
	}{
		{name: "to_itself", quantity: 1, sameStock: true, expectedError: domain.ErrValidation},
		{name: "zero_quantity", quantity: 0, expectedError: domain.ErrValidation},
		{name: "reserved_units_stay", quantity: 41, expectedError: domain.ErrInsufficientStock},
		{name: "unknown_target", quantity: 1, missingTarget: true, expectedError: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			from := f.newStock(t, 50)
			to := f.newStock(t, 0)
			f.reserve(t, from.ID, 10)

			toID := to.ID
			switch {
			case tt.sameStock:
				toID = from.ID
			case tt.missingTarget:
				toID = uuid.New()
			}

			_, err := f.stocks.TransferStock(context.Background(), ports.TransferRequest{
				FromStockID: from.ID,
				ToStockID:   toID,
				Quantity:    tt.quantity,
				CreatedBy:   "ops",
			})

			assert.ErrorIs(t, err, tt.expectedError)
			assert.Equal(t, 50, f.current(t, from.ID).Quantity)
			assert.Empty(t, f.movements(t, from.ID, domain.MovementTransferOut))
		})
	}
}

// brokenStore fails every write to one record.
type brokenStore struct {
	*memory.StockStore
	broken uuid.UUID
}

func (s *brokenStore) ApplyDelta(ctx context.Context, stockID uuid.UUID, quantityDelta, reservedDelta int, expectedVersion int64) (*domain.StockRecord, error) {
	if stockID == s.broken {
		return nil, errors.New("tablespace full")
	}
	return s.StockStore.ApplyDelta(ctx, stockID, quantityDelta, reservedDelta, expectedVersion)
}

func TestStockService_TransferStockReversesOutboundLeg(t *testing.T) {
	broken := &brokenStore{}
	f := newLedgerFixture(t, func(o *fixtureOptions) {
		o.wrapStore = func(s *memory.StockStore) ports.StockStore {
			broken.StockStore = s
			return broken
		}
	})
	from := f.newStock(t, 50)
	to := f.newStock(t, 0)
	broken.broken = to.ID

	result, err := f.stocks.TransferStock(context.Background(), ports.TransferRequest{
		FromStockID: from.ID,
		ToStockID:   to.ID,
		Quantity:    20,
		CreatedBy:   "ops",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "tablespace full")

	assert.Equal(t, 50, f.current(t, from.ID).Quantity)
	assert.Equal(t, 0, f.current(t, to.ID).Quantity)

	movements := f.movements(t, from.ID)
	require.Len(t, movements, 3)
	assert.Equal(t, domain.MovementAdjustment, movements[0].MovementType)
	assert.Equal(t, 20, movements[0].QuantityDelta)
	assert.Equal(t, domain.MovementTransferOut, movements[1].MovementType)
	assert.True(t, strings.HasSuffix(movements[0].Notes, movements[1].ID.String()))
	assert.Equal(t, domain.MovementReceipt, movements[2].MovementType)
	f.assertBalanced(t, from.ID)
}

func TestStockService_ListMovements(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	stock := f.newStock(t, 40)

	first := f.reserve(t, stock.ID, 5)
	f.reserve(t, stock.ID, 7)
	require.NoError(t, f.reservations.Release(ctx, first, "c"))

	all := f.movements(t, stock.ID)
	require.Len(t, all, 4)
	assert.Equal(t, domain.MovementRelease, all[0].MovementType)
	assert.Equal(t, domain.MovementReceipt, all[3].MovementType)

	reserves := f.movements(t, stock.ID, domain.MovementReserve)
	require.Len(t, reserves, 2)
	assert.Equal(t, 7, reserves[0].QuantityDelta)

	page, err := f.stocks.ListMovements(ctx, stock.ID, ports.MovementFilter{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[1].ID, page[0].ID)
	assert.Equal(t, all[2].ID, page[1].ID)

	_, err = f.stocks.ListMovements(ctx, uuid.New(), ports.MovementFilter{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStockService_GetAvailabilityCached(t *testing.T) {
	ctx := context.Background()
	testRedis := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(testRedis.Client, time.Minute, helpers.TestLogger())

	f := newLedgerFixture(t, func(o *fixtureOptions) {
		o.cache = cache
		o.cacheTTL = time.Minute
	})
	stock := f.newStock(t, 30)

	availability, err := f.stocks.GetAvailability(ctx, stock.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, availability.AvailableQuantity)
	assert.True(t, availability.IsAvailable)
	assert.True(t, testRedis.Server.Exists(services.AvailabilityCacheKey(stock.ID)))

	// Recording a movement drops the cached view.
	f.reserve(t, stock.ID, 30)
	assert.False(t, testRedis.Server.Exists(services.AvailabilityCacheKey(stock.ID)))

	availability, err = f.stocks.GetAvailability(ctx, stock.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, availability.AvailableQuantity)
	assert.Equal(t, 30, availability.ReservedQuantity)
	assert.False(t, availability.IsAvailable)

	// Cache outages fall back to the store.
	testRedis.Server.Close()
	availability, err = f.stocks.GetAvailability(ctx, stock.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, availability.Quantity)

	_, err = f.stocks.GetAvailability(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStockService_OverlongTextLeavesStockUntouched(t *testing.T) {
	longReference := strings.Repeat("R", 101)
	longReason := strings.Repeat("n", 501)

	tests := []struct {
		name     string
		transfer bool
		req      ports.AdjustRequest
	}{
		{name: "adjust_out_reason", req: ports.AdjustRequest{Type: ports.AdjustOut, Quantity: 5, Reason: longReason}},
		{name: "adjust_set_reference", req: ports.AdjustRequest{Type: ports.AdjustSet, Quantity: 60, ReferenceNumber: longReference}},
		{name: "transfer_reference", transfer: true, req: ports.AdjustRequest{Quantity: 5, ReferenceNumber: longReference}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newLedgerFixture(t)
			from := f.newStock(t, 50)
			to := f.newStock(t, 0)
			fromBefore := f.current(t, from.ID)
			toBefore := f.current(t, to.ID)

			var err error
			if tt.transfer {
				_, err = f.stocks.TransferStock(ctx, ports.TransferRequest{
					FromStockID:     from.ID,
					ToStockID:       to.ID,
					Quantity:        tt.req.Quantity,
					ReferenceNumber: tt.req.ReferenceNumber,
					CreatedBy:       "ops",
				})
			} else {
				req := tt.req
				req.StockID = from.ID
				req.CreatedBy = "auditor"
				_, err = f.stocks.AdjustStock(ctx, req)
			}

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, fromBefore, f.current(t, from.ID))
			assert.Equal(t, toBefore, f.current(t, to.ID))
			assert.Len(t, f.movements(t, from.ID), 1, "only the opening receipt")
			assert.Empty(t, f.movements(t, to.ID))
		})
	}
}

func TestStockService_GetMovement(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	stock := f.newStock(t, 10)
	reservationID := f.reserve(t, stock.ID, 4)

	movement, err := f.stocks.GetMovement(ctx, reservationID)
	require.NoError(t, err)
	assert.Equal(t, stock.ID, movement.StockID)
	assert.Equal(t, domain.MovementReserve, movement.MovementType)
	assert.Equal(t, 4, movement.QuantityDelta)
	assert.Equal(t, 4, movement.ReservedAfter)

	_, err = f.stocks.GetMovement(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
