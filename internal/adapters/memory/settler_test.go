package memory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stock-ledger/internal/adapters/memory"
	"github.com/ammerola/stock-ledger/internal/core/domain"
)

func TestSettler_Settle(t *testing.T) {
	tests := []struct {
		name             string
		kind             domain.MovementType
		expectedVersion  int64
		settledBefore    bool
		expectedError    error
		expectedQuantity int
		expectedReserved int
	}{
		{name: "release", kind: domain.MovementRelease, expectedVersion: 2, expectedQuantity: 10, expectedReserved: 0},
		{name: "sale", kind: domain.MovementSale, expectedVersion: 2, expectedQuantity: 6, expectedReserved: 0},
		{name: "stale_version", kind: domain.MovementRelease, expectedVersion: 1, expectedError: domain.ErrVersionConflict, expectedQuantity: 10, expectedReserved: 4},
		{name: "already_settled", kind: domain.MovementSale, expectedVersion: 3, settledBefore: true, expectedError: domain.ErrInvalidLinkage, expectedQuantity: 10, expectedReserved: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewStockStore()
			ledger := memory.NewMovementLedger()
			settler := memory.NewSettler(store, ledger)

			stock := newRecord(t, nil)
			require.NoError(t, store.Create(ctx, stock))
			_, err := store.ApplyDelta(ctx, stock.ID, 10, 0, 0)
			require.NoError(t, err)
			_, err = store.ApplyDelta(ctx, stock.ID, 0, 4, 1)
			require.NoError(t, err)
			reserveID := appendMovement(t, ledger, &domain.MovementRecord{StockID: stock.ID, MovementType: domain.MovementReserve, QuantityDelta: 4})

			closing := func(kind domain.MovementType) (*domain.MovementRecord, int) {
				m := &domain.MovementRecord{StockID: stock.ID, MovementType: kind, QuantityDelta: -4}
				if kind == domain.MovementSale {
					m.RelatedMovementID = &reserveID
					return m, -4
				}
				m.ReleaseMovementID = &reserveID
				return m, 0
			}

			if tt.settledBefore {
				m, qd := closing(domain.MovementRelease)
				_, err := settler.Settle(ctx, m, qd, -4, 2)
				require.NoError(t, err)
			}
			movementsBefore := ledger.Count(stock.ID)

			m, qd := closing(tt.kind)
			after, err := settler.Settle(ctx, m, qd, -4, tt.expectedVersion)

			current, getErr := store.GetByID(ctx, stock.ID)
			require.NoError(t, getErr)
			assert.Equal(t, tt.expectedQuantity, current.Quantity)
			assert.Equal(t, tt.expectedReserved, current.ReservedQuantity)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, after)
				assert.Equal(t, movementsBefore, ledger.Count(stock.ID), "nothing appended")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(3), after.Version)
			assert.NotEqual(t, uuid.Nil, m.ID)
			assert.Equal(t, 10, m.QuantityBefore)
			assert.Equal(t, 4, m.ReservedBefore)
			assert.Equal(t, tt.expectedQuantity, m.QuantityAfter)
			assert.Equal(t, 0, m.ReservedAfter)

			closer, err := ledger.FindClosing(ctx, reserveID)
			require.NoError(t, err)
			assert.Equal(t, m.ID, closer.ID)
		})
	}
}
