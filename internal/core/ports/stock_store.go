// internal/core/ports/stock_store.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/domain"
)

// StockStore defines the persistence port for stock records. Records are
// mutated only through ApplyDelta.
type StockStore interface {
	// Create inserts a new record. A second record for the same item and
	// variant (or the same item when variantID is nil) fails with
	// domain.ErrDuplicateStock.
	Create(ctx context.Context, stock *domain.StockRecord) error

	// Get returns the record for an item/variant pair or domain.ErrNotFound.
	Get(ctx context.Context, itemID uuid.UUID, variantID *uuid.UUID) (*domain.StockRecord, error)

	// GetByID returns the record or domain.ErrNotFound.
	GetByID(ctx context.Context, stockID uuid.UUID) (*domain.StockRecord, error)

	// ApplyDelta adds the deltas only if the stored version equals
	// expectedVersion, writing version+1. It fails with
	// domain.ErrVersionConflict on a stale version and
	// domain.ErrInvariantViolation when the result would break
	// 0 <= reserved <= quantity. Nothing is written on failure.
	ApplyDelta(ctx context.Context, stockID uuid.UUID, quantityDelta, reservedDelta int, expectedVersion int64) (*domain.StockRecord, error)
}
