// internal/core/ports/movement_ledger.go
package ports

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/domain"
)

// MovementLedger defines the append-only audit log port. There is no update
// or delete.
type MovementLedger interface {
	// Append validates linkage, assigns an id and timestamp and stores the
	// record. A RELEASE, SALE or TRANSFER_IN that references a missing,
	// mismatched or already closed movement fails with domain.ErrInvalidLinkage.
	Append(ctx context.Context, movement *domain.MovementRecord) (uuid.UUID, error)

	// Get returns a movement or domain.ErrNotFound.
	Get(ctx context.Context, movementID uuid.UUID) (*domain.MovementRecord, error)

	// FindClosing returns the movement that closes movementID (the RELEASE or
	// SALE of a RESERVE, the TRANSFER_IN of a TRANSFER_OUT) or domain.ErrNotFound.
	FindClosing(ctx context.Context, movementID uuid.UUID) (*domain.MovementRecord, error)

	// ListByStock yields movements newest first. The sequence is lazy and
	// may be ranged over more than once.
	ListByStock(ctx context.Context, stockID uuid.UUID, filter MovementFilter) iter.Seq2[*domain.MovementRecord, error]
}

// ReservationSettler closes a reservation. The stock delta and the closing
// RELEASE or SALE are written together or not at all, so a settle that
// loses the race for a reservation never moves stock.
type ReservationSettler interface {
	// Settle applies the deltas to movement.StockID at expectedVersion and
	// appends movement, filling its snapshots, id and timestamp. It fails
	// with domain.ErrInvalidLinkage when the reservation is already closed,
	// domain.ErrVersionConflict on a stale version and
	// domain.ErrInvariantViolation when the result breaks the stock
	// invariant.
	Settle(ctx context.Context, movement *domain.MovementRecord, quantityDelta, reservedDelta int, expectedVersion int64) (*domain.StockRecord, error)
}

// MovementFilter narrows a ledger listing.
type MovementFilter struct {
	Types    []domain.MovementType
	Since    *time.Time
	Until    *time.Time
	Offset   int
	Limit    int // zero means no limit
	PageSize int // rows fetched per round trip by storage adapters
}

// Matches reports whether m passes the type and time constraints.
func (f MovementFilter) Matches(m *domain.MovementRecord) bool {
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if m.MovementType == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Since != nil && m.CreatedAt.Before(*f.Since) {
		return false
	}
	if f.Until != nil && !m.CreatedAt.Before(*f.Until) {
		return false
	}
	return true
}

// CollectMovements drains a ledger sequence into a slice.
func CollectMovements(seq iter.Seq2[*domain.MovementRecord, error]) ([]*domain.MovementRecord, error) {
	var out []*domain.MovementRecord
	for m, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
