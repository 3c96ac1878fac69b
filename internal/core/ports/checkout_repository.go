// internal/core/ports/checkout_repository.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/domain"
)

// CheckoutRepository defines the persistence port for checkout items.
type CheckoutRepository interface {
	Create(ctx context.Context, item *domain.CheckoutItem) error
	Get(ctx context.Context, id uuid.UUID) (*domain.CheckoutItem, error)
	ListByReference(ctx context.Context, reference string) ([]*domain.CheckoutItem, error)

	// Update writes item only if the stored version equals expectedVersion,
	// otherwise it fails with domain.ErrVersionConflict.
	Update(ctx context.Context, item *domain.CheckoutItem, expectedVersion int64) error

	// ListStale returns up to limit items in status whose age reference
	// (reserved_at for RESERVED, created_at otherwise) is before cutoff,
	// oldest first.
	ListStale(ctx context.Context, status domain.CheckoutStatus, cutoff time.Time, limit int) ([]*domain.CheckoutItem, error)
}
