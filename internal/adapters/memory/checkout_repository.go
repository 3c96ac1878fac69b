// internal/adapters/memory/checkout_repository.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

// CheckoutRepository keeps checkout items in memory with version CAS.
type CheckoutRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]domain.CheckoutItem
}

var _ ports.CheckoutRepository = (*CheckoutRepository)(nil)

// NewCheckoutRepository creates an empty repository
func NewCheckoutRepository() *CheckoutRepository {
	return &CheckoutRepository{items: make(map[uuid.UUID]domain.CheckoutItem)}
}

func (r *CheckoutRepository) Create(ctx context.Context, item *domain.CheckoutItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("checkout item %s already exists", item.ID)
	}
	r.items[item.ID] = *item
	return nil
}

func (r *CheckoutRepository) Get(ctx context.Context, id uuid.UUID) (*domain.CheckoutItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFound("checkout", id)
	}
	return &item, nil
}

func (r *CheckoutRepository) ListByReference(ctx context.Context, reference string) ([]*domain.CheckoutItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.CheckoutItem
	for _, item := range r.items {
		if item.CheckoutReference == reference {
			out = append(out, &item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *CheckoutRepository) Update(ctx context.Context, item *domain.CheckoutItem, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[item.ID]
	if !ok {
		return domain.NewNotFound("checkout", item.ID)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: checkout %s is at version %d, expected %d",
			domain.ErrVersionConflict, item.ID, current.Version, expectedVersion)
	}
	r.items[item.ID] = *item
	return nil
}

func (r *CheckoutRepository) ListStale(ctx context.Context, status domain.CheckoutStatus, cutoff time.Time, limit int) ([]*domain.CheckoutItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.CheckoutItem
	for _, item := range r.items {
		if item.Status != status {
			continue
		}
		if ageRef(&item).Before(cutoff) {
			out = append(out, &item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return ageRef(out[i]).Before(ageRef(out[j])) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func ageRef(item *domain.CheckoutItem) time.Time {
	if item.Status == domain.CheckoutReserved && item.ReservedAt != nil {
		return *item.ReservedAt
	}
	return item.CreatedAt
}
