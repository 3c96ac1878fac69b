// internal/adapters/memory/stock_store.go
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

// StockStore keeps stock records in process memory. The mutex only makes
// each ApplyDelta atomic, the same guarantee a conditional UPDATE gives;
// callers still see version conflicts and must retry.
type StockStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.StockRecord
	byKey   map[string]uuid.UUID
}

var _ ports.StockStore = (*StockStore)(nil)

// NewStockStore creates an empty store
func NewStockStore() *StockStore {
	return &StockStore{
		records: make(map[uuid.UUID]domain.StockRecord),
		byKey:   make(map[string]uuid.UUID),
	}
}

func stockKey(itemID uuid.UUID, variantID *uuid.UUID) string {
	if variantID == nil {
		return itemID.String()
	}
	return itemID.String() + "/" + variantID.String()
}

func (s *StockStore) Create(ctx context.Context, stock *domain.StockRecord) error {
	if err := stock.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := stockKey(stock.ItemID, stock.VariantID)
	if _, exists := s.byKey[key]; exists {
		return fmt.Errorf("%w: item %s", domain.ErrDuplicateStock, key)
	}
	if _, exists := s.records[stock.ID]; exists {
		return fmt.Errorf("%w: id %s", domain.ErrDuplicateStock, stock.ID)
	}

	s.records[stock.ID] = *stock
	s.byKey[key] = stock.ID
	return nil
}

func (s *StockStore) Get(ctx context.Context, itemID uuid.UUID, variantID *uuid.UUID) (*domain.StockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[stockKey(itemID, variantID)]
	if !ok {
		return nil, domain.NewNotFound("stock for item", stockKey(itemID, variantID))
	}
	rec := s.records[id]
	return &rec, nil
}

func (s *StockStore) GetByID(ctx context.Context, stockID uuid.UUID) (*domain.StockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[stockID]
	if !ok {
		return nil, domain.NewNotFound("stock", stockID)
	}
	return &rec, nil
}

func (s *StockStore) ApplyDelta(ctx context.Context, stockID uuid.UUID, quantityDelta, reservedDelta int, expectedVersion int64) (*domain.StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[stockID]
	if !ok {
		return nil, domain.NewNotFound("stock", stockID)
	}
	if current.Version != expectedVersion {
		return nil, fmt.Errorf("%w: stock %s is at version %d, expected %d",
			domain.ErrVersionConflict, stockID, current.Version, expectedVersion)
	}

	next, err := current.ApplyDelta(quantityDelta, reservedDelta)
	if err != nil {
		return nil, err
	}

	s.records[stockID] = *next
	return next, nil
}

// Len reports how many records are stored.
func (s *StockStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
