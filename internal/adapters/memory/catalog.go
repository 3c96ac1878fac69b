// internal/adapters/memory/catalog.go
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

// Catalog is a map-backed ItemCatalog for tests and local runs.
type Catalog struct {
	mu       sync.RWMutex
	items    map[uuid.UUID]domain.Item
	variants map[uuid.UUID]domain.Variant
}

var (
	_ ports.ItemCatalog   = (*Catalog)(nil)
	_ ports.CatalogWriter = (*Catalog)(nil)
)

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		items:    make(map[uuid.UUID]domain.Item),
		variants: make(map[uuid.UUID]domain.Variant),
	}
}

// PutItem stores or replaces an item.
func (c *Catalog) PutItem(item domain.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ID] = item
}

// PutVariant stores or replaces a variant.
func (c *Catalog) PutVariant(variant domain.Variant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variants[variant.ID] = variant
}

func (c *Catalog) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok {
		return nil, domain.NewNotFound("item", id)
	}
	return &item, nil
}

func (c *Catalog) GetVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	variant, ok := c.variants[id]
	if !ok {
		return nil, domain.NewNotFound("variant", id)
	}
	return &variant, nil
}

// SaveItem validates and stores item.
func (c *Catalog) SaveItem(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	c.PutItem(*item)
	return nil
}

// SaveVariant validates and stores variant. The parent item must exist.
func (c *Catalog) SaveVariant(ctx context.Context, variant *domain.Variant) error {
	if err := variant.Validate(); err != nil {
		return err
	}
	if _, err := c.GetItem(ctx, variant.ItemID); err != nil {
		return err
	}
	c.PutVariant(*variant)
	return nil
}
