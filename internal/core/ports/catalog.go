// internal/core/ports/catalog.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/domain"
)

// ItemCatalog is the read-only view of items and variants.
type ItemCatalog interface {
	GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error)
}

// CatalogWriter registers items and variants. The ledger never writes the
// catalog itself; seeding and tests do.
type CatalogWriter interface {
	SaveItem(ctx context.Context, item *domain.Item) error
	SaveVariant(ctx context.Context, variant *domain.Variant) error
}
