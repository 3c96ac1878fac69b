// internal/adapters/db/catalog_repository.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

// CatalogRepository reads and seeds items and variants through sqlx, which
// maps rows onto the domain structs by their db tags.
type CatalogRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var (
	_ ports.ItemCatalog   = (*CatalogRepository)(nil)
	_ ports.CatalogWriter = (*CatalogRepository)(nil)
)

// OpenSQLX exposes a pgx pool as a database/sql handle for sqlx.
func OpenSQLX(pool *pgxpool.Pool) *sqlx.DB {
	return sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")
}

// NewCatalogRepository creates a catalog repository
func NewCatalogRepository(db *sqlx.DB, logger *slog.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "catalog")),
	}
}

func (r *CatalogRepository) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	var item domain.Item
	query := `SELECT id, sku, name, description, base_price, is_active, created_at, updated_at
		FROM items WHERE id = $1`
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("item", id)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

func (r *CatalogRepository) GetVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	var variant domain.Variant
	query := `SELECT id, item_id, variant_sku, name, price_adjustment, is_active, created_at, updated_at
		FROM variants WHERE id = $1`
	if err := r.db.GetContext(ctx, &variant, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("variant", id)
		}
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return &variant, nil
}

// SearchItems runs a full-text match over item names and descriptions.
func (r *CatalogRepository) SearchItems(ctx context.Context, text string, limit int) ([]domain.Item, error) {
	if limit <= 0 {
		limit = 20
	}

	var items []domain.Item
	query := `SELECT id, sku, name, description, base_price, is_active, created_at, updated_at
		FROM items
		WHERE to_tsvector('english', name || ' ' || description) @@ plainto_tsquery('english', $1)
		ORDER BY name
		LIMIT $2`
	if err := r.db.SelectContext(ctx, &items, query, text, limit); err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	return items, nil
}

// SaveItem inserts an item or updates the one with the same SKU.
func (r *CatalogRepository) SaveItem(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO items (id, sku, name, description, base_price, is_active, created_at, updated_at)
		VALUES (:id, :sku, :name, :description, :base_price, :is_active, :created_at, :updated_at)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			base_price = EXCLUDED.base_price,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("failed to save item %s: %w", item.SKU, err)
	}
	return nil
}

// SaveVariant inserts a variant or updates the one with the same SKU.
func (r *CatalogRepository) SaveVariant(ctx context.Context, variant *domain.Variant) error {
	if err := variant.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO variants (id, item_id, variant_sku, name, price_adjustment, is_active, created_at, updated_at)
		VALUES (:id, :item_id, :variant_sku, :name, :price_adjustment, :is_active, :created_at, :updated_at)
		ON CONFLICT (variant_sku) DO UPDATE SET
			name = EXCLUDED.name,
			price_adjustment = EXCLUDED.price_adjustment,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, variant); err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return domain.NewNotFound("item", variant.ItemID)
		}
		return fmt.Errorf("failed to save variant %s: %w", variant.VariantSKU, err)
	}
	return nil
}
