// internal/adapters/db/stock_store.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

const stockColumns = `id, item_id, variant_id, warehouse_location, quantity,
	reserved_quantity, version, created_at, updated_at`

// stockStore implements ports.StockStore on PostgreSQL. ApplyDelta is a single
// conditional UPDATE so concurrent writers race on the version column.
type stockStore struct {
	db     *Database
	logger *slog.Logger
}

// NewStockStore creates a PostgreSQL-backed stock store
func NewStockStore(db *Database, logger *slog.Logger) ports.StockStore {
	return &stockStore{
		db:     db,
		logger: logger.With(slog.String("repository", "stock")),
	}
}

func (s *stockStore) Create(ctx context.Context, stock *domain.StockRecord) error {
	if err := stock.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO stock (
			id, item_id, variant_id, warehouse_location,
			quantity, reserved_quantity, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query,
		stock.ID, stock.ItemID, stock.VariantID, stock.WarehouseLocation,
		stock.Quantity, stock.ReservedQuantity, stock.Version,
	).Scan(&stock.CreatedAt, &stock.UpdatedAt)
	if err != nil {
		switch code, constraint := pgErrorCode(err); code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: item %s (%s)", domain.ErrDuplicateStock, stock.ItemID, constraint)
		case pgForeignKeyViolation:
			return domain.NewNotFound("item", stock.ItemID)
		}
		return fmt.Errorf("failed to insert stock: %w", err)
	}

	s.logger.DebugContext(ctx, "stock record created",
		slog.String("stock_id", stock.ID.String()),
		slog.String("item_id", stock.ItemID.String()),
	)
	return nil
}

func (s *stockStore) Get(ctx context.Context, itemID uuid.UUID, variantID *uuid.UUID) (*domain.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE item_id = $1 AND variant_id IS NULL`
	args := []any{itemID}
	if variantID != nil {
		query = `SELECT ` + stockColumns + ` FROM stock WHERE item_id = $1 AND variant_id = $2`
		args = append(args, *variantID)
	}

	stock, err := scanStock(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		if variantID != nil {
			return nil, domain.NewNotFound("stock for variant", *variantID)
		}
		return nil, domain.NewNotFound("stock for item", itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return stock, nil
}

func (s *stockStore) GetByID(ctx context.Context, stockID uuid.UUID) (*domain.StockRecord, error) {
	return getStockByID(ctx, s.db, stockID)
}

func (s *stockStore) ApplyDelta(ctx context.Context, stockID uuid.UUID, quantityDelta, reservedDelta int, expectedVersion int64) (*domain.StockRecord, error) {
	return applyStockDelta(ctx, s.db, stockID, quantityDelta, reservedDelta, expectedVersion)
}

// applyStockDelta runs the conditional UPDATE on q, which may be a
// transaction the caller commits together with other writes.
func applyStockDelta(ctx context.Context, q querier, stockID uuid.UUID, quantityDelta, reservedDelta int, expectedVersion int64) (*domain.StockRecord, error) {
	query := `
		UPDATE stock
		SET quantity = quantity + $2,
			reserved_quantity = reserved_quantity + $3,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1
			AND version = $4
			AND quantity + $2 >= 0
			AND reserved_quantity + $3 >= 0
			AND reserved_quantity + $3 <= quantity + $2
		RETURNING ` + stockColumns

	next, err := scanStock(q.QueryRow(ctx, query, stockID, quantityDelta, reservedDelta, expectedVersion))
	if err == nil {
		return next, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to apply stock delta: %w", err)
	}

	// Nothing matched: find out which guard failed.
	current, err := getStockByID(ctx, q, stockID)
	if err != nil {
		return nil, err
	}
	if current.Version != expectedVersion {
		return nil, fmt.Errorf("%w: stock %s is at version %d, expected %d",
			domain.ErrVersionConflict, stockID, current.Version, expectedVersion)
	}
	if _, err := current.ApplyDelta(quantityDelta, reservedDelta); err != nil {
		return nil, err
	}
	// The row moved between the UPDATE and the re-read.
	return nil, fmt.Errorf("%w: stock %s changed concurrently", domain.ErrVersionConflict, stockID)
}

func getStockByID(ctx context.Context, q querier, stockID uuid.UUID) (*domain.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE id = $1`

	stock, err := scanStock(q.QueryRow(ctx, query, stockID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("stock", stockID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return stock, nil
}

func scanStock(row pgx.Row) (*domain.StockRecord, error) {
	var s domain.StockRecord
	err := row.Scan(
		&s.ID, &s.ItemID, &s.VariantID, &s.WarehouseLocation, &s.Quantity,
		&s.ReservedQuantity, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
