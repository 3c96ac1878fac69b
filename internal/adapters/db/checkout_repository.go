// internal/adapters/db/checkout_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

const checkoutColumns = `id, customer_id, item_id, variant_id, stock_id, reservation_id,
	quantity, price_per_unit, total_price, status, checkout_reference,
	payment_reference, version, reserved_at, created_at, updated_at`

// checkoutRepository implements ports.CheckoutRepository
type checkoutRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewCheckoutRepository creates a PostgreSQL-backed checkout repository
func NewCheckoutRepository(db *Database, logger *slog.Logger) ports.CheckoutRepository {
	return &checkoutRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "checkout_items")),
	}
}

func (r *checkoutRepository) Create(ctx context.Context, item *domain.CheckoutItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO checkout_items (
			id, customer_id, item_id, variant_id, stock_id, reservation_id,
			quantity, price_per_unit, total_price, status, checkout_reference,
			payment_reference, version, reserved_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.Exec(ctx, query,
		item.ID, item.CustomerID, item.ItemID, item.VariantID, item.StockID, item.ReservationID,
		item.Quantity, item.PricePerUnit, item.TotalPrice, string(item.Status), item.CheckoutReference,
		item.PaymentReference, item.Version, item.ReservedAt, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		switch code, constraint := pgErrorCode(err); code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: checkout item %s", domain.ErrValidation, item.ID)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: checkout references a missing record (%s)", domain.ErrNotFound, constraint)
		}
		return fmt.Errorf("failed to insert checkout item: %w", err)
	}
	return nil
}

func (r *checkoutRepository) Get(ctx context.Context, id uuid.UUID) (*domain.CheckoutItem, error) {
	item, err := scanCheckout(r.db.QueryRow(ctx,
		`SELECT `+checkoutColumns+` FROM checkout_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("checkout", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout item: %w", err)
	}
	return item, nil
}

func (r *checkoutRepository) ListByReference(ctx context.Context, reference string) ([]*domain.CheckoutItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+checkoutColumns+` FROM checkout_items WHERE checkout_reference = $1 ORDER BY created_at`,
		reference)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkout items: %w", err)
	}
	return ScanMany(rows, func(row pgx.Rows) (*domain.CheckoutItem, error) {
		return scanCheckout(row)
	})
}

func (r *checkoutRepository) Update(ctx context.Context, item *domain.CheckoutItem, expectedVersion int64) error {
	query := `
		UPDATE checkout_items
		SET reservation_id = $3,
			status = $4,
			payment_reference = $5,
			version = $6,
			reserved_at = $7,
			updated_at = $8
		WHERE id = $1 AND version = $2`

	tag, err := r.db.Exec(ctx, query,
		item.ID, expectedVersion, item.ReservationID, string(item.Status),
		item.PaymentReference, item.Version, item.ReservedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update checkout item: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := r.Get(ctx, item.ID); err != nil {
		return err
	}
	return fmt.Errorf("%w: checkout %s changed since version %d",
		domain.ErrVersionConflict, item.ID, expectedVersion)
}

func (r *checkoutRepository) ListStale(ctx context.Context, status domain.CheckoutStatus, cutoff time.Time, limit int) ([]*domain.CheckoutItem, error) {
	query, args, err := buildStaleQuery(status, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build stale query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale checkout items: %w", err)
	}
	return ScanMany(rows, func(row pgx.Rows) (*domain.CheckoutItem, error) {
		return scanCheckout(row)
	})
}

func buildStaleQuery(status domain.CheckoutStatus, cutoff time.Time, limit int) (string, []interface{}, error) {
	ageColumn := "created_at"
	if status == domain.CheckoutReserved {
		ageColumn = "COALESCE(reserved_at, created_at)"
	}

	qb := squirrel.Select(checkoutColumns).
		From("checkout_items").
		Where(squirrel.Eq{"status": string(status)}).
		Where(squirrel.Expr(ageColumn+" < ?", cutoff)).
		OrderBy(ageColumn+" ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar)

	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}
	return qb.ToSql()
}

func scanCheckout(row pgx.Row) (*domain.CheckoutItem, error) {
	var (
		c      domain.CheckoutItem
		status string
	)
	err := row.Scan(
		&c.ID, &c.CustomerID, &c.ItemID, &c.VariantID, &c.StockID, &c.ReservationID,
		&c.Quantity, &c.PricePerUnit, &c.TotalPrice, &status, &c.CheckoutReference,
		&c.PaymentReference, &c.Version, &c.ReservedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = domain.CheckoutStatus(status)
	return &c, nil
}
