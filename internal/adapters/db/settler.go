// internal/adapters/db/settler.go
package db

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

// settler implements ports.ReservationSettler. The conditional stock UPDATE
// and the closing movement INSERT share one transaction, so a closer that
// loses on the settles_movement_id index rolls its stock delta back with it.
type settler struct {
	db     *Database
	logger *slog.Logger
}

// NewSettler creates a PostgreSQL-backed reservation settler
func NewSettler(db *Database, logger *slog.Logger) ports.ReservationSettler {
	return &settler{
		db:     db,
		logger: logger.With(slog.String("repository", "settler")),
	}
}

func (s *settler) Settle(ctx context.Context, movement *domain.MovementRecord, quantityDelta, reservedDelta int, expectedVersion int64) (*domain.StockRecord, error) {
	if err := movement.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	var after *domain.StockRecord

	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		if link := movement.LinkedMovement(); link != nil {
			if err := checkLink(ctx, tx, movement, *link); err != nil {
				return err
			}
		}

		next, err := applyStockDelta(ctx, tx, movement.StockID, quantityDelta, reservedDelta, expectedVersion)
		if err != nil {
			return err
		}

		movement.QuantityBefore = next.Quantity - quantityDelta
		movement.ReservedBefore = next.ReservedQuantity - reservedDelta
		movement.QuantityAfter = next.Quantity
		movement.ReservedAfter = next.ReservedQuantity

		createdAt, err := insertMovement(ctx, tx, id, movement)
		if err != nil {
			return err
		}

		movement.CreatedAt = createdAt
		after = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	movement.ID = id

	s.logger.DebugContext(ctx, "reservation settled",
		slog.String("movement_id", id.String()),
		slog.String("stock_id", movement.StockID.String()),
		slog.String("type", string(movement.MovementType)),
		slog.Int64("version", after.Version),
	)
	return after, nil
}
