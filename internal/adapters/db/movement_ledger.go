// internal/adapters/db/movement_ledger.go
package db

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

const (
	movementColumns = `id, stock_id, movement_type, quantity_delta, quantity_before,
	quantity_after, reserved_before, reserved_after, reference_number, created_by,
	notes, related_movement_id, release_movement_id, created_at, version`

	defaultMovementPageSize = 100
)

// movementLedger implements ports.MovementLedger. Rows are append-only; a
// trigger rejects UPDATE and DELETE, and the unique settles_movement_id
// column guarantees each RESERVE or TRANSFER_OUT is closed at most once.
type movementLedger struct {
	db     *Database
	logger *slog.Logger
}

// NewMovementLedger creates a PostgreSQL-backed movement ledger
func NewMovementLedger(db *Database, logger *slog.Logger) ports.MovementLedger {
	return &movementLedger{
		db:     db,
		logger: logger.With(slog.String("repository", "stock_movements")),
	}
}

func (l *movementLedger) Append(ctx context.Context, movement *domain.MovementRecord) (uuid.UUID, error) {
	if err := movement.Validate(); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	var createdAt time.Time

	err := l.db.Transaction(ctx, func(tx pgx.Tx) error {
		if link := movement.LinkedMovement(); link != nil {
			if err := checkLink(ctx, tx, movement, *link); err != nil {
				return err
			}
		}

		var err error
		createdAt, err = insertMovement(ctx, tx, id, movement)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}

	movement.ID = id
	movement.CreatedAt = createdAt

	l.logger.DebugContext(ctx, "movement appended",
		slog.String("movement_id", id.String()),
		slog.String("stock_id", movement.StockID.String()),
		slog.String("type", string(movement.MovementType)),
		slog.Int("delta", movement.QuantityDelta),
	)
	return id, nil
}

// insertMovement writes the row inside tx. A second closer of the same
// movement fails on the unique settles_movement_id index.
func insertMovement(ctx context.Context, tx pgx.Tx, id uuid.UUID, movement *domain.MovementRecord) (time.Time, error) {
	query := `
		INSERT INTO stock_movements (
			id, stock_id, movement_type, quantity_delta, quantity_before,
			quantity_after, reserved_before, reserved_after, reference_number,
			created_by, notes, related_movement_id, release_movement_id,
			settles_movement_id, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at`

	var createdAt time.Time
	err := tx.QueryRow(ctx, query,
		id, movement.StockID, string(movement.MovementType), movement.QuantityDelta,
		movement.QuantityBefore, movement.QuantityAfter, movement.ReservedBefore,
		movement.ReservedAfter, movement.ReferenceNumber, movement.CreatedBy,
		movement.Notes, movement.RelatedMovementID, movement.ReleaseMovementID,
		movement.Closes(), movement.Version,
	).Scan(&createdAt)
	if err != nil {
		switch code, constraint := pgErrorCode(err); code {
		case pgUniqueViolation:
			return time.Time{}, fmt.Errorf("%w: %s is already settled (%s)", domain.ErrInvalidLinkage, movement.Closes(), constraint)
		case pgForeignKeyViolation:
			return time.Time{}, fmt.Errorf("%w: foreign key %s", domain.ErrInvalidLinkage, constraint)
		}
		return time.Time{}, fmt.Errorf("failed to insert movement: %w", err)
	}
	return createdAt, nil
}

// checkLink loads the referenced movement inside the append transaction. A
// concurrent closer that slips past the settled check still loses on the
// unique index.
func checkLink(ctx context.Context, tx pgx.Tx, movement *domain.MovementRecord, link uuid.UUID) error {
	target, err := scanMovement(tx.QueryRow(ctx,
		`SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, link))
	if errors.Is(err, pgx.ErrNoRows) {
		target = nil
	} else if err != nil {
		return fmt.Errorf("failed to load linked movement: %w", err)
	}

	settled := false
	if closes := movement.Closes(); closes != nil {
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM stock_movements WHERE settles_movement_id = $1)`,
			*closes,
		).Scan(&settled)
		if err != nil {
			return fmt.Errorf("failed to check settlement: %w", err)
		}
	}

	return movement.CheckLink(target, settled)
}

func (l *movementLedger) Get(ctx context.Context, movementID uuid.UUID) (*domain.MovementRecord, error) {
	m, err := scanMovement(l.db.QueryRow(ctx,
		`SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, movementID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("movement", movementID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get movement: %w", err)
	}
	return m, nil
}

func (l *movementLedger) FindClosing(ctx context.Context, movementID uuid.UUID) (*domain.MovementRecord, error) {
	m, err := scanMovement(l.db.QueryRow(ctx,
		`SELECT `+movementColumns+` FROM stock_movements WHERE settles_movement_id = $1`, movementID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("closing movement for", movementID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find closing movement: %w", err)
	}
	return m, nil
}

// movementCursor is the keyset position after the last yielded row.
type movementCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// ListByStock pages through the ledger newest first using keyset
// pagination on (created_at, id). Pages are fetched lazily as the caller
// ranges.
func (l *movementLedger) ListByStock(ctx context.Context, stockID uuid.UUID, filter ports.MovementFilter) iter.Seq2[*domain.MovementRecord, error] {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = defaultMovementPageSize
	}

	return func(yield func(*domain.MovementRecord, error) bool) {
		var cursor *movementCursor
		emitted := 0
		offset := filter.Offset

		for {
			limit := pageSize
			if filter.Limit > 0 && filter.Limit-emitted < limit {
				limit = filter.Limit - emitted
			}
			if limit <= 0 {
				return
			}

			query, args, err := buildMovementPageQuery(stockID, filter, cursor, offset, limit)
			if err != nil {
				yield(nil, fmt.Errorf("failed to build movement query: %w", err))
				return
			}

			rows, err := l.db.Query(ctx, query, args...)
			if err != nil {
				yield(nil, fmt.Errorf("failed to list movements: %w", err))
				return
			}
			page, err := ScanMany(rows, func(r pgx.Rows) (*domain.MovementRecord, error) {
				return scanMovement(r)
			})
			if err != nil {
				yield(nil, fmt.Errorf("failed to scan movements: %w", err))
				return
			}

			for _, m := range page {
				emitted++
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < limit {
				return
			}

			last := page[len(page)-1]
			cursor = &movementCursor{CreatedAt: last.CreatedAt, ID: last.ID}
			offset = 0
		}
	}
}

func buildMovementPageQuery(stockID uuid.UUID, filter ports.MovementFilter, cursor *movementCursor, offset, limit int) (string, []interface{}, error) {
	qb := squirrel.Select(movementColumns).
		From("stock_movements").
		Where(squirrel.Eq{"stock_id": stockID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		qb = qb.Where(squirrel.Eq{"movement_type": types})
	}
	if filter.Since != nil {
		qb = qb.Where(squirrel.GtOrEq{"created_at": *filter.Since})
	}
	if filter.Until != nil {
		qb = qb.Where(squirrel.Lt{"created_at": *filter.Until})
	}
	if cursor != nil {
		qb = qb.Where(squirrel.Expr("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID))
	}
	if offset > 0 {
		qb = qb.Offset(uint64(offset))
	}

	return qb.ToSql()
}

func scanMovement(row pgx.Row) (*domain.MovementRecord, error) {
	var (
		m            domain.MovementRecord
		movementType string
	)
	err := row.Scan(
		&m.ID, &m.StockID, &movementType, &m.QuantityDelta, &m.QuantityBefore,
		&m.QuantityAfter, &m.ReservedBefore, &m.ReservedAfter, &m.ReferenceNumber,
		&m.CreatedBy, &m.Notes, &m.RelatedMovementID, &m.ReleaseMovementID,
		&m.CreatedAt, &m.Version,
	)
	if err != nil {
		return nil, err
	}
	m.MovementType = domain.MovementType(movementType)
	return &m, nil
}
