// internal/core/services/reservation.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/pkg/metrics"
	"github.com/ammerola/stock-ledger/internal/pkg/tracing"
)

// ReservationManager implements the reserve/release/commit lifecycle. A
// reservation is the RESERVE movement itself; its id is the reservation id.
type ReservationManager struct {
	ledger   ports.MovementLedger
	settler  ports.ReservationSettler
	cc       *ConcurrencyController
	recorder *MovementRecorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Ensure ReservationManager implements the port
var _ ports.ReservationService = (*ReservationManager)(nil)

// NewReservationManager creates a new reservation manager
func NewReservationManager(
	ledger ports.MovementLedger,
	settler ports.ReservationSettler,
	cc *ConcurrencyController,
	recorder *MovementRecorder,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ReservationManager {
	return &ReservationManager{
		ledger:   ledger,
		settler:  settler,
		cc:       cc,
		recorder: recorder,
		metrics:  m,
		logger:   logger.With(slog.String("service", "reservation")),
	}
}

// Reserve holds req.Quantity units of the stock record and returns the id
// of the RESERVE movement.
func (s *ReservationManager) Reserve(ctx context.Context, req ports.ReserveRequest) (_ uuid.UUID, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "ReservationManager.Reserve", trace.WithAttributes(
		attribute.String("stock.id", req.StockID.String()),
		attribute.Int("reserve.quantity", req.Quantity),
		attribute.String("checkout.reference", req.CheckoutReference),
	))
	defer func() {
		s.metrics.Outcome("reserve", domain.ErrorCode(err))
		tracing.End(span, err)
	}()

	params := domain.MovementParams{
		StockID:         req.StockID,
		Type:            domain.MovementReserve,
		QuantityDelta:   req.Quantity,
		ReferenceNumber: req.CheckoutReference,
		CreatedBy:       req.CreatedBy,
	}
	if err := s.recorder.Precheck(params); err != nil {
		return uuid.Nil, err
	}

	mut, err := s.cc.Mutate(ctx, "reserve", req.StockID, func(current *domain.StockRecord) (int, int, error) {
		if available := current.Available(); available < req.Quantity {
			return 0, 0, &domain.InsufficientStockError{
				StockID:   current.ID,
				Requested: req.Quantity,
				Available: available,
			}
		}
		return 0, req.Quantity, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.logger.InfoContext(ctx, "reservation refused",
				slog.String("stock_id", req.StockID.String()),
				slog.String("reason", err.Error()))
		}
		return uuid.Nil, err
	}

	movement, err := s.recorder.Record(ctx, "reserve", mut, params)
	if err != nil {
		return uuid.Nil, err
	}

	span.SetAttributes(attribute.String("reservation.id", movement.ID.String()))
	return movement.ID, nil
}

// Release returns the reserved units to the available pool.
func (s *ReservationManager) Release(ctx context.Context, reservationID uuid.UUID, by string) (err error) {
	ctx, span := tracing.Tracer().Start(ctx, "ReservationManager.Release",
		trace.WithAttributes(attribute.String("reservation.id", reservationID.String())))
	defer func() {
		s.metrics.Outcome("release", domain.ErrorCode(err))
		tracing.End(span, err)
	}()

	return s.settle(ctx, reservationID, domain.MovementRelease, by)
}

// Commit converts the reservation into a sale, removing the units from both
// on-hand and reserved quantity in a single write.
func (s *ReservationManager) Commit(ctx context.Context, reservationID uuid.UUID, by string) (err error) {
	ctx, span := tracing.Tracer().Start(ctx, "ReservationManager.Commit",
		trace.WithAttributes(attribute.String("reservation.id", reservationID.String())))
	defer func() {
		s.metrics.Outcome("commit", domain.ErrorCode(err))
		tracing.End(span, err)
	}()

	return s.settle(ctx, reservationID, domain.MovementSale, by)
}

func (s *ReservationManager) settle(ctx context.Context, reservationID uuid.UUID, kind domain.MovementType, by string) error {
	reserve, err := s.openReservation(ctx, reservationID)
	if err != nil {
		return err
	}

	amount := reserve.ReservedAmount()
	params := domain.MovementParams{
		StockID:         reserve.StockID,
		Type:            kind,
		QuantityDelta:   -amount,
		ReferenceNumber: reserve.ReferenceNumber,
		CreatedBy:       by,
	}

	quantityDelta := 0
	if kind == domain.MovementSale {
		quantityDelta = -amount
		params.RelatedMovementID = &reserve.ID
	} else {
		params.ReleaseMovementID = &reserve.ID
	}

	op := "release"
	if kind == domain.MovementSale {
		op = "commit"
	}

	// The settler claims the reservation and moves stock in one step, so a
	// second settle is refused before it can touch reservedQuantity.
	var movement *domain.MovementRecord
	mut, err := s.cc.Apply(ctx, op, reserve.StockID,
		func(*domain.StockRecord) (int, int, error) {
			return quantityDelta, -amount, nil
		},
		func(ctx context.Context, current *domain.StockRecord, qd, rd int) (*domain.StockRecord, error) {
			p := params
			p.Before = current
			m, err := domain.NewMovement(p)
			if err != nil {
				return nil, err
			}
			after, err := s.settler.Settle(ctx, m, qd, rd, current.Version)
			if err != nil {
				return nil, err
			}
			movement = m
			return after, nil
		})
	if err != nil {
		// Another settle of the same reservation won.
		if errors.Is(err, domain.ErrInvalidLinkage) || errors.Is(err, domain.ErrInvariantViolation) {
			if settledErr := s.settledError(ctx, reserve.ID); settledErr != nil {
				return settledErr
			}
		}
		return err
	}

	s.recorder.Recorded(ctx, op, mut, movement)
	return nil
}

// openReservation loads the RESERVE movement and verifies nothing has closed it yet.
func (s *ReservationManager) openReservation(ctx context.Context, reservationID uuid.UUID) (*domain.MovementRecord, error) {
	reserve, err := s.ledger.Get(ctx, reservationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFound("reservation", reservationID)
		}
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	if reserve.MovementType != domain.MovementReserve {
		return nil, domain.NewNotFound("reservation", reservationID)
	}

	if settledErr := s.settledError(ctx, reservationID); settledErr != nil {
		return nil, settledErr
	}
	return reserve, nil
}

// settledError returns ErrAlreadyReleased or ErrAlreadyCommitted when a
// closing movement exists, nil when the reservation is still open.
func (s *ReservationManager) settledError(ctx context.Context, reservationID uuid.UUID) error {
	closing, err := s.ledger.FindClosing(ctx, reservationID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check reservation state: %w", err)
	}

	if closing.MovementType == domain.MovementSale {
		return fmt.Errorf("%w: reservation %s committed by movement %s",
			domain.ErrAlreadyCommitted, reservationID, closing.ID)
	}
	return fmt.Errorf("%w: reservation %s released by movement %s",
		domain.ErrAlreadyReleased, reservationID, closing.ID)
}
