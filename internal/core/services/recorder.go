// internal/core/services/recorder.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/pkg/metrics"
)

// AvailabilityCacheKey is the cache key of a stock record's availability view.
func AvailabilityCacheKey(stockID uuid.UUID) string {
	return "availability:" + stockID.String()
}

// RecorderOptions carries the optional fan-out targets of a MovementRecorder.
type RecorderOptions struct {
	Cache     ports.CacheRepository
	Publisher ports.MovementPublisher
	Metrics   *metrics.Metrics
}

// MovementRecorder writes the ledger entry for a stock mutation that has
// already been applied. If the entry cannot be written the mutation is
// reversed so stock never moves without an audit record.
type MovementRecorder struct {
	ledger    ports.MovementLedger
	cc        *ConcurrencyController
	cache     ports.CacheRepository
	publisher ports.MovementPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewMovementRecorder creates a new recorder
func NewMovementRecorder(ledger ports.MovementLedger, cc *ConcurrencyController, opts RecorderOptions, logger *slog.Logger) *MovementRecorder {
	return &MovementRecorder{
		ledger:    ledger,
		cc:        cc,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    logger.With(slog.String("component", "movement_recorder")),
	}
}

// Precheck validates movement params before any stock is touched.
func (r *MovementRecorder) Precheck(p domain.MovementParams) error {
	_, err := domain.NewMovement(p)
	return err
}

// Record appends the movement describing mut.
func (r *MovementRecorder) Record(ctx context.Context, op string, mut *Mutation, p domain.MovementParams) (*domain.MovementRecord, error) {
	p.StockID = mut.After.ID
	p.Before = mut.Before
	p.After = mut.After

	movement, err := domain.NewMovement(p)
	if err != nil {
		r.compensate(ctx, op, mut, err)
		return nil, err
	}

	id, err := r.ledger.Append(ctx, movement)
	if err != nil {
		r.compensate(ctx, op, mut, err)
		return nil, fmt.Errorf("failed to append %s movement: %w", p.Type, err)
	}
	movement.ID = id

	r.Recorded(ctx, op, mut, movement)
	return movement, nil
}

// Recorded finishes a movement that is already in the ledger: metrics, the
// log line, cache invalidation and the published event.
func (r *MovementRecorder) Recorded(ctx context.Context, op string, mut *Mutation, movement *domain.MovementRecord) {
	r.metrics.MovementAppended(string(movement.MovementType))
	r.logger.InfoContext(ctx, "stock movement recorded",
		slog.String("operation", op),
		slog.String("stock_id", movement.StockID.String()),
		slog.String("movement_id", movement.ID.String()),
		slog.String("movement_type", string(movement.MovementType)),
		slog.Int("quantity_delta", mut.QuantityDelta),
		slog.Int("reserved_delta", mut.ReservedDelta),
		slog.Int64("version", mut.After.Version))

	r.fanOut(ctx, movement)
}

// Invalidate drops cached views of a stock record.
func (r *MovementRecorder) Invalidate(ctx context.Context, stockID uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, AvailabilityCacheKey(stockID)); err != nil {
		r.logger.WarnContext(ctx, "failed to invalidate availability cache",
			slog.String("stock_id", stockID.String()),
			slog.String("error", err.Error()))
	}
}

func (r *MovementRecorder) fanOut(ctx context.Context, movement *domain.MovementRecord) {
	r.Invalidate(ctx, movement.StockID)

	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, movement); err != nil {
		r.logger.WarnContext(ctx, "failed to publish movement",
			slog.String("movement_id", movement.ID.String()),
			slog.String("error", err.Error()))
	}
}

// compensate reverses mut after its ledger entry failed. It runs detached
// from ctx cancellation.
func (r *MovementRecorder) compensate(ctx context.Context, op string, mut *Mutation, cause error) {
	ctx = context.WithoutCancel(ctx)
	stockID := mut.After.ID

	_, err := r.cc.Mutate(ctx, op+".compensate", stockID, func(*domain.StockRecord) (int, int, error) {
		return -mut.QuantityDelta, -mut.ReservedDelta, nil
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to compensate stock mutation",
			slog.String("operation", op),
			slog.String("stock_id", stockID.String()),
			slog.Int("quantity_delta", mut.QuantityDelta),
			slog.Int("reserved_delta", mut.ReservedDelta),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()))
		return
	}

	r.Invalidate(ctx, stockID)
	r.logger.WarnContext(ctx, "stock mutation compensated",
		slog.String("operation", op),
		slog.String("stock_id", stockID.String()),
		slog.String("cause", cause.Error()))
}
