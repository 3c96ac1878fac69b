// internal/workers/expiry_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stock-ledger/internal/core/ports"
)

// ExpiryProcessor runs the reservation sweep on the scheduler's tick.
type ExpiryProcessor struct {
	checkouts ports.CheckoutService
	now       func() time.Time
	logger    *slog.Logger
}

// NewExpiryProcessor creates a new expiry processor
func NewExpiryProcessor(checkouts ports.CheckoutService, logger *slog.Logger) *ExpiryProcessor {
	return &ExpiryProcessor{
		checkouts: checkouts,
		now:       time.Now,
		logger:    logger.With(slog.String("processor", "expiry")),
	}
}

// WithClock replaces the time source used as the sweep's "now".
func (p *ExpiryProcessor) WithClock(now func() time.Time) *ExpiryProcessor {
	p.now = now
	return p
}

// ProcessExpire expires checkout items whose reservation outlived its TTL.
// Items that fail are left for the next run.
func (p *ExpiryProcessor) ProcessExpire(ctx context.Context, t *asynq.Task) error {
	taskID, _ := asynq.GetTaskID(ctx)

	result, err := p.checkouts.ExpireReservations(ctx, p.now())
	if err != nil {
		return fmt.Errorf("reservation sweep failed: %w", err)
	}

	level := slog.LevelInfo
	if result.Failed > 0 {
		level = slog.LevelWarn
	} else if result.Expired == 0 {
		level = slog.LevelDebug
	}

	p.logger.Log(ctx, level, "reservation sweep finished",
		slog.String("task_id", taskID),
		slog.Int("scanned", result.Scanned),
		slog.Int("expired", result.Expired),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
		slog.Duration("duration_ms", result.Duration))

	return nil
}
