// internal/core/services/concurrency.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/pkg/metrics"
)

// RetryPolicy bounds how often a version conflict is retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryPolicy returns 5 attempts with 25ms doubling backoff capped at 800ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 25 * time.Millisecond,
		MaxBackoff:     800 * time.Millisecond,
		Multiplier:     2,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.MaxBackoff > 0 && p.InitialBackoff > p.MaxBackoff {
		p.InitialBackoff = p.MaxBackoff
	}
	return p
}

// DeltaFunc inspects the freshly read record and returns the deltas to
// apply. Business rules (available quantity, adjustment floors) are checked
// here so they are re-evaluated on every attempt.
type DeltaFunc func(current *domain.StockRecord) (quantityDelta, reservedDelta int, err error)

// Mutation is the outcome of one successful ApplyDelta.
type Mutation struct {
	Before        *domain.StockRecord
	After         *domain.StockRecord
	QuantityDelta int
	ReservedDelta int
}

// ConcurrencyController wraps read-then-conditional-write operations with
// bounded retry on version conflicts. No other error is retried.
type ConcurrencyController struct {
	store   ports.StockStore
	policy  RetryPolicy
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewConcurrencyController creates a new controller
func NewConcurrencyController(store ports.StockStore, policy RetryPolicy, m *metrics.Metrics, logger *slog.Logger) *ConcurrencyController {
	return &ConcurrencyController{
		store:   store,
		policy:  policy.normalized(),
		metrics: m,
		logger:  logger.With(slog.String("component", "concurrency")),
	}
}

// Policy returns the effective retry policy.
func (c *ConcurrencyController) Policy() RetryPolicy {
	return c.policy
}

// Retry runs fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. fn must re-read whatever state it depends on.
func (c *ConcurrencyController) Retry(ctx context.Context, op string, fn func(ctx context.Context, attempt int) error) error {
	backoff := c.policy.InitialBackoff
	var err error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		err = fn(ctx, attempt)
		if err == nil || !domain.IsRetryable(err) {
			return err
		}
		if attempt == c.policy.MaxAttempts {
			break
		}

		c.metrics.Retry(op)
		c.logger.DebugContext(ctx, "version conflict, retrying",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff))

		if werr := wait(ctx, jitter(backoff)); werr != nil {
			return fmt.Errorf("%s interrupted after %d attempts: %w", op, attempt, werr)
		}
		backoff = c.nextBackoff(backoff)
	}

	c.metrics.RetriesExhausted(op)
	c.logger.WarnContext(ctx, "retry attempts exhausted",
		slog.String("operation", op),
		slog.Int("attempts", c.policy.MaxAttempts))

	return fmt.Errorf("%s gave up after %d attempts: %w", op, c.policy.MaxAttempts, err)
}

// WriteFunc performs the conditional write of deltas against the version of
// current and returns the new record.
type WriteFunc func(ctx context.Context, current *domain.StockRecord, quantityDelta, reservedDelta int) (*domain.StockRecord, error)

// Mutate reads the stock record, asks decide for the deltas and applies them
// with the read version as the expectation.
func (c *ConcurrencyController) Mutate(ctx context.Context, op string, stockID uuid.UUID, decide DeltaFunc) (*Mutation, error) {
	return c.Apply(ctx, op, stockID, decide, func(ctx context.Context, current *domain.StockRecord, qd, rd int) (*domain.StockRecord, error) {
		return c.store.ApplyDelta(ctx, stockID, qd, rd, current.Version)
	})
}

// Apply is Mutate with a caller-supplied write, for writes that must land
// together with something else (a ledger entry, a claim).
func (c *ConcurrencyController) Apply(ctx context.Context, op string, stockID uuid.UUID, decide DeltaFunc, write WriteFunc) (*Mutation, error) {
	var result *Mutation

	err := c.Retry(ctx, op, func(ctx context.Context, _ int) error {
		current, err := c.store.GetByID(ctx, stockID)
		if err != nil {
			return err
		}

		qd, rd, err := decide(current)
		if err != nil {
			return err
		}

		after, err := write(ctx, current, qd, rd)
		if err != nil {
			return err
		}

		result = &Mutation{Before: current, After: after, QuantityDelta: qd, ReservedDelta: rd}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *ConcurrencyController) nextBackoff(d time.Duration) time.Duration {
	next := time.Duration(float64(d) * c.policy.Multiplier)
	if c.policy.MaxBackoff > 0 && next > c.policy.MaxBackoff {
		return c.policy.MaxBackoff
	}
	return next
}

// jitter spreads d over [d/2, d) so that colliding writers do not retry in
// lockstep.
func jitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + rand.N(half)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
