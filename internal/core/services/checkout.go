// internal/core/services/checkout.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/pkg/metrics"
	"github.com/ammerola/stock-ledger/internal/pkg/tracing"
)

// ExpiryActor is recorded as the releasing party for swept reservations.
const ExpiryActor = "system:reservation-expiry"

// SweepPolicy configures the reservation expiry sweep.
type SweepPolicy struct {
	TTL         time.Duration
	BatchSize   int
	Concurrency int
}

// DefaultSweepPolicy returns a 15 minute TTL swept 200 at a time, 8 in parallel.
func DefaultSweepPolicy() SweepPolicy {
	return SweepPolicy{TTL: 15 * time.Minute, BatchSize: 200, Concurrency: 8}
}

// CheckoutCoordinator moves checkout items through
// PENDING -> RESERVED -> FULFILLED | CANCELLED | EXPIRED, calling the
// reservation service for the stock side of each step.
type CheckoutCoordinator struct {
	repo         ports.CheckoutRepository
	reservations ports.ReservationService
	stocks       ports.StockStore
	catalog      ports.ItemCatalog
	cc           *ConcurrencyController
	policy       SweepPolicy
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time
}

var _ ports.CheckoutService = (*CheckoutCoordinator)(nil)

// NewCheckoutCoordinator creates a new checkout coordinator
func NewCheckoutCoordinator(
	repo ports.CheckoutRepository,
	reservations ports.ReservationService,
	stocks ports.StockStore,
	catalog ports.ItemCatalog,
	cc *ConcurrencyController,
	policy SweepPolicy,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CheckoutCoordinator {
	def := DefaultSweepPolicy()
	if policy.TTL <= 0 {
		policy.TTL = def.TTL
	}
	if policy.BatchSize <= 0 {
		policy.BatchSize = def.BatchSize
	}
	if policy.Concurrency <= 0 {
		policy.Concurrency = def.Concurrency
	}
	return &CheckoutCoordinator{
		repo:         repo,
		reservations: reservations,
		stocks:       stocks,
		catalog:      catalog,
		cc:           cc,
		policy:       policy,
		metrics:      m,
		logger:       logger.With(slog.String("service", "checkout")),
		now:          time.Now,
	}
}

// WithClock replaces the coordinator's time source.
func (c *CheckoutCoordinator) WithClock(now func() time.Time) *CheckoutCoordinator {
	c.now = now
	return c
}

// Checkout prices the requested item, creates a PENDING checkout item and
// reserves its stock. An InsufficientStockError is returned unchanged so the
// caller can tell the customer before payment.
func (c *CheckoutCoordinator) Checkout(ctx context.Context, req ports.CheckoutRequest) (_ *domain.CheckoutItem, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "CheckoutCoordinator.Checkout", trace.WithAttributes(
		attribute.String("item.id", req.ItemID.String()),
		attribute.Int("checkout.quantity", req.Quantity),
	))
	defer func() {
		c.metrics.Outcome("checkout", domain.ErrorCode(err))
		tracing.End(span, err)
	}()

	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, fmt.Errorf("%w: customer_id is required", domain.ErrValidation)
	}

	item, err := c.catalog.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	var variant *domain.Variant
	if req.VariantID != nil {
		if variant, err = c.catalog.GetVariant(ctx, *req.VariantID); err != nil {
			return nil, err
		}
	}
	price, err := domain.UnitPrice(item, variant)
	if err != nil {
		return nil, err
	}

	stock, err := c.stocks.Get(ctx, req.ItemID, req.VariantID)
	if err != nil {
		return nil, err
	}

	checkout, err := domain.NewCheckoutItem(req.CustomerID, req.CheckoutReference,
		req.ItemID, req.VariantID, stock.ID, req.Quantity, price)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Create(ctx, checkout); err != nil {
		return nil, fmt.Errorf("failed to create checkout item: %w", err)
	}
	span.SetAttributes(attribute.String("checkout.reference", checkout.CheckoutReference))

	reservationID, err := c.reservations.Reserve(ctx, ports.ReserveRequest{
		StockID:           stock.ID,
		Quantity:          req.Quantity,
		CheckoutReference: checkout.CheckoutReference,
		CreatedBy:         req.CustomerID,
	})
	if err != nil {
		if _, cerr := c.transition(ctx, checkout.ID, domain.CheckoutCancelled, nil); cerr != nil {
			c.logger.WarnContext(ctx, "failed to cancel unreserved checkout",
				slog.String("checkout_id", checkout.ID.String()),
				slog.String("error", cerr.Error()))
		}
		return nil, err
	}

	reserved, err := c.transition(ctx, checkout.ID, domain.CheckoutReserved, func(ci *domain.CheckoutItem) error {
		ci.ReservationID = &reservationID
		return nil
	})
	if err != nil {
		if rerr := c.reservations.Release(ctx, reservationID, ExpiryActor); rerr != nil {
			c.logger.ErrorContext(ctx, "failed to release orphaned reservation",
				slog.String("reservation_id", reservationID.String()),
				slog.String("error", rerr.Error()))
		}
		return nil, err
	}

	c.logger.InfoContext(ctx, "checkout reserved",
		slog.String("checkout_id", reserved.ID.String()),
		slog.String("reservation_id", reservationID.String()),
		slog.String("checkout_reference", reserved.CheckoutReference),
		slog.String("total_price", reserved.TotalPrice.String()))

	return reserved, nil
}

// ProcessPayment validates the captured amount and commits the reservation.
func (c *CheckoutCoordinator) ProcessPayment(ctx context.Context, checkoutID uuid.UUID, req ports.PaymentRequest) (_ *domain.CheckoutItem, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "CheckoutCoordinator.ProcessPayment",
		trace.WithAttributes(attribute.String("checkout.id", checkoutID.String())))
	defer func() {
		c.metrics.Outcome("payment", domain.ErrorCode(err))
		tracing.End(span, err)
	}()

	checkout, err := c.repo.Get(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(checkout.Status, domain.CheckoutFulfilled) || checkout.ReservationID == nil {
		return nil, fmt.Errorf("%w: cannot pay for checkout in status %s", domain.ErrInvalidTransition, checkout.Status)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be greater than 0", domain.ErrInvalidPayment)
	}
	if req.Amount.LessThan(checkout.TotalPrice) {
		return nil, fmt.Errorf("%w: payment amount %s is less than total price %s",
			domain.ErrInvalidPayment, req.Amount.StringFixed(2), checkout.TotalPrice.StringFixed(2))
	}

	// ErrAlreadyCommitted means an earlier attempt committed the stock but
	// did not record FULFILLED; finish that transition.
	if err := c.reservations.Commit(ctx, *checkout.ReservationID, req.ProcessedBy); err != nil &&
		!errors.Is(err, domain.ErrAlreadyCommitted) {
		return nil, err
	}

	fulfilled, err := c.transition(ctx, checkoutID, domain.CheckoutFulfilled, func(ci *domain.CheckoutItem) error {
		ci.PaymentReference = req.PaymentReference
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "checkout fulfilled",
		slog.String("checkout_id", checkoutID.String()),
		slog.String("payment_reference", req.PaymentReference),
		slog.String("amount", req.Amount.String()))

	return fulfilled, nil
}

// Cancel releases any reservation held by the checkout and marks it CANCELLED.
func (c *CheckoutCoordinator) Cancel(ctx context.Context, checkoutID uuid.UUID, by string) (_ *domain.CheckoutItem, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "CheckoutCoordinator.Cancel",
		trace.WithAttributes(attribute.String("checkout.id", checkoutID.String())))
	defer func() {
		c.metrics.Outcome("cancel", domain.ErrorCode(err))
		tracing.End(span, err)
	}()

	checkout, err := c.repo.Get(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(checkout.Status, domain.CheckoutCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel checkout in status %s", domain.ErrInvalidTransition, checkout.Status)
	}

	if checkout.HasOpenReservation() {
		if err := c.reservations.Release(ctx, *checkout.ReservationID, by); err != nil &&
			!errors.Is(err, domain.ErrAlreadyReleased) {
			return nil, err
		}
	}

	cancelled, err := c.transition(ctx, checkoutID, domain.CheckoutCancelled, nil)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "checkout cancelled",
		slog.String("checkout_id", checkoutID.String()),
		slog.String("cancelled_by", by))

	return cancelled, nil
}

// GetCheckout returns a checkout item by id.
func (c *CheckoutCoordinator) GetCheckout(ctx context.Context, checkoutID uuid.UUID) (*domain.CheckoutItem, error) {
	return c.repo.Get(ctx, checkoutID)
}

// ListCheckouts returns every item sharing a checkout reference.
func (c *CheckoutCoordinator) ListCheckouts(ctx context.Context, reference string) ([]*domain.CheckoutItem, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("%w: checkout reference is required", domain.ErrValidation)
	}
	return c.repo.ListByReference(ctx, reference)
}

type sweepOutcome int

const (
	sweepExpired sweepOutcome = iota
	sweepSkipped
	sweepFailed
)

// ExpireReservations releases RESERVED items whose reservation is older
// than the TTL and marks them EXPIRED. Stale PENDING items are expired
// without a release. Work proceeds in batches until a batch makes no
// progress.
func (c *CheckoutCoordinator) ExpireReservations(ctx context.Context, now time.Time) (_ *ports.SweepResult, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "CheckoutCoordinator.ExpireReservations")
	defer func() { tracing.End(span, err) }()

	start := time.Now()
	result := &ports.SweepResult{}
	cutoff := now.Add(-c.policy.TTL)

	for _, status := range []domain.CheckoutStatus{domain.CheckoutReserved, domain.CheckoutPending} {
		for {
			batch, err := c.repo.ListStale(ctx, status, cutoff, c.policy.BatchSize)
			if err != nil {
				return result, fmt.Errorf("failed to list stale %s checkouts: %w", status, err)
			}
			if len(batch) == 0 {
				break
			}

			expired, err := c.expireBatch(ctx, batch, result)
			if err != nil {
				return result, err
			}
			if expired == 0 || len(batch) < c.policy.BatchSize {
				break
			}
		}
	}

	result.Duration = time.Since(start)
	c.metrics.Sweep(result.Expired, result.Failed, result.Duration)
	span.SetAttributes(
		attribute.Int("sweep.scanned", result.Scanned),
		attribute.Int("sweep.expired", result.Expired),
		attribute.Int("sweep.failed", result.Failed),
	)

	if result.Scanned > 0 {
		c.logger.InfoContext(ctx, "reservation sweep completed",
			slog.Int("scanned", result.Scanned),
			slog.Int("expired", result.Expired),
			slog.Int("skipped", result.Skipped),
			slog.Int("failed", result.Failed),
			slog.Duration("duration", result.Duration))
	}
	return result, nil
}

func (c *CheckoutCoordinator) expireBatch(ctx context.Context, batch []*domain.CheckoutItem, result *ports.SweepResult) (int, error) {
	var mu sync.Mutex
	expired := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.policy.Concurrency)

	for _, item := range batch {
		g.Go(func() error {
			outcome := c.expireOne(gctx, item)

			mu.Lock()
			defer mu.Unlock()
			result.Scanned++
			switch outcome {
			case sweepExpired:
				result.Expired++
				expired++
			case sweepSkipped:
				result.Skipped++
			default:
				result.Failed++
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return expired, fmt.Errorf("reservation sweep interrupted: %w", err)
	}
	return expired, nil
}

func (c *CheckoutCoordinator) expireOne(ctx context.Context, item *domain.CheckoutItem) sweepOutcome {
	logger := c.logger.With(slog.String("checkout_id", item.ID.String()))

	if item.HasOpenReservation() {
		err := c.reservations.Release(ctx, *item.ReservationID, ExpiryActor)
		switch {
		case err == nil, errors.Is(err, domain.ErrAlreadyReleased):
		case errors.Is(err, domain.ErrAlreadyCommitted):
			// Payment won the race; ProcessPayment finishes the item.
			logger.InfoContext(ctx, "skipping expiry of committed reservation")
			return sweepSkipped
		default:
			logger.ErrorContext(ctx, "failed to release expired reservation", slog.String("error", err.Error()))
			return sweepFailed
		}
	}

	if _, err := c.transition(ctx, item.ID, domain.CheckoutExpired, nil); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return sweepSkipped
		}
		logger.ErrorContext(ctx, "failed to mark checkout expired", slog.String("error", err.Error()))
		return sweepFailed
	}

	logger.InfoContext(ctx, "checkout expired",
		slog.String("checkout_reference", item.CheckoutReference))
	return sweepExpired
}

// transition re-reads the item, applies mutate, moves it to next and writes
// it with the read version as expectation, retrying on conflict.
func (c *CheckoutCoordinator) transition(ctx context.Context, id uuid.UUID, next domain.CheckoutStatus,
	mutate func(*domain.CheckoutItem) error) (*domain.CheckoutItem, error) {

	var out *domain.CheckoutItem
	err := c.cc.Retry(ctx, "checkout_"+strings.ToLower(string(next)), func(ctx context.Context, _ int) error {
		item, err := c.repo.Get(ctx, id)
		if err != nil {
			return err
		}

		expected := item.Version
		if mutate != nil {
			if err := mutate(item); err != nil {
				return err
			}
		}
		if err := item.TransitionTo(next, c.now()); err != nil {
			return err
		}
		if err := c.repo.Update(ctx, item, expected); err != nil {
			return err
		}

		out = item
		return nil
	})
	return out, err
}
