// internal/core/services/stock.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/pkg/tracing"
)

// StockServiceConfig holds tunables for StockService.
type StockServiceConfig struct {
	AvailabilityTTL  time.Duration
	MovementPageSize int
}

// StockService handles stock creation, receipts, adjustments and transfers.
// Every quantity change goes through the ConcurrencyController and is
// recorded in the ledger.
type StockService struct {
	store    ports.StockStore
	ledger   ports.MovementLedger
	catalog  ports.ItemCatalog
	cc       *ConcurrencyController
	recorder *MovementRecorder
	cache    ports.CacheRepository
	config   StockServiceConfig
	logger   *slog.Logger
}

var _ ports.StockService = (*StockService)(nil)

// NewStockService creates a new stock service
func NewStockService(
	store ports.StockStore,
	ledger ports.MovementLedger,
	catalog ports.ItemCatalog,
	cc *ConcurrencyController,
	recorder *MovementRecorder,
	cache ports.CacheRepository,
	config StockServiceConfig,
	logger *slog.Logger,
) *StockService {
	if config.MovementPageSize <= 0 {
		config.MovementPageSize = 100
	}
	return &StockService{
		store:    store,
		ledger:   ledger,
		catalog:  catalog,
		cc:       cc,
		recorder: recorder,
		cache:    cache,
		config:   config,
		logger:   logger.With(slog.String("service", "stock")),
	}
}

// CreateStock registers a stock record for an active item or variant and
// books the initial quantity as a RECEIPT.
func (s *StockService) CreateStock(ctx context.Context, req ports.CreateStockRequest) (*domain.StockRecord, error) {
	if req.InitialQuantity < 0 {
		return nil, fmt.Errorf("%w: initial_quantity must not be negative", domain.ErrValidation)
	}

	if err := s.checkProduct(ctx, req.ItemID, req.VariantID); err != nil {
		return nil, err
	}

	stock, err := domain.NewStockRecord(req.ItemID, req.VariantID, req.WarehouseLocation)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, stock); err != nil {
		return nil, fmt.Errorf("failed to create stock: %w", err)
	}

	s.logger.InfoContext(ctx, "stock record created",
		slog.String("stock_id", stock.ID.String()),
		slog.String("item_id", req.ItemID.String()),
		slog.String("warehouse_location", req.WarehouseLocation))

	if req.InitialQuantity > 0 {
		if _, err := s.ReceiveStock(ctx, ports.ReceiveRequest{
			StockID:         stock.ID,
			Quantity:        req.InitialQuantity,
			ReferenceNumber: "INITIAL-STOCK",
			CreatedBy:       req.CreatedBy,
		}); err != nil {
			return nil, err
		}
	}

	return s.store.GetByID(ctx, stock.ID)
}

func (s *StockService) checkProduct(ctx context.Context, itemID uuid.UUID, variantID *uuid.UUID) error {
	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		return err
	}

	var variant *domain.Variant
	if variantID != nil {
		if variant, err = s.catalog.GetVariant(ctx, *variantID); err != nil {
			return err
		}
	}

	_, err = domain.UnitPrice(item, variant)
	return err
}

// GetStock returns a stock record by id.
func (s *StockService) GetStock(ctx context.Context, stockID uuid.UUID) (*domain.StockRecord, error) {
	return s.store.GetByID(ctx, stockID)
}

// FindStock returns the stock record of an item or variant.
func (s *StockService) FindStock(ctx context.Context, itemID uuid.UUID, variantID *uuid.UUID) (*domain.StockRecord, error) {
	return s.store.Get(ctx, itemID, variantID)
}

// GetMovement returns a single ledger entry.
func (s *StockService) GetMovement(ctx context.Context, movementID uuid.UUID) (*domain.MovementRecord, error) {
	return s.ledger.Get(ctx, movementID)
}

// GetAvailability returns the availability view, served from cache when possible.
func (s *StockService) GetAvailability(ctx context.Context, stockID uuid.UUID) (*domain.Availability, error) {
	fetch := func() (interface{}, error) {
		stock, err := s.store.GetByID(ctx, stockID)
		if err != nil {
			return nil, err
		}
		return domain.AvailabilityOf(stock), nil
	}

	if s.cache == nil || s.config.AvailabilityTTL <= 0 {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.(*domain.Availability), nil
	}

	var availability domain.Availability
	err := s.cache.GetOrSet(ctx, AvailabilityCacheKey(stockID), &availability, fetch, s.config.AvailabilityTTL)
	if err == nil {
		return &availability, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	s.logger.WarnContext(ctx, "availability cache unavailable, reading store",
		slog.String("stock_id", stockID.String()),
		slog.String("error", err.Error()))

	v, err := fetch()
	if err != nil {
		return nil, err
	}
	return v.(*domain.Availability), nil
}

// ReceiveStock books incoming units as a RECEIPT.
func (s *StockService) ReceiveStock(ctx context.Context, req ports.ReceiveRequest) (*domain.MovementRecord, error) {
	params := domain.MovementParams{
		StockID:         req.StockID,
		Type:            domain.MovementReceipt,
		QuantityDelta:   req.Quantity,
		ReferenceNumber: req.ReferenceNumber,
		CreatedBy:       req.CreatedBy,
	}
	if err := s.recorder.Precheck(params); err != nil {
		return nil, err
	}

	mut, err := s.cc.Mutate(ctx, "receive", req.StockID, func(*domain.StockRecord) (int, int, error) {
		return req.Quantity, 0, nil
	})
	if err != nil {
		return nil, err
	}

	return s.recorder.Record(ctx, "receive", mut, params)
}

// AdjustStock corrects on-hand quantity. IN books a RECEIPT, OUT and SET
// book an ADJUSTMENT. On-hand quantity may never drop below what is
// reserved.
func (s *StockService) AdjustStock(ctx context.Context, req ports.AdjustRequest) (_ *domain.MovementRecord, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "StockService.AdjustStock", trace.WithAttributes(
		attribute.String("stock.id", req.StockID.String()),
		attribute.String("adjust.type", string(req.Type)),
		attribute.Int("adjust.quantity", req.Quantity),
	))
	defer func() { tracing.End(span, err) }()

	if req.Type == ports.AdjustIn {
		return s.ReceiveStock(ctx, ports.ReceiveRequest{
			StockID:         req.StockID,
			Quantity:        req.Quantity,
			ReferenceNumber: req.ReferenceNumber,
			CreatedBy:       req.CreatedBy,
		})
	}

	var decide func(current *domain.StockRecord) int
	switch req.Type {
	case ports.AdjustOut:
		if req.Quantity <= 0 {
			return nil, fmt.Errorf("%w: OUT quantity must be positive", domain.ErrValidation)
		}
		decide = func(*domain.StockRecord) int { return -req.Quantity }
	case ports.AdjustSet:
		if req.Quantity < 0 {
			return nil, fmt.Errorf("%w: SET quantity must not be negative", domain.ErrValidation)
		}
		decide = func(current *domain.StockRecord) int { return req.Quantity - current.Quantity }
	default:
		return nil, fmt.Errorf("%w: unknown adjustment type %q", domain.ErrValidation, req.Type)
	}

	params := domain.MovementParams{
		StockID:         req.StockID,
		Type:            domain.MovementAdjustment,
		QuantityDelta:   -1, // replaced once the delta is known
		ReferenceNumber: req.ReferenceNumber,
		CreatedBy:       req.CreatedBy,
		Notes:           req.Reason,
	}
	if err := s.recorder.Precheck(params); err != nil {
		return nil, err
	}

	mut, err := s.cc.Mutate(ctx, "adjust", req.StockID, func(current *domain.StockRecord) (int, int, error) {
		delta := decide(current)
		next := current.Quantity + delta
		switch {
		case delta == 0:
			return 0, 0, fmt.Errorf("%w: quantity is already %d", domain.ErrInvalidAdjustment, current.Quantity)
		case next < 0:
			return 0, 0, fmt.Errorf("%w: cannot reduce stock below zero", domain.ErrInvalidAdjustment)
		case next < current.ReservedQuantity:
			return 0, 0, fmt.Errorf("%w: cannot reduce stock to %d below reserved quantity %d",
				domain.ErrInvalidAdjustment, next, current.ReservedQuantity)
		}
		return delta, 0, nil
	})
	if err != nil {
		return nil, err
	}

	params.QuantityDelta = mut.QuantityDelta
	return s.recorder.Record(ctx, "adjust", mut, params)
}

// TransferStock moves units from one record to another as a linked
// TRANSFER_OUT / TRANSFER_IN pair.
func (s *StockService) TransferStock(ctx context.Context, req ports.TransferRequest) (_ *ports.TransferResult, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "StockService.TransferStock", trace.WithAttributes(
		attribute.String("transfer.from", req.FromStockID.String()),
		attribute.String("transfer.to", req.ToStockID.String()),
		attribute.Int("transfer.quantity", req.Quantity),
	))
	defer func() { tracing.End(span, err) }()

	if req.FromStockID == req.ToStockID {
		return nil, fmt.Errorf("%w: cannot transfer stock to itself", domain.ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: transfer quantity must be positive", domain.ErrValidation)
	}
	// Both legs carry the same reference and actor, so checking the
	// TRANSFER_OUT covers the TRANSFER_IN too.
	outParams := domain.MovementParams{
		StockID:         req.FromStockID,
		Type:            domain.MovementTransferOut,
		QuantityDelta:   -req.Quantity,
		ReferenceNumber: req.ReferenceNumber,
		CreatedBy:       req.CreatedBy,
	}
	if err := s.recorder.Precheck(outParams); err != nil {
		return nil, err
	}
	if _, err := s.store.GetByID(ctx, req.ToStockID); err != nil {
		return nil, err
	}

	outMut, err := s.cc.Mutate(ctx, "transfer_out", req.FromStockID, func(current *domain.StockRecord) (int, int, error) {
		if available := current.Available(); available < req.Quantity {
			return 0, 0, &domain.InsufficientStockError{StockID: current.ID, Requested: req.Quantity, Available: available}
		}
		return -req.Quantity, 0, nil
	})
	if err != nil {
		return nil, err
	}

	out, err := s.recorder.Record(ctx, "transfer_out", outMut, outParams)
	if err != nil {
		return nil, err
	}

	inMut, err := s.cc.Mutate(ctx, "transfer_in", req.ToStockID, func(*domain.StockRecord) (int, int, error) {
		return req.Quantity, 0, nil
	})
	if err == nil {
		var in *domain.MovementRecord
		in, err = s.recorder.Record(ctx, "transfer_in", inMut, domain.MovementParams{
			Type:              domain.MovementTransferIn,
			QuantityDelta:     req.Quantity,
			ReferenceNumber:   req.ReferenceNumber,
			CreatedBy:         req.CreatedBy,
			RelatedMovementID: &out.ID,
		})
		if err == nil {
			return &ports.TransferResult{Out: out, In: in}, nil
		}
	}

	s.reverseTransferOut(ctx, out, req, err)
	return nil, fmt.Errorf("transfer to %s failed: %w", req.ToStockID, err)
}

// reverseTransferOut puts the units back on the source record with an
// ADJUSTMENT, since the TRANSFER_OUT entry itself is immutable.
func (s *StockService) reverseTransferOut(ctx context.Context, out *domain.MovementRecord, req ports.TransferRequest, cause error) {
	ctx = context.WithoutCancel(ctx)

	mut, err := s.cc.Mutate(ctx, "transfer_reverse", req.FromStockID, func(*domain.StockRecord) (int, int, error) {
		return req.Quantity, 0, nil
	})
	if err == nil {
		_, err = s.recorder.Record(ctx, "transfer_reverse", mut, domain.MovementParams{
			Type:            domain.MovementAdjustment,
			QuantityDelta:   req.Quantity,
			ReferenceNumber: req.ReferenceNumber,
			CreatedBy:       req.CreatedBy,
			Notes:           "reversal of transfer " + out.ID.String(),
		})
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "failed to reverse transfer",
			slog.String("movement_id", out.ID.String()),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()))
	}
}

// ListMovements returns the ledger of one stock record, newest first.
func (s *StockService) ListMovements(ctx context.Context, stockID uuid.UUID, filter ports.MovementFilter) ([]*domain.MovementRecord, error) {
	if _, err := s.store.GetByID(ctx, stockID); err != nil {
		return nil, err
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.config.MovementPageSize
	}

	movements, err := ports.CollectMovements(s.ledger.ListByStock(ctx, stockID, filter))
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return movements, nil
}
