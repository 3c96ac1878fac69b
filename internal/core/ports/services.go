// internal/core/ports/services.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stock-ledger/internal/core/domain"
)

// ReservationService holds quantity against a future sale.
type ReservationService interface {
	Reserve(ctx context.Context, req ReserveRequest) (uuid.UUID, error)
	Release(ctx context.Context, reservationID uuid.UUID, by string) error
	Commit(ctx context.Context, reservationID uuid.UUID, by string) error
}

// ReserveRequest describes a reservation.
type ReserveRequest struct {
	StockID           uuid.UUID
	Quantity          int
	CheckoutReference string
	CreatedBy         string
}

// CheckoutService drives checkout items through their lifecycle.
type CheckoutService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*domain.CheckoutItem, error)
	ProcessPayment(ctx context.Context, checkoutID uuid.UUID, req PaymentRequest) (*domain.CheckoutItem, error)
	Cancel(ctx context.Context, checkoutID uuid.UUID, by string) (*domain.CheckoutItem, error)
	GetCheckout(ctx context.Context, checkoutID uuid.UUID) (*domain.CheckoutItem, error)
	ListCheckouts(ctx context.Context, reference string) ([]*domain.CheckoutItem, error)
	ExpireReservations(ctx context.Context, now time.Time) (*SweepResult, error)
}

// CheckoutRequest starts a single-line checkout.
type CheckoutRequest struct {
	CustomerID        string     `json:"customer_id"`
	ItemID            uuid.UUID  `json:"item_id"`
	VariantID         *uuid.UUID `json:"variant_id,omitempty"`
	Quantity          int        `json:"quantity"`
	CheckoutReference string     `json:"checkout_reference,omitempty"`
}

// PaymentRequest captures payment for a reserved checkout item.
type PaymentRequest struct {
	Amount           decimal.Decimal `json:"payment_amount"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	ProcessedBy      string          `json:"processed_by"`
}

// SweepResult reports one pass of the expiry sweep.
type SweepResult struct {
	Scanned  int           `json:"scanned"`
	Expired  int           `json:"expired"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// StockService manages stock records outside the reservation flow.
type StockService interface {
	CreateStock(ctx context.Context, req CreateStockRequest) (*domain.StockRecord, error)
	GetStock(ctx context.Context, stockID uuid.UUID) (*domain.StockRecord, error)
	FindStock(ctx context.Context, itemID uuid.UUID, variantID *uuid.UUID) (*domain.StockRecord, error)
	GetAvailability(ctx context.Context, stockID uuid.UUID) (*domain.Availability, error)
	ReceiveStock(ctx context.Context, req ReceiveRequest) (*domain.MovementRecord, error)
	AdjustStock(ctx context.Context, req AdjustRequest) (*domain.MovementRecord, error)
	TransferStock(ctx context.Context, req TransferRequest) (*TransferResult, error)
	ListMovements(ctx context.Context, stockID uuid.UUID, filter MovementFilter) ([]*domain.MovementRecord, error)
	GetMovement(ctx context.Context, movementID uuid.UUID) (*domain.MovementRecord, error)
}

// CreateStockRequest registers stock for an item or variant.
type CreateStockRequest struct {
	ItemID            uuid.UUID  `json:"item_id"`
	VariantID         *uuid.UUID `json:"variant_id,omitempty"`
	WarehouseLocation string     `json:"warehouse_location"`
	InitialQuantity   int        `json:"initial_quantity"`
	CreatedBy         string     `json:"created_by"`
}

// ReceiveRequest books incoming units.
type ReceiveRequest struct {
	StockID         uuid.UUID `json:"-"`
	Quantity        int       `json:"quantity"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	CreatedBy       string    `json:"created_by"`
}

// AdjustmentType selects how an adjustment quantity is interpreted.
type AdjustmentType string

// Adjustment types
const (
	AdjustIn  AdjustmentType = "IN"
	AdjustOut AdjustmentType = "OUT"
	AdjustSet AdjustmentType = "SET"
)

// AdjustRequest corrects on-hand quantity.
type AdjustRequest struct {
	StockID         uuid.UUID      `json:"-"`
	Type            AdjustmentType `json:"type"`
	Quantity        int            `json:"quantity"`
	Reason          string         `json:"reason,omitempty"`
	ReferenceNumber string         `json:"reference_number,omitempty"`
	CreatedBy       string         `json:"created_by"`
}

// TransferRequest moves units between two stock records.
type TransferRequest struct {
	FromStockID     uuid.UUID `json:"from_stock_id"`
	ToStockID       uuid.UUID `json:"to_stock_id"`
	Quantity        int       `json:"quantity"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	CreatedBy       string    `json:"created_by"`
}

// TransferResult holds both legs of a transfer.
type TransferResult struct {
	Out *domain.MovementRecord `json:"transfer_out"`
	In  *domain.MovementRecord `json:"transfer_in"`
}
