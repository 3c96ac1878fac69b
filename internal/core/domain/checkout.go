// internal/core/domain/checkout.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutStatus is the lifecycle state of a CheckoutItem.
type CheckoutStatus string

// Checkout statuses
const (
	CheckoutPending   CheckoutStatus = "PENDING"
	CheckoutReserved  CheckoutStatus = "RESERVED"
	CheckoutFulfilled CheckoutStatus = "FULFILLED"
	CheckoutCancelled CheckoutStatus = "CANCELLED"
	CheckoutExpired   CheckoutStatus = "EXPIRED"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutPending:  {CheckoutReserved, CheckoutCancelled, CheckoutExpired},
	CheckoutReserved: {CheckoutFulfilled, CheckoutCancelled, CheckoutExpired},
}

// Valid reports whether s is a known status.
func (s CheckoutStatus) Valid() bool {
	switch s {
	case CheckoutPending, CheckoutReserved, CheckoutFulfilled, CheckoutCancelled, CheckoutExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s CheckoutStatus) Terminal() bool {
	return len(checkoutTransitions[s]) == 0
}

// CanTransition reports whether from -> to is an edge of the checkout state machine.
func CanTransition(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckoutItem is one reserved line of a customer's checkout.
type CheckoutItem struct {
	ID                uuid.UUID       `json:"id"`
	CustomerID        string          `json:"customer_id"`
	ItemID            uuid.UUID       `json:"item_id"`
	VariantID         *uuid.UUID      `json:"variant_id,omitempty"`
	StockID           uuid.UUID       `json:"stock_id"`
	ReservationID     *uuid.UUID      `json:"reservation_id,omitempty"`
	Quantity          int             `json:"quantity"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Status            CheckoutStatus  `json:"status"`
	CheckoutReference string          `json:"checkout_reference"`
	PaymentReference  string          `json:"payment_reference,omitempty"`
	Version           int64           `json:"version"`
	ReservedAt        *time.Time      `json:"reserved_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewCheckoutItem builds a PENDING checkout item with its price snapshot.
func NewCheckoutItem(customerID, reference string, itemID uuid.UUID, variantID *uuid.UUID,
	stockID uuid.UUID, quantity int, pricePerUnit decimal.Decimal) (*CheckoutItem, error) {

	now := time.Now().UTC()
	if strings.TrimSpace(reference) == "" {
		reference = "CO-" + uuid.NewString()
	}
	c := &CheckoutItem{
		ID:                uuid.New(),
		CustomerID:        customerID,
		ItemID:            itemID,
		VariantID:         variantID,
		StockID:           stockID,
		Quantity:          quantity,
		PricePerUnit:      pricePerUnit,
		TotalPrice:        pricePerUnit.Mul(decimal.NewFromInt(int64(quantity))),
		Status:            CheckoutPending,
		CheckoutReference: reference,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the item's fields.
func (c *CheckoutItem) Validate() error {
	if strings.TrimSpace(c.CustomerID) == "" {
		return validationError("customer_id is required")
	}
	if len(c.CustomerID) > 100 {
		return validationError("customer_id must not exceed 100 characters")
	}
	if len(c.CheckoutReference) > 100 {
		return validationError("checkout_reference must not exceed 100 characters")
	}
	if c.ItemID == uuid.Nil || c.StockID == uuid.Nil {
		return validationError("item_id and stock_id are required")
	}
	if c.Quantity < 1 {
		return validationError("quantity must be at least 1")
	}
	if c.PricePerUnit.IsNegative() {
		return validationError("price_per_unit must not be negative")
	}
	if !c.Status.Valid() {
		return validationError("unknown checkout status %q", c.Status)
	}
	return nil
}

// TransitionTo moves the item to the next status, bumping its version.
// A reservation id is required to enter RESERVED.
func (c *CheckoutItem) TransitionTo(next CheckoutStatus, at time.Time) error {
	if !CanTransition(c.Status, next) {
		return fmt.Errorf("%w: %s -> %s for checkout %s", ErrInvalidTransition, c.Status, next, c.ID)
	}
	if next == CheckoutReserved {
		if c.ReservationID == nil {
			return fmt.Errorf("%w: RESERVED requires a reservation id", ErrInvalidTransition)
		}
		t := at.UTC()
		c.ReservedAt = &t
	}
	c.Status = next
	c.Version++
	c.UpdatedAt = at.UTC()
	return nil
}

// HasOpenReservation reports whether the item holds stock that must be
// released or committed.
func (c *CheckoutItem) HasOpenReservation() bool {
	return c.Status == CheckoutReserved && c.ReservationID != nil
}

// Expired reports whether the item has outlived ttl as of now.
func (c *CheckoutItem) Expired(now time.Time, ttl time.Duration) bool {
	switch c.Status {
	case CheckoutReserved:
		return c.ReservedAt != nil && now.Sub(*c.ReservedAt) > ttl
	case CheckoutPending:
		return now.Sub(c.CreatedAt) > ttl
	}
	return false
}
