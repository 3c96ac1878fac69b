// internal/core/domain/stock.go
package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var warehouseLocationPattern = regexp.MustCompile(`^[A-Z0-9]+(-[A-Z0-9]+)*$`)

// StockRecord is the on-hand and reserved quantity of one item or variant at
// one warehouse location. Version increments by one on every mutation.
type StockRecord struct {
	ID                uuid.UUID  `json:"id"`
	ItemID            uuid.UUID  `json:"item_id"`
	VariantID         *uuid.UUID `json:"variant_id,omitempty"`
	WarehouseLocation string     `json:"warehouse_location"`
	Quantity          int        `json:"quantity"`
	ReservedQuantity  int        `json:"reserved_quantity"`
	Version           int64      `json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewStockRecord builds a validated, zero-quantity record at version 0.
// Initial quantity is added afterwards through a RECEIPT so the ledger
// accounts for every unit.
func NewStockRecord(itemID uuid.UUID, variantID *uuid.UUID, location string) (*StockRecord, error) {
	now := time.Now().UTC()
	s := &StockRecord{
		ID:                uuid.New(),
		ItemID:            itemID,
		VariantID:         variantID,
		WarehouseLocation: location,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the record's static fields and quantity invariant.
func (s *StockRecord) Validate() error {
	if s.ItemID == uuid.Nil {
		return validationError("item_id is required")
	}
	if s.VariantID != nil && *s.VariantID == uuid.Nil {
		return validationError("variant_id must not be the nil uuid")
	}
	if s.WarehouseLocation == "" {
		return validationError("warehouse_location is required")
	}
	if len(s.WarehouseLocation) > 50 || !warehouseLocationPattern.MatchString(s.WarehouseLocation) {
		return validationError("warehouse_location %q is malformed", s.WarehouseLocation)
	}
	if s.Version < 0 {
		return validationError("version must not be negative")
	}
	return CheckQuantities(s.Quantity, s.ReservedQuantity)
}

// Available is the quantity that can still be reserved.
func (s *StockRecord) Available() int {
	return s.Quantity - s.ReservedQuantity
}

// HasVariant reports whether the record tracks a specific variant.
func (s *StockRecord) HasVariant() bool {
	return s.VariantID != nil
}

// ApplyDelta returns the state that results from adding the deltas, with the
// version bumped. The receiver is not modified.
func (s *StockRecord) ApplyDelta(quantityDelta, reservedDelta int) (*StockRecord, error) {
	next := *s
	next.Quantity += quantityDelta
	next.ReservedQuantity += reservedDelta
	if err := CheckQuantities(next.Quantity, next.ReservedQuantity); err != nil {
		return nil, fmt.Errorf("stock %s delta (%+d, %+d): %w", s.ID, quantityDelta, reservedDelta, err)
	}
	next.Version = s.Version + 1
	next.UpdatedAt = time.Now().UTC()
	return &next, nil
}

// CheckQuantities enforces 0 <= reserved <= quantity.
func CheckQuantities(quantity, reserved int) error {
	switch {
	case quantity < 0:
		return fmt.Errorf("%w: quantity %d is negative", ErrInvariantViolation, quantity)
	case reserved < 0:
		return fmt.Errorf("%w: reserved quantity %d is negative", ErrInvariantViolation, reserved)
	case reserved > quantity:
		return fmt.Errorf("%w: reserved quantity %d exceeds quantity %d", ErrInvariantViolation, reserved, quantity)
	}
	return nil
}

// Availability is the read model served to callers checking stock.
type Availability struct {
	StockID           uuid.UUID `json:"stock_id"`
	Quantity          int       `json:"quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	IsAvailable       bool      `json:"is_available"`
	Version           int64     `json:"version"`
}

// AvailabilityOf projects a stock record into its availability view.
func AvailabilityOf(s *StockRecord) *Availability {
	return &Availability{
		StockID:           s.ID,
		Quantity:          s.Quantity,
		ReservedQuantity:  s.ReservedQuantity,
		AvailableQuantity: s.Available(),
		IsAvailable:       s.Available() > 0,
		Version:           s.Version,
	}
}
