// internal/core/domain/movement.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MovementType classifies a ledger entry.
type MovementType string

// Movement types
const (
	MovementReceipt     MovementType = "RECEIPT"
	MovementReserve     MovementType = "RESERVE"
	MovementRelease     MovementType = "RELEASE"
	MovementSale        MovementType = "SALE"
	MovementAdjustment  MovementType = "ADJUSTMENT"
	MovementTransferIn  MovementType = "TRANSFER_IN"
	MovementTransferOut MovementType = "TRANSFER_OUT"
)

// MovementTypes lists every known type in a stable order.
func MovementTypes() []MovementType {
	return []MovementType{
		MovementReceipt, MovementReserve, MovementRelease, MovementSale,
		MovementAdjustment, MovementTransferIn, MovementTransferOut,
	}
}

// ParseMovementType converts an API value into a MovementType.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(s)
	if !t.Valid() {
		return "", validationError("unknown movement type %q", s)
	}
	return t, nil
}

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementReceipt, MovementReserve, MovementRelease, MovementSale,
		MovementAdjustment, MovementTransferIn, MovementTransferOut:
		return true
	}
	return false
}

// Settles reports whether the type closes an open reservation.
func (t MovementType) Settles() bool {
	return t == MovementRelease || t == MovementSale
}

// MovementRecord is one immutable ledger entry. Links always point backwards
// at records that already exist.
type MovementRecord struct {
	ID                uuid.UUID    `json:"id"`
	StockID           uuid.UUID    `json:"stock_id"`
	MovementType      MovementType `json:"movement_type"`
	QuantityDelta     int          `json:"quantity_delta"`
	QuantityBefore    int          `json:"quantity_before"`
	QuantityAfter     int          `json:"quantity_after"`
	ReservedBefore    int          `json:"reserved_before"`
	ReservedAfter     int          `json:"reserved_after"`
	ReferenceNumber   string       `json:"reference_number,omitempty"`
	CreatedBy         string       `json:"created_by,omitempty"`
	Notes             string       `json:"notes,omitempty"`
	RelatedMovementID *uuid.UUID   `json:"related_movement_id,omitempty"`
	ReleaseMovementID *uuid.UUID   `json:"release_movement_id,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	Version           int64        `json:"version"`
}

// MovementParams describes a movement to be appended.
type MovementParams struct {
	StockID           uuid.UUID
	Type              MovementType
	QuantityDelta     int
	Before            *StockRecord
	After             *StockRecord
	ReferenceNumber   string
	CreatedBy         string
	Notes             string
	RelatedMovementID *uuid.UUID
	ReleaseMovementID *uuid.UUID
}

// NewMovement validates params and builds an unsaved record. The ledger
// assigns ID and CreatedAt on append.
func NewMovement(p MovementParams) (*MovementRecord, error) {
	m := &MovementRecord{
		StockID:           p.StockID,
		MovementType:      p.Type,
		QuantityDelta:     p.QuantityDelta,
		ReferenceNumber:   p.ReferenceNumber,
		CreatedBy:         p.CreatedBy,
		Notes:             p.Notes,
		RelatedMovementID: p.RelatedMovementID,
		ReleaseMovementID: p.ReleaseMovementID,
	}
	if p.Before != nil {
		m.QuantityBefore = p.Before.Quantity
		m.ReservedBefore = p.Before.ReservedQuantity
	}
	if p.After != nil {
		m.QuantityAfter = p.After.Quantity
		m.ReservedAfter = p.After.ReservedQuantity
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks field shape and the sign and link rules of each type.
func (m *MovementRecord) Validate() error {
	if m.StockID == uuid.Nil {
		return validationError("stock_id is required")
	}
	if !m.MovementType.Valid() {
		return validationError("unknown movement type %q", m.MovementType)
	}
	if len(m.ReferenceNumber) > 100 {
		return validationError("reference_number must not exceed 100 characters")
	}
	if len(m.CreatedBy) > 100 {
		return validationError("created_by must not exceed 100 characters")
	}
	if len(m.Notes) > 500 {
		return validationError("notes must not exceed 500 characters")
	}

	d := m.QuantityDelta
	switch m.MovementType {
	case MovementReceipt, MovementReserve, MovementTransferIn:
		if d <= 0 {
			return validationError("%s delta must be positive, got %d", m.MovementType, d)
		}
	case MovementRelease, MovementSale, MovementTransferOut:
		if d >= 0 {
			return validationError("%s delta must be negative, got %d", m.MovementType, d)
		}
	case MovementAdjustment:
		if d == 0 {
			return validationError("adjustment delta must not be zero")
		}
	}

	return m.validateLinks()
}

func (m *MovementRecord) validateLinks() error {
	related := m.RelatedMovementID != nil
	release := m.ReleaseMovementID != nil

	switch m.MovementType {
	case MovementRelease:
		if !release || related {
			return fmt.Errorf("%w: RELEASE must reference exactly its RESERVE via release_movement_id", ErrInvalidLinkage)
		}
	case MovementSale, MovementTransferIn:
		if !related || release {
			return fmt.Errorf("%w: %s must reference its source via related_movement_id", ErrInvalidLinkage, m.MovementType)
		}
	default:
		if related || release {
			return fmt.Errorf("%w: %s does not take movement links", ErrInvalidLinkage, m.MovementType)
		}
	}
	return nil
}

// Closes returns the id of the movement this one completes: the RESERVE for
// a RELEASE or SALE, the TRANSFER_OUT for a TRANSFER_IN. At most one movement
// may close any given record.
func (m *MovementRecord) Closes() *uuid.UUID {
	switch m.MovementType {
	case MovementRelease:
		return m.ReleaseMovementID
	case MovementSale, MovementTransferIn:
		return m.RelatedMovementID
	}
	return nil
}

// LinkedMovement returns whichever backward reference is set.
func (m *MovementRecord) LinkedMovement() *uuid.UUID {
	if m.ReleaseMovementID != nil {
		return m.ReleaseMovementID
	}
	return m.RelatedMovementID
}

// ReservedAmount is the quantity held by a RESERVE movement.
func (m *MovementRecord) ReservedAmount() int {
	if m.MovementType != MovementReserve {
		return 0
	}
	return m.QuantityDelta
}

// CheckLink verifies that target is an acceptable backward reference for m.
// settled reports whether another movement already closes target.
func (m *MovementRecord) CheckLink(target *MovementRecord, settled bool) error {
	if target == nil {
		return fmt.Errorf("%w: %s references a movement that does not exist", ErrInvalidLinkage, m.MovementType)
	}
	if m.ID != uuid.Nil && target.ID == m.ID {
		return fmt.Errorf("%w: movement cannot reference itself", ErrInvalidLinkage)
	}

	switch m.MovementType {
	case MovementRelease, MovementSale:
		if target.MovementType != MovementReserve {
			return fmt.Errorf("%w: %s must reference a RESERVE, got %s", ErrInvalidLinkage, m.MovementType, target.MovementType)
		}
		if target.StockID != m.StockID {
			return fmt.Errorf("%w: %s and its RESERVE belong to different stock", ErrInvalidLinkage, m.MovementType)
		}
		if -m.QuantityDelta != target.QuantityDelta {
			return fmt.Errorf("%w: %s of %d does not match reservation of %d",
				ErrInvalidLinkage, m.MovementType, -m.QuantityDelta, target.QuantityDelta)
		}
		if settled {
			return fmt.Errorf("%w: reservation %s is already settled", ErrInvalidLinkage, target.ID)
		}
	case MovementTransferIn:
		if target.MovementType != MovementTransferOut {
			return fmt.Errorf("%w: TRANSFER_IN must reference a TRANSFER_OUT, got %s", ErrInvalidLinkage, target.MovementType)
		}
		if target.StockID == m.StockID {
			return fmt.Errorf("%w: transfer must move stock between different records", ErrInvalidLinkage)
		}
		if -target.QuantityDelta != m.QuantityDelta {
			return fmt.Errorf("%w: TRANSFER_IN of %d does not match TRANSFER_OUT of %d",
				ErrInvalidLinkage, m.QuantityDelta, -target.QuantityDelta)
		}
		if settled {
			return fmt.Errorf("%w: transfer %s already has its inbound side", ErrInvalidLinkage, target.ID)
		}
	}
	return nil
}
