// internal/adapters/memory/settler.go
package memory

import (
	"context"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

// Settler closes reservations against a StockStore and MovementLedger pair.
// The ledger lock is held across the link check, the stock write and the
// append, which makes the claim on a reservation and its stock delta one
// step. Lock order is ledger then store; the store never calls back.
type Settler struct {
	stocks *StockStore
	ledger *MovementLedger
}

var _ ports.ReservationSettler = (*Settler)(nil)

// NewSettler creates a settler over stocks and ledger
func NewSettler(stocks *StockStore, ledger *MovementLedger) *Settler {
	return &Settler{stocks: stocks, ledger: ledger}
}

func (s *Settler) Settle(ctx context.Context, movement *domain.MovementRecord, quantityDelta, reservedDelta int, expectedVersion int64) (*domain.StockRecord, error) {
	if err := movement.Validate(); err != nil {
		return nil, err
	}

	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()

	if err := s.ledger.checkLinkLocked(movement); err != nil {
		return nil, err
	}

	after, err := s.stocks.ApplyDelta(ctx, movement.StockID, quantityDelta, reservedDelta, expectedVersion)
	if err != nil {
		return nil, err
	}

	movement.QuantityBefore = after.Quantity - quantityDelta
	movement.ReservedBefore = after.ReservedQuantity - reservedDelta
	movement.QuantityAfter = after.Quantity
	movement.ReservedAfter = after.ReservedQuantity

	s.ledger.appendLocked(movement)
	return after, nil
}
