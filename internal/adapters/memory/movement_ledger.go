// internal/adapters/memory/movement_ledger.go
package memory

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

// MovementLedger is an append-only in-memory ledger.
type MovementLedger struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]domain.MovementRecord
	byStock map[uuid.UUID][]uuid.UUID // append order
	closers map[uuid.UUID]uuid.UUID   // closed movement -> closing movement
	clock   func() time.Time
	last    time.Time
}

var _ ports.MovementLedger = (*MovementLedger)(nil)

// NewMovementLedger creates an empty ledger
func NewMovementLedger() *MovementLedger {
	return &MovementLedger{
		byID:    make(map[uuid.UUID]domain.MovementRecord),
		byStock: make(map[uuid.UUID][]uuid.UUID),
		closers: make(map[uuid.UUID]uuid.UUID),
		clock:   time.Now,
	}
}

// WithClock replaces the ledger's time source.
func (l *MovementLedger) WithClock(clock func() time.Time) *MovementLedger {
	l.clock = clock
	return l
}

func (l *MovementLedger) Append(ctx context.Context, movement *domain.MovementRecord) (uuid.UUID, error) {
	if err := movement.Validate(); err != nil {
		return uuid.Nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkLinkLocked(movement); err != nil {
		return uuid.Nil, err
	}
	l.appendLocked(movement)
	return movement.ID, nil
}

// checkLinkLocked resolves the movement's backward reference. l.mu must be held.
func (l *MovementLedger) checkLinkLocked(movement *domain.MovementRecord) error {
	link := movement.LinkedMovement()
	if link == nil {
		return nil
	}

	var targetPtr *domain.MovementRecord
	if target, ok := l.byID[*link]; ok {
		targetPtr = &target
	}
	settled := false
	if closes := movement.Closes(); closes != nil {
		_, settled = l.closers[*closes]
	}
	return movement.CheckLink(targetPtr, settled)
}

// appendLocked assigns id and timestamp and stores the movement. l.mu must be held.
func (l *MovementLedger) appendLocked(movement *domain.MovementRecord) {
	// Timestamps are strictly increasing so newest-first order is total.
	now := l.clock().UTC()
	if !now.After(l.last) {
		now = l.last.Add(time.Microsecond)
	}
	l.last = now

	movement.ID = uuid.New()
	movement.CreatedAt = now

	l.byID[movement.ID] = *movement
	l.byStock[movement.StockID] = append(l.byStock[movement.StockID], movement.ID)
	if closes := movement.Closes(); closes != nil {
		l.closers[*closes] = movement.ID
	}
}

func (l *MovementLedger) Get(ctx context.Context, movementID uuid.UUID) (*domain.MovementRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.byID[movementID]
	if !ok {
		return nil, domain.NewNotFound("movement", movementID)
	}
	return &m, nil
}

func (l *MovementLedger) FindClosing(ctx context.Context, movementID uuid.UUID) (*domain.MovementRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	closerID, ok := l.closers[movementID]
	if !ok {
		return nil, domain.NewNotFound("closing movement for", movementID)
	}
	m := l.byID[closerID]
	return &m, nil
}

func (l *MovementLedger) ListByStock(ctx context.Context, stockID uuid.UUID, filter ports.MovementFilter) iter.Seq2[*domain.MovementRecord, error] {
	return func(yield func(*domain.MovementRecord, error) bool) {
		// Snapshot under the lock, yield outside it.
		l.mu.RLock()
		ids := l.byStock[stockID]
		snapshot := make([]domain.MovementRecord, len(ids))
		for i, id := range ids {
			snapshot[len(ids)-1-i] = l.byID[id]
		}
		l.mu.RUnlock()

		skipped, emitted := 0, 0
		for i := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			m := snapshot[i]
			if !filter.Matches(&m) {
				continue
			}
			if skipped < filter.Offset {
				skipped++
				continue
			}
			if filter.Limit > 0 && emitted >= filter.Limit {
				return
			}
			emitted++
			if !yield(&m, nil) {
				return
			}
		}
	}
}

// Count returns the number of movements for a stock record.
func (l *MovementLedger) Count(stockID uuid.UUID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byStock[stockID])
}
