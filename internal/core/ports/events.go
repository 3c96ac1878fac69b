// internal/core/ports/events.go
package ports

import (
	"context"

	"github.com/ammerola/stock-ledger/internal/core/domain"
)

// MovementPublisher forwards appended ledger entries to downstream consumers.
type MovementPublisher interface {
	Publish(ctx context.Context, movement *domain.MovementRecord) error
	Close() error
}
