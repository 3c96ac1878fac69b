// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/stock-ledger/internal/core/domain"
)

const (
	TypeExpireReservations = "reservations:expire"
	TypeExportMovements    = "movements:export"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// ExportMovementsPayload selects the movements written to an export workbook.
type ExportMovementsPayload struct {
	StockID     uuid.UUID             `json:"stock_id"`
	Types       []domain.MovementType `json:"types,omitempty"`
	Since       *time.Time            `json:"since,omitempty"`
	Until       *time.Time            `json:"until,omitempty"`
	RequestedBy string                `json:"requested_by,omitempty"`
	RequestID   string                `json:"request_id,omitempty"`
}

// NewExpireReservationsTask builds the sweep task. It is not retried; the
// next scheduled run picks up whatever this one missed.
func NewExpireReservationsTask() *asynq.Task {
	return asynq.NewTask(TypeExpireReservations, nil,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(0),
		asynq.Timeout(5*time.Minute),
	)
}

// NewExportMovementsTask builds an export task for one stock record.
func NewExportMovementsTask(p ExportMovementsPayload) (*asynq.Task, error) {
	if p.StockID == uuid.Nil {
		return nil, fmt.Errorf("%w: stock_id is required", domain.ErrValidation)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export payload: %w", err)
	}
	return asynq.NewTask(TypeExportMovements, payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}

func parseExportPayload(t *asynq.Task) (ExportMovementsPayload, error) {
	var p ExportMovementsPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if p.StockID == uuid.Nil {
		return p, fmt.Errorf("stock_id missing from payload: %w", asynq.SkipRetry)
	}
	return p, nil
}
