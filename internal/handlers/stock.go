// internal/handlers/stock.go
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/pkg/logger"
	"github.com/ammerola/stock-ledger/internal/workers"
)

const maxMovementLimit = 1000

// TaskEnqueuer is the part of *asynq.Client the handlers use.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// StockHandler serves stock records, their availability and their ledger.
type StockHandler struct {
	service  ports.StockService
	enqueuer TaskEnqueuer
	logger   *slog.Logger
}

// NewStockHandler creates a stock handler. enqueuer may be nil, in which
// case movement exports are unavailable.
func NewStockHandler(service ports.StockService, enqueuer TaskEnqueuer, logger *slog.Logger) *StockHandler {
	return &StockHandler{
		service:  service,
		enqueuer: enqueuer,
		logger:   logger.With(slog.String("handler", "stock")),
	}
}

// CreateStock handles POST /api/v1/stocks
func (h *StockHandler) CreateStock(w http.ResponseWriter, r *http.Request) {
	var req ports.CreateStockRequest
	if err := decodeBody(r, &req); err != nil {
		respondDomainError(h.logger, w, r, "create_stock", err)
		return
	}
	req.CreatedBy = actor(r, req.CreatedBy)

	stock, err := h.service.CreateStock(r.Context(), req)
	if err != nil {
		respondDomainError(h.logger, w, r, "create_stock", err)
		return
	}

	h.logger.InfoContext(r.Context(), "stock created",
		slog.String("stock_id", stock.ID.String()),
		slog.String("location", stock.WarehouseLocation))
	respondJSON(h.logger, w, http.StatusCreated, stock)
}

// GetStock handles GET /api/v1/stocks/{id}
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, "get_stock", err)
		return
	}

	stock, err := h.service.GetStock(r.Context(), id)
	if err != nil {
		respondDomainError(h.logger, w, r, "get_stock", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, stock)
}

// FindStock handles GET /api/v1/stocks?item_id=&variant_id=
func (h *StockHandler) FindStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	itemID, err := uuid.Parse(q.Get("item_id"))
	if err != nil {
		respondDomainError(h.logger, w, r, "find_stock", fmt.Errorf("%w: invalid item_id", domain.ErrValidation))
		return
	}

	var variantID *uuid.UUID
	if raw := q.Get("variant_id"); raw != "" {
		v, err := uuid.Parse(raw)
		if err != nil {
			respondDomainError(h.logger, w, r, "find_stock", fmt.Errorf("%w: invalid variant_id", domain.ErrValidation))
			return
		}
		variantID = &v
	}

	stock, err := h.service.FindStock(r.Context(), itemID, variantID)
	if err != nil {
		respondDomainError(h.logger, w, r, "find_stock", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, stock)
}

// GetMovement handles GET /api/v1/movements/{id}
func (h *StockHandler) GetMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, "get_movement", err)
		return
	}

	movement, err := h.service.GetMovement(r.Context(), id)
	if err != nil {
		respondDomainError(h.logger, w, r, "get_movement", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, movement)
}

// GetAvailability handles GET /api/v1/stocks/{id}/availability
func (h *StockHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, "get_availability", err)
		return
	}

	availability, err := h.service.GetAvailability(r.Context(), id)
	if err != nil {
		respondDomainError(h.logger, w, r, "get_availability", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, availability)
}

// ReceiveStock handles POST /api/v1/stocks/{id}/receipts
func (h *StockHandler) ReceiveStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, "receive_stock", err)
		return
	}

	var req ports.ReceiveRequest
	if err := decodeBody(r, &req); err != nil {
		respondDomainError(h.logger, w, r, "receive_stock", err)
		return
	}
	req.StockID = id
	req.CreatedBy = actor(r, req.CreatedBy)

	movement, err := h.service.ReceiveStock(r.Context(), req)
	if err != nil {
		respondDomainError(h.logger, w, r, "receive_stock", err)
		return
	}
	respondJSON(h.logger, w, http.StatusCreated, movement)
}

// AdjustStock handles POST /api/v1/stocks/{id}/adjustments
func (h *StockHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, "adjust_stock", err)
		return
	}

	var req ports.AdjustRequest
	if err := decodeBody(r, &req); err != nil {
		respondDomainError(h.logger, w, r, "adjust_stock", err)
		return
	}
	req.StockID = id
	req.Type = ports.AdjustmentType(strings.ToUpper(string(req.Type)))
	req.CreatedBy = actor(r, req.CreatedBy)

	movement, err := h.service.AdjustStock(r.Context(), req)
	if err != nil {
		respondDomainError(h.logger, w, r, "adjust_stock", err)
		return
	}
	respondJSON(h.logger, w, http.StatusCreated, movement)
}

// TransferStock handles POST /api/v1/stocks/transfers
func (h *StockHandler) TransferStock(w http.ResponseWriter, r *http.Request) {
	var req ports.TransferRequest
	if err := decodeBody(r, &req); err != nil {
		respondDomainError(h.logger, w, r, "transfer_stock", err)
		return
	}
	req.CreatedBy = actor(r, req.CreatedBy)

	result, err := h.service.TransferStock(r.Context(), req)
	if err != nil {
		respondDomainError(h.logger, w, r, "transfer_stock", err)
		return
	}
	respondJSON(h.logger, w, http.StatusCreated, result)
}

// MovementsResponse is one page of a stock's ledger.
type MovementsResponse struct {
	Movements []*domain.MovementRecord `json:"movements"`
	Count     int                      `json:"count"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
}

// ListMovements handles GET /api/v1/stocks/{id}/movements
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, "list_movements", err)
		return
	}

	filter, err := parseMovementFilter(r)
	if err != nil {
		respondDomainError(h.logger, w, r, "list_movements", err)
		return
	}

	movements, err := h.service.ListMovements(r.Context(), id, filter)
	if err != nil {
		respondDomainError(h.logger, w, r, "list_movements", err)
		return
	}
	if movements == nil {
		movements = []*domain.MovementRecord{}
	}

	respondJSON(h.logger, w, http.StatusOK, MovementsResponse{
		Movements: movements,
		Count:     len(movements),
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	})
}

// ExportMovements handles POST /api/v1/stocks/{id}/movements/export
func (h *StockHandler) ExportMovements(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		respondError(h.logger, w, http.StatusServiceUnavailable, domain.CodeInternal, "exports are not enabled")
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, "export_movements", err)
		return
	}

	// The stock must exist before work is queued for it.
	if _, err := h.service.GetStock(r.Context(), id); err != nil {
		respondDomainError(h.logger, w, r, "export_movements", err)
		return
	}

	filter, err := parseMovementFilter(r)
	if err != nil {
		respondDomainError(h.logger, w, r, "export_movements", err)
		return
	}

	requestID, _ := r.Context().Value(logger.ContextKeyRequestID).(string)
	task, err := workers.NewExportMovementsTask(workers.ExportMovementsPayload{
		StockID:     id,
		Types:       filter.Types,
		Since:       filter.Since,
		Until:       filter.Until,
		RequestedBy: actor(r, ""),
		RequestID:   requestID,
	})
	if err != nil {
		respondDomainError(h.logger, w, r, "export_movements", err)
		return
	}

	info, err := h.enqueuer.EnqueueContext(r.Context(), task)
	if err != nil {
		respondDomainError(h.logger, w, r, "export_movements", fmt.Errorf("failed to enqueue export: %w", err))
		return
	}

	h.logger.InfoContext(r.Context(), "movement export queued",
		slog.String("stock_id", id.String()),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))

	respondJSON(h.logger, w, http.StatusAccepted, map[string]string{
		"task_id": info.ID,
		"queue":   info.Queue,
		"status":  "queued",
	})
}

func parseMovementFilter(r *http.Request) (ports.MovementFilter, error) {
	q := r.URL.Query()
	var filter ports.MovementFilter

	for _, raw := range q["type"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			t, err := domain.ParseMovementType(part)
			if err != nil {
				return filter, err
			}
			filter.Types = append(filter.Types, t)
		}
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit"), "limit", 0, maxMovementLimit); err != nil {
		return filter, err
	}
	if filter.Offset, err = intParam(q.Get("offset"), "offset", 0, -1); err != nil {
		return filter, err
	}
	if filter.Since, err = timeParam(q.Get("since"), "since"); err != nil {
		return filter, err
	}
	if filter.Until, err = timeParam(q.Get("until"), "until"); err != nil {
		return filter, err
	}
	return filter, nil
}

// intParam parses a non-negative integer. maxVal < 0 means unbounded.
func intParam(raw, name string, def, maxVal int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || (maxVal >= 0 && n > maxVal) {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrValidation, name, raw)
	}
	return n, nil
}

func timeParam(raw, name string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, name)
	}
	return &t, nil
}
