// internal/handlers/reservation.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/pkg/logger"
)

// ReservationHandler exposes reserve, release and commit.
type ReservationHandler struct {
	service ports.ReservationService
	logger  *slog.Logger
}

func NewReservationHandler(service ports.ReservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "reservation")),
	}
}

// ReserveBody is the JSON accepted by Reserve.
type ReserveBody struct {
	Quantity          int    `json:"quantity"`
	CheckoutReference string `json:"checkout_reference,omitempty"`
	CreatedBy         string `json:"created_by,omitempty"`
}

// ReservationResponse identifies a reservation movement.
type ReservationResponse struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	StockID       uuid.UUID `json:"stock_id,omitempty"`
	Quantity      int       `json:"quantity,omitempty"`
	Status        string    `json:"status"`
}

// Reserve handles POST /api/v1/stocks/{id}/reservations
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	stockID, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, "reserve", err)
		return
	}

	var body ReserveBody
	if err := decodeBody(r, &body); err != nil {
		respondDomainError(h.logger, w, r, "reserve", err)
		return
	}

	ctx := context.WithValue(r.Context(), logger.ContextKeyStockID, stockID.String())
	if body.CheckoutReference != "" {
		ctx = context.WithValue(ctx, logger.ContextKeyCheckoutReference, body.CheckoutReference)
	}

	reservationID, err := h.service.Reserve(ctx, ports.ReserveRequest{
		StockID:           stockID,
		Quantity:          body.Quantity,
		CheckoutReference: body.CheckoutReference,
		CreatedBy:         actor(r, body.CreatedBy),
	})
	if err != nil {
		respondDomainError(h.logger, w, r.WithContext(ctx), "reserve", err)
		return
	}

	respondJSON(h.logger, w, http.StatusCreated, ReservationResponse{
		ReservationID: reservationID,
		StockID:       stockID,
		Quantity:      body.Quantity,
		Status:        "reserved",
	})
}

// ActorBody optionally names who releases or commits.
type ActorBody struct {
	By string `json:"by,omitempty"`
}

// Release handles POST /api/v1/reservations/{id}/release
func (h *ReservationHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, "release", "released", h.service.Release)
}

// Commit handles POST /api/v1/reservations/{id}/commit
func (h *ReservationHandler) Commit(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, "commit", "committed", h.service.Commit)
}

func (h *ReservationHandler) settle(w http.ResponseWriter, r *http.Request, op, status string,
	fn func(context.Context, uuid.UUID, string) error) {
	reservationID, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, op, err)
		return
	}

	var body ActorBody
	if r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			respondDomainError(h.logger, w, r, op, err)
			return
		}
	}

	if err := fn(r.Context(), reservationID, actor(r, body.By)); err != nil {
		respondDomainError(h.logger, w, r, op, err)
		return
	}

	respondJSON(h.logger, w, http.StatusOK, ReservationResponse{
		ReservationID: reservationID,
		Status:        status,
	})
}
