// internal/handlers/checkout.go
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/pkg/logger"
)

// CheckoutHandler drives checkout items over HTTP.
type CheckoutHandler struct {
	service ports.CheckoutService
	logger  *slog.Logger
}

func NewCheckoutHandler(service ports.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "checkout")),
	}
}

// CreateCheckout handles POST /api/v1/checkouts
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req ports.CheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondDomainError(h.logger, w, r, "checkout", err)
		return
	}

	ctx := r.Context()
	if req.CheckoutReference != "" {
		ctx = context.WithValue(ctx, logger.ContextKeyCheckoutReference, req.CheckoutReference)
	}

	item, err := h.service.Checkout(ctx, req)
	if err != nil {
		respondDomainError(h.logger, w, r.WithContext(ctx), "checkout", err)
		return
	}

	h.logger.InfoContext(ctx, "checkout created",
		slog.String("checkout_id", item.ID.String()),
		slog.String("reference", item.CheckoutReference),
		slog.String("status", string(item.Status)))
	respondJSON(h.logger, w, http.StatusCreated, item)
}

// GetCheckout handles GET /api/v1/checkouts/{id}
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, "get_checkout", err)
		return
	}

	item, err := h.service.GetCheckout(r.Context(), id)
	if err != nil {
		respondDomainError(h.logger, w, r, "get_checkout", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, item)
}

// ListCheckouts handles GET /api/v1/checkouts?reference=
func (h *CheckoutHandler) ListCheckouts(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		respondDomainError(h.logger, w, r, "list_checkouts",
			fmt.Errorf("%w: reference is required", domain.ErrValidation))
		return
	}

	items, err := h.service.ListCheckouts(r.Context(), reference)
	if err != nil {
		respondDomainError(h.logger, w, r, "list_checkouts", err)
		return
	}
	if items == nil {
		items = []*domain.CheckoutItem{}
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]any{
		"checkout_reference": reference,
		"items":              items,
		"count":              len(items),
	})
}

// ProcessPayment handles POST /api/v1/checkouts/{id}/payment
func (h *CheckoutHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, "process_payment", err)
		return
	}

	var req ports.PaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondDomainError(h.logger, w, r, "process_payment", err)
		return
	}
	req.ProcessedBy = actor(r, req.ProcessedBy)

	item, err := h.service.ProcessPayment(r.Context(), id, req)
	if err != nil {
		respondDomainError(h.logger, w, r, "process_payment", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, item)
}

// CancelCheckout handles POST /api/v1/checkouts/{id}/cancel
func (h *CheckoutHandler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondDomainError(h.logger, w, r, "cancel_checkout", err)
		return
	}

	var body ActorBody
	if r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			respondDomainError(h.logger, w, r, "cancel_checkout", err)
			return
		}
	}

	item, err := h.service.Cancel(r.Context(), id, actor(r, body.By))
	if err != nil {
		respondDomainError(h.logger, w, r, "cancel_checkout", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, item)
}
