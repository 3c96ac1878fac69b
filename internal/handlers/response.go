// internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/core/domain"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor maps a domain error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeVersionConflict,
		domain.CodeInvalidLinkage,
		domain.CodeInvalidTransition,
		domain.CodeDuplicate,
		domain.CodeAlreadyReleased,
		domain.CodeAlreadyCommitted,
		domain.CodeInvariantViolation:
		return http.StatusConflict
	case domain.CodeInsufficientStock,
		domain.CodeInvalidPayment,
		domain.CodeInvalidOperation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(logger *slog.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func respondError(logger *slog.Logger, w http.ResponseWriter, status int, code, message string) {
	respondJSON(logger, w, status, ErrorResponse{Error: message, Code: code})
}

// respondDomainError translates a service error. Internal errors are logged
// and their text is not exposed.
func respondDomainError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, op string, err error) {
	code := domain.ErrorCode(err)
	status := StatusFor(code)

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		respondError(logger, w, status, domain.CodeInternal, "internal error")
		return
	}

	logger.DebugContext(r.Context(), "request rejected",
		slog.String("operation", op),
		slog.String("code", code),
		slog.String("error", err.Error()))

	body := map[string]any{"error": err.Error(), "code": code}
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		body["requested"] = insufficient.Requested
		body["available"] = insufficient.Available
	}
	respondJSON(logger, w, status, body)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return id, nil
}

// actor returns who is performing the request: the body value if present,
// else the X-Actor header, else "api".
func actor(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if h := r.Header.Get("X-Actor"); h != "" {
		return h
	}
	return "api"
}
