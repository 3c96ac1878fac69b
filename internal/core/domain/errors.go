// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Ledger error taxonomy. Only ErrVersionConflict is transient.
var (
	ErrVersionConflict    = errors.New("version conflict")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvariantViolation = errors.New("stock invariant violation")
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyReleased    = errors.New("reservation already released")
	ErrAlreadyCommitted   = errors.New("reservation already committed")
	ErrInvalidLinkage     = errors.New("invalid movement linkage")
	ErrInvalidTransition  = errors.New("invalid checkout status transition")

	ErrDuplicateStock    = errors.New("stock already exists")
	ErrInvalidAdjustment = errors.New("invalid stock adjustment")
	ErrInvalidPayment    = errors.New("invalid payment")
	ErrInactiveProduct   = errors.New("product is not active")
	ErrValidation        = errors.New("validation failed")
)

// Error codes returned to API callers.
const (
	CodeVersionConflict    = "VERSION_CONFLICT"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
	CodeNotFound           = "RESOURCE_NOT_FOUND"
	CodeAlreadyReleased    = "ALREADY_RELEASED"
	CodeAlreadyCommitted   = "ALREADY_COMMITTED"
	CodeInvalidLinkage     = "INVALID_LINKAGE"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeDuplicate          = "DUPLICATE_RESOURCE"
	CodeInvalidOperation   = "INVALID_OPERATION"
	CodeInvalidPayment     = "INVALID_PAYMENT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

// InsufficientStockError carries the numbers a caller needs to tell the
// customer why a reservation was refused.
type InsufficientStockError struct {
	StockID   uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.StockID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFound builds a NotFoundError.
func NewNotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// IsRetryable reports whether err may succeed when the operation is re-run
// against fresh state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// ErrorCode maps an error to its stable API code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrVersionConflict):
		return CodeVersionConflict
	case errors.Is(err, ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, ErrInvariantViolation):
		return CodeInvariantViolation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAlreadyReleased):
		return CodeAlreadyReleased
	case errors.Is(err, ErrAlreadyCommitted):
		return CodeAlreadyCommitted
	case errors.Is(err, ErrInvalidLinkage):
		return CodeInvalidLinkage
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrDuplicateStock):
		return CodeDuplicate
	case errors.Is(err, ErrInvalidAdjustment), errors.Is(err, ErrInactiveProduct):
		return CodeInvalidOperation
	case errors.Is(err, ErrInvalidPayment):
		return CodeInvalidPayment
	case errors.Is(err, ErrValidation):
		return CodeValidation
	default:
		return CodeInternal
	}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
