package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stock-ledger/internal/core/domain"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"nil", nil, ""},
		{"version_conflict", fmt.Errorf("reserve gave up: %w", domain.ErrVersionConflict), domain.CodeVersionConflict},
		{"insufficient_stock", &domain.InsufficientStockError{Requested: 2, Available: 1}, domain.CodeInsufficientStock},
		{"invariant", domain.ErrInvariantViolation, domain.CodeInvariantViolation},
		{"not_found", domain.NewNotFound("stock", uuid.New()), domain.CodeNotFound},
		{"already_released", domain.ErrAlreadyReleased, domain.CodeAlreadyReleased},
		{"already_committed", domain.ErrAlreadyCommitted, domain.CodeAlreadyCommitted},
		{"invalid_linkage", domain.ErrInvalidLinkage, domain.CodeInvalidLinkage},
		{"invalid_transition", domain.ErrInvalidTransition, domain.CodeInvalidTransition},
		{"duplicate", domain.ErrDuplicateStock, domain.CodeDuplicate},
		{"invalid_adjustment", domain.ErrInvalidAdjustment, domain.CodeInvalidOperation},
		{"inactive_product", domain.ErrInactiveProduct, domain.CodeInvalidOperation},
		{"invalid_payment", domain.ErrInvalidPayment, domain.CodeInvalidPayment},
		{"validation", domain.ErrValidation, domain.CodeValidation},
		{"unknown", errors.New("boom"), domain.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, domain.ErrorCode(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, domain.IsRetryable(fmt.Errorf("wrapped: %w", domain.ErrVersionConflict)))
	assert.False(t, domain.IsRetryable(domain.ErrInsufficientStock))
	assert.False(t, domain.IsRetryable(domain.ErrInvariantViolation))
	assert.False(t, domain.IsRetryable(nil))
}

func TestInsufficientStockError(t *testing.T) {
	id := uuid.New()
	err := fmt.Errorf("checkout: %w", &domain.InsufficientStockError{StockID: id, Requested: 11, Available: 10})

	var target *domain.InsufficientStockError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, 11, target.Requested)
	assert.Contains(t, err.Error(), "requested 11, available 10")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestUnitPrice(t *testing.T) {
	item := &domain.Item{ID: uuid.New(), SKU: "TEE", Name: "Tee", BasePrice: decimal.RequireFromString("20.00"), IsActive: true}

	tests := []struct {
		name          string
		item          func() *domain.Item
		variant       func() *domain.Variant
		expected      string
		expectedError error
	}{
		{
			name:     "item_only",
			item:     func() *domain.Item { return item },
			variant:  func() *domain.Variant { return nil },
			expected: "20",
		},
		{
			name: "variant_adjustment",
			item: func() *domain.Item { return item },
			variant: func() *domain.Variant {
				return &domain.Variant{ItemID: item.ID, IsActive: true, PriceAdjustment: decimal.RequireFromString("-2.5")}
			},
			expected: "17.5",
		},
		{
			name: "inactive_item",
			item: func() *domain.Item {
				inactive := *item
				inactive.IsActive = false
				return &inactive
			},
			variant:       func() *domain.Variant { return nil },
			expectedError: domain.ErrInactiveProduct,
		},
		{
			name: "inactive_variant",
			item: func() *domain.Item { return item },
			variant: func() *domain.Variant {
				return &domain.Variant{ItemID: item.ID, IsActive: false}
			},
			expectedError: domain.ErrInactiveProduct,
		},
		{
			name: "variant_of_other_item",
			item: func() *domain.Item { return item },
			variant: func() *domain.Variant {
				return &domain.Variant{ID: uuid.New(), ItemID: uuid.New(), IsActive: true}
			},
			expectedError: domain.ErrNotFound,
		},
		{
			name: "negative_result",
			item: func() *domain.Item { return item },
			variant: func() *domain.Variant {
				return &domain.Variant{ItemID: item.ID, IsActive: true, PriceAdjustment: decimal.NewFromInt(-21)}
			},
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := domain.UnitPrice(tt.item(), tt.variant())
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, price.String())
		})
	}
}
