package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stock-ledger/internal/core/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from domain.CheckoutStatus
		to   domain.CheckoutStatus
		want bool
	}{
		{domain.CheckoutPending, domain.CheckoutReserved, true},
		{domain.CheckoutPending, domain.CheckoutCancelled, true},
		{domain.CheckoutPending, domain.CheckoutExpired, true},
		{domain.CheckoutPending, domain.CheckoutFulfilled, false},
		{domain.CheckoutReserved, domain.CheckoutFulfilled, true},
		{domain.CheckoutReserved, domain.CheckoutCancelled, true},
		{domain.CheckoutReserved, domain.CheckoutExpired, true},
		{domain.CheckoutReserved, domain.CheckoutPending, false},
		{domain.CheckoutFulfilled, domain.CheckoutCancelled, false},
		{domain.CheckoutCancelled, domain.CheckoutReserved, false},
		{domain.CheckoutExpired, domain.CheckoutReserved, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_to_%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, domain.CanTransition(tt.from, tt.to))
		})
	}

	for _, terminal := range []domain.CheckoutStatus{domain.CheckoutFulfilled, domain.CheckoutCancelled, domain.CheckoutExpired} {
		assert.True(t, terminal.Terminal(), terminal)
	}
	assert.False(t, domain.CheckoutReserved.Terminal())
}

func TestNewCheckoutItem(t *testing.T) {
	itemID, stockID := uuid.New(), uuid.New()
	price := decimal.RequireFromString("19.99")

	tests := []struct {
		name       string
		customerID string
		reference  string
		quantity   int
		price      decimal.Decimal
		wantError  bool
	}{
		{name: "valid", customerID: "c-1", reference: "CO-1", quantity: 3, price: price},
		{name: "generated_reference", customerID: "c-1", quantity: 1, price: price},
		{name: "free_item", customerID: "c-1", quantity: 1, price: decimal.Zero},
		{name: "blank_customer", customerID: " ", quantity: 1, price: price, wantError: true},
		{name: "zero_quantity", customerID: "c-1", quantity: 0, price: price, wantError: true},
		{name: "negative_price", customerID: "c-1", quantity: 1, price: decimal.NewFromInt(-1), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := domain.NewCheckoutItem(tt.customerID, tt.reference, itemID, nil, stockID, tt.quantity, tt.price)
			if tt.wantError {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.CheckoutPending, c.Status)
			assert.True(t, c.TotalPrice.Equal(tt.price.Mul(decimal.NewFromInt(int64(tt.quantity)))))
			if tt.reference == "" {
				assert.Regexp(t, `^CO-`, c.CheckoutReference)
			} else {
				assert.Equal(t, tt.reference, c.CheckoutReference)
			}
		})
	}
}

func TestCheckoutItem_TransitionTo(t *testing.T) {
	c, err := domain.NewCheckoutItem("c-1", "", uuid.New(), nil, uuid.New(), 2, decimal.NewFromInt(5))
	require.NoError(t, err)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err = c.TransitionTo(domain.CheckoutReserved, at)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "RESERVED needs a reservation id")
	assert.Equal(t, domain.CheckoutPending, c.Status)

	reservation := uuid.New()
	c.ReservationID = &reservation
	require.NoError(t, c.TransitionTo(domain.CheckoutReserved, at))
	assert.Equal(t, domain.CheckoutReserved, c.Status)
	assert.Equal(t, int64(1), c.Version)
	require.NotNil(t, c.ReservedAt)
	assert.Equal(t, at, *c.ReservedAt)
	assert.True(t, c.HasOpenReservation())

	assert.False(t, c.Expired(at.Add(15*time.Minute), 15*time.Minute))
	assert.True(t, c.Expired(at.Add(15*time.Minute+time.Second), 15*time.Minute))

	require.NoError(t, c.TransitionTo(domain.CheckoutFulfilled, at.Add(time.Minute)))
	assert.False(t, c.HasOpenReservation())
	assert.False(t, c.Expired(at.Add(time.Hour), time.Minute))

	err = c.TransitionTo(domain.CheckoutCancelled, at)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(2), c.Version)
}
