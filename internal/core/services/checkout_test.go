package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/core/services"
	"github.com/ammerola/stock-ledger/test/helpers"
	"github.com/ammerola/stock-ledger/test/mocks"
)

// checkoutFixture is a ledger fixture with a stocked item and a fixed clock.
type checkoutFixture struct {
	*ledgerFixture
	item  *domain.Item
	stock *domain.StockRecord
	now   time.Time
}

func newCheckoutFixture(t *testing.T, quantity int, overrides ...func(*fixtureOptions)) *checkoutFixture {
	t.Helper()

	f := &checkoutFixture{
		ledgerFixture: newLedgerFixture(t, overrides...),
		now:           time.Now().UTC(),
	}
	f.coordinator.WithClock(func() time.Time { return f.now })

	f.stock = f.newStock(t, quantity)
	item, err := f.catalog.GetItem(context.Background(), f.stock.ItemID)
	require.NoError(t, err)
	f.item = item
	return f
}

func (f *checkoutFixture) checkout(t *testing.T, quantity int) *domain.CheckoutItem {
	t.Helper()

	item, err := f.coordinator.Checkout(context.Background(), ports.CheckoutRequest{
		CustomerID: "customer-1",
		ItemID:     f.item.ID,
		Quantity:   quantity,
	})
	require.NoError(t, err)
	return item
}

func TestCheckoutCoordinator_Checkout(t *testing.T) {
	f := newCheckoutFixture(t, 20)

	item, err := f.coordinator.Checkout(context.Background(), ports.CheckoutRequest{
		CustomerID:        "customer-1",
		ItemID:            f.item.ID,
		Quantity:          3,
		CheckoutReference: "CO-ABC",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CheckoutReserved, item.Status)
	assert.Equal(t, "CO-ABC", item.CheckoutReference)
	assert.Equal(t, f.stock.ID, item.StockID)
	require.NotNil(t, item.ReservationID)
	require.NotNil(t, item.ReservedAt)
	assert.True(t, item.ReservedAt.Equal(f.now))
	assert.True(t, item.PricePerUnit.Equal(f.item.BasePrice))
	assert.True(t, item.TotalPrice.Equal(f.item.BasePrice.Mul(decimal.NewFromInt(3))))

	reserve, err := f.ledger.Get(context.Background(), *item.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, 3, reserve.QuantityDelta)
	assert.Equal(t, "CO-ABC", reserve.ReferenceNumber)

	assert.Equal(t, 3, f.current(t, f.stock.ID).ReservedQuantity)

	listed, err := f.coordinator.ListCheckouts(context.Background(), "CO-ABC")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, item.ID, listed[0].ID)
}

func TestCheckoutCoordinator_CheckoutPricesVariant(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	item := f.newItem(func(i *domain.Item) { i.BasePrice = decimal.RequireFromString("10.00") })
	variant := helpers.NewTestVariant(item, func(v *domain.Variant) {
		v.PriceAdjustment = decimal.RequireFromString("2.50")
	})
	f.catalog.PutVariant(*variant)

	_, err := f.stocks.CreateStock(ctx, ports.CreateStockRequest{
		ItemID:            item.ID,
		VariantID:         &variant.ID,
		WarehouseLocation: "WH-B-01",
		InitialQuantity:   5,
	})
	require.NoError(t, err)

	checkout, err := f.coordinator.Checkout(ctx, ports.CheckoutRequest{
		CustomerID: "customer-2",
		ItemID:     item.ID,
		VariantID:  &variant.ID,
		Quantity:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, "12.5", checkout.PricePerUnit.String())
	assert.Equal(t, "25", checkout.TotalPrice.String())
	assert.NotEmpty(t, checkout.CheckoutReference)
}

func TestCheckoutCoordinator_CheckoutFailures(t *testing.T) {
	tests := []struct {
		name          string
		req           func(*checkoutFixture) ports.CheckoutRequest
		expectedError error
	}{
		{
			name: "zero_quantity",
			req: func(f *checkoutFixture) ports.CheckoutRequest {
				return ports.CheckoutRequest{CustomerID: "c", ItemID: f.item.ID, Quantity: 0}
			},
			expectedError: domain.ErrValidation,
		},
		{
			name: "missing_customer",
			req: func(f *checkoutFixture) ports.CheckoutRequest {
				return ports.CheckoutRequest{CustomerID: "  ", ItemID: f.item.ID, Quantity: 1}
			},
			expectedError: domain.ErrValidation,
		},
		{
			name: "unknown_item",
			req: func(f *checkoutFixture) ports.CheckoutRequest {
				return ports.CheckoutRequest{CustomerID: "c", ItemID: uuid.New(), Quantity: 1}
			},
			expectedError: domain.ErrNotFound,
		},
		{
			name: "item_without_stock",
			req: func(f *checkoutFixture) ports.CheckoutRequest {
				return ports.CheckoutRequest{CustomerID: "c", ItemID: f.newItem().ID, Quantity: 1}
			},
			expectedError: domain.ErrNotFound,
		},
		{
			name: "inactive_item",
			req: func(f *checkoutFixture) ports.CheckoutRequest {
				f.item.IsActive = false
				f.catalog.PutItem(*f.item)
				return ports.CheckoutRequest{CustomerID: "c", ItemID: f.item.ID, Quantity: 1}
			},
			expectedError: domain.ErrInactiveProduct,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture(t, 5)

			item, err := f.coordinator.Checkout(context.Background(), tt.req(f))

			assert.Nil(t, item)
			assert.ErrorIs(t, err, tt.expectedError)
			assert.Equal(t, 0, f.current(t, f.stock.ID).ReservedQuantity)
		})
	}
}

func TestCheckoutCoordinator_CheckoutInsufficientStockCancelsItem(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, 5)

	_, err := f.coordinator.Checkout(ctx, ports.CheckoutRequest{
		CustomerID:        "customer-1",
		ItemID:            f.item.ID,
		Quantity:          6,
		CheckoutReference: "CO-TOO-MANY",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	items, err := f.coordinator.ListCheckouts(ctx, "CO-TOO-MANY")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.CheckoutCancelled, items[0].Status)
	assert.Nil(t, items[0].ReservationID)
}

func TestCheckoutCoordinator_ProcessPayment(t *testing.T) {
	tests := []struct {
		name          string
		amount        func(total decimal.Decimal) decimal.Decimal
		expectedError error
	}{
		{
			name:   "exact_amount",
			amount: func(total decimal.Decimal) decimal.Decimal { return total },
		},
		{
			name:   "overpayment",
			amount: func(total decimal.Decimal) decimal.Decimal { return total.Add(decimal.NewFromInt(1)) },
		},
		{
			name:          "underpayment",
			amount:        func(total decimal.Decimal) decimal.Decimal { return total.Sub(decimal.RequireFromString("0.01")) },
			expectedError: domain.ErrInvalidPayment,
		},
		{
			name:          "zero_amount",
			amount:        func(decimal.Decimal) decimal.Decimal { return decimal.Zero },
			expectedError: domain.ErrInvalidPayment,
		},
		{
			name:          "negative_amount",
			amount:        func(decimal.Decimal) decimal.Decimal { return decimal.NewFromInt(-5) },
			expectedError: domain.ErrInvalidPayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture(t, 10)
			item := f.checkout(t, 4)

			paid, err := f.coordinator.ProcessPayment(context.Background(), item.ID, ports.PaymentRequest{
				Amount:           tt.amount(item.TotalPrice),
				PaymentReference: "PAY-1",
				ProcessedBy:      "payments",
			})

			stock := f.current(t, f.stock.ID)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Equal(t, 10, stock.Quantity)
				assert.Equal(t, 4, stock.ReservedQuantity)

				current, err := f.coordinator.GetCheckout(context.Background(), item.ID)
				require.NoError(t, err)
				assert.Equal(t, domain.CheckoutReserved, current.Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.CheckoutFulfilled, paid.Status)
			assert.Equal(t, "PAY-1", paid.PaymentReference)
			assert.Equal(t, 6, stock.Quantity)
			assert.Equal(t, 0, stock.ReservedQuantity)

			sales := f.movements(t, f.stock.ID, domain.MovementSale)
			require.Len(t, sales, 1)
			assert.Equal(t, *item.ReservationID, *sales[0].RelatedMovementID)
			f.assertBalanced(t, f.stock.ID)
		})
	}
}

func TestCheckoutCoordinator_PaymentAfterTerminalState(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, 10)

	paid := f.checkout(t, 1)
	_, err := f.coordinator.ProcessPayment(ctx, paid.ID, ports.PaymentRequest{Amount: paid.TotalPrice})
	require.NoError(t, err)

	_, err = f.coordinator.ProcessPayment(ctx, paid.ID, ports.PaymentRequest{Amount: paid.TotalPrice})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.coordinator.Cancel(ctx, paid.ID, "customer-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	cancelled := f.checkout(t, 1)
	_, err = f.coordinator.Cancel(ctx, cancelled.ID, "customer-1")
	require.NoError(t, err)

	_, err = f.coordinator.ProcessPayment(ctx, cancelled.ID, ports.PaymentRequest{Amount: cancelled.TotalPrice})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.coordinator.ProcessPayment(ctx, uuid.New(), ports.PaymentRequest{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckoutCoordinator_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, 10)
	item := f.checkout(t, 7)

	cancelled, err := f.coordinator.Cancel(ctx, item.ID, "customer-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutCancelled, cancelled.Status)

	stock := f.current(t, f.stock.ID)
	assert.Equal(t, 10, stock.Quantity)
	assert.Equal(t, 0, stock.ReservedQuantity)

	releases := f.movements(t, f.stock.ID, domain.MovementRelease)
	require.Len(t, releases, 1)
	assert.Equal(t, "customer-1", releases[0].CreatedBy)
	f.assertBalanced(t, f.stock.ID)
}

func TestCheckoutCoordinator_ExpireReservations(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, 20)
	start := f.now

	stale := f.checkout(t, 5)
	f.now = start.Add(10 * time.Minute)
	fresh := f.checkout(t, 3)

	// 16 minutes after the first checkout only it has outlived the 15 minute TTL.
	result, err := f.coordinator.ExpireReservations(ctx, start.Add(16*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Expired)
	assert.Zero(t, result.Failed)

	expired, err := f.coordinator.GetCheckout(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutExpired, expired.Status)

	kept, err := f.coordinator.GetCheckout(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutReserved, kept.Status)

	stock := f.current(t, f.stock.ID)
	assert.Equal(t, 20, stock.Quantity)
	assert.Equal(t, 3, stock.ReservedQuantity)

	releases := f.movements(t, f.stock.ID, domain.MovementRelease)
	require.Len(t, releases, 1)
	assert.Equal(t, services.ExpiryActor, releases[0].CreatedBy)
	assert.Equal(t, *stale.ReservationID, *releases[0].ReleaseMovementID)

	// A second pass finds nothing new.
	result, err = f.coordinator.ExpireReservations(ctx, start.Add(16*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, result.Scanned)
	f.assertBalanced(t, f.stock.ID)
}

func TestCheckoutCoordinator_ExpireReservationsInBatches(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, 50, func(o *fixtureOptions) {
		o.sweep = services.SweepPolicy{TTL: time.Minute, BatchSize: 2, Concurrency: 3}
	})

	for i := 0; i < 7; i++ {
		f.checkout(t, 2)
	}
	require.Equal(t, 14, f.current(t, f.stock.ID).ReservedQuantity)

	result, err := f.coordinator.ExpireReservations(ctx, f.now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 7, result.Scanned)
	assert.Equal(t, 7, result.Expired)

	assert.Equal(t, 0, f.current(t, f.stock.ID).ReservedQuantity)
	assert.Len(t, f.movements(t, f.stock.ID, domain.MovementRelease), 7)
	f.assertBalanced(t, f.stock.ID)
}

func TestCheckoutCoordinator_ExpireStalePending(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t, 5)

	pending, err := domain.NewCheckoutItem("customer-9", "", f.item.ID, nil, f.stock.ID, 1, f.item.BasePrice)
	require.NoError(t, err)
	pending.CreatedAt = f.now.Add(-time.Hour)
	require.NoError(t, f.checkouts.Create(ctx, pending))

	result, err := f.coordinator.ExpireReservations(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)

	expired, err := f.coordinator.GetCheckout(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutExpired, expired.Status)
	assert.Empty(t, f.movements(t, f.stock.ID, domain.MovementRelease))
}

func TestCheckoutCoordinator_ExpirySkipsCommittedReservation(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	f := newCheckoutFixture(t, 5)
	item := f.checkout(t, 2)

	// Payment committed the stock but has not yet marked the item FULFILLED.
	reservations := mocks.NewMockReservationService(ctrl)
	reservations.EXPECT().
		Release(gomock.Any(), *item.ReservationID, services.ExpiryActor).
		Return(domain.ErrAlreadyCommitted)

	coordinator := services.NewCheckoutCoordinator(f.checkouts, reservations, f.store, f.catalog,
		f.cc, services.DefaultSweepPolicy(), nil, helpers.TestLogger())

	result, err := coordinator.ExpireReservations(ctx, f.now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Expired)

	current, err := f.coordinator.GetCheckout(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutReserved, current.Status)
}
