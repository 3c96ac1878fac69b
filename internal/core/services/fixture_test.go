package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stock-ledger/internal/adapters/memory"
	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/core/services"
	"github.com/ammerola/stock-ledger/test/helpers"
)

// ledgerFixture wires the services over in-memory stores.
type ledgerFixture struct {
	store     *memory.StockStore
	ledger    *memory.MovementLedger
	checkouts *memory.CheckoutRepository
	catalog   *memory.Catalog

	cc           *services.ConcurrencyController
	recorder     *services.MovementRecorder
	reservations *services.ReservationManager
	stocks       *services.StockService
	coordinator  *services.CheckoutCoordinator
}

type fixtureOptions struct {
	retry       services.RetryPolicy
	sweep       services.SweepPolicy
	recorder    services.RecorderOptions
	wrapStore   func(*memory.StockStore) ports.StockStore
	wrapSettler func(ports.ReservationSettler) ports.ReservationSettler
	cache       ports.CacheRepository
	cacheTTL    time.Duration
}

func fastRetry() services.RetryPolicy {
	return services.RetryPolicy{
		MaxAttempts:    20,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func newLedgerFixture(t *testing.T, overrides ...func(*fixtureOptions)) *ledgerFixture {
	t.Helper()

	opts := fixtureOptions{
		retry: fastRetry(),
		sweep: services.DefaultSweepPolicy(),
	}
	for _, override := range overrides {
		override(&opts)
	}

	logger := helpers.TestLogger()
	f := &ledgerFixture{
		store:     memory.NewStockStore(),
		ledger:    memory.NewMovementLedger(),
		checkouts: memory.NewCheckoutRepository(),
		catalog:   memory.NewCatalog(),
	}

	var store ports.StockStore = f.store
	if opts.wrapStore != nil {
		store = opts.wrapStore(f.store)
	}
	if opts.cache != nil {
		opts.recorder.Cache = opts.cache
	}

	var settler ports.ReservationSettler = memory.NewSettler(f.store, f.ledger)
	if opts.wrapSettler != nil {
		settler = opts.wrapSettler(settler)
	}

	f.cc = services.NewConcurrencyController(store, opts.retry, nil, logger)
	f.recorder = services.NewMovementRecorder(f.ledger, f.cc, opts.recorder, logger)
	f.reservations = services.NewReservationManager(f.ledger, settler, f.cc, f.recorder, nil, logger)
	f.stocks = services.NewStockService(store, f.ledger, f.catalog, f.cc, f.recorder, opts.cache,
		services.StockServiceConfig{AvailabilityTTL: opts.cacheTTL, MovementPageSize: 50}, logger)
	f.coordinator = services.NewCheckoutCoordinator(f.checkouts, f.reservations, store, f.catalog,
		f.cc, opts.sweep, nil, logger)
	return f
}

// newItem registers an active catalog item.
func (f *ledgerFixture) newItem(overrides ...func(*domain.Item)) *domain.Item {
	item := helpers.NewTestItem(overrides...)
	f.catalog.PutItem(*item)
	return item
}

// newStock registers a fresh item and opens a stock record for it.
func (f *ledgerFixture) newStock(t *testing.T, quantity int) *domain.StockRecord {
	t.Helper()

	item := f.newItem()
	stock, err := f.stocks.CreateStock(context.Background(), ports.CreateStockRequest{
		ItemID:            item.ID,
		WarehouseLocation: "WH-A-01",
		InitialQuantity:   quantity,
		CreatedBy:         "test",
	})
	require.NoError(t, err)
	return stock
}

func (f *ledgerFixture) reserve(t *testing.T, stockID uuid.UUID, quantity int) uuid.UUID {
	t.Helper()

	id, err := f.reservations.Reserve(context.Background(), ports.ReserveRequest{
		StockID:           stockID,
		Quantity:          quantity,
		CheckoutReference: "CO-TEST",
		CreatedBy:         "customer-1",
	})
	require.NoError(t, err)
	return id
}

func (f *ledgerFixture) current(t *testing.T, stockID uuid.UUID) *domain.StockRecord {
	t.Helper()

	stock, err := f.store.GetByID(context.Background(), stockID)
	require.NoError(t, err)
	return stock
}

func (f *ledgerFixture) movements(t *testing.T, stockID uuid.UUID, types ...domain.MovementType) []*domain.MovementRecord {
	t.Helper()

	movements, err := f.stocks.ListMovements(context.Background(), stockID, ports.MovementFilter{Types: types})
	require.NoError(t, err)
	return movements
}

// assertBalanced checks that the ledger accounts for the record's quantities.
func (f *ledgerFixture) assertBalanced(t *testing.T, stockID uuid.UUID) {
	t.Helper()

	stock := f.current(t, stockID)
	quantity, reserved := 0, 0
	for _, m := range f.movements(t, stockID) {
		switch m.MovementType {
		case domain.MovementReserve:
			reserved += m.QuantityDelta
		case domain.MovementRelease:
			reserved += m.QuantityDelta
		case domain.MovementSale:
			quantity += m.QuantityDelta
			reserved += m.QuantityDelta
		default:
			quantity += m.QuantityDelta
		}
	}
	require.Equal(t, stock.Quantity, quantity, "ledger quantity")
	require.Equal(t, stock.ReservedQuantity, reserved, "ledger reserved quantity")
	require.NoError(t, domain.CheckQuantities(stock.Quantity, stock.ReservedQuantity))
}
