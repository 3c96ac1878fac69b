// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ammerola/stock-ledger/internal/app"
	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/test/helpers"
)

// benchLedger is a memory-backed ledger with one stock record.
type benchLedger struct {
	ledger *app.Ledger
	stock  *domain.StockRecord
}

func newBenchLedger(b *testing.B, opts app.Options, quantity int) *benchLedger {
	b.Helper()

	cfg := helpers.LoadTestConfig()
	// Parallel benchmarks contend on one record; give them room to retry.
	cfg.Ledger.RetryMaxAttempts = 200

	stores := app.MemoryStores()
	ledger := app.NewLedger(cfg, stores, opts, helpers.TestLogger())

	ctx := context.Background()
	item := helpers.NewTestItem()
	if err := stores.Items.SaveItem(ctx, item); err != nil {
		b.Fatal(err)
	}

	stock, err := ledger.Stocks.CreateStock(ctx, ports.CreateStockRequest{
		ItemID:            item.ID,
		WarehouseLocation: "WH-A-01-01",
		InitialQuantity:   quantity,
		CreatedBy:         "bench",
	})
	if err != nil {
		b.Fatal(err)
	}

	return &benchLedger{ledger: ledger, stock: stock}
}

func (l *benchLedger) reserve(ctx context.Context, quantity int) (uuid.UUID, error) {
	return l.ledger.Reservations.Reserve(ctx, ports.ReserveRequest{
		StockID:   l.stock.ID,
		Quantity:  quantity,
		CreatedBy: "bench",
	})
}
