package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stock-ledger/internal/app"
	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/pkg/config"
	"github.com/ammerola/stock-ledger/internal/pkg/logger"
)

// seedNamespace keys the deterministic ids, so reseeding updates rows in
// place instead of duplicating them.
var seedNamespace = uuid.MustParse("6f1c1f0e-4a57-4d0b-9d59-0c7f3b1d2a10")

// seedRow is one catalog line: an item, optionally a variant, and the
// stock to open for it.
type seedRow struct {
	SKU             string
	Name            string
	Description     string
	BasePrice       decimal.Decimal
	VariantSKU      string
	VariantName     string
	PriceAdjustment decimal.Decimal
	Location        string
	Quantity        int
}

var demoCatalog = []seedRow{
	{SKU: "TEE-CLASSIC", Name: "Classic Tee", Description: "Cotton crew neck", BasePrice: decimal.RequireFromString("19.99"),
		VariantSKU: "TEE-CLASSIC-M", VariantName: "Medium", Location: "WH-A-01-01", Quantity: 150},
	{SKU: "TEE-CLASSIC", Name: "Classic Tee", Description: "Cotton crew neck", BasePrice: decimal.RequireFromString("19.99"),
		VariantSKU: "TEE-CLASSIC-L", VariantName: "Large", PriceAdjustment: decimal.RequireFromString("2.00"), Location: "WH-A-01-02", Quantity: 80},
	{SKU: "MUG-STONE", Name: "Stoneware Mug", Description: "350ml glazed mug", BasePrice: decimal.RequireFromString("12.50"),
		Location: "WH-B-02-01", Quantity: 200},
}

func main() {
	var (
		catalogFile = flag.String("catalog", "", "Excel workbook with catalog rows (built-in demo catalog when empty)")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun      = flag.Bool("dry-run", false, "Preview changes without modifying storage")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "json")
	slog.SetDefault(slogger)

	rows := demoCatalog
	if *catalogFile != "" {
		loaded, err := loadCatalog(*catalogFile)
		if err != nil {
			slogger.Error("failed to read catalog", slog.String("file", *catalogFile), slog.String("error", err.Error()))
			os.Exit(1)
		}
		rows = loaded
	}

	if *dryRun {
		for _, row := range rows {
			fmt.Printf("PLAN: %s %s at %s qty %d\n", row.SKU, row.VariantSKU, row.Location, row.Quantity)
		}
		fmt.Println("\n[DRY RUN] No changes were made")
		return
	}

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Ledger.StorageDriver != config.StorageDriverPostgres {
		slogger.Warn("seeding in-memory storage has no lasting effect",
			slog.String("storage_driver", cfg.Ledger.StorageDriver))
	}

	ctx := context.Background()
	stores, err := app.OpenStores(ctx, cfg, 4, slogger)
	if err != nil {
		slogger.Error("failed to open ledger storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer stores.Close()

	ledger := app.NewLedger(cfg, stores, app.Options{}, slogger)

	created, existing, failed := 0, 0, 0
	for i, row := range rows {
		fmt.Printf("PROGRESS: %d/%d %s\n", i+1, len(rows), rowLabel(row))

		wasCreated, err := seed(ctx, stores.Items, ledger.Stocks, row)
		switch {
		case err != nil:
			failed++
			slogger.Error("failed to seed row",
				slog.String("sku", rowLabel(row)),
				slog.String("error", err.Error()))
		case wasCreated:
			created++
		default:
			existing++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("Stock records created:  %d\n", created)
	fmt.Printf("Already present:        %d\n", existing)
	fmt.Printf("Failed:                 %d\n", failed)

	slogger.Info("seed operation completed",
		slog.Int("created", created),
		slog.Int("existing", existing),
		slog.Int("failed", failed))

	if failed > 0 {
		os.Exit(1)
	}
}

// seed upserts the row's catalog entries and opens its stock record if it
// does not exist yet. Existing stock is left untouched.
func seed(ctx context.Context, items ports.CatalogWriter, stocks ports.StockService, row seedRow) (bool, error) {
	now := time.Now().UTC()

	item := &domain.Item{
		ID:          uuid.NewSHA1(seedNamespace, []byte(row.SKU)),
		SKU:         row.SKU,
		Name:        row.Name,
		Description: row.Description,
		BasePrice:   row.BasePrice,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := items.SaveItem(ctx, item); err != nil {
		return false, err
	}

	var variantID *uuid.UUID
	if row.VariantSKU != "" {
		variant := &domain.Variant{
			ID:              uuid.NewSHA1(seedNamespace, []byte(row.VariantSKU)),
			ItemID:          item.ID,
			VariantSKU:      row.VariantSKU,
			Name:            row.VariantName,
			PriceAdjustment: row.PriceAdjustment,
			IsActive:        true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := items.SaveVariant(ctx, variant); err != nil {
			return false, err
		}
		variantID = &variant.ID
	}

	if _, err := stocks.FindStock(ctx, item.ID, variantID); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	_, err := stocks.CreateStock(ctx, ports.CreateStockRequest{
		ItemID:            item.ID,
		VariantID:         variantID,
		WarehouseLocation: row.Location,
		InitialQuantity:   row.Quantity,
		CreatedBy:         "seeder",
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// loadCatalog reads the first sheet of an xlsx workbook. Columns: SKU,
// Name, Description, Base Price, Variant SKU, Variant Name,
// Price Adjustment, Location, Quantity. The first row is a header.
func loadCatalog(path string) ([]seedRow, error) {
	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if len(wb.Sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	var rows []seedRow
	err = wb.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		if r.GetCoordinate() == 0 {
			return nil
		}
		cell := func(i int) string { return strings.TrimSpace(r.GetCell(i).Value) }

		if cell(0) == "" {
			return nil
		}

		row := seedRow{
			SKU:         cell(0),
			Name:        cell(1),
			Description: cell(2),
			VariantSKU:  cell(4),
			VariantName: cell(5),
			Location:    cell(7),
		}

		var err error
		line := r.GetCoordinate() + 1
		if row.BasePrice, err = parseDecimal(cell(3)); err != nil {
			return fmt.Errorf("row %d: base price: %w", line, err)
		}
		if row.PriceAdjustment, err = parseDecimal(cell(6)); err != nil {
			return fmt.Errorf("row %d: price adjustment: %w", line, err)
		}
		if row.Quantity, err = strconv.Atoi(cell(8)); err != nil {
			return fmt.Errorf("row %d: quantity: %w", line, err)
		}

		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func parseDecimal(val string) (decimal.Decimal, error) {
	val = strings.TrimPrefix(strings.ReplaceAll(val, ",", ""), "$")
	if val == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(val)
}

func rowLabel(row seedRow) string {
	if row.VariantSKU != "" {
		return row.VariantSKU
	}
	return row.SKU
}
