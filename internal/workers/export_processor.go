// internal/workers/export_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var movementHeaders = []string{
	"Movement ID", "Created At", "Type", "Quantity Delta",
	"Quantity Before", "Quantity After", "Reserved Before", "Reserved After",
	"Reference", "Related Movement", "Release Movement", "Created By", "Notes",
}

// ExportResult is written to the task result and logged.
type ExportResult struct {
	StockID   string    `json:"stock_id"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	Bytes     int       `json:"bytes"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportProcessor writes a stock's ledger to an xlsx workbook and uploads it.
type ExportProcessor struct {
	stocks    ports.StockService
	storage   ports.ObjectStorage
	urlExpiry time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(stocks ports.StockService, storage ports.ObjectStorage, urlExpiry time.Duration, logger *slog.Logger) *ExportProcessor {
	if urlExpiry <= 0 {
		urlExpiry = time.Hour
	}
	return &ExportProcessor{
		stocks:    stocks,
		storage:   storage,
		urlExpiry: urlExpiry,
		now:       time.Now,
		logger:    logger.With(slog.String("processor", "export")),
	}
}

// ProcessExport handles movements:export tasks.
func (p *ExportProcessor) ProcessExport(ctx context.Context, t *asynq.Task) error {
	payload, err := parseExportPayload(t)
	if err != nil {
		return err
	}

	log := p.logger.With(
		slog.String("stock_id", payload.StockID.String()),
		slog.String("request_id", payload.RequestID))

	stock, err := p.stocks.GetStock(ctx, payload.StockID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("export of unknown stock: %w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load stock: %w", err)
	}

	movements, err := p.stocks.ListMovements(ctx, payload.StockID, ports.MovementFilter{
		Types: payload.Types,
		Since: payload.Since,
		Until: payload.Until,
	})
	if err != nil {
		return fmt.Errorf("failed to list movements: %w", err)
	}

	now := p.now().UTC()
	data, err := BuildMovementWorkbook(stock, movements, now)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("exports/movements/%s/%s.xlsx", stock.ID, now.Format("20060102T150405Z"))
	if _, err := p.storage.Upload(ctx, key, bytes.NewReader(data), xlsxContentType); err != nil {
		return fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := p.storage.GetPresignedURL(ctx, key, p.urlExpiry)
	if err != nil {
		return fmt.Errorf("failed to sign export url: %w", err)
	}

	result := ExportResult{
		StockID:   stock.ID.String(),
		Key:       key,
		URL:       url,
		Rows:      len(movements),
		Bytes:     len(data),
		ExpiresAt: now.Add(p.urlExpiry),
	}

	if w := t.ResultWriter(); w != nil {
		if raw, err := json.Marshal(result); err == nil {
			if _, err := w.Write(raw); err != nil {
				log.WarnContext(ctx, "failed to write task result", slog.String("error", err.Error()))
			}
		}
	}

	log.InfoContext(ctx, "movement export ready",
		slog.String("key", key),
		slog.String("url", url),
		slog.Int("rows", result.Rows),
		slog.Int("bytes", result.Bytes))

	return nil
}

// BuildMovementWorkbook renders movements (newest first) and a summary
// sheet describing the stock record at export time.
func BuildMovementWorkbook(stock *domain.StockRecord, movements []*domain.MovementRecord, exportedAt time.Time) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Movements")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, header := range movementHeaders {
		cell := headerRow.AddCell()
		cell.SetString(header)
		style := cell.GetStyle()
		style.Font.Bold = true
		style.Fill.PatternType = "solid"
		style.Fill.FgColor = "CCCCCC"
	}

	for _, m := range movements {
		row := sheet.AddRow()
		row.AddCell().SetString(m.ID.String())
		row.AddCell().SetDateTime(m.CreatedAt)
		row.AddCell().SetString(string(m.MovementType))
		row.AddCell().SetInt(m.QuantityDelta)
		row.AddCell().SetInt(m.QuantityBefore)
		row.AddCell().SetInt(m.QuantityAfter)
		row.AddCell().SetInt(m.ReservedBefore)
		row.AddCell().SetInt(m.ReservedAfter)
		row.AddCell().SetString(m.ReferenceNumber)
		row.AddCell().SetString(optionalID(m.RelatedMovementID))
		row.AddCell().SetString(optionalID(m.ReleaseMovementID))
		row.AddCell().SetString(m.CreatedBy)
		row.AddCell().SetString(m.Notes)
	}

	for i := range movementHeaders {
		sheet.SetColWidth(i+1, i+1, 18)
	}

	summary, err := file.AddSheet("Summary")
	if err != nil {
		return nil, fmt.Errorf("failed to add summary sheet: %w", err)
	}
	availability := domain.AvailabilityOf(stock)
	addSummaryRow(summary, "Stock ID", stock.ID.String())
	addSummaryRow(summary, "Item ID", stock.ItemID.String())
	addSummaryRow(summary, "Variant ID", optionalID(stock.VariantID))
	addSummaryRow(summary, "Warehouse Location", stock.WarehouseLocation)
	addSummaryRow(summary, "Quantity", availability.Quantity)
	addSummaryRow(summary, "Reserved", availability.ReservedQuantity)
	addSummaryRow(summary, "Available", availability.AvailableQuantity)
	addSummaryRow(summary, "Version", int(availability.Version))
	addSummaryRow(summary, "Movements", len(movements))
	addSummaryRow(summary, "Exported At", exportedAt.Format(time.RFC3339))

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func addSummaryRow(sheet *xlsx.Sheet, label string, value any) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	switch v := value.(type) {
	case int:
		row.AddCell().SetInt(v)
	default:
		row.AddCell().SetString(fmt.Sprint(v))
	}
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
