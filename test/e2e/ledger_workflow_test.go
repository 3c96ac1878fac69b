//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	redis_a "github.com/ammerola/stock-ledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stock-ledger/internal/adapters/storage"
	"github.com/ammerola/stock-ledger/internal/app"
	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/services"
	"github.com/ammerola/stock-ledger/internal/handlers"
	"github.com/ammerola/stock-ledger/internal/handlers/middleware"
	"github.com/ammerola/stock-ledger/internal/pkg/metrics"
	"github.com/ammerola/stock-ledger/internal/workers"
	"github.com/ammerola/stock-ledger/test/helpers"
)

// taskRecorder stands in for the asynq client; the suite runs recorded
// tasks through the real processors.
type taskRecorder struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (r *taskRecorder) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(r.tasks)), Queue: workers.QueueLow}, nil
}

type LedgerE2ESuite struct {
	suite.Suite
	server   *httptest.Server
	client   *http.Client
	baseURL  string
	stores   *app.Stores
	ledger   *app.Ledger
	tasks    *taskRecorder
	item     *domain.Item
	exportTo string
}

func (s *LedgerE2ESuite) SetupTest() {
	cfg := helpers.LoadTestConfig()
	logger := helpers.TestLogger()
	testRedis := helpers.SetupTestRedis(s.T())

	s.stores = app.MemoryStores()
	s.ledger = app.NewLedger(cfg, s.stores, app.Options{
		Cache:   redis_a.NewCache(testRedis.Client, time.Minute, logger),
		Metrics: metrics.New(prometheus.NewRegistry()),
	}, logger)
	s.tasks = &taskRecorder{}
	s.exportTo = s.T().TempDir()

	s.item = helpers.NewTestItem()
	s.Require().NoError(s.stores.Items.SaveItem(context.Background(), s.item))

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, handlers.Routes{
		Stock:       handlers.NewStockHandler(s.ledger.Stocks, s.tasks, logger),
		Reservation: handlers.NewReservationHandler(s.ledger.Reservations, logger),
		Checkout:    handlers.NewCheckoutHandler(s.ledger.Checkouts, logger),
	})
	handler := middleware.Chain(mux,
		middleware.Recovery(logger),
		middleware.RequestID("X-Request-ID"),
		middleware.Logger(logger),
		middleware.Timeout(5*time.Second),
	)

	s.server = httptest.NewServer(handler)
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *LedgerE2ESuite) TearDownTest() {
	s.server.Close()
}

func (s *LedgerE2ESuite) TestReserveCommitWorkflow() {
	stock := s.createStock(s.item, "WH-A-01-01", 150)

	// 1. Reserve 50
	resp := s.makeRequest(http.MethodPost, "/stocks/"+stock.ID.String()+"/reservations", map[string]any{
		"quantity":           50,
		"checkout_reference": "CO-E2E-1",
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var reservation handlers.ReservationResponse
	s.decodeResponse(resp, &reservation)

	availability := s.availability(stock.ID.String())
	s.Equal(150, availability.Quantity)
	s.Equal(50, availability.ReservedQuantity)
	s.Equal(100, availability.AvailableQuantity)

	// 2. Commit turns the hold into a sale
	resp = s.makeRequest(http.MethodPost, "/reservations/"+reservation.ReservationID.String()+"/commit", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	availability = s.availability(stock.ID.String())
	s.Equal(100, availability.Quantity)
	s.Equal(0, availability.ReservedQuantity)

	// 3. A committed reservation cannot be released
	resp = s.makeRequest(http.MethodPost, "/reservations/"+reservation.ReservationID.String()+"/release", nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
	var errResp handlers.ErrorResponse
	s.decodeResponse(resp, &errResp)
	s.Equal("ALREADY_COMMITTED", errResp.Code)

	// 4. The ledger tells the whole story, newest first
	movements := s.movements(stock.ID.String(), "")
	s.Require().Len(movements.Movements, 3)
	s.Equal(domain.MovementSale, movements.Movements[0].MovementType)
	s.Equal(domain.MovementReserve, movements.Movements[1].MovementType)
	s.Equal(domain.MovementReceipt, movements.Movements[2].MovementType)
	s.Require().NotNil(movements.Movements[0].RelatedMovementID)
	s.Equal(reservation.ReservationID, *movements.Movements[0].RelatedMovementID)
}

func (s *LedgerE2ESuite) TestOverReserveIsRejected() {
	stock := s.createStock(s.item, "WH-A-01-02", 10)

	resp := s.makeRequest(http.MethodPost, "/stocks/"+stock.ID.String()+"/reservations", map[string]any{"quantity": 11})
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]any
	s.decodeResponse(resp, &body)
	s.Equal("INSUFFICIENT_STOCK", body["code"])
	s.EqualValues(11, body["requested"])
	s.EqualValues(10, body["available"])

	s.Equal(0, s.availability(stock.ID.String()).ReservedQuantity)
}

func (s *LedgerE2ESuite) TestCheckoutPaymentAndExpiry() {
	stock := s.createStock(s.item, "WH-B-02-01", 20)

	// Paid checkout
	resp := s.makeRequest(http.MethodPost, "/checkouts", map[string]any{
		"customer_id":        "cust-1",
		"item_id":            s.item.ID,
		"quantity":           2,
		"checkout_reference": "CO-PAID",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var paid domain.CheckoutItem
	s.decodeResponse(resp, &paid)
	s.Equal(domain.CheckoutReserved, paid.Status)

	resp = s.makeRequest(http.MethodPost, "/checkouts/"+paid.ID.String()+"/payment", map[string]any{
		"payment_amount":    paid.TotalPrice.String(),
		"payment_reference": "PAY-1",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.decodeResponse(resp, &paid)
	s.Equal(domain.CheckoutFulfilled, paid.Status)

	// Abandoned checkout
	resp = s.makeRequest(http.MethodPost, "/checkouts", map[string]any{
		"customer_id":        "cust-2",
		"item_id":            s.item.ID,
		"quantity":           3,
		"checkout_reference": "CO-ABANDONED",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var abandoned domain.CheckoutItem
	s.decodeResponse(resp, &abandoned)
	s.Equal(3, s.availability(stock.ID.String()).ReservedQuantity)

	result, err := s.ledger.Checkouts.ExpireReservations(context.Background(), time.Now().Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(1, result.Expired)

	resp = s.makeRequest(http.MethodGet, "/checkouts/"+abandoned.ID.String(), nil)
	s.decodeResponse(resp, &abandoned)
	s.Equal(domain.CheckoutExpired, abandoned.Status)

	availability := s.availability(stock.ID.String())
	s.Equal(18, availability.Quantity)
	s.Equal(0, availability.ReservedQuantity)

	released := s.movements(stock.ID.String(), "RELEASE")
	s.Require().Len(released.Movements, 1)
	s.Equal(services.ExpiryActor, released.Movements[0].CreatedBy)
}

func (s *LedgerE2ESuite) TestTransferAndExport() {
	from := s.createStock(s.item, "WH-A-01-01", 30)

	variant := helpers.NewTestVariant(s.item)
	s.Require().NoError(s.stores.Items.SaveVariant(context.Background(), variant))
	resp := s.makeRequest(http.MethodPost, "/stocks", map[string]any{
		"item_id":            s.item.ID,
		"variant_id":         variant.ID,
		"warehouse_location": "WH-C-01-01",
		"initial_quantity":   0,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var to domain.StockRecord
	s.decodeResponse(resp, &to)

	resp = s.makeRequest(http.MethodPost, "/stocks/transfers", map[string]any{
		"from_stock_id": from.ID,
		"to_stock_id":   to.ID,
		"quantity":      12,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	s.Equal(18, s.availability(from.ID.String()).Quantity)
	s.Equal(12, s.availability(to.ID.String()).Quantity)

	resp = s.makeRequest(http.MethodPost, "/stocks/"+from.ID.String()+"/movements/export", nil)
	s.Require().Equal(http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()
	s.Require().Len(s.tasks.tasks, 1)

	processor := workers.NewExportProcessor(s.ledger.Stocks,
		storage.NewLocalStorage(s.exportTo, helpers.TestLogger()), time.Hour, helpers.TestLogger())
	s.NoError(processor.ProcessExport(context.Background(), s.tasks.tasks[0]))
}

func TestLedgerE2ESuite(t *testing.T) {
	suite.Run(t, new(LedgerE2ESuite))
}

func (s *LedgerE2ESuite) createStock(item *domain.Item, location string, quantity int) domain.StockRecord {
	s.T().Helper()

	resp := s.makeRequest(http.MethodPost, "/stocks", map[string]any{
		"item_id":            item.ID,
		"warehouse_location": location,
		"initial_quantity":   quantity,
		"created_by":         "e2e",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var stock domain.StockRecord
	s.decodeResponse(resp, &stock)
	return stock
}

func (s *LedgerE2ESuite) availability(stockID string) domain.Availability {
	resp := s.makeRequest(http.MethodGet, "/stocks/"+stockID+"/availability", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var availability domain.Availability
	s.decodeResponse(resp, &availability)
	return availability
}

func (s *LedgerE2ESuite) movements(stockID, types string) handlers.MovementsResponse {
	path := "/stocks/" + stockID + "/movements"
	if types != "" {
		path += "?type=" + types
	}
	resp := s.makeRequest(http.MethodGet, path, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var movements handlers.MovementsResponse
	s.decodeResponse(resp, &movements)
	return movements
}

func (s *LedgerE2ESuite) makeRequest(method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.Require().NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Actor", "e2e")

	resp, err := s.client.Do(req)
	s.Require().NoError(err)

	return resp
}

func (s *LedgerE2ESuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}
