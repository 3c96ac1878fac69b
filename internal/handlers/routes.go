// internal/handlers/routes.go
package handlers

import "net/http"

const apiV1 = "/api/v1"

// Routes bundles the handlers mounted by RegisterRoutes. Health may be nil.
type Routes struct {
	Stock       *StockHandler
	Reservation *ReservationHandler
	Checkout    *CheckoutHandler
	Health      *HealthHandler
}

// RegisterRoutes mounts the ledger API on mux.
func RegisterRoutes(mux *http.ServeMux, rt Routes) {
	if rt.Health != nil {
		mux.HandleFunc("GET /health", rt.Health.Health)
		mux.HandleFunc("GET /ready", rt.Health.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", rt.Health.Health)
	}

	// Stock
	mux.HandleFunc("POST "+apiV1+"/stocks", rt.Stock.CreateStock)
	mux.HandleFunc("GET "+apiV1+"/stocks", rt.Stock.FindStock)
	mux.HandleFunc("POST "+apiV1+"/stocks/transfers", rt.Stock.TransferStock)
	mux.HandleFunc("GET "+apiV1+"/stocks/{id}", rt.Stock.GetStock)
	mux.HandleFunc("GET "+apiV1+"/stocks/{id}/availability", rt.Stock.GetAvailability)
	mux.HandleFunc("POST "+apiV1+"/stocks/{id}/receipts", rt.Stock.ReceiveStock)
	mux.HandleFunc("POST "+apiV1+"/stocks/{id}/adjustments", rt.Stock.AdjustStock)
	mux.HandleFunc("GET "+apiV1+"/stocks/{id}/movements", rt.Stock.ListMovements)
	mux.HandleFunc("POST "+apiV1+"/stocks/{id}/movements/export", rt.Stock.ExportMovements)
	mux.HandleFunc("GET "+apiV1+"/movements/{id}", rt.Stock.GetMovement)

	// Reservations
	mux.HandleFunc("POST "+apiV1+"/stocks/{id}/reservations", rt.Reservation.Reserve)
	mux.HandleFunc("POST "+apiV1+"/reservations/{id}/release", rt.Reservation.Release)
	mux.HandleFunc("POST "+apiV1+"/reservations/{id}/commit", rt.Reservation.Commit)

	// Checkouts
	mux.HandleFunc("POST "+apiV1+"/checkouts", rt.Checkout.CreateCheckout)
	mux.HandleFunc("GET "+apiV1+"/checkouts", rt.Checkout.ListCheckouts)
	mux.HandleFunc("GET "+apiV1+"/checkouts/{id}", rt.Checkout.GetCheckout)
	mux.HandleFunc("POST "+apiV1+"/checkouts/{id}/payment", rt.Checkout.ProcessPayment)
	mux.HandleFunc("POST "+apiV1+"/checkouts/{id}/cancel", rt.Checkout.CancelCheckout)
}
