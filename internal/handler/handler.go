// Package handler implements the HTTP API of the POS backend.
package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
)

// Handler serves the menu, order and diagnostic endpoints, delegating
// business logic to the domain services.
type Handler struct {
	menu   *menu.Service
	orders *order.Service
	diag   Diagnostics
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(menuService *menu.Service, orderService *order.Service, diag Diagnostics) *Handler {
	return &Handler{
		menu:   menuService,
		orders: orderService,
		diag:   diag,
	}
}

// Register adds all API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /test", h.Test)
	mux.HandleFunc("GET /menu", h.ListMenu)
	mux.HandleFunc("POST /menu", h.CreateMenuItem)
	mux.HandleFunc("GET /orders", h.ListOrders)
	mux.HandleFunc("POST /orders", h.CreateOrder)
	mux.HandleFunc("GET /orders/{id}", h.GetOrder)
	mux.HandleFunc("GET /orders/{id}/receipt", h.GetReceipt)
}

// Root reports that the service is running.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Restaurant POS Backend Running")
		e.ObjEnd()
	})
}
