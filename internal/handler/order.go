package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// ListOrders returns every order.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
}

// CreateOrder validates the payload, recomputes its totals and stores it.
// Client-supplied totals never reach the service.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readBody(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	req, err := decodeOrder(body)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	o, err := h.orders.PlaceOrder(ctx, req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// GetOrder returns a single order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// GetReceipt renders the receipt of an order. With ?format=text the
// receipt is returned as plain text for printers.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.orders.Receipt(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(receipt.Text + "\n"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("receipt_text")
		e.Str(receipt.Text)
		e.FieldStart("order")
		encodeOrder(e, receipt.Order)
		e.ObjEnd()
	})
}
