package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// ListMenu returns every menu item.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range items {
			encodeMenuItem(e, &items[i])
		}
		e.ArrEnd()
	})
}

// CreateMenuItem validates and stores a new menu item.
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readBody(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	req, err := decodeMenuItem(body)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.menu.Create(ctx, req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeMenuItem(e, item)
	})
}
