package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-pos/internal/domain/order"
	"github.com/xenking/restaurant-pos/internal/domain/validation"
	"github.com/xenking/restaurant-pos/internal/storage"
)

// writeError maps err to a status and a short client message. Details of
// unexpected errors are logged, never returned.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		vErr    *validation.Error
		status  int
		message string
	)
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
			encodeError(e, http.StatusUnprocessableEntity, "validation failed", vErr.Violations)
		})
		return
	case errors.Is(err, errBadBody):
		status, message = http.StatusBadRequest, "invalid request body"
	case errors.Is(err, order.ErrInvalidID):
		status, message = http.StatusBadRequest, "invalid order id"
	case errors.Is(err, order.ErrNotFound):
		status, message = http.StatusNotFound, "order not found"
	case errors.Is(err, storage.ErrUnavailable):
		zctx.From(ctx).Warn("Store unavailable", zap.Error(err))
		status, message = http.StatusServiceUnavailable, "database unavailable"
	default:
		zctx.From(ctx).Error("Request failed", zap.Error(err))
		status, message = http.StatusInternalServerError, "internal error"
	}

	writeJSON(w, status, func(e *jx.Encoder) {
		encodeError(e, status, message, nil)
	})
}
