package handler

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/restaurant-pos/internal/storage"
)

const (
	maxDiagCollections = 10
	maxDiagErrorLen    = 80
)

// Diagnostics configures the /test endpoint.
type Diagnostics struct {
	Store storage.Backend
	// DatabaseURL is only reported as set or not set and is scrubbed from
	// error text.
	DatabaseURL string
	// Circuit returns the store circuit breaker state when set.
	Circuit func() string
	// Timeout bounds the store round trips of one diagnostic request.
	Timeout time.Duration
}

type diagReport struct {
	database         string
	databaseName     string
	connectionStatus string
	collections      []string
}

// Test reports store connectivity. It always answers 200: the report itself
// carries the store state.
func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.diag.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.diag.Timeout)
		defer cancel()
	}

	rep := h.diagnose(ctx)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("backend")
		e.Str("Running")
		e.FieldStart("database")
		e.Str(rep.database)
		e.FieldStart("database_url")
		if h.diag.DatabaseURL != "" {
			e.Str("Set")
		} else {
			e.Str("Not Set")
		}
		e.FieldStart("database_name")
		optStr(e, rep.databaseName)
		e.FieldStart("connection_status")
		e.Str(rep.connectionStatus)
		e.FieldStart("collections")
		e.ArrStart()
		for _, c := range rep.collections {
			e.Str(c)
		}
		e.ArrEnd()
		e.FieldStart("store")
		e.Str(h.storeName())
		if h.diag.Circuit != nil {
			e.FieldStart("circuit")
			e.Str(h.diag.Circuit())
		}
		e.ObjEnd()
	})
}

func (h *Handler) storeName() string {
	if h.diag.Store == nil {
		return "unavailable"
	}
	return h.diag.Store.Name()
}

func (h *Handler) diagnose(ctx context.Context) diagReport {
	rep := diagReport{
		database:         "Not Available",
		connectionStatus: "Not Connected",
	}
	store := h.diag.Store
	if store == nil {
		return rep
	}
	rep.databaseName = store.Database()

	if err := store.Ping(ctx); err != nil {
		rep.database = "Not Available: " + h.sanitize(err)
		return rep
	}
	rep.connectionStatus = "Connected"

	names, err := store.Collections(ctx)
	if err != nil {
		rep.database = "Connected but Error: " + h.sanitize(err)
		return rep
	}
	if len(names) > maxDiagCollections {
		names = names[:maxDiagCollections]
	}
	rep.collections = names
	rep.database = "Connected & Working"
	return rep
}

var urlPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^\s"']+`)

// sanitize removes connection strings from err and truncates it.
func (h *Handler) sanitize(err error) string {
	msg := err.Error()
	if h.diag.DatabaseURL != "" {
		msg = strings.ReplaceAll(msg, h.diag.DatabaseURL, "[redacted]")
	}
	msg = urlPattern.ReplaceAllString(msg, "[redacted]")

	if r := []rune(msg); len(r) > maxDiagErrorLen {
		msg = string(r[:maxDiagErrorLen])
	}
	return msg
}
