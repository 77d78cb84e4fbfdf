package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
	"github.com/xenking/restaurant-pos/internal/storage"
)

// --- Mock implementations ---

type mockMenuRepo struct {
	items []menu.Item
}

func (m *mockMenuRepo) Create(_ context.Context, item *menu.Item) error {
	item.ID = fmt.Sprintf("menu-%d", len(m.items)+1)
	m.items = append(m.items, *item)
	return nil
}

func (m *mockMenuRepo) List(_ context.Context) ([]menu.Item, error) {
	return m.items, nil
}

var objectIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

type mockOrderRepo struct {
	byID  map[string]*order.Order
	order []string
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{byID: map[string]*order.Order{}}
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	o.ID = fmt.Sprintf("%024x", len(m.order)+1)
	m.byID[o.ID] = o
	m.order = append(m.order, o.ID)
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	if !objectIDPattern.MatchString(id) {
		return nil, order.ErrInvalidID
	}
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]order.Order, error) {
	out := make([]order.Order, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.byID[id])
	}
	return out, nil
}

type fakeStore struct {
	pingErr     error
	collections []string
	collErr     error
}

func (f *fakeStore) Name() string                { return "mongodb" }
func (f *fakeStore) Database() string            { return "pos" }
func (f *fakeStore) Ping(context.Context) error  { return f.pingErr }
func (f *fakeStore) Close(context.Context) error { return nil }
func (f *fakeStore) Menu() menu.Repository       { return nil }
func (f *fakeStore) Orders() order.Repository    { return nil }

func (f *fakeStore) Collections(context.Context) ([]string, error) {
	return f.collections, f.collErr
}

// --- Helpers ---

type testEnv struct {
	mux    *http.ServeMux
	menu   *mockMenuRepo
	orders *mockOrderRepo
}

func newTestEnv(t *testing.T, diag Diagnostics) *testEnv {
	t.Helper()
	env := &testEnv{menu: &mockMenuRepo{}, orders: newMockOrderRepo(), mux: http.NewServeMux()}
	mp := noop.NewMeterProvider()
	h := NewHandler(menu.NewService(env.menu, mp), order.NewService(env.orders, nil, mp), diag)
	h.Register(env.mux)
	return env
}

func (env *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

const validOrder = `{
	"table_number": "12",
	"items": [
		{"item_id": "m1", "name": "Fries", "quantity": 2, "unit_price": 5.00},
		{"item_id": "m2", "name": "Shake", "quantity": 1, "unit_price": 3.50, "notes": "extra cold"}
	],
	"subtotal": 0.01,
	"tax": 0,
	"total": 0.01
}`

// --- Tests ---

func TestRoot(t *testing.T) {
	env := newTestEnv(t, Diagnostics{})

	w := env.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Restaurant POS Backend Running"}`, w.Body.String())
}

func TestCreateOrder_IgnoresClientTotals(t *testing.T) {
	env := newTestEnv(t, Diagnostics{})

	w := env.do(http.MethodPost, "/orders", validOrder)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Contains(t, body, `"subtotal":13.50`)
	assert.Contains(t, body, `"tax":1.35`)
	assert.Contains(t, body, `"total":14.85`)

	m := decodeBody(t, w)
	assert.Equal(t, "open", m["status"])
	assert.Nil(t, m["payment_method"])
	id, ok := m["id"].(string)
	require.True(t, ok, "id must be a string")

	stored := env.orders.byID[id]
	require.NotNil(t, stored)
	assert.Equal(t, "14.85", order.FormatMoney(stored.Total))
	assert.Equal(t, "extra cold", stored.Items[1].Notes)
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{
			name:   "empty items",
			body:   `{"items": []}`,
			fields: []string{"items"},
		},
		{
			name:   "missing items",
			body:   `{"table_number": "3"}`,
			fields: []string{"items"},
		},
		{
			name:   "items not an array",
			body:   `{"items": {"name": "x"}}`,
			fields: []string{"items"},
		},
		{
			name:   "quoted quantity",
			body:   `{"items": [{"item_id": "a", "name": "Tea", "quantity": "2", "unit_price": 1}]}`,
			fields: []string{"items[0].quantity"},
		},
		{
			name:   "fractional quantity",
			body:   `{"items": [{"item_id": "a", "name": "Tea", "quantity": 1.5, "unit_price": 1}]}`,
			fields: []string{"items[0].quantity"},
		},
		{
			name:   "missing fields",
			body:   `{"items": [{"quantity": 1}]}`,
			fields: []string{"items[0].item_id", "items[0].name", "items[0].unit_price"},
		},
		{
			name: "constraint violations",
			body: `{"items": [
				{"item_id": "a", "name": "Tea", "quantity": 1, "unit_price": 1},
				{"item_id": "b", "name": "", "quantity": 0, "unit_price": -2}
			]}`,
			fields: []string{"items[1].name", "items[1].quantity", "items[1].unit_price"},
		},
		{
			name:   "element not an object",
			body:   `{"items": [42]}`,
			fields: []string{"items[0]"},
		},
		{
			name:   "huge exponent price",
			body:   `{"items": [{"item_id": "a", "name": "Tea", "quantity": 1, "unit_price": 1e99999999}]}`,
			fields: []string{"items[0].unit_price"},
		},
		{
			name:   "large exponent price",
			body:   `{"items": [{"item_id": "a", "name": "Tea", "quantity": 1, "unit_price": 1e7000}]}`,
			fields: []string{"items[0].unit_price"},
		},
		{
			name:   "huge exponent quantity",
			body:   `{"items": [{"item_id": "a", "name": "Tea", "quantity": 1e99999999, "unit_price": 1}]}`,
			fields: []string{"items[0].quantity"},
		},
		{
			name:   "price above store range",
			body:   `{"items": [{"item_id": "a", "name": "Tea", "quantity": 1, "unit_price": 10000000000}]}`,
			fields: []string{"items[0].unit_price"},
		},
		{
			name:   "too many decimal places",
			body:   `{"items": [{"item_id": "a", "name": "Tea", "quantity": 1, "unit_price": 1.0000001}]}`,
			fields: []string{"items[0].unit_price"},
		},
		{
			name:   "line total overflow",
			body:   `{"items": [{"item_id": "a", "name": "Tea", "quantity": 2147483647, "unit_price": 9999}]}`,
			fields: []string{"items[0]"},
		},
		{
			name:   "unknown status",
			body:   `{"items": [{"item_id": "a", "name": "Tea", "quantity": 1, "unit_price": 1}], "status": "refunded"}`,
			fields: []string{"status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Diagnostics{})

			w := env.do(http.MethodPost, "/orders", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

			e := decodeError(t, w)
			assert.Equal(t, http.StatusUnprocessableEntity, e.Code)
			fields := make([]string, len(e.Errors))
			for i, v := range e.Errors {
				fields[i] = v.Field
			}
			assert.Equal(t, tt.fields, fields)
			assert.Empty(t, env.orders.byID, "invalid order must not be stored")
		})
	}
}

func TestCreateOrder_RepeatedItemsKey(t *testing.T) {
	env := newTestEnv(t, Diagnostics{})

	w := env.do(http.MethodPost, "/orders", `{
		"items": [{"name": "Broken"}],
		"items": [{"item_id": "m1", "name": "Fries", "quantity": 2, "unit_price": 5.00}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	m := decodeBody(t, w)
	assert.Len(t, m["items"], 1)
	assert.Contains(t, w.Body.String(), `"total":11.00`)
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	for _, body := range []string{
		`{"items": [`,
		`[]`,
		`"order"`,
		`not json`,
		`{"items": [{"item_id": "a", "name": "Tea", "quantity": 1, "unit_price": 1}]} trailing`,
		`{"items": []} {}`,
	} {
		env := newTestEnv(t, Diagnostics{})

		w := env.do(http.MethodPost, "/orders", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "invalid request body", decodeError(t, w).Message, body)
	}
}

func TestGetOrder(t *testing.T) {
	env := newTestEnv(t, Diagnostics{})
	created := decodeBody(t, env.do(http.MethodPost, "/orders", validOrder))
	id := created["id"].(string)

	t.Run("found", func(t *testing.T) {
		w := env.do(http.MethodGet, "/orders/"+id, "")
		require.Equal(t, http.StatusOK, w.Code)
		m := decodeBody(t, w)
		assert.Equal(t, id, m["id"])
		assert.Equal(t, "12", m["table_number"])
		items := m["items"].([]any)
		require.Len(t, items, 2)
		assert.Nil(t, items[0].(map[string]any)["notes"])
	})

	t.Run("invalid id", func(t *testing.T) {
		w := env.do(http.MethodGet, "/orders/not-an-id", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid order id", decodeError(t, w).Message)
	})

	t.Run("not found", func(t *testing.T) {
		w := env.do(http.MethodGet, "/orders/ffffffffffffffffffffffff", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "order not found", decodeError(t, w).Message)
	})
}

func TestListOrders(t *testing.T) {
	env := newTestEnv(t, Diagnostics{})

	w := env.do(http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	env.do(http.MethodPost, "/orders", validOrder)
	env.do(http.MethodPost, "/orders", validOrder)

	var orders []map[string]any
	w = env.do(http.MethodGet, "/orders", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	require.Len(t, orders, 2)
	assert.NotEqual(t, orders[0]["id"], orders[1]["id"])
}

func TestGetReceipt(t *testing.T) {
	env := newTestEnv(t, Diagnostics{})
	created := decodeBody(t, env.do(http.MethodPost, "/orders", `{
		"items": [{"item_id": "m1", "name": "Burger", "quantity": 2, "unit_price": 6.00, "notes": "no onions"}],
		"payment_method": "card"
	}`))
	id := created["id"].(string)

	t.Run("json", func(t *testing.T) {
		w := env.do(http.MethodGet, "/orders/"+id+"/receipt", "")
		require.Equal(t, http.StatusOK, w.Code)

		m := decodeBody(t, w)
		text := m["receipt_text"].(string)
		assert.Contains(t, text, "Order: "+id+"\n")
		assert.Contains(t, text, "Burger x2  $12.00\n  - no onions\n")
		assert.Contains(t, text, "Total: $13.20\nPayment: card\n")
		assert.NotContains(t, text, "Table/Name:")
		assert.Equal(t, id, m["order"].(map[string]any)["id"])
	})

	t.Run("text", func(t *testing.T) {
		w := env.do(http.MethodGet, "/orders/"+id+"/receipt?format=text", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "=== Restaurant Receipt ===\n"))
	})

	t.Run("invalid id", func(t *testing.T) {
		w := env.do(http.MethodGet, "/orders/xyz/receipt", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		w := env.do(http.MethodGet, "/orders/aaaaaaaaaaaaaaaaaaaaaaaa/receipt", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMenu(t *testing.T) {
	env := newTestEnv(t, Diagnostics{})

	w := env.do(http.MethodPost, "/menu", `{"name": "Pad Thai", "price": 9.5}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"price":9.50`)
	m := decodeBody(t, w)
	assert.Equal(t, "menu-1", m["id"])
	assert.Equal(t, true, m["is_available"])
	assert.Nil(t, m["category"])

	w = env.do(http.MethodPost, "/menu", `{"name": "Pie", "price": 4, "category": "Desserts", "is_available": false}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["is_available"])

	var items []map[string]any
	w = env.do(http.MethodGet, "/menu", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Desserts", items[1]["category"])
}

func TestCreateMenuItem_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{name: "missing fields", body: `{}`, fields: []string{"name", "price"}},
		{name: "empty name", body: `{"name": " ", "price": 1}`, fields: []string{"name"}},
		{name: "negative price", body: `{"name": "Tea", "price": -1}`, fields: []string{"price"}},
		{name: "quoted price", body: `{"name": "Tea", "price": "1.00"}`, fields: []string{"price"}},
		{name: "huge exponent price", body: `{"name": "Tea", "price": 1e99999999}`, fields: []string{"price"}},
		{name: "large exponent price", body: `{"name": "Tea", "price": 1e7000}`, fields: []string{"price"}},
		{name: "price above store range", body: `{"name": "Tea", "price": 12345678901.5}`, fields: []string{"price"}},
		{name: "wrong types", body: `{"name": 5, "price": 1, "is_available": "yes"}`, fields: []string{"name", "is_available"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Diagnostics{})

			w := env.do(http.MethodPost, "/menu", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

			e := decodeError(t, w)
			fields := make([]string, len(e.Errors))
			for i, v := range e.Errors {
				fields[i] = v.Field
			}
			assert.Equal(t, tt.fields, fields)
			assert.Empty(t, env.menu.items)
		})
	}
}

func TestStoreUnavailable(t *testing.T) {
	u := storage.NewUnavailable(errors.New("DATABASE_URL is not set"), "pos")
	mp := noop.NewMeterProvider()
	h := NewHandler(menu.NewService(u.Menu(), mp), order.NewService(u.Orders(), nil, mp), Diagnostics{Store: u})
	mux := http.NewServeMux()
	h.Register(mux)

	requests := []struct{ method, target, body string }{
		{http.MethodGet, "/menu", ""},
		{http.MethodPost, "/menu", `{"name": "Tea", "price": 1}`},
		{http.MethodGet, "/orders", ""},
		{http.MethodPost, "/orders", validOrder},
		{http.MethodGet, "/orders/65f1c0ffee0000000000abcd", ""},
		{http.MethodGet, "/orders/65f1c0ffee0000000000abcd/receipt", ""},
	}
	for _, r := range requests {
		req := httptest.NewRequest(r.method, r.target, strings.NewReader(r.body))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code, r.target)
		e := decodeError(t, w)
		assert.Equal(t, "database unavailable", e.Message)
		assert.NotContains(t, w.Body.String(), "DATABASE_URL")
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code, "root must answer without a store")
}
