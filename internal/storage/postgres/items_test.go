package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/restaurant-pos/internal/domain/order"
)

func TestEncodeItems(t *testing.T) {
	data := encodeItems([]order.LineItem{
		{ItemID: "m1", Name: "Burger", Quantity: 2, UnitPrice: decimal.RequireFromString("6.335"), Notes: "no onions"},
		{ItemID: "m2", Name: "Cola", Quantity: 1, UnitPrice: decimal.RequireFromString("1.5")},
	})

	assert.JSONEq(t, `[
		{"item_id":"m1","name":"Burger","quantity":2,"unit_price":6.335,"notes":"no onions"},
		{"item_id":"m2","name":"Cola","quantity":1,"unit_price":1.5}
	]`, string(data))
}

func TestDecodeItems(t *testing.T) {
	items, err := decodeItems([]byte(`[
		{"item_id":"m1","name":"Burger","quantity":2,"unit_price":6.335,"notes":"no onions","extra":{"a":1}},
		{"name":"Cola","quantity":1,"unit_price":1.50}
	]`))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "m1", items[0].ItemID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("6.335")), "precision is kept")
	assert.Equal(t, "no onions", items[0].Notes)
	assert.Empty(t, items[1].ItemID)
	assert.Equal(t, "1.50", order.FormatMoney(items[1].UnitPrice))
}

func TestDecodeItems_Empty(t *testing.T) {
	items, err := decodeItems([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestDecodeItems_Malformed(t *testing.T) {
	_, err := decodeItems([]byte(`[{"quantity":"two"}]`))
	assert.ErrorContains(t, err, "quantity")
}

func TestGet_InvalidID(t *testing.T) {
	// Malformed ids are rejected before the pool is touched.
	r := &OrderRepository{}
	for _, id := range []string{"", "42", "65f1c0ffee0000000000abcd", "not-a-uuid"} {
		_, err := r.Get(t.Context(), id)
		assert.ErrorIs(t, err, order.ErrInvalidID, id)
		assert.NotErrorIs(t, err, order.ErrNotFound, id)
	}
}
