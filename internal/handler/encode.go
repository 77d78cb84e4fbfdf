package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
	"github.com/xenking/restaurant-pos/internal/domain/validation"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// money writes d as a JSON number with at least two decimal places. Unit
// prices with more precision keep it.
func money(e *jx.Encoder, d decimal.Decimal) {
	if d.Exponent() < -2 {
		e.Num(jx.Num(d.String()))
		return
	}
	e.Num(jx.Num(order.FormatMoney(d)))
}

// optStr writes s, or null when s is empty.
func optStr(e *jx.Encoder, s string) {
	if s == "" {
		e.Null()
		return
	}
	e.Str(s)
}

func timestamp(e *jx.Encoder, t time.Time) {
	if t.IsZero() {
		e.Null()
		return
	}
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeMenuItem(e *jx.Encoder, item *menu.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(item.ID)
	e.FieldStart("name")
	e.Str(item.Name)
	e.FieldStart("price")
	money(e, item.Price)
	e.FieldStart("category")
	optStr(e, item.Category)
	e.FieldStart("is_available")
	e.Bool(item.IsAvailable)
	e.FieldStart("created_at")
	timestamp(e, item.CreatedAt)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("table_number")
	optStr(e, o.TableNumber)
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("item_id")
		e.Str(it.ItemID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("unit_price")
		money(e, it.UnitPrice)
		e.FieldStart("notes")
		optStr(e, it.Notes)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	money(e, o.Subtotal)
	e.FieldStart("tax")
	money(e, o.Tax)
	e.FieldStart("total")
	money(e, o.Total)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("payment_method")
	optStr(e, o.PaymentMethod)
	e.FieldStart("created_at")
	timestamp(e, o.CreatedAt)
	e.ObjEnd()
}

func encodeError(e *jx.Encoder, status int, message string, violations []validation.Violation) {
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	if len(violations) > 0 {
		e.FieldStart("errors")
		e.ArrStart()
		for _, v := range violations {
			e.ObjStart()
			e.FieldStart("field")
			e.Str(v.Field)
			e.FieldStart("message")
			e.Str(v.Message)
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	e.ObjEnd()
}
