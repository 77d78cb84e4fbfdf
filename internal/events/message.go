package events

import (
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/restaurant-pos/internal/domain/order"
)

// EncodeOrderCreated renders the order.created message body. Kitchen
// consumers only need what to prepare, so prices are limited to the total.
func EncodeOrderCreated(o *order.Order) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("event")
	e.Str(RoutingKeyOrderCreated)
	e.FieldStart("order_id")
	e.Str(o.ID)
	if o.TableNumber != "" {
		e.FieldStart("table_number")
		e.Str(o.TableNumber)
	}
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("total")
	e.Num(jx.Num(order.FormatMoney(o.Total)))
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
		if it.Notes != "" {
			e.FieldStart("notes")
			e.Str(it.Notes)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
	return e.Bytes()
}
