package postgres

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/restaurant-pos/internal/domain/order"
)

// encodeItems renders line items as the JSONB document stored in
// orders.items. Prices are written as exact JSON numbers.
func encodeItems(items []order.LineItem) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("item_id")
		e.Str(it.ItemID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("unit_price")
		e.Num(jx.Num(it.UnitPrice.String()))
		if it.Notes != "" {
			e.FieldStart("notes")
			e.Str(it.Notes)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

func decodeItems(data []byte) ([]order.LineItem, error) {
	items := []order.LineItem{}
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		var it order.LineItem
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "item_id":
				it.ItemID, err = d.Str()
			case "name":
				it.Name, err = d.Str()
			case "quantity":
				it.Quantity, err = d.Int()
			case "unit_price":
				var n jx.Num
				if n, err = d.Num(); err == nil {
					it.UnitPrice, err = decimal.NewFromString(n.String())
				}
			case "notes":
				it.Notes, err = d.Str()
			default:
				return d.Skip()
			}
			if err != nil {
				return errors.Wrap(err, key)
			}
			return nil
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode items")
	}
	return items, nil
}
