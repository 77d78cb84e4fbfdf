package main

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
)

// parseMenu decodes a JSON array of menu items. Prices are read from their
// literal text so no precision is lost.
func parseMenu(data []byte) ([]menu.CreateItemRequest, error) {
	var items []menu.CreateItemRequest
	d := jx.DecodeBytes(data)
	err := d.Arr(func(d *jx.Decoder) error {
		var req menu.CreateItemRequest
		err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "name":
				v, err := d.Str()
				req.Name = v
				return err
			case "category":
				v, err := d.Str()
				req.Category = v
				return err
			case "price":
				if d.Next() != jx.Number {
					return errors.New("price must be a number")
				}
				n, err := d.Num()
				if err != nil {
					return err
				}
				req.Price, err = decimal.NewFromString(string(n))
				return err
			case "is_available":
				v, err := d.Bool()
				req.IsAvailable = &v
				return err
			default:
				return d.Skip()
			}
		})
		if err != nil {
			return errors.Wrapf(err, "item %d", len(items))
		}
		if err := req.Validate(); err != nil {
			return errors.Wrapf(err, "item %d", len(items))
		}
		items = append(items, req)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse menu")
	}
	return items, nil
}
