package handler

import (
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
	"github.com/xenking/restaurant-pos/internal/domain/validation"
)

const (
	maxBodySize = 1 << 20
	// Numbers longer than maxNumberLen or with an exponent beyond
	// ±maxNumberExp are rejected before any decimal arithmetic.
	maxNumberLen = 64
	maxNumberExp = 64
)

// errBadBody is returned for bodies that are not a well-formed JSON object.
var errBadBody = errors.New("invalid request body")

// readBody reads a size-limited request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(errBadBody, err.Error())
	}
	return data, nil
}

// fields decodes typed values and records type mismatches as violations
// instead of failing the whole body.
type fields struct {
	prefix string
	v      *validation.Error
}

func (f fields) name(field string) string {
	if f.prefix == "" {
		return field
	}
	return f.prefix + "." + field
}

func (f fields) mismatch(d *jx.Decoder, field, message string) error {
	f.v.Add(f.name(field), message)
	return d.Skip()
}

func (f fields) str(d *jx.Decoder, field string, dst *string) error {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		*dst = s
		return err
	case jx.Null:
		return d.Null()
	default:
		return f.mismatch(d, field, "must be a string")
	}
}

func (f fields) boolean(d *jx.Decoder, field string, dst **bool) error {
	switch d.Next() {
	case jx.Bool:
		b, err := d.Bool()
		*dst = &b
		return err
	case jx.Null:
		return d.Null()
	default:
		return f.mismatch(d, field, "must be a boolean")
	}
}

// number reads a JSON number from its literal text. Quoted numbers are
// rejected.
func (f fields) number(d *jx.Decoder, field string) (decimal.Decimal, bool, error) {
	if d.Next() != jx.Number {
		return decimal.Decimal{}, false, f.mismatch(d, field, "must be a number")
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	if len(n) > maxNumberLen {
		f.v.Add(f.name(field), "is out of range")
		return decimal.Decimal{}, false, nil
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		f.v.Add(f.name(field), "must be a number")
		return decimal.Decimal{}, false, nil
	}
	if exp := v.Exponent(); exp > maxNumberExp || exp < -maxNumberExp {
		f.v.Add(f.name(field), "is out of range")
		return decimal.Decimal{}, false, nil
	}
	return v, true, nil
}

func (f fields) money(d *jx.Decoder, field string, dst *decimal.Decimal) (bool, error) {
	v, ok, err := f.number(d, field)
	if ok {
		*dst = v
	}
	return ok, err
}

func (f fields) integer(d *jx.Decoder, field string, dst *int) (bool, error) {
	v, ok, err := f.number(d, field)
	if !ok || err != nil {
		return false, err
	}
	if !v.IsInteger() {
		f.v.Add(f.name(field), "must be an integer")
		return false, nil
	}
	if v.GreaterThan(decimal.NewFromInt(math.MaxInt32)) || v.LessThan(decimal.NewFromInt(math.MinInt32)) {
		f.v.Add(f.name(field), "is out of range")
		return false, nil
	}
	*dst = int(v.IntPart())
	return true, nil
}

// require reports a missing field unless it was already reported.
func (f fields) require(present bool, field string) {
	if !present && !covered(f.v, f.name(field)) {
		f.v.Add(f.name(field), "is required")
	}
}

// object decodes a top-level JSON object, calling fn for every key. Trailing
// data after the object is rejected.
func object(data []byte, fn func(d *jx.Decoder, key string) error) error {
	if !jx.Valid(data) {
		return errors.Wrap(errBadBody, "malformed JSON")
	}
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return errors.Wrap(errBadBody, "expected JSON object")
	}
	if err := d.Obj(fn); err != nil {
		return errors.Wrap(errBadBody, err.Error())
	}
	return nil
}

// decodeMenuItem parses a menu item payload. Field type errors are returned
// as a *validation.Error, syntax errors as errBadBody.
func decodeMenuItem(data []byte) (menu.CreateItemRequest, error) {
	var (
		req   menu.CreateItemRequest
		v     validation.Error
		f     = fields{v: &v}
		named bool
		price bool
	)
	err := object(data, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			named = d.Next() == jx.String
			err = f.str(d, key, &req.Name)
		case "price":
			price, err = f.money(d, key, &req.Price)
		case "category":
			err = f.str(d, key, &req.Category)
		case "is_available":
			err = f.boolean(d, key, &req.IsAvailable)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return req, err
	}

	f.require(named, "name")
	f.require(price, "price")
	return req, merge(&v, req.Validate())
}

// decodeOrder parses an order payload. Client-supplied subtotal, tax and
// total are skipped. When "items" repeats, the last occurrence wins.
func decodeOrder(data []byte) (order.PlaceOrderRequest, error) {
	var (
		req      order.PlaceOrderRequest
		v        validation.Error
		itemsErr validation.Error
		f        = fields{v: &v}
		items    bool
	)
	err := object(data, func(d *jx.Decoder, key string) error {
		switch key {
		case "table_number":
			return f.str(d, key, &req.TableNumber)
		case "payment_method":
			return f.str(d, key, &req.PaymentMethod)
		case "status":
			var s string
			err := f.str(d, key, &s)
			req.Status = order.Status(s)
			return err
		case "items":
			items = true
			req.Items = nil
			itemsErr = validation.Error{}
			switch d.Next() {
			case jx.Array:
				return decodeLineItems(d, &itemsErr, &req.Items)
			case jx.Null:
				return d.Null()
			default:
				return fields{v: &itemsErr}.mismatch(d, key, "must be an array")
			}
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return req, err
	}

	v.Merge("", &itemsErr)
	f.require(items, "items")
	return req, merge(&v, req.Validate())
}

func decodeLineItems(d *jx.Decoder, v *validation.Error, dst *[]order.LineItem) error {
	i := 0
	return d.Arr(func(d *jx.Decoder) error {
		prefix := validation.Index("items", i)
		i++

		var it order.LineItem
		if d.Next() != jx.Object {
			v.Add(prefix, "must be an object")
			*dst = append(*dst, it)
			return d.Skip()
		}

		var (
			iv                       validation.Error
			f                        = fields{v: &iv}
			itemID, name, qty, price bool
		)
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "item_id":
				itemID = d.Next() == jx.String
				err = f.str(d, key, &it.ItemID)
			case "name":
				name = d.Next() == jx.String
				err = f.str(d, key, &it.Name)
			case "quantity":
				qty, err = f.integer(d, key, &it.Quantity)
			case "unit_price":
				price, err = f.money(d, key, &it.UnitPrice)
			case "notes":
				err = f.str(d, key, &it.Notes)
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}

		f.require(itemID, "item_id")
		f.require(name, "name")
		f.require(qty, "quantity")
		f.require(price, "unit_price")
		v.Merge(prefix+".", &iv)
		*dst = append(*dst, it)
		return nil
	})
}

// covered reports whether field, or an enclosing field, already has a
// violation.
func covered(v *validation.Error, field string) bool {
	if v == nil {
		return false
	}
	for _, x := range v.Violations {
		if x.Field == field || strings.HasPrefix(field, x.Field+".") {
			return true
		}
	}
	return false
}

// merge combines decode violations with semantic ones, reporting each field
// once.
func merge(decoded *validation.Error, semantic error) error {
	var sv *validation.Error
	if semantic != nil && !errors.As(semantic, &sv) {
		return semantic
	}
	if sv != nil {
		for _, x := range sv.Violations {
			if !covered(decoded, x.Field) {
				decoded.Add(x.Field, x.Message)
			}
		}
	}
	return decoded.Err()
}
