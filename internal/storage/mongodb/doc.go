package mongodb

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
)

type menuItemDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Price       primitive.Decimal128 `bson:"price"`
	Category    string               `bson:"category,omitempty"`
	IsAvailable bool                 `bson:"is_available"`
	CreatedAt   time.Time            `bson:"created_at"`
}

type lineItemDoc struct {
	ItemID    string               `bson:"item_id"`
	Name      string               `bson:"name"`
	Quantity  int                  `bson:"quantity"`
	UnitPrice primitive.Decimal128 `bson:"unit_price"`
	Notes     string               `bson:"notes,omitempty"`
}

type orderDoc struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	TableNumber   string               `bson:"table_number,omitempty"`
	Items         []lineItemDoc        `bson:"items"`
	Subtotal      primitive.Decimal128 `bson:"subtotal"`
	Tax           primitive.Decimal128 `bson:"tax"`
	Total         primitive.Decimal128 `bson:"total"`
	Status        string               `bson:"status"`
	PaymentMethod string               `bson:"payment_method,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, errors.Wrapf(err, "convert %s", d)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "convert %s", v)
	}
	return d, nil
}

func newMenuItemDoc(item *menu.Item) (menuItemDoc, error) {
	price, err := toDecimal128(item.Price)
	if err != nil {
		return menuItemDoc{}, errors.Wrap(err, "price")
	}
	return menuItemDoc{
		Name:        item.Name,
		Price:       price,
		Category:    item.Category,
		IsAvailable: item.IsAvailable,
		CreatedAt:   item.CreatedAt,
	}, nil
}

func (d menuItemDoc) toDomain() (menu.Item, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return menu.Item{}, errors.Wrapf(err, "menu item %s price", d.ID.Hex())
	}
	return menu.Item{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Price:       price,
		Category:    d.Category,
		IsAvailable: d.IsAvailable,
		CreatedAt:   d.CreatedAt,
	}, nil
}

func newOrderDoc(o *order.Order) (orderDoc, error) {
	items := make([]lineItemDoc, len(o.Items))
	for i, it := range o.Items {
		price, err := toDecimal128(it.UnitPrice)
		if err != nil {
			return orderDoc{}, errors.Wrapf(err, "item %d unit price", i)
		}
		items[i] = lineItemDoc{
			ItemID:    it.ItemID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: price,
			Notes:     it.Notes,
		}
	}

	doc := orderDoc{
		TableNumber:   o.TableNumber,
		Items:         items,
		Status:        string(o.Status),
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
	}
	var err error
	if doc.Subtotal, err = toDecimal128(o.Subtotal); err != nil {
		return orderDoc{}, errors.Wrap(err, "subtotal")
	}
	if doc.Tax, err = toDecimal128(o.Tax); err != nil {
		return orderDoc{}, errors.Wrap(err, "tax")
	}
	if doc.Total, err = toDecimal128(o.Total); err != nil {
		return orderDoc{}, errors.Wrap(err, "total")
	}
	return doc, nil
}

func (d orderDoc) toDomain() (*order.Order, error) {
	o := &order.Order{
		ID:            d.ID.Hex(),
		TableNumber:   d.TableNumber,
		Items:         make([]order.LineItem, len(d.Items)),
		Status:        order.Status(d.Status),
		PaymentMethod: d.PaymentMethod,
		CreatedAt:     d.CreatedAt,
	}
	for i, it := range d.Items {
		price, err := fromDecimal128(it.UnitPrice)
		if err != nil {
			return nil, errors.Wrapf(err, "order %s item %d", o.ID, i)
		}
		o.Items[i] = order.LineItem{
			ItemID:    it.ItemID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: price,
			Notes:     it.Notes,
		}
	}

	var err error
	if o.Subtotal, err = fromDecimal128(d.Subtotal); err != nil {
		return nil, errors.Wrapf(err, "order %s subtotal", o.ID)
	}
	if o.Tax, err = fromDecimal128(d.Tax); err != nil {
		return nil, errors.Wrapf(err, "order %s tax", o.ID)
	}
	if o.Total, err = fromDecimal128(d.Total); err != nil {
		return nil, errors.Wrapf(err, "order %s total", o.ID)
	}
	return o, nil
}
