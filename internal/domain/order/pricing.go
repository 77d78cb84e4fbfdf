package order

import "github.com/shopspring/decimal"

// TaxRate is the flat sales tax applied to every order.
var TaxRate = decimal.RequireFromString("0.10")

// moneyPlaces is the number of decimal places kept for monetary amounts.
const moneyPlaces = 2

// Totals holds the server-computed amounts of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums the line items and applies TaxRate. Every amount is
// rounded half away from zero to two decimal places. An empty slice yields
// zero totals.
func ComputeTotals(items []LineItem) Totals {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	subtotal := sum.Round(moneyPlaces)
	tax := subtotal.Mul(TaxRate).Round(moneyPlaces)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax).Round(moneyPlaces),
	}
}

// LineTotal returns quantity × unit price rounded to two decimal places.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))).Round(moneyPlaces)
}

// FormatMoney renders d with exactly two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}
