package order

import (
	"strconv"
	"strings"
)

const (
	receiptHeader = "=== Restaurant Receipt ==="
	receiptFooter = "=========================="
)

// RenderReceipt produces the plain-text receipt of a stored order. Line
// amounts are recomputed from the item snapshots; the summary uses the
// stored totals. Optional fields that are unset omit their line.
func RenderReceipt(o *Order) string {
	var b strings.Builder

	line := func(parts ...string) {
		for _, p := range parts {
			b.WriteString(p)
		}
		b.WriteByte('\n')
	}

	line(receiptHeader)
	line("Order: ", o.ID)
	if o.TableNumber != "" {
		line("Table/Name: ", o.TableNumber)
	}
	line()

	for _, it := range o.Items {
		name := it.Name
		if name == "" {
			name = "Item"
		}
		line(name, " x", strconv.Itoa(it.Quantity), "  $", FormatMoney(it.LineTotal()))
		if it.Notes != "" {
			line("  - ", it.Notes)
		}
	}

	line()
	line("Subtotal: $", FormatMoney(o.Subtotal))
	line("Tax: $", FormatMoney(o.Tax))
	line("Total: $", FormatMoney(o.Total))
	if o.PaymentMethod != "" {
		line("Payment: ", o.PaymentMethod)
	}
	b.WriteString(receiptFooter)

	return b.String()
}
