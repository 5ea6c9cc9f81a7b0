package orders

import "github.com/shopspring/decimal"

// ComputeTotals derives subtotal, tax and total for a set of line items.
// Tax is subtotal*TaxRate rounded half away from zero to cents, the same rounding a
// NUMERIC(10,2) column applies, so total = subtotal + tax - discount is exactly what is stored.
func ComputeTotals(items []LineItem, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	tax := subtotal.Mul(TaxRate).Round(2)

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Add(tax).Sub(discount),
	}
}
