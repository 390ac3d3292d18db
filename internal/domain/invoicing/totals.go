package invoicing

import "github.com/shopspring/decimal"

// ComputeTotals sums the line totals and applies VAT, rounding each figure
// half away from zero to two decimals.
func ComputeTotals(items []LineItem, vatRate float64) Totals {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.TotalPrice).Round(2))
	}
	vat := total.Mul(decimal.NewFromFloat(vatRate)).Round(2)
	return Totals{
		TotalAmount:  total.InexactFloat64(),
		VATAmount:    vat.InexactFloat64(),
		TotalWithVAT: total.Add(vat).InexactFloat64(),
	}
}

// Apply copies the totals onto the invoice.
func (t Totals) Apply(inv *Invoice) {
	inv.TotalAmount = t.TotalAmount
	inv.VATAmount = t.VATAmount
	inv.TotalWithVAT = t.TotalWithVAT
}
