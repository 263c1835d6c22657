package invoice

import (
	"github.com/shopspring/decimal"

	"luxepos/internal/domain"
)

// TaxRate is the flat tax applied to every invoice subtotal.
var TaxRate = decimal.New(10, -2)

// SalesLine recomputes the derived line total. A discount larger than the
// gross value floors the line at zero.
func SalesLine(item domain.SalesLineItem) domain.SalesLineItem {
	gross := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	item.LineTotal = decimal.Max(decimal.Zero, gross.Sub(item.Discount))
	return item
}

func PawnLine(item domain.PawnLineItem) domain.PawnLineItem {
	item.LineTotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return item
}

// effectiveDiscount caps the discount at the line's gross value so the
// reported discount matches what was actually taken off.
func effectiveDiscount(item domain.SalesLineItem) decimal.Decimal {
	gross := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return decimal.Min(item.Discount, gross)
}

// ComputeTotals derives subtotal, discount, tax and total from the lines.
// Only one of the two slices is expected to be non-empty.
func ComputeTotals(sales []domain.SalesLineItem, pawn []domain.PawnLineItem) domain.InvoiceTotals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, item := range sales {
		item = SalesLine(item)
		subtotal = subtotal.Add(item.LineTotal)
		discount = discount.Add(effectiveDiscount(item))
	}
	for _, item := range pawn {
		subtotal = subtotal.Add(PawnLine(item).LineTotal)
	}
	// Tax is charged in whole cents.
	tax := subtotal.Mul(TaxRate).Round(2)
	return domain.InvoiceTotals{
		Subtotal:      subtotal,
		TotalDiscount: discount,
		Tax:           tax,
		Total:         subtotal.Add(tax),
	}
}
