// Package seed holds the demo catalog and invoice history every fresh
// repository starts from.
package seed

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"luxepos/internal/domain"
	"luxepos/internal/invoice"
)

func Products() []domain.Product {
	return []domain.Product{
		product("1", "Diamond Solitaire Ring", domain.CategoryRings, "2499.99", "14K white gold ring with 1 carat diamond", "14K White Gold, Diamond", 5, "photo-1605100804763-247f67b3557e"),
		product("2", "Pearl Necklace", domain.CategoryNecklaces, "1299.99", "Classic freshwater pearl strand necklace", "Freshwater Pearls, 18K Gold Clasp", 8, "photo-1515562141207-7a88fb7ce338"),
		product("3", "Gold Tennis Bracelet", domain.CategoryBracelets, "1899.99", "18K yellow gold bracelet with cubic zirconia", "18K Yellow Gold, Cubic Zirconia", 3, "photo-1611591437281-460bfbe1220a"),
		product("4", "Sapphire Stud Earrings", domain.CategoryEarrings, "899.99", "Blue sapphire stud earrings in white gold", "14K White Gold, Blue Sapphire", 12, "photo-1535632066927-ab7c9ab60908"),
		product("5", "Rose Gold Engagement Ring", domain.CategoryRings, "3299.99", "Vintage-inspired rose gold ring with halo diamonds", "18K Rose Gold, Diamonds", 4, "photo-1603561596112-0a132b757442"),
		product("6", "Emerald Pendant Necklace", domain.CategoryNecklaces, "1599.99", "Emerald pendant on delicate gold chain", "14K Yellow Gold, Emerald", 6, "photo-1599643478518-a784e5dc4c8f"),
		product("7", "Silver Charm Bracelet", domain.CategoryBracelets, "449.99", "Sterling silver bracelet with customizable charms", "Sterling Silver", 15, "photo-1573408301185-9146fe634ad0"),
		product("8", "Diamond Hoop Earrings", domain.CategoryEarrings, "1199.99", "Classic diamond-studded hoop earrings", "14K White Gold, Diamonds", 7, "photo-1630019852942-f89202989a59"),
		product("9", "Luxury Swiss Watch", domain.CategoryWatches, "4999.99", "Automatic movement watch with sapphire crystal", "Stainless Steel, Sapphire Crystal", 2, "photo-1523170335258-f5ed11844a49"),
		product("10", "Ruby Cocktail Ring", domain.CategoryRings, "2199.99", "Statement ring with large ruby center stone", "18K Yellow Gold, Ruby", 3, "photo-1605100804763-247f67b3557e"),
		product("11", "Gold Chain Necklace", domain.CategoryNecklaces, "799.99", "Classic gold cable chain necklace", "14K Yellow Gold", 10, "photo-1611652022419-a9419f74343a"),
		product("12", "Bangle Bracelet Set", domain.CategoryBracelets, "599.99", "Set of three stacking bangle bracelets", "14K Gold Mix", 9, "photo-1611652022419-a9419f74343a"),
	}
}

// Invoices returns the historical invoice ledger, newest first.
func Invoices() []domain.Invoice {
	invoices := []domain.Invoice{
		{
			Number: "INV-2026-001", Date: day(2026, 2, 14), Type: domain.InvoiceSales, Status: domain.InvoicePaid, PaymentMethod: "Credit Card",
			Customer: domain.Customer{Name: "Sarah Johnson", Email: "sarah.j@email.com", Phone: "+1 (555) 123-4567", Address: "123 Luxury Lane, Beverly Hills, CA 90210"},
			SalesItems: []domain.SalesLineItem{
				salesLine("1", "Diamond Solitaire Ring", domain.CategoryRings, 1, "2500"),
				salesLine("2", "Pearl Necklace", domain.CategoryNecklaces, 1, "850"),
			},
		},
		{
			Number: "INV-2026-002", Date: day(2026, 2, 13), Type: domain.InvoiceSales, Status: domain.InvoicePaid, PaymentMethod: "Cash",
			Customer: domain.Customer{Name: "Michael Chen", Email: "mchen@email.com", Phone: "+1 (555) 987-6543", Address: "456 Oak Street, San Francisco, CA 94102"},
			SalesItems: []domain.SalesLineItem{
				salesLine("", "Gold Watch", domain.CategoryWatches, 1, "3200"),
			},
		},
		{
			Number: "INV-2026-003", Date: day(2026, 2, 12), Type: domain.InvoiceSales, Status: domain.InvoicePending, PaymentMethod: "Credit Card",
			Customer: domain.Customer{Name: "Emily Rodriguez", Email: "emily.r@email.com", Phone: "+1 (555) 456-7890", Address: "789 Palm Drive, Miami, FL 33139"},
			SalesItems: []domain.SalesLineItem{
				salesLine("", "Sapphire Earrings", domain.CategoryEarrings, 1, "1800"),
				salesLine("", "Silver Bracelet", domain.CategoryBracelets, 2, "350"),
			},
		},
		{
			Number: "INV-2026-004", Date: day(2026, 2, 10), Type: domain.InvoicePawn, Status: domain.InvoicePending, PaymentMethod: "Cash",
			Customer:  domain.Customer{Name: "David Kim", Email: "david.k@email.com", Phone: "+1 (555) 234-5678", Address: "321 Main Street, New York, NY 10001"},
			DueDate:   dayPtr(2026, 3, 10),
			PawnItems: []domain.PawnLineItem{pawnLine("Gold Chain", 1, "1500")},
		},
		{
			Number: "INV-2026-005", Date: day(2026, 2, 9), Type: domain.InvoicePawn, Status: domain.InvoicePaid, PaymentMethod: "Credit Card",
			Customer:  domain.Customer{Name: "Lisa Anderson", Email: "lisa.a@email.com", Phone: "+1 (555) 345-6789", Address: "567 Broadway, New York, NY 10012"},
			DueDate:   dayPtr(2026, 3, 9),
			PawnItems: []domain.PawnLineItem{pawnLine("Ruby Ring", 1, "2800")},
		},
	}
	for i := range invoices {
		invoices[i].ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(invoices[i].Number)).String()
		invoices[i].Totals = invoice.ComputeTotals(invoices[i].SalesItems, invoices[i].PawnItems)
	}
	return invoices
}

func product(id, name string, category domain.Category, price, description, material string, stock int, photo string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        name,
		Category:    category,
		Price:       decimal.RequireFromString(price),
		Description: description,
		Material:    material,
		Stock:       stock,
		Image:       "https://images.unsplash.com/" + photo + "?w=400&h=400&fit=crop",
	}
}

func salesLine(productID, name string, category domain.Category, qty int, price string) domain.SalesLineItem {
	return invoice.SalesLine(domain.SalesLineItem{
		ProductID:   productID,
		ProductName: name,
		Category:    category,
		Quantity:    qty,
		ReturnType:  domain.ReturnPercentage,
		Price:       decimal.RequireFromString(price),
		Discount:    decimal.Zero,
	})
}

func pawnLine(name string, qty int, price string) domain.PawnLineItem {
	return invoice.PawnLine(domain.PawnLineItem{Name: name, Quantity: qty, Price: decimal.RequireFromString(price)})
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}
