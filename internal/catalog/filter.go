package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"luxepos/internal/domain"
)

// LowStockThreshold is the stock level at or below which a product is
// reported as running low.
const LowStockThreshold = 5

type StockLevel string

const (
	StockAll        StockLevel = ""
	StockLow        StockLevel = "low-stock"
	StockOutOfStock StockLevel = "out-of-stock"
)

// Filter narrows a product list. Zero values match everything; all set
// fields must match. Materials match when any tag is a case-insensitive
// substring of the product's material string.
type Filter struct {
	Category  domain.Category
	Materials []string
	Search    string
	Stock     StockLevel
}

// IsDefault reports whether the filter would match every product.
func (f Filter) IsDefault() bool {
	return normalizeCategory(f.Category) == "" &&
		len(cleanTags(f.Materials)) == 0 &&
		strings.TrimSpace(f.Search) == "" &&
		f.Stock == StockAll
}

func (f Filter) Matches(p domain.Product) bool {
	if category := normalizeCategory(f.Category); category != "" && p.Category != category {
		return false
	}

	if tags := cleanTags(f.Materials); len(tags) > 0 {
		material := strings.ToLower(p.Material)
		found := false
		for _, tag := range tags {
			if strings.Contains(material, strings.ToLower(tag)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		if !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.ID), search) {
			return false
		}
	}

	switch f.Stock {
	case StockLow:
		if p.Stock <= 0 || p.Stock > LowStockThreshold {
			return false
		}
	case StockOutOfStock:
		if p.Stock != 0 {
			return false
		}
	}

	return true
}

// Apply keeps the input order.
func Apply(products []domain.Product, f Filter) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Pick runs the invoice item picker. Results only surface once the user
// has narrowed the list with at least one filter.
func Pick(products []domain.Product, f Filter) domain.PickerResponse {
	f.Stock = StockAll
	if f.IsDefault() {
		return domain.PickerResponse{Active: false, Products: []domain.Product{}}
	}
	return domain.PickerResponse{Active: true, Products: Apply(products, f)}
}

func Summarize(products []domain.Product) domain.InventorySummary {
	summary := domain.InventorySummary{
		TotalProducts: len(products),
		TotalValue:    decimal.Zero,
	}
	for _, p := range products {
		summary.TotalValue = summary.TotalValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Stock))))
		if p.Stock <= LowStockThreshold {
			summary.LowStockCount++
		}
		if p.Stock == 0 {
			summary.OutOfStockCount++
		}
	}
	return summary
}

func ParseStockLevel(raw string) (StockLevel, bool) {
	switch StockLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case StockAll, "all":
		return StockAll, true
	case StockLow:
		return StockLow, true
	case StockOutOfStock:
		return StockOutOfStock, true
	}
	return StockAll, false
}

// "all" is what the category selector sends for no filter.
func normalizeCategory(c domain.Category) domain.Category {
	trimmed := domain.Category(strings.ToLower(strings.TrimSpace(string(c))))
	if trimmed == "all" {
		return ""
	}
	return trimmed
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			out = append(out, t)
		}
	}
	return out
}
