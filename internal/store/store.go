package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"luxepos/internal/domain"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("already exists")
	ErrInvalidProduct = errors.New("invalid product")
)

// Repository is the persistence contract for the catalog, the sale ledger
// and the invoice ledger. Implementations return copies; callers never
// share memory with stored records.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	SetStock(ctx context.Context, id string, stock int) (*domain.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	// RecordSale prepends the sale to the ledger and decrements stock for
	// every item whose product still exists, clamped at zero, as one step.
	RecordSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	// CreateInvoice assigns the next INV-<year>-<seq> number when the
	// invoice has none.
	CreateInvoice(ctx context.Context, inv domain.Invoice) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
}

func ClampStock(stock int) int {
	if stock < 0 {
		return 0
	}
	return stock
}

func InvoiceNumber(year, seq int) string {
	return fmt.Sprintf("INV-%d-%03d", year, seq)
}

// InvoiceSeq extracts the sequence part of a number issued in year.
func InvoiceSeq(number string, year int) (int, bool) {
	prefix := fmt.Sprintf("INV-%d-", year)
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// NextInvoiceNumber returns the number following the highest one issued
// in year.
func NextInvoiceNumber(existing []string, year int) string {
	highest := 0
	for _, number := range existing {
		if seq, ok := InvoiceSeq(number, year); ok && seq > highest {
			highest = seq
		}
	}
	return InvoiceNumber(year, highest+1)
}
