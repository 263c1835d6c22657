package memory

import (
	"context"
	"fmt"
	"sync"

	"luxepos/internal/domain"
	"luxepos/internal/store"
	"luxepos/internal/store/seed"
)

// Store keeps everything in process memory. Products keep insertion
// order; both ledgers are kept newest first.
type Store struct {
	mu       sync.RWMutex
	products []domain.Product
	sales    []domain.Sale
	invoices []domain.Invoice
}

func New() *Store {
	return &Store{
		products: make([]domain.Product, 0, 16),
		sales:    make([]domain.Sale, 0, 64),
		invoices: make([]domain.Invoice, 0, 16),
	}
}

func NewSeeded() *Store {
	s := New()
	s.products = append(s.products, seed.Products()...)
	s.invoices = append(s.invoices, seed.Invoices()...)
	return s
}

func (s *Store) indexOf(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.products...), nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	p := s.products[i]
	return &p, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(product.ID) >= 0 {
		return nil, fmt.Errorf("product %s: %w", product.ID, store.ErrConflict)
	}
	product.Stock = store.ClampStock(product.Stock)
	s.products = append(s.products, product)
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(product.ID)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	product.Stock = store.ClampStock(product.Stock)
	s.products[i] = product
	return &product, nil
}

func (s *Store) SetStock(_ context.Context, id string, stock int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	s.products[i].Stock = store.ClampStock(stock)
	p := s.products[i]
	return &p, nil
}

func (s *Store) AdjustStock(_ context.Context, id string, delta int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	s.products[i].Stock = store.ClampStock(s.products[i].Stock + delta)
	p := s.products[i]
	return &p, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return store.ErrNotFound
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	return nil
}

func (s *Store) RecordSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale = sale.Clone()
	for _, item := range sale.Items {
		if i := s.indexOf(item.Product.ID); i >= 0 {
			s.products[i].Stock = store.ClampStock(s.products[i].Stock - item.Quantity)
		}
	}
	s.sales = append([]domain.Sale{sale}, s.sales...)

	out := sale.Clone()
	return &out, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, sale.Clone())
	}
	return out, nil
}

func (s *Store) CreateInvoice(_ context.Context, inv domain.Invoice) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.invoices {
		if existing.ID == inv.ID {
			return nil, fmt.Errorf("invoice %s: %w", inv.ID, store.ErrConflict)
		}
	}
	if inv.Number == "" {
		numbers := make([]string, 0, len(s.invoices))
		for _, existing := range s.invoices {
			numbers = append(numbers, existing.Number)
		}
		inv.Number = store.NextInvoiceNumber(numbers, inv.Date.Year())
	}

	inv = cloneInvoice(inv)
	s.invoices = append([]domain.Invoice{inv}, s.invoices...)
	out := cloneInvoice(inv)
	return &out, nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invoices {
		if inv.ID == id {
			out := cloneInvoice(inv)
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListInvoices(_ context.Context) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		out = append(out, cloneInvoice(inv))
	}
	return out, nil
}

func cloneInvoice(inv domain.Invoice) domain.Invoice {
	if inv.SalesItems != nil {
		inv.SalesItems = append([]domain.SalesLineItem(nil), inv.SalesItems...)
	}
	if inv.PawnItems != nil {
		inv.PawnItems = append([]domain.PawnLineItem(nil), inv.PawnItems...)
	}
	if inv.DueDate != nil {
		due := *inv.DueDate
		inv.DueDate = &due
	}
	return inv
}
