package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"luxepos/internal/catalog"
	"luxepos/internal/domain"
	"luxepos/internal/invoice"
	"luxepos/internal/store"
)

func (s *Service) ListInvoices(ctx context.Context, filter invoice.ListFilter) ([]domain.Invoice, error) {
	invoices, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}
	return invoice.Filter(invoices, filter), nil
}

func (s *Service) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Invoice{}, err
	}
	return *inv, nil
}

// PickProducts backs the invoice item picker.
func (s *Service) PickProducts(ctx context.Context, filter catalog.Filter) (domain.PickerResponse, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.PickerResponse{}, err
	}
	return catalog.Pick(products, filter), nil
}

func (s *Service) CreateDraft(ctx context.Context, invoiceType domain.InvoiceType) (domain.DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.drafts.Create(invoiceType)
	if err != nil {
		return domain.DraftView{}, err
	}
	s.logger(ctx).WithFields(logrus.Fields{"draft": d.ID, "type": d.Type, "open_drafts": s.drafts.Len()}).Debug("invoice draft opened")
	return d.View(), nil
}

func (s *Service) GetDraft(_ context.Context, id string) (domain.DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts.Get(id)
	if !ok {
		return domain.DraftView{}, store.ErrNotFound
	}
	return d.View(), nil
}

func (s *Service) DiscardDraft(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drafts.Discard(id) {
		return store.ErrNotFound
	}
	return nil
}

// UpdateDraftDetails sets the customer and document fields. An empty due
// date clears it.
func (s *Service) UpdateDraftDetails(_ context.Context, id string, req domain.DraftDetailsRequest) (domain.DraftView, error) {
	var due *time.Time
	if req.DueDate != nil && strings.TrimSpace(*req.DueDate) != "" {
		t, err := invoice.ParseDate(*req.DueDate)
		if err != nil {
			return domain.DraftView{}, err
		}
		due = &t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts.Get(id)
	if !ok {
		return domain.DraftView{}, store.ErrNotFound
	}
	if err := d.SetDetails(req, due); err != nil {
		return domain.DraftView{}, err
	}
	return d.View(), nil
}

// AddDraftItem appends a catalog-backed line to a sales draft or a blank
// line to a pawn draft.
func (s *Service) AddDraftItem(ctx context.Context, id string, req domain.DraftItemAddRequest) (domain.DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts.Get(id)
	if !ok {
		return domain.DraftView{}, store.ErrNotFound
	}

	if d.Type == domain.InvoicePawn {
		if err := d.AddPawnItem(); err != nil {
			return domain.DraftView{}, err
		}
		return d.View(), nil
	}

	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(req.ProductID))
	if err != nil {
		return domain.DraftView{}, err
	}
	if err := d.AddProduct(*product); err != nil {
		return domain.DraftView{}, err
	}
	return d.View(), nil
}

// UpdateDraftItem edits one line. A rejected update leaves the draft as it
// was.
func (s *Service) UpdateDraftItem(ctx context.Context, id string, index int, req domain.DraftItemUpdateRequest) (domain.DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts.Get(id)
	if !ok {
		return domain.DraftView{}, store.ErrNotFound
	}

	var product *domain.Product
	if req.ProductID != nil && d.Type == domain.InvoiceSales {
		p, err := s.repo.GetProduct(ctx, strings.TrimSpace(*req.ProductID))
		if err != nil {
			return domain.DraftView{}, err
		}
		product = p
	}
	if err := d.UpdateItem(index, product, req); err != nil {
		return domain.DraftView{}, err
	}
	return d.View(), nil
}

func (s *Service) RemoveDraftItem(_ context.Context, id string, index int) (domain.DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts.Get(id)
	if !ok {
		return domain.DraftView{}, store.ErrNotFound
	}
	if err := d.RemoveItem(index); err != nil {
		return domain.DraftView{}, err
	}
	return d.View(), nil
}

// SubmitDraft appends the finished invoice to the invoice ledger and
// closes the draft. Invoices do not enter the sale ledger or move stock.
func (s *Service) SubmitDraft(ctx context.Context, id string) (domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts.Get(id)
	if !ok {
		return domain.Invoice{}, store.ErrNotFound
	}

	inv, err := d.Submit(s.now(), func(inv domain.Invoice) (domain.Invoice, error) {
		stored, err := s.repo.CreateInvoice(ctx, inv)
		if err != nil {
			return domain.Invoice{}, err
		}
		return *stored, nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	s.drafts.Discard(id)

	s.logger(ctx).WithFields(logrus.Fields{
		"invoice": inv.Number,
		"type":    inv.Type,
		"total":   inv.Totals.Total.StringFixed(2),
	}).Info("invoice submitted")
	return inv, nil
}
