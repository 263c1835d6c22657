package invoice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"luxepos/internal/domain"
)

var (
	ErrValidation = errors.New("invoice validation failed")
	ErrSubmitted  = errors.New("invoice draft already submitted")
	ErrWrongType  = errors.New("operation does not apply to this invoice type")
	ErrItemIndex  = errors.New("invoice line index out of range")
)

type State string

const (
	StateEmpty     State = "empty"
	StateEditing   State = "editing"
	StateValidated State = "validated"
	StateSubmitted State = "submitted"
)

// Draft is one invoice under construction. Its type is fixed at creation
// and decides which of the two line lists is in use.
type Draft struct {
	ID            string
	Type          domain.InvoiceType
	Customer      domain.Customer
	Status        domain.InvoiceStatus
	PaymentMethod string
	Notes         string
	DueDate       *time.Time

	sales     []domain.SalesLineItem
	pawn      []domain.PawnLineItem
	validated bool
	submitted bool
}

func NewDraft(invoiceType domain.InvoiceType) (*Draft, error) {
	if !invoiceType.Valid() {
		return nil, fmt.Errorf("%w: type must be sales or pawn", ErrValidation)
	}
	return &Draft{
		ID:     uuid.NewString(),
		Type:   invoiceType,
		Status: domain.InvoicePending,
		sales:  []domain.SalesLineItem{},
		pawn:   []domain.PawnLineItem{},
	}, nil
}

func (d *Draft) State() State {
	switch {
	case d.submitted:
		return StateSubmitted
	case d.itemCount() == 0:
		return StateEmpty
	case d.validated:
		return StateValidated
	default:
		return StateEditing
	}
}

func (d *Draft) itemCount() int {
	if d.Type == domain.InvoicePawn {
		return len(d.pawn)
	}
	return len(d.sales)
}

// edit guards every mutation: submitted drafts are frozen and any change
// drops a previous validation.
func (d *Draft) edit() error {
	if d.submitted {
		return ErrSubmitted
	}
	d.validated = false
	return nil
}

func (d *Draft) salesIndex(index int) error {
	if d.Type != domain.InvoiceSales {
		return ErrWrongType
	}
	if index < 0 || index >= len(d.sales) {
		return fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	return nil
}

func (d *Draft) pawnIndex(index int) error {
	if d.Type != domain.InvoicePawn {
		return ErrWrongType
	}
	if index < 0 || index >= len(d.pawn) {
		return fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	return nil
}

func (d *Draft) SetDetails(req domain.DraftDetailsRequest, dueDate *time.Time) error {
	if err := d.edit(); err != nil {
		return err
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return fmt.Errorf("%w: status must be paid, pending or overdue", ErrValidation)
		}
		d.Status = *req.Status
	}
	if req.CustomerName != nil {
		d.Customer.Name = strings.TrimSpace(*req.CustomerName)
	}
	if req.CustomerEmail != nil {
		d.Customer.Email = strings.TrimSpace(*req.CustomerEmail)
	}
	if req.CustomerPhone != nil {
		d.Customer.Phone = strings.TrimSpace(*req.CustomerPhone)
	}
	if req.CustomerAddress != nil {
		d.Customer.Address = strings.TrimSpace(*req.CustomerAddress)
	}
	if req.PaymentMethod != nil {
		d.PaymentMethod = strings.TrimSpace(*req.PaymentMethod)
	}
	if req.Notes != nil {
		d.Notes = *req.Notes
	}
	if req.DueDate != nil {
		d.DueDate = dueDate
	}
	return nil
}

// AddProduct appends a sales line priced from the catalog.
func (d *Draft) AddProduct(product domain.Product) error {
	if err := d.edit(); err != nil {
		return err
	}
	if d.Type != domain.InvoiceSales {
		return ErrWrongType
	}
	d.sales = append(d.sales, SalesLine(domain.SalesLineItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Category:    product.Category,
		Quantity:    1,
		ReturnType:  domain.ReturnPercentage,
		Price:       product.Price,
		Discount:    decimal.Zero,
	}))
	return nil
}

// AddPawnItem appends a blank pawn line to be named and priced later.
func (d *Draft) AddPawnItem() error {
	if err := d.edit(); err != nil {
		return err
	}
	if d.Type != domain.InvoicePawn {
		return ErrWrongType
	}
	d.pawn = append(d.pawn, domain.PawnLineItem{Quantity: 1, Price: decimal.Zero, LineTotal: decimal.Zero})
	return nil
}

func (d *Draft) RemoveItem(index int) error {
	if err := d.edit(); err != nil {
		return err
	}
	if d.Type == domain.InvoicePawn {
		if err := d.pawnIndex(index); err != nil {
			return err
		}
		d.pawn = append(d.pawn[:index], d.pawn[index+1:]...)
		return nil
	}
	if err := d.salesIndex(index); err != nil {
		return err
	}
	d.sales = append(d.sales[:index], d.sales[index+1:]...)
	return nil
}

// UpdateItem applies every field set on req to one line. A non-nil
// product replaces the line's product and reprices it. The update is
// checked as a whole first; on any error the draft is left unchanged.
// Quantity is clamped to at least 1, price and discount to at least 0.
func (d *Draft) UpdateItem(index int, product *domain.Product, req domain.DraftItemUpdateRequest) error {
	if d.submitted {
		return ErrSubmitted
	}
	if d.Type == domain.InvoicePawn {
		return d.updatePawnItem(index, product, req)
	}
	return d.updateSalesItem(index, product, req)
}

func (d *Draft) updateSalesItem(index int, product *domain.Product, req domain.DraftItemUpdateRequest) error {
	if err := d.salesIndex(index); err != nil {
		return err
	}
	if req.Name != nil {
		return fmt.Errorf("%w: sales lines are named by their product", ErrWrongType)
	}
	if req.ReturnType != nil && !req.ReturnType.Valid() {
		return fmt.Errorf("%w: return type must be making-charges or percentage", ErrValidation)
	}

	line := d.sales[index]
	if product != nil {
		line.ProductID = product.ID
		line.ProductName = product.Name
		line.Category = product.Category
		line.Price = product.Price
	}
	if req.Quantity != nil {
		line.Quantity = max(1, *req.Quantity)
	}
	if req.Price != nil {
		line.Price = decimal.Max(decimal.Zero, *req.Price)
	}
	if req.Discount != nil {
		line.Discount = decimal.Max(decimal.Zero, *req.Discount)
	}
	if req.ReturnType != nil {
		line.ReturnType = *req.ReturnType
	}

	d.validated = false
	d.sales[index] = SalesLine(line)
	return nil
}

func (d *Draft) updatePawnItem(index int, product *domain.Product, req domain.DraftItemUpdateRequest) error {
	if err := d.pawnIndex(index); err != nil {
		return err
	}
	if product != nil || req.ProductID != nil || req.Discount != nil || req.ReturnType != nil {
		return fmt.Errorf("%w: pawn lines take only name, quantity and price", ErrWrongType)
	}

	line := d.pawn[index]
	if req.Name != nil {
		line.Name = *req.Name
	}
	if req.Quantity != nil {
		line.Quantity = max(1, *req.Quantity)
	}
	if req.Price != nil {
		line.Price = decimal.Max(decimal.Zero, *req.Price)
	}

	d.validated = false
	d.pawn[index] = PawnLine(line)
	return nil
}

func (d *Draft) Totals() domain.InvoiceTotals {
	return ComputeTotals(d.sales, d.pawn)
}

// Validate checks the submission preconditions. On failure the draft
// stays where it was.
func (d *Draft) Validate() error {
	if d.submitted {
		return ErrSubmitted
	}
	var problems []string
	if d.Customer.Name == "" {
		problems = append(problems, "customer name is required")
	}
	if d.itemCount() == 0 {
		problems = append(problems, "at least one line item is required")
	}
	if len(problems) > 0 {
		d.validated = false
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	d.validated = true
	return nil
}

// Submit validates the draft and hands the finished invoice to commit,
// which typically stores it and assigns its number. The draft is frozen
// only once commit succeeds. A nil commit accepts the invoice as built.
func (d *Draft) Submit(at time.Time, commit func(domain.Invoice) (domain.Invoice, error)) (domain.Invoice, error) {
	if err := d.Validate(); err != nil {
		return domain.Invoice{}, err
	}

	inv := domain.Invoice{
		ID:            d.ID,
		Date:          at.UTC(),
		Type:          d.Type,
		Status:        d.Status,
		Customer:      d.Customer,
		PaymentMethod: d.PaymentMethod,
		Notes:         d.Notes,
		DueDate:       d.DueDate,
		Totals:        d.Totals(),
	}
	if d.Type == domain.InvoicePawn {
		inv.PawnItems = append([]domain.PawnLineItem(nil), d.pawn...)
	} else {
		inv.SalesItems = append([]domain.SalesLineItem(nil), d.sales...)
	}

	if commit != nil {
		stored, err := commit(inv)
		if err != nil {
			return domain.Invoice{}, err
		}
		inv = stored
	}
	d.submitted = true
	return inv, nil
}

func (d *Draft) View() domain.DraftView {
	return domain.DraftView{
		ID:            d.ID,
		Type:          d.Type,
		State:         string(d.State()),
		Customer:      d.Customer,
		Status:        d.Status,
		PaymentMethod: d.PaymentMethod,
		Notes:         d.Notes,
		DueDate:       d.DueDate,
		SalesItems:    append([]domain.SalesLineItem{}, d.sales...),
		PawnItems:     append([]domain.PawnLineItem{}, d.pawn...),
		Totals:        d.Totals(),
	}
}
