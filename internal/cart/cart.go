package cart

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"luxepos/internal/domain"
)

var (
	ErrEmpty                = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("payment method must be cash, card or digital")
)

// Cart is the in-progress transaction: at most one line per product id,
// kept in the order products were first added. It does no locking; the
// owner serializes access.
type Cart struct {
	items []domain.CartItem
}

func New() *Cart {
	return &Cart{items: make([]domain.CartItem, 0, 8)}
}

// Add merges into an existing line or appends a new one with quantity 1.
// Stock is not checked.
func (c *Cart) Add(product domain.Product) domain.CartItem {
	for i := range c.items {
		if c.items[i].Product.ID == product.ID {
			c.items[i].Quantity++
			return c.items[i]
		}
	}
	item := domain.CartItem{Product: product, Quantity: 1}
	c.items = append(c.items, item)
	return item
}

// Remove reports whether a line was removed.
func (c *Cart) Remove(productID string) bool {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateQuantity sets the quantity of a line; zero or below removes it.
// It reports whether the product was in the cart.
func (c *Cart) UpdateQuantity(productID string, quantity int) bool {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items[i].Quantity = quantity
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.items = c.items[:0]
}

func (c *Cart) Len() int {
	return len(c.items)
}

// Total is the plain sum of price × quantity. Tax belongs to invoices.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c *Cart) Items() []domain.CartItem {
	return domain.CloneCartItems(c.items)
}

func (c *Cart) View() domain.CartView {
	units := 0
	for _, item := range c.items {
		units += item.Quantity
	}
	return domain.CartView{
		Items:     c.Items(),
		ItemCount: c.Len(),
		Units:     units,
		Total:     c.Total(),
	}
}

// Snapshot builds the sale record for the current contents without
// mutating the cart.
func (c *Cart) Snapshot(id string, method domain.PaymentMethod, customerName string, at time.Time) (domain.Sale, error) {
	if !method.Valid() {
		return domain.Sale{}, ErrInvalidPaymentMethod
	}
	if len(c.items) == 0 {
		return domain.Sale{}, ErrEmpty
	}
	return domain.Sale{
		ID:            id,
		Date:          at.UTC(),
		Items:         c.Items(),
		Total:         c.Total(),
		PaymentMethod: method,
		CustomerName:  strings.TrimSpace(customerName),
	}, nil
}
