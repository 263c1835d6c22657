package cart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxepos/internal/domain"
)

var (
	ring     = domain.Product{ID: "1", Name: "Diamond Solitaire Ring", Price: decimal.RequireFromString("2499.99"), Stock: 5}
	necklace = domain.Product{ID: "2", Name: "Pearl Necklace", Price: decimal.RequireFromString("1299.99"), Stock: 8}
)

func TestAddMergesByProductID(t *testing.T) {
	c := New()
	c.Add(ring)
	c.Add(necklace)
	item := c.Add(ring)

	assert.Equal(t, 2, item.Quantity)
	require.Equal(t, 2, c.Len())
	items := c.Items()
	assert.Equal(t, "1", items[0].Product.ID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "2", items[1].Product.ID)
}

func TestAddIgnoresStock(t *testing.T) {
	c := New()
	soldOut := ring
	soldOut.Stock = 0
	c.Add(soldOut)
	c.Add(soldOut)
	assert.Equal(t, 2, c.Items()[0].Quantity)
}

func TestUpdateQuantityNonPositiveRemoves(t *testing.T) {
	for _, q := range []int{0, -3} {
		c := New()
		c.Add(ring)
		c.Add(necklace)

		assert.True(t, c.UpdateQuantity("1", q))
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, "2", c.Items()[0].Product.ID)
	}
}

func TestUpdateQuantityUnknownProduct(t *testing.T) {
	c := New()
	c.Add(ring)
	assert.False(t, c.UpdateQuantity("99", 4))
	assert.False(t, c.UpdateQuantity("99", 0))
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestRemoveReportsMissing(t *testing.T) {
	c := New()
	c.Add(ring)
	assert.False(t, c.Remove("2"))
	assert.True(t, c.Remove("1"))
	assert.Zero(t, c.Len())
}

func TestTotalAndView(t *testing.T) {
	c := New()
	c.Add(ring)
	c.Add(necklace)
	c.UpdateQuantity("2", 3)

	want := decimal.RequireFromString("6399.96")
	assert.True(t, want.Equal(c.Total()), c.Total().String())

	view := c.View()
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, 4, view.Units)
	assert.True(t, want.Equal(view.Total))
}

func TestItemsIsACopy(t *testing.T) {
	c := New()
	c.Add(ring)
	items := c.Items()
	items[0].Quantity = 42
	items[0].Product.Price = decimal.Zero

	assert.Equal(t, 1, c.Items()[0].Quantity)
	assert.True(t, ring.Price.Equal(c.Total()))
}

func TestSnapshot(t *testing.T) {
	c := New()
	_, err := c.Snapshot("sale-1", domain.PaymentCash, "", time.Now())
	assert.ErrorIs(t, err, ErrEmpty)

	c.Add(ring)
	_, err = c.Snapshot("sale-1", "cheque", "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	at := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)
	sale, err := c.Snapshot("sale-1", domain.PaymentCard, "  Sarah  ", at)
	require.NoError(t, err)
	assert.Equal(t, "sale-1", sale.ID)
	assert.Equal(t, "Sarah", sale.CustomerName)
	assert.Equal(t, at, sale.Date)
	assert.True(t, ring.Price.Equal(sale.Total))
	assert.Equal(t, 1, c.Len(), "snapshot must not clear the cart")

	c.Clear()
	assert.Len(t, sale.Items, 1)
}
