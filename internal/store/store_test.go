package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextInvoiceNumber(t *testing.T) {
	existing := []string{"INV-2026-001", "INV-2026-005", "INV-2025-042", "draft"}
	assert.Equal(t, "INV-2026-006", NextInvoiceNumber(existing, 2026))
	assert.Equal(t, "INV-2025-043", NextInvoiceNumber(existing, 2025))
	assert.Equal(t, "INV-2027-001", NextInvoiceNumber(existing, 2027))
	assert.Equal(t, "INV-2026-1000", NextInvoiceNumber([]string{"INV-2026-999"}, 2026))
}

func TestClampStock(t *testing.T) {
	assert.Equal(t, 0, ClampStock(-3))
	assert.Equal(t, 4, ClampStock(4))
}
