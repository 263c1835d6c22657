package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryRings     Category = "rings"
	CategoryNecklaces Category = "necklaces"
	CategoryBracelets Category = "bracelets"
	CategoryEarrings  Category = "earrings"
	CategoryWatches   Category = "watches"
)

var Categories = []Category{
	CategoryRings,
	CategoryNecklaces,
	CategoryBracelets,
	CategoryEarrings,
	CategoryWatches,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Material    string          `json:"material"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
}

func SplitMaterials(material string) []string {
	parts := strings.Split(material, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

func JoinMaterials(tags []string) string {
	kept := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, ", ")
}

type ProductRequest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Material    string          `json:"material"`
	Materials   []string        `json:"materials,omitempty"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
}

type StockUpdateRequest struct {
	Stock int `json:"stock"`
}

type StockAdjustRequest struct {
	Delta int `json:"delta"`
}

type InventorySummary struct {
	TotalProducts   int             `json:"total_products"`
	TotalValue      decimal.Decimal `json:"total_value"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
}

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CloneCartItems returns a value copy so later catalog or cart mutation
// cannot reach into the copy.
func CloneCartItems(items []CartItem) []CartItem {
	if items == nil {
		return []CartItem{}
	}
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}

type CartAddRequest struct {
	ProductID string `json:"product_id"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartView struct {
	Items     []CartItem      `json:"items"`
	ItemCount int             `json:"item_count"`
	Units     int             `json:"units"`
	Total     decimal.Decimal `json:"total"`
}

type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentDigital PaymentMethod = "digital"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentDigital:
		return true
	}
	return false
}

type Sale struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	Items         []CartItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CustomerName  string          `json:"customer_name,omitempty"`
}

func (s Sale) Clone() Sale {
	s.Items = CloneCartItems(s.Items)
	return s
}

type CheckoutRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method"`
	CustomerName  string        `json:"customer_name,omitempty"`
}

type InvoiceType string

const (
	InvoiceSales InvoiceType = "sales"
	InvoicePawn  InvoiceType = "pawn"
)

func (t InvoiceType) Valid() bool {
	return t == InvoiceSales || t == InvoicePawn
}

type InvoiceStatus string

const (
	InvoicePaid    InvoiceStatus = "paid"
	InvoicePending InvoiceStatus = "pending"
	InvoiceOverdue InvoiceStatus = "overdue"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoicePaid, InvoicePending, InvoiceOverdue:
		return true
	}
	return false
}

// ReturnType is a business classification shown on the invoice; it does
// not take part in the line arithmetic.
type ReturnType string

const (
	ReturnMakingCharges ReturnType = "making-charges"
	ReturnPercentage    ReturnType = "percentage"
)

func (r ReturnType) Valid() bool {
	return r == ReturnMakingCharges || r == ReturnPercentage
}

type SalesLineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Category    Category        `json:"category,omitempty"`
	Quantity    int             `json:"quantity"`
	ReturnType  ReturnType      `json:"return_type"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type PawnLineItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type InvoiceTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
}

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type Invoice struct {
	ID            string          `json:"id"`
	Number        string          `json:"number"`
	Date          time.Time       `json:"date"`
	Type          InvoiceType     `json:"type"`
	Status        InvoiceStatus   `json:"status"`
	Customer      Customer        `json:"customer"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	SalesItems    []SalesLineItem `json:"sales_items,omitempty"`
	PawnItems     []PawnLineItem  `json:"pawn_items,omitempty"`
	Totals        InvoiceTotals   `json:"totals"`
}

type DraftCreateRequest struct {
	Type InvoiceType `json:"type"`
}

type DraftDetailsRequest struct {
	CustomerName    *string        `json:"customer_name,omitempty"`
	CustomerEmail   *string        `json:"customer_email,omitempty"`
	CustomerPhone   *string        `json:"customer_phone,omitempty"`
	CustomerAddress *string        `json:"customer_address,omitempty"`
	Status          *InvoiceStatus `json:"status,omitempty"`
	PaymentMethod   *string        `json:"payment_method,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
	DueDate         *string        `json:"due_date,omitempty"`
}

type DraftItemAddRequest struct {
	ProductID string `json:"product_id,omitempty"`
}

type DraftItemUpdateRequest struct {
	ProductID  *string          `json:"product_id,omitempty"`
	Name       *string          `json:"name,omitempty"`
	Quantity   *int             `json:"quantity,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Discount   *decimal.Decimal `json:"discount,omitempty"`
	ReturnType *ReturnType      `json:"return_type,omitempty"`
}

type DraftView struct {
	ID            string          `json:"id"`
	Type          InvoiceType     `json:"type"`
	State         string          `json:"state"`
	Customer      Customer        `json:"customer"`
	Status        InvoiceStatus   `json:"status"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	SalesItems    []SalesLineItem `json:"sales_items"`
	PawnItems     []PawnLineItem  `json:"pawn_items"`
	Totals        InvoiceTotals   `json:"totals"`
}

type PickerResponse struct {
	Active   bool      `json:"active"`
	Products []Product `json:"products"`
}

type MonthlyTotals struct {
	Month string          `json:"month"`
	Pawn  decimal.Decimal `json:"pawn"`
	Sales decimal.Decimal `json:"sales"`
}

type Dashboard struct {
	PawnCount          int             `json:"pawn_count"`
	PawnTotalAmount    decimal.Decimal `json:"pawn_total_amount"`
	SalesInvoiceCount  int             `json:"sales_invoice_count"`
	SalesInvoiceAmount decimal.Decimal `json:"sales_invoice_amount"`
	LedgerSaleCount    int             `json:"ledger_sale_count"`
	LedgerRevenue      decimal.Decimal `json:"ledger_revenue"`
	InventoryCount     int             `json:"inventory_count"`
	InventoryValue     decimal.Decimal `json:"inventory_value"`
	Monthly            []MonthlyTotals `json:"monthly"`
}

type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
	ExpiresAt   string `json:"expires_at"`
}

type SessionResponse struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

type PricePoint struct {
	Time   string          `json:"time"`
	Value  decimal.Decimal `json:"value"`
	Change decimal.Decimal `json:"change"`
}

type MarketSeries struct {
	Label  string       `json:"label"`
	Unit   string       `json:"unit"`
	Points []PricePoint `json:"points"`
}

type MarketSnapshot struct {
	Gold         MarketSeries `json:"gold"`
	ExchangeRate MarketSeries `json:"exchange_rate"`
	FetchedAt    time.Time    `json:"fetched_at"`
}

type MarketSummary struct {
	Label            string          `json:"label"`
	Unit             string          `json:"unit"`
	Current          decimal.Decimal `json:"current"`
	DayStart         decimal.Decimal `json:"day_start"`
	DayChange        decimal.Decimal `json:"day_change"`
	DayChangePercent decimal.Decimal `json:"day_change_percent"`
	Points           []PricePoint    `json:"points"`
}

type NewsResponse struct {
	Gold         MarketSummary `json:"gold"`
	ExchangeRate MarketSummary `json:"exchange_rate"`
	UpdatedAt    string        `json:"updated_at"`
}
