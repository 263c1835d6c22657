package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"luxepos/internal/catalog"
	"luxepos/internal/domain"
	"luxepos/internal/store"
	"luxepos/internal/xid"
)

func (s *Service) Cart(_ context.Context) domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.View()
}

// AddToCart snapshots the current catalog product into the cart.
func (s *Service) AddToCart(ctx context.Context, productID string) (domain.CartView, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.CartView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Add(*product)
	return s.cart.View(), nil
}

// UpdateCartQuantity removes the line when quantity is zero or below.
func (s *Service) UpdateCartQuantity(_ context.Context, productID string, quantity int) (domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cart.UpdateQuantity(strings.TrimSpace(productID), quantity) {
		return domain.CartView{}, store.ErrNotFound
	}
	return s.cart.View(), nil
}

func (s *Service) RemoveFromCart(_ context.Context, productID string) (domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cart.Remove(strings.TrimSpace(productID)) {
		return domain.CartView{}, store.ErrNotFound
	}
	return s.cart.View(), nil
}

func (s *Service) ClearCart(_ context.Context) domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	return s.cart.View()
}

// CompleteSale records the cart as a sale, decrements stock and clears
// the cart. The cart is left intact if recording fails.
func (s *Service) CompleteSale(ctx context.Context, req domain.CheckoutRequest) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, err := s.cart.Snapshot(xid.New("sale"), req.PaymentMethod, req.CustomerName, s.now())
	if err != nil {
		return domain.Sale{}, err
	}
	recorded, err := s.repo.RecordSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}
	s.cart.Clear()

	s.logger(ctx).WithFields(logrus.Fields{
		"sale":    recorded.ID,
		"items":   len(recorded.Items),
		"total":   recorded.Total.StringFixed(2),
		"payment": recorded.PaymentMethod,
	}).Info("sale completed")
	return *recorded, nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

type saleCSVRow struct {
	SaleID        string `csv:"sale_id"`
	Date          string `csv:"date"`
	PaymentMethod string `csv:"payment_method"`
	CustomerName  string `csv:"customer_name"`
	ProductID     string `csv:"product_id"`
	ProductName   string `csv:"product_name"`
	Quantity      int    `csv:"quantity"`
	UnitPrice     string `csv:"unit_price"`
	LineTotal     string `csv:"line_total"`
	SaleTotal     string `csv:"sale_total"`
}

// ExportSalesCSV writes one row per sold line, newest sale first.
func (s *Service) ExportSalesCSV(ctx context.Context, w io.Writer) error {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return err
	}

	rows := make([]saleCSVRow, 0, len(sales))
	for _, sale := range sales {
		for _, item := range sale.Items {
			rows = append(rows, saleCSVRow{
				SaleID:        sale.ID,
				Date:          sale.Date.UTC().Format(time.RFC3339),
				PaymentMethod: string(sale.PaymentMethod),
				CustomerName:  sale.CustomerName,
				ProductID:     item.Product.ID,
				ProductName:   item.Product.Name,
				Quantity:      item.Quantity,
				UnitPrice:     item.Product.Price.StringFixed(2),
				LineTotal:     item.LineTotal().StringFixed(2),
				SaleTotal:     sale.Total.StringFixed(2),
			})
		}
	}
	return gocsv.Marshal(&rows, w)
}

// Dashboard aggregates the invoice ledger, the sale ledger and the
// catalog. Monthly buckets cover the given year; year <= 0 means the
// current one.
func (s *Service) Dashboard(ctx context.Context, year int) (domain.Dashboard, error) {
	if year <= 0 {
		year = s.now().Year()
	}

	invoices, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}

	d := domain.Dashboard{
		PawnTotalAmount:    decimal.Zero,
		SalesInvoiceAmount: decimal.Zero,
		LedgerRevenue:      decimal.Zero,
		Monthly:            make([]domain.MonthlyTotals, 12),
	}
	for i := range d.Monthly {
		d.Monthly[i] = domain.MonthlyTotals{
			Month: time.Month(i + 1).String()[:3],
			Pawn:  decimal.Zero,
			Sales: decimal.Zero,
		}
	}

	for _, inv := range invoices {
		inYear := inv.Date.UTC().Year() == year
		month := int(inv.Date.UTC().Month()) - 1
		switch inv.Type {
		case domain.InvoicePawn:
			d.PawnCount++
			d.PawnTotalAmount = d.PawnTotalAmount.Add(inv.Totals.Total)
			if inYear {
				d.Monthly[month].Pawn = d.Monthly[month].Pawn.Add(inv.Totals.Total)
			}
		case domain.InvoiceSales:
			d.SalesInvoiceCount++
			d.SalesInvoiceAmount = d.SalesInvoiceAmount.Add(inv.Totals.Total)
			if inYear {
				d.Monthly[month].Sales = d.Monthly[month].Sales.Add(inv.Totals.Total)
			}
		}
	}

	for _, sale := range sales {
		d.LedgerSaleCount++
		d.LedgerRevenue = d.LedgerRevenue.Add(sale.Total)
		if sale.Date.UTC().Year() == year {
			month := int(sale.Date.UTC().Month()) - 1
			d.Monthly[month].Sales = d.Monthly[month].Sales.Add(sale.Total)
		}
	}

	summary := catalog.Summarize(products)
	d.InventoryCount = summary.TotalProducts
	d.InventoryValue = summary.TotalValue
	return d, nil
}
