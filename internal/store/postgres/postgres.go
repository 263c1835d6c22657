package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"luxepos/internal/domain"
	"luxepos/internal/store"
	"luxepos/internal/store/seed"
)

type Store struct {
	db *sqlx.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type productRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Category    string          `db:"category"`
	Price       decimal.Decimal `db:"price"`
	Description string          `db:"description"`
	Material    string          `db:"material"`
	Stock       int             `db:"stock"`
	Image       string          `db:"image"`
}

func (r productRow) product() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Category:    domain.Category(r.Category),
		Price:       r.Price,
		Description: r.Description,
		Material:    r.Material,
		Stock:       r.Stock,
		Image:       r.Image,
	}
}

const productColumns = `id, name, category, price, description, material, stock, image`

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+productColumns+` FROM products ORDER BY position`); err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	products := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, r.product())
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %s", id)
	}
	p := row.product()
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.Stock = store.ClampStock(product.Stock)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, price, description, material, stock, image, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
	`, product.ID, product.Name, string(product.Category), product.Price, product.Description, product.Material, product.Stock, product.Image)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("product %s: %w", product.ID, store.ErrConflict)
		}
		return nil, errors.Wrap(err, "insert product")
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.Stock = store.ClampStock(product.Stock)
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, price = $4, description = $5, material = $6, stock = $7, image = $8, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, string(product.Category), product.Price, product.Description, product.Material, product.Stock, product.Image)
	if err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) SetStock(ctx context.Context, id string, stock int) (*domain.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE products SET stock = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns, id, store.ClampStock(stock))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrap(err, "set stock")
	}
	p := row.product()
	return &p, nil
}

func (s *Store) AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE products SET stock = GREATEST(stock + $2, 0), updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns, id, delta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrap(err, "adjust stock")
	}
	p := row.product()
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	return requireRow(res)
}

type saleRow struct {
	ID            string          `db:"id"`
	SoldAt        time.Time       `db:"sold_at"`
	Total         decimal.Decimal `db:"total"`
	PaymentMethod string          `db:"payment_method"`
	CustomerName  string          `db:"customer_name"`
	Items         []byte          `db:"items"`
}

func (s *Store) RecordSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	sale = sale.Clone()
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return nil, errors.Wrap(err, "encode sale items")
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, errors.Wrap(err, "begin sale")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, sold_at, total, payment_method, customer_name, items)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, sale.ID, sale.Date, sale.Total, string(sale.PaymentMethod), sale.CustomerName, items)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("sale %s: %w", sale.ID, store.ErrConflict)
		}
		return nil, errors.Wrap(err, "insert sale")
	}

	// Products deleted since they were added to the cart match no row.
	for _, item := range sale.Items {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = GREATEST(stock - $2, 0), updated_at = now()
			WHERE id = $1
		`, item.Product.ID, item.Quantity); err != nil {
			return nil, errors.Wrapf(err, "decrement stock for %s", item.Product.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit sale")
	}
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	var rows []saleRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, sold_at, total, payment_method, customer_name, items
		FROM sales
		ORDER BY seq DESC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "list sales")
	}
	sales := make([]domain.Sale, 0, len(rows))
	for _, r := range rows {
		sale := domain.Sale{
			ID:            r.ID,
			Date:          r.SoldAt.UTC(),
			Total:         r.Total,
			PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
			CustomerName:  r.CustomerName,
		}
		if err := json.Unmarshal(r.Items, &sale.Items); err != nil {
			return nil, errors.Wrapf(err, "decode items of sale %s", r.ID)
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

type invoiceRow struct {
	ID            string     `db:"id"`
	Number        string     `db:"number"`
	IssuedAt      time.Time  `db:"issued_at"`
	Type          string     `db:"type"`
	Status        string     `db:"status"`
	Customer      []byte     `db:"customer"`
	PaymentMethod string     `db:"payment_method"`
	Notes         string     `db:"notes"`
	DueDate       *time.Time `db:"due_date"`
	SalesItems    []byte     `db:"sales_items"`
	PawnItems     []byte     `db:"pawn_items"`
	Totals        []byte     `db:"totals"`
}

const invoiceColumns = `id, number, issued_at, type, status, customer, payment_method, notes, due_date, sales_items, pawn_items, totals`

func (r invoiceRow) invoice() (domain.Invoice, error) {
	inv := domain.Invoice{
		ID:            r.ID,
		Number:        r.Number,
		Date:          r.IssuedAt.UTC(),
		Type:          domain.InvoiceType(r.Type),
		Status:        domain.InvoiceStatus(r.Status),
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
	}
	if r.DueDate != nil {
		due := r.DueDate.UTC()
		inv.DueDate = &due
	}
	for _, part := range []struct {
		raw []byte
		dst any
	}{
		{r.Customer, &inv.Customer},
		{r.SalesItems, &inv.SalesItems},
		{r.PawnItems, &inv.PawnItems},
		{r.Totals, &inv.Totals},
	} {
		if err := json.Unmarshal(part.raw, part.dst); err != nil {
			return domain.Invoice{}, errors.Wrapf(err, "decode invoice %s", r.ID)
		}
	}
	if len(inv.SalesItems) == 0 {
		inv.SalesItems = nil
	}
	if len(inv.PawnItems) == 0 {
		inv.PawnItems = nil
	}
	return inv, nil
}

func (s *Store) CreateInvoice(ctx context.Context, inv domain.Invoice) (*domain.Invoice, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, errors.Wrap(err, "begin invoice")
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertInvoice(ctx, tx, &inv); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit invoice")
	}
	return &inv, nil
}

// insertInvoice numbers the invoice under a transaction-scoped advisory
// lock so concurrent submissions never share a number.
func insertInvoice(ctx context.Context, tx *sqlx.Tx, inv *domain.Invoice) error {
	if inv.Number == "" {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('invoice_number'))`); err != nil {
			return errors.Wrap(err, "lock invoice numbering")
		}
		year := inv.Date.Year()
		var numbers []string
		if err := tx.SelectContext(ctx, &numbers, `SELECT number FROM invoices WHERE number LIKE $1`, fmt.Sprintf("INV-%d-%%", year)); err != nil {
			return errors.Wrap(err, "read invoice numbers")
		}
		inv.Number = store.NextInvoiceNumber(numbers, year)
	}

	customer, err := json.Marshal(inv.Customer)
	if err != nil {
		return errors.Wrap(err, "encode customer")
	}
	salesItems, err := json.Marshal(nonNil(inv.SalesItems))
	if err != nil {
		return errors.Wrap(err, "encode sales items")
	}
	pawnItems, err := json.Marshal(nonNil(inv.PawnItems))
	if err != nil {
		return errors.Wrap(err, "encode pawn items")
	}
	totals, err := json.Marshal(inv.Totals)
	if err != nil {
		return errors.Wrap(err, "encode totals")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, inv.ID, inv.Number, inv.Date, string(inv.Type), string(inv.Status), customer, inv.PaymentMethod, inv.Notes, inv.DueDate, salesItems, pawnItems, totals)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice %s: %w", inv.ID, store.ErrConflict)
		}
		return errors.Wrap(err, "insert invoice")
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	var row invoiceRow
	err := s.db.GetContext(ctx, &row, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get invoice %s", id)
	}
	inv, err := row.invoice()
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Store) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	var rows []invoiceRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+invoiceColumns+` FROM invoices ORDER BY seq DESC`); err != nil {
		return nil, errors.Wrap(err, "list invoices")
	}
	invoices := make([]domain.Invoice, 0, len(rows))
	for _, r := range rows {
		inv, err := r.invoice()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// SeedIfEmpty loads the demo catalog and invoice history into an empty
// database. It reports whether anything was written.
func (s *Store) SeedIfEmpty(ctx context.Context) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return false, errors.Wrap(err, "begin seed")
	}
	defer func() { _ = tx.Rollback() }()

	var counts struct {
		Products int `db:"products"`
		Invoices int `db:"invoices"`
	}
	err = tx.GetContext(ctx, &counts, `
		SELECT (SELECT count(*) FROM products) AS products,
		       (SELECT count(*) FROM invoices) AS invoices
	`)
	if err != nil {
		return false, errors.Wrap(err, "count seeded rows")
	}
	if counts.Products > 0 {
		return false, nil
	}

	for _, p := range seed.Products() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, category, price, description, material, stock, image)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, p.ID, p.Name, string(p.Category), p.Price, p.Description, p.Material, p.Stock, p.Image)
		if err != nil {
			return false, errors.Wrapf(err, "seed product %s", p.ID)
		}
	}

	if counts.Invoices == 0 {
		// Oldest first so the sequence order matches the ledger order.
		invoices := seed.Invoices()
		for i := len(invoices) - 1; i >= 0; i-- {
			inv := invoices[i]
			if err := insertInvoice(ctx, tx, &inv); err != nil {
				return false, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "commit seed")
	}
	return true, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
