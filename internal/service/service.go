package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"luxepos/internal/cart"
	"luxepos/internal/catalog"
	"luxepos/internal/domain"
	"luxepos/internal/invoice"
	"luxepos/internal/market"
	"luxepos/internal/store"
)

type userContextKey struct{}

func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

func UserFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(domain.User)
	return user, ok
}

// Service is the application state. Every catalog, cart, ledger and
// invoice mutation goes through it.
type Service struct {
	repo store.Repository
	feed market.PriceFeed
	log  logrus.FieldLogger
	now  func() time.Time

	// mu serializes the cart and the open invoice drafts.
	mu     sync.Mutex
	cart   *cart.Cart
	drafts *invoice.Registry
}

func New(repo store.Repository, feed market.PriceFeed, log logrus.FieldLogger) *Service {
	if repo == nil {
		panic("service: nil repository")
	}
	if feed == nil {
		panic("service: nil price feed")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		repo:   repo,
		feed:   feed,
		log:    log.WithField("component", "service"),
		now:    time.Now,
		cart:   cart.New(),
		drafts: invoice.NewRegistry(),
	}
}

func (s *Service) logger(ctx context.Context) logrus.FieldLogger {
	if user, ok := UserFromContext(ctx); ok {
		return s.log.WithField("user", user.Email)
	}
	return s.log
}

func (s *Service) ListProducts(ctx context.Context, filter catalog.Filter) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Apply(products, filter), nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductRequest) (domain.Product, error) {
	product, err := productFromRequest(req)
	if err != nil {
		return domain.Product{}, err
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logger(ctx).WithField("product", created.ID).Info("product created")
	return *created, nil
}

// UpdateProduct replaces the product stored under id.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductRequest) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if body := strings.TrimSpace(req.ID); body != "" && body != id {
		return domain.Product{}, fmt.Errorf("%w: id in body does not match path", store.ErrInvalidProduct)
	}
	req.ID = id
	product, err := productFromRequest(req)
	if err != nil {
		return domain.Product{}, err
	}
	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	return *updated, nil
}

// SetStock stores max(0, stock).
func (s *Service) SetStock(ctx context.Context, id string, stock int) (domain.Product, error) {
	p, err := s.repo.SetStock(ctx, strings.TrimSpace(id), stock)
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}

func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (domain.Product, error) {
	p, err := s.repo.AdjustStock(ctx, strings.TrimSpace(id), delta)
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}

// DeleteProduct removes the product from the catalog. Sales and cart
// lines keep their own snapshot of it.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger(ctx).WithField("product", id).Info("product deleted")
	return nil
}

func (s *Service) InventorySummary(ctx context.Context) (domain.InventorySummary, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.InventorySummary{}, err
	}
	return catalog.Summarize(products), nil
}

func (s *Service) News(ctx context.Context) (domain.NewsResponse, error) {
	snap, err := s.feed.Current(ctx)
	if err != nil {
		return domain.NewsResponse{}, err
	}
	return market.News(snap)
}

func productFromRequest(req domain.ProductRequest) (domain.Product, error) {
	p := domain.Product{
		ID:          strings.TrimSpace(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Category:    domain.Category(strings.ToLower(strings.TrimSpace(string(req.Category)))),
		Price:       req.Price,
		Description: strings.TrimSpace(req.Description),
		Material:    domain.JoinMaterials(domain.SplitMaterials(req.Material)),
		Stock:       req.Stock,
		Image:       strings.TrimSpace(req.Image),
	}
	if len(req.Materials) > 0 {
		p.Material = domain.JoinMaterials(req.Materials)
	}

	switch {
	case p.ID == "":
		return domain.Product{}, fmt.Errorf("%w: id is required", store.ErrInvalidProduct)
	case p.Name == "":
		return domain.Product{}, fmt.Errorf("%w: name is required", store.ErrInvalidProduct)
	case !p.Category.Valid():
		return domain.Product{}, fmt.Errorf("%w: unknown category %q", store.ErrInvalidProduct, p.Category)
	case p.Price.LessThan(decimal.Zero):
		return domain.Product{}, fmt.Errorf("%w: price must not be negative", store.ErrInvalidProduct)
	case !p.Price.Equal(p.Price.Round(2)):
		return domain.Product{}, fmt.Errorf("%w: price must have at most 2 decimal places", store.ErrInvalidProduct)
	case p.Stock < 0:
		return domain.Product{}, fmt.Errorf("%w: stock must not be negative", store.ErrInvalidProduct)
	}
	return p, nil
}
