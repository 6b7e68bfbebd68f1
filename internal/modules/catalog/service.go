package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-backend/internal/money"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, req ProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	// SearchProducts runs the shop query over the full catalog.
	SearchProducts(ctx context.Context, params QueryParameters) ([]Product, error)
	Facets(ctx context.Context) (*Facets, error)
	UpdateProduct(ctx context.Context, id string, req ProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UpdateStock(ctx context.Context, id string, stock int) error
	// LookupProducts returns the existing products among ids keyed by id.
	LookupProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error)
	CountProducts(ctx context.Context) (int, error)
}

// ProductRequest holds the data for creating or replacing a product.
type ProductRequest struct {
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Description   string       `json:"description"`
	Price         money.Cents  `json:"price"`
	DiscountPrice *money.Cents `json:"discount_price"`
	Stock         int          `json:"stock"`
	Category      string       `json:"category"`
	Brand         string       `json:"brand"`
	Form          string       `json:"form"`
	Tags          []string     `json:"tags"`
	Images        []string     `json:"images"`
	Benefits      []string     `json:"benefits"`
	Ingredients   string       `json:"ingredients"`
	HowToUse      string       `json:"how_to_use"`
	IsBestseller  bool         `json:"is_bestseller"`
	IsNew         bool         `json:"is_new"`
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreateProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	p := &Product{ID: uuid.New()}
	req.apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProduct treats ids that are not UUIDs as unknown products.
func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *service) SearchProducts(ctx context.Context, params QueryParameters) ([]Product, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return Query(all, params), nil
}

func (s *service) Facets(ctx context.Context) (*Facets, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	f := FacetsOf(all)
	return &f, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, req ProductRequest) (*Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) UpdateStock(ctx context.Context, id string, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return s.repo.UpdateStock(ctx, id, stock)
}

func (s *service) LookupProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	products, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (s *service) CountProducts(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (req ProductRequest) apply(p *Product) {
	p.Name = strings.TrimSpace(req.Name)
	p.Slug = Slugify(req.Slug)
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	p.Description = req.Description
	p.Price = req.Price
	p.DiscountPrice = req.DiscountPrice
	p.Stock = req.Stock
	p.Category = req.Category
	p.Brand = req.Brand
	p.Form = req.Form
	p.Tags = cleanList(req.Tags)
	p.Images = cleanList(req.Images)
	p.Benefits = cleanList(req.Benefits)
	p.Ingredients = req.Ingredients
	p.HowToUse = req.HowToUse
	p.IsBestseller = req.IsBestseller
	p.IsNew = req.IsNew
}

// cleanList trims entries and drops empty ones, as the admin form submits comma
// and newline separated lists.
func cleanList(in []string) []string {
	out := []string{}
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
