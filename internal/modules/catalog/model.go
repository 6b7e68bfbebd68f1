package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-backend/internal/money"
)

var (
	// ErrNotFound is returned when no product matches the given id or slug.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidProduct wraps every product validation failure.
	ErrInvalidProduct = errors.New("invalid product")
)

// Product is a storefront catalog item.
type Product struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Description   string       `json:"description"`
	Price         money.Cents  `json:"price"`
	DiscountPrice *money.Cents `json:"discount_price,omitempty"`
	Stock         int          `json:"stock"`
	Category      string       `json:"category"`
	Brand         string       `json:"brand"`
	Form          string       `json:"form"`
	Tags          []string     `json:"tags"`
	Images        []string     `json:"images"`
	Benefits      []string     `json:"benefits"`
	Ingredients   string       `json:"ingredients,omitempty"`
	HowToUse      string       `json:"how_to_use,omitempty"`
	RatingAvg     float64      `json:"rating_avg"`
	RatingCount   int          `json:"rating_count"`
	IsBestseller  bool         `json:"is_bestseller"`
	IsNew         bool         `json:"is_new"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// EffectivePrice is the discount price when present, otherwise the base price.
func (p *Product) EffectivePrice() money.Cents {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// InStock reports whether at least one unit can be sold.
func (p *Product) InStock() bool { return p.Stock > 0 }

// Validate checks the product invariants.
func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Price <= 0:
		return fmt.Errorf("%w: price must be greater than 0", ErrInvalidProduct)
	case p.DiscountPrice != nil && (*p.DiscountPrice <= 0 || *p.DiscountPrice >= p.Price):
		return fmt.Errorf("%w: discount_price must be between 0 and price", ErrInvalidProduct)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	case p.Category == "":
		return fmt.Errorf("%w: category is required", ErrInvalidProduct)
	}
	return nil
}

// Facets lists the distinct filter values present in the catalog.
type Facets struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
	Forms      []string `json:"forms"`
	Tags       []string `json:"tags"`
}

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a product name: "Vitamin D3 + K2" becomes "vitamin-d3-k2".
func Slugify(name string) string {
	return strings.Trim(slugSeparators.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
