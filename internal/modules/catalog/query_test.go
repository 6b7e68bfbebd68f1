package catalog

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/georgemunganga/storefront-backend/internal/money"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func cents(c money.Cents) *money.Cents { return &c }

func product(name string, mut func(p *Product)) Product {
	p := Product{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		Name:      name,
		Slug:      Slugify(name),
		Price:     1000,
		Stock:     10,
		Category:  "supplements",
		Brand:     "Verdant",
		Form:      "capsules",
		CreatedAt: epoch,
	}
	if mut != nil {
		mut(&p)
	}
	return p
}

func names(ps []Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func fixture() []Product {
	return []Product{
		product("Magnesium", func(p *Product) {
			p.Tags = []string{"vegan"}
			p.Price = 2000
			p.RatingAvg = 4.1
			p.CreatedAt = epoch.Add(2 * time.Hour)
		}),
		product("Collagen Serum", func(p *Product) {
			p.Category = "skincare"
			p.Form = "serum"
			p.Brand = "Glow"
			p.Tags = []string{"organic", "vegan"}
			p.Price = 3000
			p.DiscountPrice = cents(1500)
			p.IsBestseller = true
			p.RatingAvg = 4.8
			p.CreatedAt = epoch.Add(4 * time.Hour)
		}),
		product("Whey Protein", func(p *Product) {
			p.Category = "fitness-recovery"
			p.Form = "powder"
			p.Description = "Fast absorbing protein for recovery"
			p.Tags = []string{"gluten-free"}
			p.Price = 4500
			p.RatingAvg = 4.5
			p.CreatedAt = epoch.Add(1 * time.Hour)
		}),
		product("Vitamin C", func(p *Product) {
			p.Category = "vitamins"
			p.Form = "gummies"
			p.Tags = []string{"organic"}
			p.Price = 900
			p.IsBestseller = true
			p.RatingAvg = 4.1
			p.CreatedAt = epoch.Add(3 * time.Hour)
		}),
		product("Hair Oil", func(p *Product) {
			p.Category = "hair-care"
			p.Form = "liquid"
			p.Brand = "Glow"
			p.Price = 1200
			p.RatingAvg = 3.9
		}),
	}
}

func TestQueryTagFilterUsesAnySemantics(t *testing.T) {
	got := Query(fixture(), QueryParameters{Tags: []string{"vegan"}, Sort: SortFeatured})

	// Both vegan products, bestseller first.
	if diff := cmp.Diff([]string{"Collagen Serum", "Magnesium"}, names(got)); diff != "" {
		t.Errorf("Query() mismatch (-want +got):\n%s", diff)
	}

	got = Query(fixture(), QueryParameters{Tags: []string{"vegan", "gluten-free"}, Sort: SortNewest})
	if diff := cmp.Diff([]string{"Collagen Serum", "Magnesium", "Whey Protein"}, names(got)); diff != "" {
		t.Errorf("Query() mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryFilters(t *testing.T) {
	tests := []struct {
		name   string
		params QueryParameters
		want   []string
	}{
		{"no filters, newest first", QueryParameters{Sort: SortNewest}, []string{"Collagen Serum", "Vitamin C", "Magnesium", "Whey Protein", "Hair Oil"}},
		{"search matches name case-insensitively", QueryParameters{Search: "VITAMIN"}, []string{"Vitamin C"}},
		{"search matches description", QueryParameters{Search: "recovery"}, []string{"Whey Protein"}},
		{"search matches brand", QueryParameters{Search: "glow", Sort: SortRating}, []string{"Collagen Serum", "Hair Oil"}},
		{"category", QueryParameters{Category: "vitamins"}, []string{"Vitamin C"}},
		{"brand", QueryParameters{Brand: "Glow", Sort: SortPriceAsc}, []string{"Hair Oil", "Collagen Serum"}},
		{"form", QueryParameters{Form: "powder"}, []string{"Whey Protein"}},
		{"combined filters narrow", QueryParameters{Brand: "Glow", Tags: []string{"organic"}}, []string{"Collagen Serum"}},
		{"no match is empty, not nil", QueryParameters{Category: "pets"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Query(fixture(), tt.params)
			assert.NotNil(t, got)
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("Query() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQuerySortKeys(t *testing.T) {
	tests := []struct {
		sort SortKey
		want []string
	}{
		{SortFeatured, []string{"Collagen Serum", "Vitamin C", "Magnesium", "Whey Protein", "Hair Oil"}},
		{SortNewest, []string{"Collagen Serum", "Vitamin C", "Magnesium", "Whey Protein", "Hair Oil"}},
		// Collagen Serum sorts on its 15.00 discount price, not its 30.00 base price.
		{SortPriceAsc, []string{"Vitamin C", "Hair Oil", "Collagen Serum", "Magnesium", "Whey Protein"}},
		{SortPriceDesc, []string{"Whey Protein", "Magnesium", "Collagen Serum", "Hair Oil", "Vitamin C"}},
		// Magnesium and Vitamin C tie at 4.1 and keep their input order.
		{SortRating, []string{"Collagen Serum", "Whey Protein", "Magnesium", "Vitamin C", "Hair Oil"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			got := Query(fixture(), QueryParameters{Sort: tt.sort})
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("Query(%s) mismatch (-want +got):\n%s", tt.sort, diff)
			}
		})
	}
}

func TestQueryIsStableForEqualKeys(t *testing.T) {
	var in []Product
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		in = append(in, product(n, nil))
	}
	for _, key := range []SortKey{SortFeatured, SortNewest, SortPriceAsc, SortPriceDesc, SortRating} {
		got := Query(in, QueryParameters{Sort: key})
		assert.Equal(t, names(in), names(got), "sort %s reordered equal keys", key)
	}
}

func TestQueryIsIdempotentAndDoesNotMutateInput(t *testing.T) {
	in := fixture()
	before := names(in)
	params := QueryParameters{Tags: []string{"organic", "vegan"}, Sort: SortPriceDesc}

	once := Query(in, params)
	twice := Query(once, params)

	assert.Equal(t, before, names(in))
	if diff := cmp.Diff(names(once), names(twice)); diff != "" {
		t.Errorf("second pass changed the result (-once +twice):\n%s", diff)
	}
}

func TestParseQueryParameters(t *testing.T) {
	v, _ := url.ParseQuery("q=+whey+&category=fitness-recovery&tag=vegan&tag=&tag=vegan&tag=organic&sort=PRICE-DESC")
	q := ParseQueryParameters(v)

	assert.Equal(t, "whey", q.Search)
	assert.Equal(t, "fitness-recovery", q.Category)
	assert.Equal(t, []string{"vegan", "organic"}, q.Tags)
	assert.Equal(t, SortPriceDesc, q.Sort)
	assert.True(t, q.HasFilters())

	assert.Equal(t, q, ParseQueryParameters(q.Values()))
}

func TestParseQueryParametersBlankSearchIsNoSearch(t *testing.T) {
	v, _ := url.ParseQuery("q=+++")
	q := ParseQueryParameters(v)

	assert.Equal(t, "", q.Search)
	assert.False(t, q.HasFilters())
	assert.Empty(t, q.Values())
}

func TestParseSortKeyDefaultsToFeatured(t *testing.T) {
	assert.Equal(t, SortFeatured, ParseSortKey(""))
	assert.Equal(t, SortFeatured, ParseSortKey("cheapest"))
	assert.Equal(t, SortRating, ParseSortKey("rating"))
	assert.False(t, QueryParameters{Sort: SortRating}.HasFilters())
}

func TestFacetsOf(t *testing.T) {
	f := FacetsOf(fixture())
	assert.Equal(t, []string{"fitness-recovery", "hair-care", "skincare", "supplements", "vitamins"}, f.Categories)
	assert.Equal(t, []string{"Glow", "Verdant"}, f.Brands)
	assert.Equal(t, []string{"gluten-free", "organic", "vegan"}, f.Tags)
}
