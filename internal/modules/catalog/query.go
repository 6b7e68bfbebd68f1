package catalog

import (
	"net/url"
	"sort"
	"strings"
)

// SortKey selects the ordering of a catalog query.
type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortRating    SortKey = "rating"
)

// ParseSortKey maps a query-string value to a SortKey. Unknown values sort as featured.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortRating:
		return k
	default:
		return SortFeatured
	}
}

// QueryParameters is the filter and sort state of a shop page.
type QueryParameters struct {
	Search   string
	Category string
	Brand    string
	Form     string
	// Tags match with OR semantics: a product passes if it carries any of them.
	Tags []string
	Sort SortKey
}

// ParseQueryParameters reads q, category, brand, form, repeated tag and sort.
func ParseQueryParameters(v url.Values) QueryParameters {
	q := QueryParameters{
		Search:   strings.TrimSpace(v.Get("q")),
		Category: v.Get("category"),
		Brand:    v.Get("brand"),
		Form:     v.Get("form"),
		Sort:     ParseSortKey(v.Get("sort")),
	}
	seen := map[string]bool{}
	for _, t := range v["tag"] {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		q.Tags = append(q.Tags, t)
	}
	return q
}

// Values encodes the parameters back into query-string form. Defaults are omitted.
func (q QueryParameters) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Brand != "" {
		v.Set("brand", q.Brand)
	}
	if q.Form != "" {
		v.Set("form", q.Form)
	}
	for _, t := range q.Tags {
		v.Add("tag", t)
	}
	if q.Sort != "" && q.Sort != SortFeatured {
		v.Set("sort", string(q.Sort))
	}
	return v
}

// HasFilters reports whether any filter (not the sort) is active.
func (q QueryParameters) HasFilters() bool {
	return q.Search != "" || q.Category != "" || q.Brand != "" || q.Form != "" || len(q.Tags) > 0
}

// Query filters and sorts products. The input slice is never modified and the
// sort is stable, so equal keys keep their input order.
func Query(products []Product, q QueryParameters) []Product {
	search := strings.ToLower(q.Search)
	var tags map[string]struct{}
	if len(q.Tags) > 0 {
		tags = make(map[string]struct{}, len(q.Tags))
		for _, t := range q.Tags {
			tags[t] = struct{}{}
		}
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.Brand != "" && p.Brand != q.Brand {
			continue
		}
		if q.Form != "" && p.Form != q.Form {
			continue
		}
		if tags != nil && !hasAnyTag(p.Tags, tags) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, lessFor(q.Sort, out))
	return out
}

func hasAnyTag(productTags []string, selected map[string]struct{}) bool {
	for _, t := range productTags {
		if _, ok := selected[t]; ok {
			return true
		}
	}
	return false
}

func lessFor(key SortKey, ps []Product) func(i, j int) bool {
	switch key {
	case SortNewest:
		return func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) }
	case SortPriceAsc:
		return func(i, j int) bool { return ps[i].EffectivePrice() < ps[j].EffectivePrice() }
	case SortPriceDesc:
		return func(i, j int) bool { return ps[i].EffectivePrice() > ps[j].EffectivePrice() }
	case SortRating:
		return func(i, j int) bool { return ps[i].RatingAvg > ps[j].RatingAvg }
	default:
		return func(i, j int) bool { return ps[i].IsBestseller && !ps[j].IsBestseller }
	}
}

// FacetsOf collects the sorted distinct categories, brands, forms and tags.
func FacetsOf(products []Product) Facets {
	cats, brands, forms, tags := map[string]bool{}, map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, p := range products {
		cats[p.Category] = true
		brands[p.Brand] = true
		forms[p.Form] = true
		for _, t := range p.Tags {
			tags[t] = true
		}
	}
	return Facets{
		Categories: sortedKeys(cats),
		Brands:     sortedKeys(brands),
		Forms:      sortedKeys(forms),
		Tags:       sortedKeys(tags),
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
