// Package pricing resolves a single aggregate on-demand price from a product catalog.
package pricing

import (
	"context"
	"sort"
)

// Filters are exact-match attribute filters. Every key must match.
type Filters map[string]string

// Keys returns the filter keys in ascending order.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Offer is one price-list entry.
type Offer struct {
	Product Product `json:"product"`
	Terms   Terms   `json:"terms"`
}

// Product identifies what an offer sells.
type Product struct {
	SKU           string            `json:"sku"`
	ProductFamily string            `json:"productFamily"`
	Attributes    map[string]string `json:"attributes"`
}

// Terms groups offer terms by purchase option. Only on-demand terms are priced.
type Terms struct {
	OnDemand map[string]Term `json:"OnDemand"`
}

// Term is a single purchase term, keyed by offer term code.
type Term struct {
	OfferTermCode   string                    `json:"offerTermCode"`
	SKU             string                    `json:"sku"`
	PriceDimensions map[string]PriceDimension `json:"priceDimensions"`
}

// PriceDimension is one rate within a term. PricePerUnit maps currency to a
// decimal string.
type PriceDimension struct {
	RateCode     string            `json:"rateCode"`
	Unit         string            `json:"unit"`
	Description  string            `json:"description"`
	BeginRange   string            `json:"beginRange"`
	EndRange     string            `json:"endRange"`
	PricePerUnit map[string]string `json:"pricePerUnit"`
}

// Catalog returns the offers matching a service code and attribute filters.
// Implementations return an empty slice, not an error, when nothing matches.
type Catalog interface {
	GetProducts(ctx context.Context, serviceCode string, filters Filters) ([]Offer, error)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CatalogFunc adapts a function to the Catalog interface.
type CatalogFunc func(ctx context.Context, serviceCode string, filters Filters) ([]Offer, error)

// GetProducts calls f.
func (f CatalogFunc) GetProducts(ctx context.Context, serviceCode string, filters Filters) ([]Offer, error) {
	return f(ctx, serviceCode, filters)
}
