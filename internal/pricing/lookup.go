package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	cerrors "github.com/santoshpalla27/cloud-economics/pkg/errors"
	"github.com/santoshpalla27/cloud-economics/pkg/platform"
)

// LookupConfig controls how prices are collected and reduced.
type LookupConfig struct {
	Policy   AggregationPolicy
	Currency string
	// Timeout bounds each catalog call. Zero disables the bound.
	Timeout time.Duration
}

// DefaultLookupConfig returns the production defaults.
func DefaultLookupConfig() LookupConfig {
	return LookupConfig{
		Policy:   PolicySum,
		Currency: "USD",
		Timeout:  10 * time.Second,
	}
}

// Lookup resolves one aggregate price per query.
type Lookup struct {
	catalog Catalog
	cfg     LookupConfig
	metrics *platform.Metrics
	logger  zerolog.Logger
}

// NewLookup creates a lookup over catalog. metrics may be nil.
func NewLookup(catalog Catalog, cfg LookupConfig, metrics *platform.Metrics, logger zerolog.Logger) *Lookup {
	if cfg.Policy == "" {
		cfg.Policy = PolicySum
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &Lookup{
		catalog: catalog,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With().Str("component", "pricing").Logger(),
	}
}

// LookupPrice returns the aggregate on-demand price of every offer matching
// serviceCode and filters. No match yields 0. Catalog failures are returned
// as a service error.
//
// region is recorded in logs only; catalog queries always go to the fixed
// pricing endpoint.
func (l *Lookup) LookupPrice(ctx context.Context, serviceCode, region string, filters Filters) (float64, error) {
	start := time.Now()

	callCtx := ctx
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	offers, err := l.catalog.GetProducts(callCtx, serviceCode, filters)
	if err != nil {
		l.metrics.ObservePricingLookup(serviceCode, platform.OutcomeError, time.Since(start))
		l.logger.Error().
			Err(err).
			Str("service_code", serviceCode).
			Str("region", region).
			Msg("price lookup failed")
		return 0, cerrors.Service(fmt.Sprintf("price lookup for %s failed", serviceCode), err)
	}

	prices := l.collect(serviceCode, offers)
	if len(prices) == 0 {
		l.metrics.ObservePricingLookup(serviceCode, platform.OutcomeEmpty, time.Since(start))
		l.logger.Debug().
			Str("service_code", serviceCode).
			Str("region", region).
			Int("offers", len(offers)).
			Msg("no prices matched")
		return 0, nil
	}

	total := l.cfg.Policy.Reduce(prices)
	l.metrics.ObservePricingLookup(serviceCode, platform.OutcomeOK, time.Since(start))
	l.logger.Debug().
		Str("service_code", serviceCode).
		Str("region", region).
		Str("policy", l.cfg.Policy.String()).
		Int("offers", len(offers)).
		Int("prices", len(prices)).
		Str("price", total.String()).
		Msg("price resolved")

	return total.InexactFloat64(), nil
}

// collect walks offers in order, then terms and dimensions by sorted key, and
// returns every parsable price in the configured currency.
func (l *Lookup) collect(serviceCode string, offers []Offer) []decimal.Decimal {
	var prices []decimal.Decimal
	for _, offer := range offers {
		for _, termKey := range sortedKeys(offer.Terms.OnDemand) {
			term := offer.Terms.OnDemand[termKey]
			for _, dimKey := range sortedKeys(term.PriceDimensions) {
				raw, ok := term.PriceDimensions[dimKey].PricePerUnit[l.cfg.Currency]
				if !ok {
					continue
				}
				price, err := decimal.NewFromString(raw)
				if err != nil {
					l.logger.Warn().
						Err(err).
						Str("service_code", serviceCode).
						Str("sku", offer.Product.SKU).
						Str("rate_code", dimKey).
						Str("value", raw).
						Msg("skipping unparsable price")
					continue
				}
				prices = append(prices, price)
			}
		}
	}
	return prices
}
