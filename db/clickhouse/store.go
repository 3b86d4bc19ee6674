// Package clickhouse provides a read-only price-list catalog backed by a
// ClickHouse mirror of the AWS Price List.
package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/santoshpalla27/cloud-economics/internal/pricing"
)

// offersTable holds one row per (sku, offer term, price dimension, currency).
const offersTable = "price_list_offers"

// productFamilyField is matched against its own column instead of the
// attributes map, as the Price List API does.
const productFamilyField = "productFamily"

// Config holds ClickHouse connection configuration
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "cloudecon",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// Store implements pricing.Catalog over ClickHouse.
type Store struct {
	conn   driver.Conn
	cfg    *Config
	logger zerolog.Logger
}

// NewStore opens a connection pool. The connection is not verified; call Ping.
func NewStore(cfg *Config, logger zerolog.Logger) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	return &Store{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "clickhouse_catalog").Logger(),
	}, nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// GetProducts returns the mirrored offers of serviceCode matching filters,
// in sku order.
func (s *Store) GetProducts(ctx context.Context, serviceCode string, filters pricing.Filters) ([]pricing.Offer, error) {
	query, args := buildOfferQuery(serviceCode, filters)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers for %s: %w", serviceCode, err)
	}
	defer rows.Close()

	var scanned []offerRow
	for rows.Next() {
		var r offerRow
		if err := rows.Scan(
			&r.SKU, &r.ProductFamily, &r.Attributes,
			&r.OfferTermCode, &r.RateCode, &r.Unit, &r.Description,
			&r.Currency, &r.Price,
		); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		scanned = append(scanned, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read offers for %s: %w", serviceCode, err)
	}

	offers := groupOffers(scanned)
	s.logger.Debug().
		Str("service_code", serviceCode).
		Int("rows", len(scanned)).
		Int("offers", len(offers)).
		Msg("offers loaded")
	return offers, nil
}

// offerRow is one flattened price dimension.
type offerRow struct {
	SKU           string
	ProductFamily string
	Attributes    map[string]string
	OfferTermCode string
	RateCode      string
	Unit          string
	Description   string
	Currency      string
	Price         decimal.Decimal
}

// buildOfferQuery renders the lookup query with positional arguments. Filter
// keys are emitted in sorted order.
func buildOfferQuery(serviceCode string, filters pricing.Filters) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT sku, product_family, attributes, offer_term_code, rate_code, unit, description, currency, price
FROM ` + offersTable + `
WHERE service_code = ? AND term_type = 'OnDemand'`)

	args := []any{serviceCode}
	for _, key := range filters.Keys() {
		if key == productFamilyField {
			sb.WriteString(" AND product_family = ?")
			args = append(args, filters[key])
			continue
		}
		sb.WriteString(" AND attributes[?] = ?")
		args = append(args, key, filters[key])
	}
	sb.WriteString("\nORDER BY sku, offer_term_code, rate_code, currency")

	return sb.String(), args
}

// groupOffers folds rows back into offers, preserving the first-seen sku order.
func groupOffers(rows []offerRow) []pricing.Offer {
	offers := make([]pricing.Offer, 0)
	index := make(map[string]int)

	for _, r := range rows {
		i, ok := index[r.SKU]
		if !ok {
			i = len(offers)
			index[r.SKU] = i
			offers = append(offers, pricing.Offer{
				Product: pricing.Product{
					SKU:           r.SKU,
					ProductFamily: r.ProductFamily,
					Attributes:    r.Attributes,
				},
				Terms: pricing.Terms{OnDemand: map[string]pricing.Term{}},
			})
		}

		termKey := r.SKU + "." + r.OfferTermCode
		term, ok := offers[i].Terms.OnDemand[termKey]
		if !ok {
			term = pricing.Term{
				OfferTermCode:   r.OfferTermCode,
				SKU:             r.SKU,
				PriceDimensions: map[string]pricing.PriceDimension{},
			}
		}

		dim, ok := term.PriceDimensions[r.RateCode]
		if !ok {
			dim = pricing.PriceDimension{
				RateCode:     r.RateCode,
				Unit:         r.Unit,
				Description:  r.Description,
				PricePerUnit: map[string]string{},
			}
		}
		dim.PricePerUnit[r.Currency] = r.Price.String()
		term.PriceDimensions[r.RateCode] = dim
		offers[i].Terms.OnDemand[termKey] = term
	}
	return offers
}
