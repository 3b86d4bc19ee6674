package pricing

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awspricing "github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// PricingAPIRegion is the only region serving the AWS Price List query API
// used here.
const PricingAPIRegion = "us-east-1"

const priceListFormatVersion = "aws_v1"

// ProductsAPI is the subset of the AWS Price List client used by AWSCatalog.
type ProductsAPI interface {
	GetProducts(ctx context.Context, params *awspricing.GetProductsInput, optFns ...func(*awspricing.Options)) (*awspricing.GetProductsOutput, error)
}

// AWSCatalog queries the AWS Price List API.
type AWSCatalog struct {
	client ProductsAPI
	logger zerolog.Logger
}

// NewAWSCatalog wraps a Price List client.
func NewAWSCatalog(client ProductsAPI, logger zerolog.Logger) *AWSCatalog {
	return &AWSCatalog{
		client: client,
		logger: logger.With().Str("component", "aws_catalog").Logger(),
	}
}

// GetProducts issues a single GetProducts call. Only the first page is read.
// Entries that are not valid offer documents are skipped.
func (c *AWSCatalog) GetProducts(ctx context.Context, serviceCode string, filters Filters) ([]Offer, error) {
	out, err := c.client.GetProducts(ctx, buildProductsInput(serviceCode, filters))
	if err != nil {
		return nil, fmt.Errorf("get products for %s: %w", serviceCode, err)
	}

	offers := make([]Offer, 0, len(out.PriceList))
	for i, raw := range out.PriceList {
		var offer Offer
		if err := json.Unmarshal([]byte(raw), &offer); err != nil {
			c.logger.Warn().
				Err(err).
				Str("service_code", serviceCode).
				Int("index", i).
				Msg("skipping malformed price list entry")
			continue
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func buildProductsInput(serviceCode string, filters Filters) *awspricing.GetProductsInput {
	input := &awspricing.GetProductsInput{
		ServiceCode:   aws.String(serviceCode),
		FormatVersion: aws.String(priceListFormatVersion),
		Filters:       make([]types.Filter, 0, len(filters)),
	}
	for _, key := range filters.Keys() {
		input.Filters = append(input.Filters, types.Filter{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String(key),
			Value: aws.String(filters[key]),
		})
	}
	return input
}
