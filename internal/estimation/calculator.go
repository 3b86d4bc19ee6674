// Package estimation turns user counts into monthly infrastructure cost estimates.
package estimation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/santoshpalla27/cloud-economics/internal/pricing"
	cerrors "github.com/santoshpalla27/cloud-economics/pkg/errors"
	"github.com/santoshpalla27/cloud-economics/pkg/units"
)

// displayPlaces is the number of decimals in breakdown strings.
const displayPlaces = 3

// PriceLookup resolves a single aggregate price. *pricing.Lookup implements it.
type PriceLookup interface {
	LookupPrice(ctx context.Context, serviceCode, region string, filters pricing.Filters) (float64, error)
}

// CostBreakdown is the compiled cost of a deployment. Amounts keep full
// precision; Breakdown renders the display strings.
type CostBreakdown struct {
	RunID           uuid.UUID
	Region          string
	Users           int
	Capacity        int
	InstancesNeeded int
	ElasticIPCount  int

	// Items maps line item name to its monthly amount. EC2 is the total over
	// all instances.
	Items map[string]float64

	ProviderTotal float64
	ClientTotal   float64
	Profit        float64
}

// Breakdown returns the formatted line items.
func (b *CostBreakdown) Breakdown() map[string]string {
	out := make(map[string]string, len(b.Items))
	for name, amount := range b.Items {
		out[name] = units.FormatUSD(amount, displayPlaces)
	}
	out[LineEC2] += fmt.Sprintf(" (for %d instances)", b.InstancesNeeded)
	out[LineElasticIPs] += fmt.Sprintf(" (for %d elastically alloted IPs)", b.ElasticIPCount)
	return out
}

// FormattedProviderTotal renders ProviderTotal.
func (b *CostBreakdown) FormattedProviderTotal() string {
	return units.FormatUSD(b.ProviderTotal, displayPlaces)
}

// FormattedClientTotal renders ClientTotal.
func (b *CostBreakdown) FormattedClientTotal() string {
	return units.FormatUSD(b.ClientTotal, displayPlaces)
}

// FormattedProfit renders Profit.
func (b *CostBreakdown) FormattedProfit() string {
	return units.FormatUSD(b.Profit, displayPlaces)
}

// Calculator compiles catalog prices into a CostBreakdown.
type Calculator struct {
	prices PriceLookup
	cal    Calibration
	logger zerolog.Logger
}

// NewCalculator creates a calculator. cal must be valid.
func NewCalculator(prices PriceLookup, cal Calibration, logger zerolog.Logger) *Calculator {
	return &Calculator{
		prices: prices,
		cal:    cal,
		logger: logger.With().Str("component", "calculator").Logger(),
	}
}

// Compile validates the input, resolves every catalog-priced line item
// concurrently and combines them with the calibration adjustments. The first
// lookup failure is returned unchanged and no breakdown is produced.
func (c *Calculator) Compile(ctx context.Context, users, capacity int, region string) (*CostBreakdown, error) {
	if users <= 0 || capacity <= 0 {
		return nil, cerrors.Validation("Users and instance capacity must be positive integers.")
	}

	runID := uuid.New()
	start := time.Now()
	logger := c.logger.With().Str("run_id", runID.String()).Str("region", region).Logger()

	raw := make([]float64, len(pricedLines))
	g, gctx := errgroup.WithContext(ctx)
	for i, line := range pricedLines {
		i, line := i, line
		q := c.cal.Products[line]
		g.Go(func() error {
			price, err := c.prices.LookupPrice(gctx, q.ServiceCode, region, q.Filters)
			if err != nil {
				return err
			}
			raw[i] = price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("compile failed")
		return nil, err
	}

	price := make(map[string]float64, len(pricedLines))
	for i, line := range pricedLines {
		price[line] = raw[i]
	}

	instances := units.InstancesNeeded(users, capacity)
	items := map[string]float64{
		LineEC2:             price[LineEC2] * float64(instances),
		LineRDS:             price[LineRDS],
		LineNATGateway:      price[LineNATGateway],
		LineLoadBalancer:    price[LineLoadBalancer],
		LineShield:          c.cal.ShieldFee,
		LineS3Bucket:        price[LineS3Bucket] + c.cal.StorageAdjustment,
		LineElasticIPs:      price[LineElasticIPs] + c.cal.ElasticIPAdjustment,
		LineAutoScaling:     price[LineAutoScaling] + c.cal.AutoScalingBaseFee,
		LineLaunchTemplates: price[LineLaunchTemplates] + c.cal.LaunchTemplateAdjustment,
	}

	var provider float64
	for _, line := range summationOrder {
		provider += items[line]
	}
	client := provider/c.cal.MarkupDivisor + c.cal.APICallCost*float64(users)

	b := &CostBreakdown{
		RunID:           runID,
		Region:          region,
		Users:           users,
		Capacity:        capacity,
		InstancesNeeded: instances,
		ElasticIPCount:  c.cal.ElasticIPCount,
		Items:           items,
		ProviderTotal:   provider,
		ClientTotal:     client,
		Profit:          client - provider,
	}

	logger.Info().
		Int("users", users).
		Int("instances", instances).
		Float64("provider_total", provider).
		Float64("client_total", client).
		Dur("elapsed", time.Since(start)).
		Msg("cost compiled")

	return b, nil
}
