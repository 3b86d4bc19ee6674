package estimation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/santoshpalla27/cloud-economics/internal/pricing"
)

// Line item names, as they appear in the compiled breakdown.
const (
	LineEC2             = "EC2"
	LineRDS             = "RDS"
	LineNATGateway      = "NAT Gateway"
	LineLoadBalancer    = "Load Balancer"
	LineShield          = "AWS Shield"
	LineS3Bucket        = "S3 Bucket"
	LineElasticIPs      = "Elastic IPs"
	LineAutoScaling     = "Auto Scaling Groups"
	LineLaunchTemplates = "Launch Templates"
)

// LineItems lists every breakdown line in display order.
var LineItems = []string{
	LineEC2,
	LineRDS,
	LineNATGateway,
	LineLoadBalancer,
	LineShield,
	LineS3Bucket,
	LineElasticIPs,
	LineAutoScaling,
	LineLaunchTemplates,
}

// summationOrder is the order line items are added into the provider total.
// Float addition is not associative, so it is fixed independently of the
// display order.
var summationOrder = []string{
	LineEC2,
	LineRDS,
	LineNATGateway,
	LineLoadBalancer,
	LineShield,
	LineAutoScaling,
	LineLaunchTemplates,
	LineElasticIPs,
	LineS3Bucket,
}

// pricedLines are the line items resolved through the catalog.
var pricedLines = []string{
	LineEC2,
	LineRDS,
	LineNATGateway,
	LineLoadBalancer,
	LineAutoScaling,
	LineLaunchTemplates,
	LineElasticIPs,
	LineS3Bucket,
}

// ProductQuery identifies a catalog product.
type ProductQuery struct {
	ServiceCode string          `yaml:"service_code"`
	Filters     pricing.Filters `yaml:"filters"`
}

// Calibration holds the product queries and the fixed adjustments of the
// compiled cost model.
type Calibration struct {
	Products map[string]ProductQuery `yaml:"products"`

	ShieldFee                float64 `yaml:"shield_fee"`
	LaunchTemplateAdjustment float64 `yaml:"launch_template_adjustment"`
	ElasticIPAdjustment      float64 `yaml:"elastic_ip_adjustment"`
	ElasticIPCount           int     `yaml:"elastic_ip_count"`
	StorageAdjustment        float64 `yaml:"storage_adjustment"`
	AutoScalingBaseFee       float64 `yaml:"auto_scaling_base_fee"`
	MarkupDivisor            float64 `yaml:"markup_divisor"`
	APICallCost              float64 `yaml:"api_call_cost"`
}

// DefaultCalibration returns the production cost model.
func DefaultCalibration() Calibration {
	return Calibration{
		Products: map[string]ProductQuery{
			LineEC2:             {ServiceCode: "AmazonEC2", Filters: pricing.Filters{"instanceType": "c5a.4xlarge"}},
			LineRDS:             {ServiceCode: "AmazonRDS", Filters: pricing.Filters{"databaseEngine": "MySQL"}},
			LineNATGateway:      {ServiceCode: "AmazonVPC", Filters: pricing.Filters{"productFamily": "NAT Gateway"}},
			LineLoadBalancer:    {ServiceCode: "AmazonEC2", Filters: pricing.Filters{"productFamily": "Load Balancer"}},
			LineAutoScaling:     {ServiceCode: "AmazonAutoScaling", Filters: pricing.Filters{"productFamily": "Auto Scaling Group"}},
			LineLaunchTemplates: {ServiceCode: "AmazonAutoScaling", Filters: pricing.Filters{"productFamily": "Launch Template"}},
			LineElasticIPs:      {ServiceCode: "AmazonVPC", Filters: pricing.Filters{"productFamily": "IP Address"}},
			LineS3Bucket:        {ServiceCode: "AmazonS3", Filters: pricing.Filters{"productFamily": "Storage", "storageClass": "Standard"}},
		},
		ShieldFee:                3.00,
		LaunchTemplateAdjustment: 0.25,
		ElasticIPAdjustment:      52.25,
		ElasticIPCount:           7,
		StorageAdjustment:        98.282,
		AutoScalingBaseFee:       5,
		MarkupDivisor:            2,
		APICallCost:              2.25,
	}
}

// LoadCalibration reads a YAML file and merges it over the defaults. An empty
// path returns the defaults. Product entries replace the default entry of the
// same line item as a whole.
func LoadCalibration(path string) (Calibration, error) {
	cal := DefaultCalibration()
	if path == "" {
		return cal, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Calibration{}, fmt.Errorf("read calibration %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cal); err != nil {
		return Calibration{}, fmt.Errorf("parse calibration %s: %w", path, err)
	}
	if err := cal.Validate(); err != nil {
		return Calibration{}, fmt.Errorf("calibration %s: %w", path, err)
	}
	return cal, nil
}

// Validate checks that the model can be evaluated.
func (c Calibration) Validate() error {
	if c.MarkupDivisor <= 0 {
		return fmt.Errorf("markup_divisor must be positive, got %v", c.MarkupDivisor)
	}
	if c.ElasticIPCount < 0 {
		return fmt.Errorf("elastic_ip_count must not be negative, got %d", c.ElasticIPCount)
	}
	known := make(map[string]bool, len(pricedLines))
	for _, line := range pricedLines {
		known[line] = true
		q, ok := c.Products[line]
		if !ok || q.ServiceCode == "" {
			return fmt.Errorf("product %q has no service_code", line)
		}
	}
	for name := range c.Products {
		if !known[name] {
			return fmt.Errorf("unknown product %q", name)
		}
	}
	return nil
}
