package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AggregationPolicy reduces the collected prices of all matching offers to one number.
type AggregationPolicy string

const (
	// PolicySum adds every collected price.
	PolicySum AggregationPolicy = "sum"
	// PolicyFirst takes the first price in offer, term, dimension order.
	PolicyFirst AggregationPolicy = "first"
	// PolicyCheapest takes the minimum collected price.
	PolicyCheapest AggregationPolicy = "cheapest"
)

// ParsePolicy parses a policy name. An empty name selects PolicySum.
func ParsePolicy(name string) (AggregationPolicy, error) {
	switch p := AggregationPolicy(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return PolicySum, nil
	case PolicySum, PolicyFirst, PolicyCheapest:
		return p, nil
	default:
		return "", fmt.Errorf("unknown aggregation policy %q (want sum, first or cheapest)", name)
	}
}

// Reduce applies the policy. An empty input reduces to zero.
func (p AggregationPolicy) Reduce(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}

	switch p {
	case PolicyFirst:
		return prices[0]
	case PolicyCheapest:
		return decimal.Min(prices[0], prices[1:]...)
	default:
		return decimal.Sum(prices[0], prices[1:]...)
	}
}

func (p AggregationPolicy) String() string {
	return string(p)
}
