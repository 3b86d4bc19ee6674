package api

// DefaultRegion is the region label applied when a compiled-cost request omits one.
const DefaultRegion = "US East (N. Virginia)"

// SimpleCostRequest carries the query parameters of POST /costs/cost.
// Nil cost overrides fall back to the estimator defaults.
type SimpleCostRequest struct {
	Users            int
	InstanceCapacity int
	RDSCost          *float64
	NATCost          *float64
	LBCost           *float64
	ShieldCost       *float64
}

// CompiledCostRequest carries the query parameters of POST /costs/compiled.
type CompiledCostRequest struct {
	Users            int
	InstanceCapacity int
	Region           string
}
