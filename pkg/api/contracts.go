// Package api defines the wire contracts shared by the HTTP server and the CLI.
package api

import "time"

// WelcomeResponse is returned by GET /.
type WelcomeResponse struct {
	Message string `json:"message"`
}

// SimpleCostResponse is the closed-form estimate.
type SimpleCostResponse struct {
	Users           int     `json:"users"`
	InstancesNeeded int     `json:"instances_needed"`
	TotalCost       float64 `json:"total_cost"`
}

// CompiledCostResponse is the catalog-backed breakdown. Monetary values are
// pre-formatted "$X.XXX" strings.
type CompiledCostResponse struct {
	InstancesNeeded int               `json:"instances_needed"`
	Breakdown       map[string]string `json:"breakdown"`
	CloudTotalCost  string            `json:"cloud_cloud_total_cost"`
	ClientTotalCost string            `json:"client_total_cost"`
	ProfitToCompany string            `json:"profit_to_company"`
}

// Sample is one telemetry point.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// InstanceMetrics groups the four compiled series.
type InstanceMetrics struct {
	CPUUtilization    []Sample `json:"cpu_utilization"`
	MemoryUtilization []Sample `json:"memory_utilization"`
	NetworkIn         []Sample `json:"network_in"`
	NetworkOut        []Sample `json:"network_out"`
}

// MetricsResponse is returned by GET /metrics/compiled-metrics.
type MetricsResponse struct {
	InstanceID string          `json:"instance_id"`
	Metrics    InstanceMetrics `json:"metrics"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Metric  string `json:"metric,omitempty"`
}
