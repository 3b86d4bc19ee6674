package telemetry

import (
	"context"

	"golang.org/x/sync/errgroup"

	cerrors "github.com/santoshpalla27/cloud-economics/pkg/errors"
)

// Metric names and namespaces of the compiled instance report.
const (
	MetricCPUUtilization    = "CPUUtilization"
	MetricMemoryUtilization = "MemoryUtilization"
	MetricNetworkIn         = "NetworkIn"
	MetricNetworkOut        = "NetworkOut"

	NamespaceEC2     = "AWS/EC2"
	NamespaceCWAgent = "CWAgent"
)

// SampleFetcher is implemented by Fetcher.
type SampleFetcher interface {
	Fetch(ctx context.Context, q Query) ([]Sample, error)
}

// InstanceReport holds the four compiled series of one instance.
type InstanceReport struct {
	InstanceID        string   `json:"instance_id"`
	CPUUtilization    []Sample `json:"cpu_utilization"`
	MemoryUtilization []Sample `json:"memory_utilization"`
	NetworkIn         []Sample `json:"network_in"`
	NetworkOut        []Sample `json:"network_out"`
}

// InstanceMetrics compiles the standard utilisation report for an instance.
type InstanceMetrics struct {
	fetcher SampleFetcher
}

// NewInstanceMetrics creates a collector over fetcher.
func NewInstanceMetrics(fetcher SampleFetcher) *InstanceMetrics {
	return &InstanceMetrics{fetcher: fetcher}
}

// Collect runs the four fetches concurrently. The first failure cancels the
// rest and is returned unchanged; no partial report is produced.
func (m *InstanceMetrics) Collect(ctx context.Context, instanceID string) (*InstanceReport, error) {
	if instanceID == "" {
		return nil, cerrors.Validation("instance_id must not be empty")
	}

	report := &InstanceReport{InstanceID: instanceID}
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(dst *[]Sample, q Query) {
		q.InstanceID = instanceID
		g.Go(func() error {
			samples, err := m.fetcher.Fetch(gctx, q)
			if err != nil {
				return err
			}
			*dst = samples
			return nil
		})
	}

	fetch(&report.CPUUtilization, Query{MetricName: MetricCPUUtilization, Namespace: NamespaceEC2})
	fetch(&report.MemoryUtilization, Query{MetricName: MetricMemoryUtilization, Namespace: NamespaceCWAgent})
	fetch(&report.NetworkIn, Query{MetricName: MetricNetworkIn, Namespace: NamespaceEC2, Unit: "Bytes"})
	fetch(&report.NetworkOut, Query{MetricName: MetricNetworkOut, Namespace: NamespaceEC2, Unit: "Bytes"})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}
