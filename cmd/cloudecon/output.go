package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/santoshpalla27/cloud-economics/api"
	"github.com/santoshpalla27/cloud-economics/internal/estimation"
	"github.com/santoshpalla27/cloud-economics/internal/telemetry"
)

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputSimpleTable(w io.Writer, est *estimation.SimpleEstimate) error {
	fmt.Fprintln(w, "SIMPLE ESTIMATE")
	fmt.Fprintf(w, "  %-22s %d\n", "Users", est.Users)
	fmt.Fprintf(w, "  %-22s %d\n", "Instance capacity", est.Capacity)
	fmt.Fprintf(w, "  %-22s %d\n", "Instances needed", est.InstancesNeeded)
	fmt.Fprintf(w, "  %-22s $%.2f\n", "Instance cost", est.InstanceCost)
	fmt.Fprintf(w, "  %-22s $%.2f\n", "RDS", est.RDSCost)
	fmt.Fprintf(w, "  %-22s $%.2f\n", "NAT Gateway", est.NATCost)
	fmt.Fprintf(w, "  %-22s $%.2f\n", "Load Balancer", est.LBCost)
	fmt.Fprintf(w, "  %-22s $%.2f\n", "Shield", est.ShieldCost)
	_, err := fmt.Fprintf(w, "  %-22s $%.2f\n", "Total (monthly)", est.TotalCost)
	return err
}

func outputCompiledTable(w io.Writer, b *estimation.CostBreakdown) error {
	breakdown := b.Breakdown()

	fmt.Fprintf(w, "COMPILED ESTIMATE  run %s  region %q\n", b.RunID, b.Region)
	fmt.Fprintf(w, "  %-22s %d\n", "Instances needed", b.InstancesNeeded)
	for _, line := range estimation.LineItems {
		fmt.Fprintf(w, "  %-22s %s\n", line, breakdown[line])
	}
	fmt.Fprintf(w, "  %-22s %s\n", "Cloud total", b.FormattedProviderTotal())
	fmt.Fprintf(w, "  %-22s %s\n", "Client total", b.FormattedClientTotal())
	_, err := fmt.Fprintf(w, "  %-22s %s\n", "Profit", b.FormattedProfit())
	return err
}

// outputMetrics writes the report in the same shape as the HTTP API when
// format is json.
func outputMetrics(w io.Writer, format string, report *telemetry.InstanceReport) error {
	if format == "json" {
		return outputJSON(w, api.NewMetricsResponse(report))
	}
	return outputMetricsTable(w, report)
}

func outputMetricsTable(w io.Writer, report *telemetry.InstanceReport) error {
	series := []struct {
		name    string
		samples []telemetry.Sample
	}{
		{telemetry.MetricCPUUtilization, report.CPUUtilization},
		{telemetry.MetricMemoryUtilization, report.MemoryUtilization},
		{telemetry.MetricNetworkIn, report.NetworkIn},
		{telemetry.MetricNetworkOut, report.NetworkOut},
	}

	fmt.Fprintf(w, "INSTANCE %s\n", report.InstanceID)
	for _, s := range series {
		if len(s.samples) == 0 {
			fmt.Fprintf(w, "  %-18s no datapoints\n", s.name)
			continue
		}
		last := s.samples[len(s.samples)-1]
		fmt.Fprintf(w, "  %-18s %4d samples  latest %.2f at %s\n",
			s.name, len(s.samples), last.Value, last.Time.Format("2006-01-02 15:04"))
	}
	return nil
}
