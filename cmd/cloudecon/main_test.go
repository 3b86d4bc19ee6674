package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santoshpalla27/cloud-economics/internal/pricing"
	"github.com/santoshpalla27/cloud-economics/internal/telemetry"
	contracts "github.com/santoshpalla27/cloud-economics/pkg/api"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = &out
	err := a.RunContext(context.Background(), append([]string{"cloudecon"}, args...))
	return out.String(), err
}

func TestEstimateSimpleJSON(t *testing.T) {
	out, err := runCLI(t, "estimate", "simple", "--users", "100", "--capacity", "10", "--format", "json")
	require.NoError(t, err)

	var resp contracts.SimpleCostResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, contracts.SimpleCostResponse{Users: 100, InstancesNeeded: 10, TotalCost: 1005}, resp)
}

func TestEstimateSimpleTable(t *testing.T) {
	out, err := runCLI(t, "estimate", "simple", "-u", "101", "-c", "10", "--rds-cost", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Instances needed")
	assert.Contains(t, out, "$877.00")
}

func TestEstimateSimpleValidation(t *testing.T) {
	_, err := runCLI(t, "estimate", "simple", "--users", "0", "--capacity", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VALIDATION_ERROR")
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"productFamily=Storage", " storageClass = Standard "})
	require.NoError(t, err)
	assert.Equal(t, pricing.Filters{"productFamily": "Storage", "storageClass": "Standard"}, filters)

	_, err = parseFilters([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseFilters([]string{"a=1", "a=2"})
	assert.Error(t, err)
	_, err = parseFilters([]string{"=x"})
	assert.Error(t, err)
}

func TestOutputMetricsJSONMatchesAPI(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	report := &telemetry.InstanceReport{
		InstanceID:     "i-0abc",
		CPUUtilization: []telemetry.Sample{{Time: at, Value: 12.5}},
		NetworkIn:      []telemetry.Sample{{Time: at, Value: 2048}},
	}

	var out bytes.Buffer
	require.NoError(t, outputMetrics(&out, "json", report))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out.Bytes(), &raw))
	assert.Len(t, raw, 2)
	assert.Contains(t, raw, "instance_id")
	assert.Contains(t, raw, "metrics")

	var resp contracts.MetricsResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "i-0abc", resp.InstanceID)
	require.Len(t, resp.Metrics.CPUUtilization, 1)
	assert.Equal(t, 12.5, resp.Metrics.CPUUtilization[0].Value)
	assert.True(t, at.Equal(resp.Metrics.CPUUtilization[0].Time))
	assert.Equal(t, 2048.0, resp.Metrics.NetworkIn[0].Value)
	assert.NotNil(t, resp.Metrics.MemoryUtilization)
	assert.Empty(t, resp.Metrics.MemoryUtilization)
}

func TestOutputMetricsTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, outputMetrics(&out, "table", &telemetry.InstanceReport{InstanceID: "i-0abc"}))
	assert.Contains(t, out.String(), "INSTANCE i-0abc")
	assert.Contains(t, out.String(), "no datapoints")
}
