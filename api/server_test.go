package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santoshpalla27/cloud-economics/internal/estimation"
	"github.com/santoshpalla27/cloud-economics/internal/pricing"
	"github.com/santoshpalla27/cloud-economics/internal/telemetry"
	contracts "github.com/santoshpalla27/cloud-economics/pkg/api"
	cerrors "github.com/santoshpalla27/cloud-economics/pkg/errors"
	"github.com/santoshpalla27/cloud-economics/pkg/platform"
)

type stubCompiler struct {
	users    int
	capacity int
	region   string
	result   *estimation.CostBreakdown
	err      error
}

func (s *stubCompiler) Compile(_ context.Context, users, capacity int, region string) (*estimation.CostBreakdown, error) {
	s.users, s.capacity, s.region = users, capacity, region
	return s.result, s.err
}

type stubCollector struct {
	report *telemetry.InstanceReport
	err    error
}

func (s *stubCollector) Collect(_ context.Context, instanceID string) (*telemetry.InstanceReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := *s.report
	r.InstanceID = instanceID
	return &r, nil
}

type testServer struct {
	*Server
	compiler  *stubCompiler
	collector *stubCollector
	registry  *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	compiler := &stubCompiler{}
	collector := &stubCollector{report: &telemetry.InstanceReport{}}

	srv := NewServer(DefaultConfig(), Deps{
		Simple:    estimation.NewSimpleEstimator(),
		Compiler:  compiler,
		Instances: collector,
		Metrics:   platform.NewMetrics(reg),
		Gatherer:  reg,
		Logger:    zerolog.Nop(),
	})
	return &testServer{Server: srv, compiler: compiler, collector: collector, registry: reg}
}

func (ts *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRoot(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Welcome to the SaaS Cloud Economics Dashboard", decode[contracts.WelcomeResponse](t, rec).Message)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[contracts.HealthResponse](t, rec)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, ServiceName, body.Service)
	assert.Equal(t, "dev", body.Version)
	assert.NotEmpty(t, body.Uptime)
}

func TestSimpleCost(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantError string
		want      contracts.SimpleCostResponse
	}{
		{
			name:     "defaults",
			query:    "users=100&instance_capacity=10",
			wantCode: http.StatusOK,
			want:     contracts.SimpleCostResponse{Users: 100, InstancesNeeded: 10, TotalCost: 1005},
		},
		{
			name:     "overrides",
			query:    "users=5&instance_capacity=10&rds_cost=0&nat_cost=0&lb_cost=0&shield_cost=0",
			wantCode: http.StatusOK,
			want:     contracts.SimpleCostResponse{Users: 5, InstancesNeeded: 1, TotalCost: 72},
		},
		{name: "zero users", query: "users=0&instance_capacity=10", wantCode: http.StatusBadRequest, wantError: "VALIDATION_ERROR"},
		{name: "negative capacity", query: "users=10&instance_capacity=-1", wantCode: http.StatusBadRequest, wantError: "VALIDATION_ERROR"},
		{name: "missing users", query: "instance_capacity=10", wantCode: http.StatusUnprocessableEntity, wantError: "INVALID_PARAMETER"},
		{name: "non-numeric", query: "users=ten&instance_capacity=10", wantCode: http.StatusUnprocessableEntity, wantError: "INVALID_PARAMETER"},
		{name: "bad override", query: "users=1&instance_capacity=1&rds_cost=abc", wantCode: http.StatusUnprocessableEntity, wantError: "INVALID_PARAMETER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/costs/cost?"+tt.query)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode[contracts.ErrorResponse](t, rec).Error)
				return
			}
			assert.Equal(t, tt.want, decode[contracts.SimpleCostResponse](t, rec))
		})
	}
}

func TestCompiledCost(t *testing.T) {
	ts := newTestServer(t)
	runID := uuid.New()
	ts.compiler.result = &estimation.CostBreakdown{
		RunID:           runID,
		InstancesNeeded: 2,
		ElasticIPCount:  7,
		Items: map[string]float64{
			estimation.LineEC2:             1.5,
			estimation.LineRDS:             0,
			estimation.LineNATGateway:      0,
			estimation.LineLoadBalancer:    0,
			estimation.LineShield:          3,
			estimation.LineS3Bucket:        98.282,
			estimation.LineElasticIPs:      52.25,
			estimation.LineAutoScaling:     5,
			estimation.LineLaunchTemplates: 0.25,
		},
		ProviderTotal: 160.282,
		ClientTotal:   82.391,
		Profit:        -77.891,
	}

	rec := ts.do(t, http.MethodPost, "/costs/compiled?users=2&instance_capacity=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, 2, ts.compiler.users)
	assert.Equal(t, 1, ts.compiler.capacity)
	assert.Equal(t, "US East (N. Virginia)", ts.compiler.region)
	assert.Equal(t, runID.String(), rec.Header().Get(RunIDHeader))

	body := decode[contracts.CompiledCostResponse](t, rec)
	assert.Equal(t, 2, body.InstancesNeeded)
	assert.Len(t, body.Breakdown, 9)
	assert.Equal(t, "$1.500 (for 2 instances)", body.Breakdown["EC2"])
	assert.Equal(t, "$52.250 (for 7 elastically alloted IPs)", body.Breakdown["Elastic IPs"])
	assert.Equal(t, "$160.282", body.CloudTotalCost)
	assert.Equal(t, "$82.391", body.ClientTotalCost)
	assert.Equal(t, "$-77.891", body.ProfitToCompany)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "cloud_cloud_total_cost")
	assert.Contains(t, raw, "profit_to_company")
}

func TestCompiledCost_RegionAndErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.compiler.err = cerrors.Service("price lookup for AmazonEC2 failed", errors.New("throttled"))

	rec := ts.do(t, http.MethodPost, "/costs/compiled?users=2&instance_capacity=1&region=EU+(Ireland)")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "EU (Ireland)", ts.compiler.region)

	body := decode[contracts.ErrorResponse](t, rec)
	assert.Equal(t, "SERVICE_ERROR", body.Error)
	assert.Contains(t, body.Message, "throttled")

	ts.compiler.err = cerrors.Validation("Users and instance capacity must be positive integers.")
	rec = ts.do(t, http.MethodPost, "/costs/compiled?users=0&instance_capacity=1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/costs/compiled?users=2")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[contracts.ErrorResponse](t, rec).Message, "instance_capacity")
}

func TestCompiledMetrics(t *testing.T) {
	ts := newTestServer(t)
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ts.collector.report = &telemetry.InstanceReport{
		CPUUtilization:    []telemetry.Sample{{Time: t1, Value: 12.5}},
		MemoryUtilization: []telemetry.Sample{},
		NetworkIn:         []telemetry.Sample{{Time: t1, Value: 2048}},
		NetworkOut:        nil,
	}

	rec := ts.do(t, http.MethodGet, "/metrics/compiled-metrics?instance_id=i-0abc")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[contracts.MetricsResponse](t, rec)
	assert.Equal(t, "i-0abc", body.InstanceID)
	require.Len(t, body.Metrics.CPUUtilization, 1)
	assert.True(t, t1.Equal(body.Metrics.CPUUtilization[0].Time))
	assert.Equal(t, 12.5, body.Metrics.CPUUtilization[0].Value)
	assert.Equal(t, 2048.0, body.Metrics.NetworkIn[0].Value)

	assert.Contains(t, rec.Body.String(), `"memory_utilization":[]`)
	assert.Contains(t, rec.Body.String(), `"network_out":[]`)
}

func TestCompiledMetrics_Errors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/metrics/compiled-metrics")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	ts.collector.err = cerrors.MetricFetch("MemoryUtilization", errors.New("no agent"))
	rec = ts.do(t, http.MethodGet, "/metrics/compiled-metrics?instance_id=i-1")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode[contracts.ErrorResponse](t, rec)
	assert.Equal(t, "METRIC_FETCH_ERROR", body.Error)
	assert.Equal(t, "MemoryUtilization", body.Metric)
	assert.Equal(t, "Error fetching MemoryUtilization metrics: no agent", body.Message)

	ts.collector.err = cerrors.MetricFetch("NetworkIn", nil)
	rec = ts.do(t, http.MethodGet, "/metrics/compiled-metrics?instance_id=i-1")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body = decode[contracts.ErrorResponse](t, rec)
	assert.Equal(t, "Error fetching NetworkIn metrics", body.Message)
}

func TestUnclassifiedErrorIsInternal(t *testing.T) {
	ts := newTestServer(t)
	ts.compiler.err = errors.New("secret connection string")

	rec := ts.do(t, http.MethodPost, "/costs/compiled?users=1&instance_capacity=1")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[contracts.ErrorResponse](t, rec)
	assert.Equal(t, "INTERNAL_ERROR", body.Error)
	assert.NotContains(t, body.Message, "secret")
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health")
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/costs/cost", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPrometheusEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/costs/cost?users=1&instance_capacity=1")

	rec := ts.do(t, http.MethodGet, "/internal/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `cloudecon_http_requests_total{method="POST",route="/costs/cost",status="200"} 1`), string(body))
}

func TestEndToEndWithLookup(t *testing.T) {
	catalog := pricing.CatalogFunc(func(context.Context, string, pricing.Filters) ([]pricing.Offer, error) {
		return nil, nil
	})
	lookup := pricing.NewLookup(catalog, pricing.DefaultLookupConfig(), nil, zerolog.Nop())
	srv := NewServer(DefaultConfig(), Deps{
		Simple:    estimation.NewSimpleEstimator(),
		Compiler:  estimation.NewCalculator(lookup, estimation.DefaultCalibration(), zerolog.Nop()),
		Instances: telemetry.NewInstanceMetrics(&stubFetcher{}),
		Logger:    zerolog.Nop(),
	})

	req := httptest.NewRequest(http.MethodPost, "/costs/compiled?users=1&instance_capacity=1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body contracts.CompiledCostResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "$158.782", body.CloudTotalCost)

	req = httptest.NewRequest(http.MethodGet, "/internal/metrics", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, telemetry.Query) ([]telemetry.Sample, error) {
	return []telemetry.Sample{}, nil
}
