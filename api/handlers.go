package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/santoshpalla27/cloud-economics/internal/estimation"
	"github.com/santoshpalla27/cloud-economics/internal/telemetry"
	contracts "github.com/santoshpalla27/cloud-economics/pkg/api"
	cerrors "github.com/santoshpalla27/cloud-economics/pkg/errors"
)

// RunIDHeader carries the id of a compiled-cost run.
const RunIDHeader = "X-Run-ID"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, contracts.WelcomeResponse{
		Message: "Welcome to the SaaS Cloud Economics Dashboard",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, contracts.HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: s.config.Version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleSimpleCost(w http.ResponseWriter, r *http.Request) {
	req, err := parseSimpleCostRequest(r.URL.Query())
	if err != nil {
		s.jsonError(w, r, err)
		return
	}

	in := estimation.NewSimpleInput(req.Users, req.InstanceCapacity)
	if req.RDSCost != nil {
		in.RDSCost = *req.RDSCost
	}
	if req.NATCost != nil {
		in.NATCost = *req.NATCost
	}
	if req.LBCost != nil {
		in.LBCost = *req.LBCost
	}
	if req.ShieldCost != nil {
		in.ShieldCost = *req.ShieldCost
	}

	est, err := s.deps.Simple.Estimate(in)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, contracts.SimpleCostResponse{
		Users:           est.Users,
		InstancesNeeded: est.InstancesNeeded,
		TotalCost:       est.TotalCost,
	})
}

func (s *Server) handleCompiledCost(w http.ResponseWriter, r *http.Request) {
	req, err := parseCompiledCostRequest(r.URL.Query())
	if err != nil {
		s.jsonError(w, r, err)
		return
	}

	b, err := s.deps.Compiler.Compile(r.Context(), req.Users, req.InstanceCapacity, req.Region)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}

	w.Header().Set(RunIDHeader, b.RunID.String())
	s.jsonResponse(w, http.StatusOK, NewCompiledCostResponse(b))
}

func (s *Server) handleCompiledMetrics(w http.ResponseWriter, r *http.Request) {
	instanceID, err := requiredString(r.URL.Query(), "instance_id")
	if err != nil {
		s.jsonError(w, r, err)
		return
	}

	report, err := s.deps.Instances.Collect(r.Context(), instanceID)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, NewMetricsResponse(report))
}

// NewCompiledCostResponse renders a breakdown as the /costs/compiled body.
func NewCompiledCostResponse(b *estimation.CostBreakdown) contracts.CompiledCostResponse {
	return contracts.CompiledCostResponse{
		InstancesNeeded: b.InstancesNeeded,
		Breakdown:       b.Breakdown(),
		CloudTotalCost:  b.FormattedProviderTotal(),
		ClientTotalCost: b.FormattedClientTotal(),
		ProfitToCompany: b.FormattedProfit(),
	}
}

// NewMetricsResponse renders an instance report as the
// /metrics/compiled-metrics body. Empty series encode as [].
func NewMetricsResponse(report *telemetry.InstanceReport) contracts.MetricsResponse {
	return contracts.MetricsResponse{
		InstanceID: report.InstanceID,
		Metrics: contracts.InstanceMetrics{
			CPUUtilization:    toSamples(report.CPUUtilization),
			MemoryUtilization: toSamples(report.MemoryUtilization),
			NetworkIn:         toSamples(report.NetworkIn),
			NetworkOut:        toSamples(report.NetworkOut),
		},
	}
}

func toSamples(in []telemetry.Sample) []contracts.Sample {
	out := make([]contracts.Sample, len(in))
	for i, s := range in {
		out[i] = contracts.Sample{Time: s.Time, Value: s.Value}
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

func loggerFrom(r *http.Request) *zerolog.Logger {
	return zerolog.Ctx(r.Context())
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// jsonError maps err to its status and structured body. Unclassified errors
// are reported as internal errors without leaking their text.
func (s *Server) jsonError(w http.ResponseWriter, r *http.Request, err error) {
	body := contracts.ErrorResponse{
		Error:   string(cerrors.CodeInternal),
		Message: "internal server error",
	}
	if cerr, ok := cerrors.As(err); ok {
		body.Error = string(cerr.Code)
		body.Message = cerr.Message
		body.Metric = cerr.Metric
		if (cerr.Code == cerrors.CodeService || cerr.Code == cerrors.CodeMetricFetch) && cerr.Cause != nil {
			body.Message = cerr.Message + ": " + cerr.Cause.Error()
		}
	}

	status := cerrors.HTTPStatus(err)
	event := loggerFrom(r).Warn()
	if status >= http.StatusInternalServerError {
		event = loggerFrom(r).Error()
	}
	event.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")

	s.jsonResponse(w, status, body)
}
