package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("CE_STR", "value")
	t.Setenv("CE_INT", "42")
	t.Setenv("CE_BAD_INT", "forty")
	t.Setenv("CE_BOOL", "TRUE")
	t.Setenv("CE_DUR", "1m30s")
	t.Setenv("CE_LIST", " a, ,b ")

	assert.Equal(t, "value", GetEnv("CE_STR", "x"))
	assert.Equal(t, "x", GetEnv("CE_UNSET_STR", "x"))
	assert.Equal(t, 42, GetEnvInt("CE_INT", 1))
	assert.Equal(t, 1, GetEnvInt("CE_BAD_INT", 1))
	assert.True(t, GetEnvBool("CE_BOOL", false))
	assert.True(t, GetEnvBool("CE_UNSET_BOOL", true))
	assert.Equal(t, 90*time.Second, GetEnvDuration("CE_DUR", time.Second))
	assert.Equal(t, []string{"a", "b"}, GetEnvList("CE_LIST", nil))
	assert.Equal(t, []string{"d"}, GetEnvList("CE_UNSET_LIST", []string{"d"}))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CE_DOTENV_A=from-file\nCE_DOTENV_B=from-file\n"), 0o600))
	t.Setenv("CE_DOTENV_B", "from-env")
	t.Cleanup(func() { os.Unsetenv("CE_DOTENV_A") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("CE_DOTENV_A"))
	assert.Equal(t, "from-env", os.Getenv("CE_DOTENV_B"))
}

func TestInitLoggerLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, InitLogger("DEBUG", false).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, InitLogger("", false).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, InitLogger("loud", true).GetLevel())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObservePricingLookup("AmazonEC2", OutcomeOK, 10*time.Millisecond)
	m.ObservePricingLookup("AmazonEC2", OutcomeOK, 10*time.Millisecond)
	m.ObserveMetricFetch("CPUUtilization", OutcomeEmpty, time.Millisecond)
	m.ObserveHTTP("/health", "GET", "200", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PricingLookups.WithLabelValues("AmazonEC2", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MetricFetches.WithLabelValues("CPUUtilization", OutcomeEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/health", "GET", "200")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.HTTPRequests, "cloudecon_http_requests_total")+
		testutil.CollectAndCount(m.PricingLookups)+testutil.CollectAndCount(m.MetricFetches))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("/", "GET", "200", time.Millisecond)
		m.ObservePricingLookup("AmazonS3", OutcomeError, time.Millisecond)
		m.ObserveMetricFetch("NetworkIn", OutcomeOK, time.Millisecond)
	})
}
