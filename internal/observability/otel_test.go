package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"jobfit/internal/config"
	"jobfit/internal/errors"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func newTestManager(t *testing.T) (*ObservabilityManager, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := newMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return &ObservabilityManager{config: ObservabilityConfig{Enabled: true, ServiceName: "jobfit"}, metrics: m}, reader
}

func TestTrackOperationRecordsErrors(t *testing.T) {
	om, reader := newTestManager(t)

	require.NoError(t, om.TrackOperation(context.Background(), "predict", func(context.Context) error { return nil }))

	failure := errors.NewValidationError(errors.ErrCodeUnknownJob, "unknown job", nil)
	err := om.TrackOperation(context.Background(), "recommend", func(context.Context) error { return failure })
	assert.Same(t, failure, err)

	got := collect(t, reader)
	assert.Equal(t, int64(1), sumOf(t, got["jobfit_operation_errors_total"]))

	hist, ok := got["jobfit_operation_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestBusinessMetrics(t *testing.T) {
	om, reader := newTestManager(t)
	m := om.GetMetrics()
	ctx := context.Background()

	m.RecordPrediction(ctx, 3)
	m.RecordPrediction(ctx, 3)
	m.RecordRecommendation(ctx, "Backend Developer", 12, 2)
	m.RecordRateLimitHit(ctx, "/predict_jobs_probs", "ip")
	m.RecordReload(ctx, "watcher", true)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["jobfit_predictions_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["jobfit_recommendations_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["jobfit_rate_limit_hits_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["jobfit_model_reloads_total"]))
	assert.Contains(t, got, "jobfit_simulation_candidates")
}

func TestDisabledManagerIsInert(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{Enabled: false}, errors.NewNopLogger())
	require.NoError(t, err)

	called := false
	require.NoError(t, om.TrackOperation(context.Background(), "predict", func(context.Context) error {
		called = true
		return nil
	}))
	assert.True(t, called)

	m := om.GetMetrics()
	m.RecordPrediction(context.Background(), 1)
	m.RecordReload(context.Background(), "manual", false)

	h := om.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestGetObservabilityConfig(t *testing.T) {
	fallback := GetObservabilityConfig(nil, "1.2.3")
	assert.Equal(t, "jobfit", fallback.ServiceName)
	assert.Equal(t, "1.2.3", fallback.ServiceVersion)
	assert.True(t, fallback.Prometheus.Enabled)

	cfg := &config.Config{}
	cfg.Observability.Enabled = true
	cfg.Observability.ServiceName = "jobfit-api"
	cfg.Observability.SampleRate = 0.5
	cfg.Observability.Tracing.SampleRate = 0.25
	cfg.Observability.OTLP.Enabled = true
	cfg.Observability.OTLP.Endpoint = "http://collector:4318"

	got := GetObservabilityConfig(cfg, "dev")
	assert.Equal(t, "jobfit-api", got.ServiceName)
	assert.Equal(t, "dev", got.ServiceVersion)
	assert.Equal(t, 0.25, got.SampleRate)
	assert.True(t, got.OTLP.Enabled)
	assert.Equal(t, "http://collector:4318", got.OTLP.Endpoint)
}

func TestPrometheusExporterServesRegistry(t *testing.T) {
	reader, mux, err := SetupPrometheusExporter(PrometheusConfig{Enabled: true, Endpoint: "/metrics"})
	require.NoError(t, err)
	require.NotNil(t, reader)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()
	m, err := newMetrics(mp.Meter("test"))
	require.NoError(t, err)
	m.RecordPrediction(context.Background(), 2)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobfit_predictions_total")
}
