package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics_NilProvider(t *testing.T) {
	w := serve(okRouter(HTTPMetrics(nil)), http.MethodGet, "/test", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_DisabledProvider(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	w := serve(okRouter(HTTPMetrics(mp)), http.MethodGet, "/test", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetricsWithMeter(t *testing.T) {
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("test")))
	router.GET("/grids/:building/:process", func(c *gin.Context) {
		c.String(http.StatusOK, "grid")
	})
	router.POST("/grids/:building/:process/toggle", func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	serve(router, http.MethodGet, "/grids/101/indoor-unit", nil)
	serve(router, http.MethodGet, "/grids/102/outdoor-unit", nil)
	serve(router, http.MethodPost, "/grids/101/indoor-unit/toggle", nil)

	rm := collectMetrics(t, reader)

	total := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, total)
	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byRoute := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
		byRoute[route.AsString()] += dp.Value
	}
	assert.Equal(t, int64(2), byRoute["/grids/:building/:process"])
	assert.Equal(t, int64(1), byRoute["/grids/:building/:process/toggle"])

	assert.NotNil(t, findMetricByName(rm, "http_server_request_duration_seconds"))
	assert.NotNil(t, findMetricByName(rm, "http_server_response_size_bytes"))

	active := findMetricByName(rm, "http_server_active_requests")
	require.NotNil(t, active)
	activeSum, ok := active.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	for _, dp := range activeSum.DataPoints {
		assert.Equal(t, int64(0), dp.Value)
	}
}

func TestHTTPMetricsWithMeter_UnmatchedRoute(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("test")))

	serve(router, http.MethodGet, "/nowhere", nil)

	total := findMetricByName(collectMetrics(t, reader), "http_server_request_total")
	require.NotNil(t, total)
	sum := total.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	route, _ := sum.DataPoints[0].Attributes.Value(telemetry.AttrHTTPRoute)
	assert.Equal(t, "unknown", route.AsString())
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(http.StatusOK))
	assert.Equal(t, "4xx", StatusClass(http.StatusNotFound))
	assert.Equal(t, "5xx", StatusClass(http.StatusServiceUnavailable))
	assert.Equal(t, "unknown", StatusClass(42))
}
