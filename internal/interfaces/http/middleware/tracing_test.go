package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func tracedRouter(t *testing.T, status int) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	router := gin.New()
	router.Use(RequestID(), TracingWithConfig(TracingConfig{
		ServiceName:    "site-progress-test",
		Enabled:        true,
		TracerProvider: tp,
	}), SpanEnricher())
	router.GET("/grids/:building/:process", func(c *gin.Context) {
		c.Status(status)
	})
	return router, sr
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	router := okRouter(TracingWithConfig(TracingConfig{Enabled: false}), SpanEnricher())

	w := serve(router, http.MethodGet, "/test", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_EnrichesGridSpan(t *testing.T) {
	router, sr := tracedRouter(t, http.StatusOK)

	serve(router, http.MethodGet, "/grids/101/indoor-unit", map[string]string{RequestIDHeader: "req-42"})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "req-42", attrs["request_id"].AsString())
	assert.Equal(t, "101", attrs["building"].AsString())
	assert.Equal(t, "indoor-unit", attrs["process"].AsString())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_MarksErrors(t *testing.T) {
	tests := []struct {
		status int
		msg    string
	}{
		{http.StatusBadRequest, "Client Error"},
		{http.StatusNotFound, "Not Found"},
		{http.StatusServiceUnavailable, "Internal Server Error"},
		{http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			router, sr := tracedRouter(t, tt.status)

			serve(router, http.MethodGet, "/grids/101/indoor-unit", nil)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, codes.Error, spans[0].Status().Code)
			attrs := spanAttrs(spans[0])
			assert.Equal(t, tt.msg, attrs["error.description"].AsString())
			assert.Equal(t, int64(tt.status), attrs["http.status_code"].AsInt64())
			if tt.status < http.StatusInternalServerError {
				assert.Equal(t, tt.msg, spans[0].Status().Description)
			}
		})
	}
}

func TestSpanEnricher_WithoutSpan(t *testing.T) {
	w := httptest.NewRecorder()
	router := gin.New()
	router.Use(SpanEnricher())
	router.GET("/grids/:building/:process", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grids/101/indoor-unit", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()

	assert.Equal(t, "site-progress", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
	assert.Nil(t, cfg.TracerProvider)
}
