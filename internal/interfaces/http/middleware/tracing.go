// Package middleware provides the gin middleware of the site progress API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength is the maximum accepted length of an incoming request ID
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
	// TracerProvider overrides the global provider when set.
	TracerProvider trace.TracerProvider
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "site-progress",
		Enabled:     true,
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig returns otelgin middleware. Install SpanEnricher after
// it to add site attributes and error status to the server span.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	var opts []otelgin.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanEnricher adds the request ID and, on grid routes, the building and
// process path parameters to the current span. Client errors are marked with
// codes.Error here; otelgin marks 5xx itself after this handler returns and
// clears the description, so the error text is also kept as the
// error.description attribute.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if building := c.Param("building"); building != "" {
			span.SetAttributes(attribute.String("building", building))
		}
		if process := c.Param("process"); process != "" {
			span.SetAttributes(attribute.String("process", process))
		}

		c.Next()

		markSpanStatus(span, c.Writer.Status())
	}
}

func markSpanStatus(span trace.Span, status int) {
	if status < http.StatusBadRequest {
		return
	}
	msg := "Client Error"
	switch {
	case status >= http.StatusInternalServerError:
		msg = "Internal Server Error"
	case status == http.StatusNotFound:
		msg = "Not Found"
	}
	if status < http.StatusInternalServerError {
		span.SetStatus(codes.Error, msg)
	}
	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.String("error.description", msg),
	)
}
