package tracing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/cafepos/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	routeSaveSale        = "/save-sale"
	routeGenerateReceipt = "/generate-receipt"

	headerReceiptNumber = "X-Receipt-Number"
)

// GinMiddleware opens a server span per request and tags till routes with
// their sale and receipt attributes.
func GinMiddleware() gin.HandlerFunc {
	return ginMiddleware(otel.Tracer("cafepos/http"))
}

func ginMiddleware(tracer trace.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+c.Request.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + c.Request.Method + " " + route)
		span.SetAttributes(SafeAttributes(append([]attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		}, routeAttributes(c, route)...)...)...)

		if status == http.StatusTooManyRequests {
			span.AddEvent("receipt.rate_limited")
		}
		if status >= http.StatusInternalServerError {
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		}
	}
}

func routeAttributes(c *gin.Context, route string) []attribute.KeyValue {
	switch route {
	case routeGenerateReceipt:
		format := strings.ToLower(strings.TrimSpace(c.Query("format")))
		switch format {
		case "":
			format = "pdf"
		case "pdf", "text":
		default:
			format = "unsupported"
		}
		attrs := []attribute.KeyValue{attribute.String("receipt.format", format)}
		if number := c.Writer.Header().Get(headerReceiptNumber); number != "" {
			attrs = append(attrs, attribute.String("receipt.number", number))
		}
		return attrs
	case routeSaveSale:
		return []attribute.KeyValue{attribute.Bool("sale.committed", c.Writer.Status() < http.StatusBadRequest)}
	default:
		return nil
	}
}
