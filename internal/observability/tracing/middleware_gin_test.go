package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/cafepos/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedEngine(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), "req-1"))
		c.Next()
	})
	r.Use(ginMiddleware(tp.Tracer("test")))
	return r, recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func serve(r *gin.Engine, method, target string) {
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, target, nil))
}

func TestGinMiddlewareTagsReceiptRoute(t *testing.T) {
	r, recorder := newTracedEngine(t)
	r.POST(routeGenerateReceipt, func(c *gin.Context) {
		c.Header(headerReceiptNumber, "1790000000000000001")
		c.String(http.StatusOK, "receipt")
	})

	serve(r, http.MethodPost, "/generate-receipt?format=TEXT")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP POST /generate-receipt", spans[0].Name())

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "text", attrs["receipt.format"].AsString())
	assert.Equal(t, "1790000000000000001", attrs["receipt.number"].AsString())
	assert.Equal(t, "req-1", attrs["request_id"].AsString())
	assert.Equal(t, int64(http.StatusOK), attrs["http.status_code"].AsInt64())
}

func TestGinMiddlewareMasksUnknownReceiptFormat(t *testing.T) {
	r, recorder := newTracedEngine(t)
	r.POST(routeGenerateReceipt, func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	serve(r, http.MethodPost, "/generate-receipt?format=<script>")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "unsupported", attrs["receipt.format"].AsString())
	_, hasNumber := attrs["receipt.number"]
	assert.False(t, hasNumber)
}

func TestGinMiddlewareMarksFailedSale(t *testing.T) {
	r, recorder := newTracedEngine(t)
	r.POST(routeSaveSale, func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	serve(r, http.MethodPost, "/save-sale")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.False(t, spanAttrs(spans[0])["sale.committed"].AsBool())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestGinMiddlewareRecordsRateLimitEvent(t *testing.T) {
	r, recorder := newTracedEngine(t)
	r.POST(routeGenerateReceipt, func(c *gin.Context) {
		c.Status(http.StatusTooManyRequests)
	})

	serve(r, http.MethodPost, "/generate-receipt")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "receipt.rate_limited", spans[0].Events()[0].Name)
	assert.Equal(t, "pdf", spanAttrs(spans[0])["receipt.format"].AsString())
}
