package observability

import (
	"github.com/smallbiznis/cafepos/internal/observability/logger"
	"github.com/smallbiznis/cafepos/internal/observability/metrics"
	"github.com/smallbiznis/cafepos/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module provides the till's logger, tracer and meter along with the HTTP
// and sales collectors scraped on /metrics.
var Module = fx.Module("observability",
	fx.Provide(LoadConfig),
	fx.Provide(
		Config.LoggerConfig,
		Config.TracingConfig,
		Config.MetricsConfig,
	),
	fx.Provide(logger.New),
	fx.Provide(tracing.NewProvider),
	fx.Provide(
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		metrics.SalesWithConfig,
	),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
