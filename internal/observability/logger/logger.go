package logger

import (
	"context"
	"fmt"
	"strings"

	obscontext "github.com/smallbiznis/cafepos/internal/observability/context"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the till's zap logger. Fields map onto the LOG_* environment.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	// Level is a zap level name, info when empty.
	Level string
	// Format is json or console.
	Format string
	// Output is stdout, stderr or a file path.
	Output string

	Debug bool

	// Sampling caps repeated messages per second. It is ignored in debug mode.
	Sampling           bool
	SamplingInitial    int
	SamplingThereafter int
	IncludeCaller      bool
}

// New builds the process logger, installs it as the zap global and syncs it on stop.
func New(lc fx.Lifecycle, cfg Config) (*zap.Logger, error) {
	log, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)

	if lc != nil {
		lc.Append(fx.StopHook(func() {
			_ = log.Sync()
		}))
	}
	return log, nil
}

// Build turns cfg into a zap.Logger without touching globals.
func Build(cfg Config) (*zap.Logger, error) {
	levelName := strings.TrimSpace(cfg.Level)
	if levelName == "" {
		levelName = "info"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "ts"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	output := strings.TrimSpace(cfg.Output)
	if output == "" {
		output = "stdout"
	}

	service := strings.TrimSpace(cfg.ServiceName)
	if service == "" {
		service = "cafepos"
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Debug,
		DisableCaller:     !cfg.IncludeCaller,
		DisableStacktrace: !cfg.Debug,
		Encoding:          normalizeFormat(cfg.Format),
		EncoderConfig:     encoder,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields: map[string]interface{}{
			"service": service,
			"env":     strings.TrimSpace(cfg.Environment),
			"version": strings.TrimSpace(cfg.Version),
		},
	}
	if cfg.Sampling && !cfg.Debug {
		zapCfg.Sampling = &zap.SamplingConfig{
			Initial:    positiveOr(cfg.SamplingInitial, 100),
			Thereafter: positiveOr(cfg.SamplingThereafter, 100),
		}
	}

	return zapCfg.Build()
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func normalizeFormat(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		return "console"
	}
	return "json"
}

// FromContext returns a logger enriched with request-scoped fields.
func FromContext(ctx context.Context) *zap.Logger {
	return WithContext(ctx, zap.L())
}

// WithContext adds the request and trace ids carried by ctx, skipping absent ones.
func WithContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if ctx == nil || base == nil {
		return base
	}

	var fields []zap.Field
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
