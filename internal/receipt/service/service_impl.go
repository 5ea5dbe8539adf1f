package service

import (
	"context"
	"io"
	"strings"

	appconfig "github.com/smallbiznis/cafepos/internal/config"
	obslogger "github.com/smallbiznis/cafepos/internal/observability/logger"
	"github.com/smallbiznis/cafepos/internal/observability/metrics"
	"github.com/smallbiznis/cafepos/internal/observability/tracing"
	"github.com/smallbiznis/cafepos/internal/providers/pdf"
	"github.com/smallbiznis/cafepos/internal/providers/text"
	"github.com/smallbiznis/cafepos/internal/receipt/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Settings     *appconfig.ReceiptSettingsHolder
	PDF          *pdf.PDFProvider
	Text         *text.TextProvider
	Metrics      *metrics.Metrics      `optional:"true"`
	SalesMetrics *metrics.SalesMetrics `optional:"true"`
}

type Service struct {
	log          *zap.Logger
	settings     *appconfig.ReceiptSettingsHolder
	renderers    map[domain.Format]domain.Renderer
	defaultFmt   domain.Format
	metrics      *metrics.Metrics
	salesMetrics *metrics.SalesMetrics
	tracer       trace.Tracer
}

func New(p Params) domain.Service {
	svc := NewWithRenderers(p.Log, p.Settings, p.PDF, p.Text)
	svc.metrics = p.Metrics
	svc.salesMetrics = p.SalesMetrics
	return svc
}

// NewWithRenderers builds a Service without fx. The first renderer is the default format.
func NewWithRenderers(log *zap.Logger, settings *appconfig.ReceiptSettingsHolder, renderers ...domain.Renderer) *Service {
	if settings == nil {
		settings = appconfig.NewStaticReceiptSettings(appconfig.DefaultReceiptSettings())
	}
	svc := &Service{
		log:       log.Named("receipt.service"),
		settings:  settings,
		renderers: make(map[domain.Format]domain.Renderer, len(renderers)),
		tracer:    otel.Tracer("cafepos/receipt"),
	}
	for _, r := range renderers {
		if svc.defaultFmt == "" {
			svc.defaultFmt = r.Format()
		}
		svc.renderers[r.Format()] = r
	}
	return svc
}

// Render lays out the receipt and starts streaming it. The returned Stream
// yields bytes as the renderer produces them; a render failure surfaces as a
// read error. Closing the stream early stops the renderer.
func (s *Service) Render(ctx context.Context, req domain.RenderRequest) (*domain.Stream, error) {
	format := domain.Format(strings.ToLower(strings.TrimSpace(string(req.Format))))
	if format == "" {
		format = s.defaultFmt
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, domain.ErrUnsupportedFormat
	}

	settings := s.settings.Current()
	doc := domain.BuildDocument(req, domain.Layout{
		Title:    settings.Title,
		Currency: settings.Currency,
		Footer:   settings.Footer,
	})

	ctx, span := s.tracer.Start(ctx, "receipt.Render", trace.WithAttributes(tracing.SafeAttributes(
		attribute.String("receipt.format", string(format)),
		attribute.Int("sale.sessions", len(req.Sessions)),
		attribute.Int("sale.items", len(req.Items)),
	)...))

	pr, pw := io.Pipe()
	go func() {
		defer span.End()

		err := renderer.Render(ctx, pw, doc)
		s.salesMetrics.ObserveReceipt(string(format), err)
		if err != nil {
			obslogger.WithContext(ctx, s.log).Warn("receipt render aborted",
				zap.String("format", string(format)),
				zap.Error(err),
			)
			span.SetStatus(codes.Error, "receipt render aborted")
			pw.CloseWithError(err)
			return
		}
		s.metrics.RecordReceipt(ctx, string(format))
		pw.Close()
	}()

	return &domain.Stream{
		ReadCloser:  pr,
		ContentType: renderer.ContentType(),
		Filename:    renderer.Filename(),
	}, nil
}
