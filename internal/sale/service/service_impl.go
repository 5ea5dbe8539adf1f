package service

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/cafepos/internal/clock"
	obslogger "github.com/smallbiznis/cafepos/internal/observability/logger"
	"github.com/smallbiznis/cafepos/internal/observability/metrics"
	"github.com/smallbiznis/cafepos/internal/observability/tracing"
	"github.com/smallbiznis/cafepos/internal/sale/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	Repo         domain.Repository
	Metrics      *metrics.Metrics      `optional:"true"`
	SalesMetrics *metrics.SalesMetrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	repo         domain.Repository
	metrics      *metrics.Metrics
	salesMetrics *metrics.SalesMetrics
	tracer       trace.Tracer
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("sale.service"),
		clock:        clk,
		repo:         p.Repo,
		metrics:      p.Metrics,
		salesMetrics: p.SalesMetrics,
		tracer:       otel.Tracer("cafepos/sale"),
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.RecordResponse, error) {
	ctx, span := s.tracer.Start(ctx, "sale.Record", trace.WithAttributes(tracing.SafeAttributes(
		attribute.Int("sale.sessions", len(req.Sessions)),
		attribute.Int("sale.items", len(req.Items)),
	)...))
	defer span.End()

	timestamp := domain.FormatTimestamp(s.clock.Now())

	sessions := make([]domain.Session, len(req.Sessions))
	for i, in := range req.Sessions {
		sessions[i] = domain.Session{
			Computer:  in.Computer,
			Duration:  in.Duration,
			Charge:    in.Charge,
			Timestamp: timestamp,
		}
	}
	products := make([]domain.Product, len(req.Items))
	for i, in := range req.Items {
		products[i] = domain.Product{
			Name:      in.Name,
			Price:     in.Price,
			Timestamp: timestamp,
		}
	}

	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range sessions {
			if err := s.repo.InsertSession(ctx, tx, &sessions[i]); err != nil {
				return fmt.Errorf("insert session %d: %w", i, err)
			}
		}
		for i := range products {
			if err := s.repo.InsertProduct(ctx, tx, &products[i]); err != nil {
				return fmt.Errorf("insert product %d: %w", i, err)
			}
		}
		return nil
	})
	elapsed := time.Since(start)

	log := obslogger.WithContext(ctx, s.log)
	if err != nil {
		log.Error("sale rolled back",
			zap.String("timestamp", timestamp),
			zap.Int("sessions", len(sessions)),
			zap.Int("items", len(products)),
			zap.String("reason", metrics.ClassifyStoreFailure(err)),
			zap.Error(err),
		)
		s.salesMetrics.ObserveRollback(err, elapsed)
		s.metrics.RecordSale(ctx, metrics.SaleResultRolledBack)
		span.SetStatus(codes.Error, "sale rolled back")
		return nil, domain.ErrPersistence
	}

	s.salesMetrics.ObserveCommit(len(sessions), len(products), elapsed)
	s.metrics.RecordSale(ctx, metrics.SaleResultCommitted)

	resp := &domain.RecordResponse{
		RecordedAt: timestamp,
		SessionIDs: make([]int64, 0, len(sessions)),
		ItemIDs:    make([]int64, 0, len(products)),
	}
	for _, row := range sessions {
		resp.SessionIDs = append(resp.SessionIDs, row.ID)
	}
	for _, row := range products {
		resp.ItemIDs = append(resp.ItemIDs, row.ID)
	}

	log.Info("sale recorded",
		zap.String("timestamp", timestamp),
		zap.Int("sessions", len(sessions)),
		zap.Int("items", len(products)),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return resp, nil
}
