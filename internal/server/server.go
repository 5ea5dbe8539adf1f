package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/cafepos/internal/config"
	"github.com/smallbiznis/cafepos/internal/observability"
	obsmiddleware "github.com/smallbiznis/cafepos/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/cafepos/internal/observability/metrics"
	obstracing "github.com/smallbiznis/cafepos/internal/observability/tracing"
	"github.com/smallbiznis/cafepos/internal/ratelimit"
	"github.com/smallbiznis/cafepos/internal/receipt"
	receiptdomain "github.com/smallbiznis/cafepos/internal/receipt/domain"
	"github.com/smallbiznis/cafepos/internal/sale"
	saledomain "github.com/smallbiznis/cafepos/internal/sale/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const banner = "Cyber Café POS API is running."

var Module = fx.Module("http.server",
	sale.Module,
	receipt.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(CORS(cfg.CORSAllowedOrigins))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	genID      *snowflake.Node
	saleSvc    saledomain.Service
	receiptSvc receiptdomain.Service
	limiter    receiptLimiter
}

// receiptLimiter is the part of ratelimit.ReceiptLimiter the receipt route needs.
type receiptLimiter interface {
	Enabled() bool
	Allow(ctx context.Context, clientKey string) (*ratelimit.RateLimitResult, error)
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	GenID      *snowflake.Node
	SaleSvc    saledomain.Service
	ReceiptSvc receiptdomain.Service
	Limiter    *ratelimit.ReceiptLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http"),
		genID:      p.GenID,
		saleSvc:    p.SaleSvc,
		receiptSvc: p.ReceiptSvc,
	}
	if p.Limiter != nil {
		svc.limiter = p.Limiter
	}

	svc.RegisterRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, banner)
	})

	s.engine.POST("/save-sale", s.SaveSale)
	s.engine.POST("/generate-receipt", s.ReceiptRateLimit(), s.GenerateReceipt)

	if s.cfg.PublicDir != "" {
		s.engine.Static("/public", s.cfg.PublicDir)
	}
}
