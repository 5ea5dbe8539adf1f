package metricspush

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/cafepos/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("metrics.push",
	fx.Provide(NewPusher),
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, pusher Pusher, logger *zap.Logger) {
		if pusher == nil {
			return
		}
		w := NewWorker(pusher, prometheus.DefaultGatherer, cfg.MetricsPush.Interval, logger)
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				w.Start()
				return nil
			},
			OnStop: w.Stop,
		})
	}),
)

// Worker pushes on a fixed interval and once more on Stop so the last
// sales of a shift are not lost.
type Worker struct {
	pusher   Pusher
	gatherer prometheus.Gatherer
	interval time.Duration
	logger   *zap.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewWorker(pusher Pusher, gatherer prometheus.Gatherer, interval time.Duration, logger *zap.Logger) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		pusher:   pusher,
		gatherer: gatherer,
		interval: interval,
		logger:   logger.Named("metrics.push"),
	}
}

func (w *Worker) Start() {
	if w.stopCh != nil {
		return
	}
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.logger.Info("starting metrics push worker", zap.Duration("interval", w.interval))

	go func() {
		defer close(w.doneCh)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.pushOnce(context.Background())
			case <-w.stopCh:
				return
			}
		}
	}()
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.stopCh == nil {
		return nil
	}
	close(w.stopCh)
	select {
	case <-w.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.pushOnce(ctx)
	return nil
}

func (w *Worker) pushOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()
	if err := w.pusher.Push(ctx, w.gatherer); err != nil {
		w.logger.Warn("metrics push failed", zap.Error(err))
	}
}
