package ratelimit

import (
	"context"

	"github.com/smallbiznis/cafepos/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.limit",
	fx.Provide(provideReceiptLimiter),
)

func provideReceiptLimiter(lc fx.Lifecycle, cfg config.Config) (*ReceiptLimiter, error) {
	limiter, err := NewReceiptLimiter(cfg)
	if err != nil || limiter == nil {
		return limiter, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return limiter.Close()
		},
	})
	return limiter, nil
}
