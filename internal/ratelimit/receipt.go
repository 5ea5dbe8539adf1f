package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cafepos/internal/config"
)

const keyReceiptClient = "cafepos:receipt:client:%s"

// ReceiptLimiter throttles receipt rendering per client. A nil limiter allows everything.
type ReceiptLimiter struct {
	client *redis.Client
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewReceiptLimiter(cfg config.Config) (*ReceiptLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ReceiptRate <= 0 || limitCfg.ReceiptBurst <= 0 {
		return nil, errors.New("receipt rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &ReceiptLimiter{
		client: client,
		bucket: NewTokenBucket(client),
		rate:   limitCfg.ReceiptRate,
		burst:  limitCfg.ReceiptBurst,
	}, nil
}

func (l *ReceiptLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *ReceiptLimiter) Allow(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "unknown"
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyReceiptClient, clientKey), l.rate, l.burst)
}

func (l *ReceiptLimiter) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}
