package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/roadguard/internal/config"
	"github.com/spec-kit/roadguard/internal/domain"
)

const analysisKeyPrefix = "roadguard:analysis:"

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. An empty
// address yields a disabled wrapper.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; analysis cache disabled")
		return &Redis{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}

	return &Redis{Client: client}
}

// Enabled reports whether a client is configured.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// AnalysisCache keeps image analysis results in Redis.
type AnalysisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewAnalysisCache builds a cache whose entries live for ttl.
func NewAnalysisCache(client redis.Cmdable, ttl time.Duration) *AnalysisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AnalysisCache{client: client, ttl: ttl}
}

// Get returns the cached analysis for key, if any.
func (c *AnalysisCache) Get(ctx context.Context, key string) (*domain.ImageAnalysis, bool, error) {
	raw, err := c.client.Get(ctx, analysisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var analysis domain.ImageAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, false, err
	}
	return &analysis, true, nil
}

// Set stores analysis under key.
func (c *AnalysisCache) Set(ctx context.Context, key string, analysis *domain.ImageAnalysis) error {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, analysisKeyPrefix+key, raw, c.ttl).Err()
}
