package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"onchain-index/internal/domain"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "onchain:reading:"

type IndicatorSource interface {
	Name() string
	Fetch(ctx context.Context) (domain.Reading, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// CachedSource serves the last reading of the wrapped source while it is
// younger than ttl. Redis failures are logged and fall through to the source;
// source failures are never cached.
type CachedSource struct {
	tracer trace.Tracer
	source IndicatorSource
	redis  RedisClient
	ttl    time.Duration
}

func NewCachedSource(tracer trace.Tracer, source IndicatorSource, client RedisClient, ttl time.Duration) *CachedSource {
	return &CachedSource{tracer: tracer, source: source, redis: client, ttl: ttl}
}

func (c *CachedSource) Name() string { return c.source.Name() }

func (c *CachedSource) Fetch(ctx context.Context) (domain.Reading, error) {
	ctx, span := c.tracer.Start(ctx, "cache.fetch-reading")
	defer span.End()

	key := keyPrefix + c.source.Name()

	cached, err := c.get(ctx, key)
	if err != nil {
		log.Warn("redis cache read error", "key", key, "err", err)
	}
	if cached != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		log.Debug("indicator served from cache", "source", c.source.Name())
		return *cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	reading, err := c.source.Fetch(ctx)
	if err != nil {
		return domain.Reading{}, err
	}
	if err := c.set(ctx, key, reading); err != nil {
		log.Warn("redis cache write error", "key", key, "err", err)
	}
	return reading, nil
}

func (c *CachedSource) get(ctx context.Context, key string) (*domain.Reading, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var reading domain.Reading
	if err := json.Unmarshal(data, &reading); err != nil {
		return nil, err
	}
	return &reading, nil
}

func (c *CachedSource) set(ctx context.Context, key string, reading domain.Reading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, key, data, c.ttl).Err()
}
