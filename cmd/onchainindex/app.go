package main

import (
	"context"
	"fmt"
	"time"

	"onchain-index/internal/cache"
	"onchain-index/internal/config"
	"onchain-index/internal/service"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/trace"
)

type app struct {
	cfg     *config.Config
	tracer  trace.Tracer
	service *service.SnapshotService
	closers []func()
}

// bootstrap loads configuration, sets up logging and tracing, and wires the
// indicator sources. Callers must call close when done.
func bootstrap(ctx context.Context) (*app, error) {
	cfg := loadSettings()

	tp, tracer, err := initTracerFunc(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("initialize tracer: %w", err)
	}
	a := &app{cfg: cfg, tracer: tracer}
	a.closers = append(a.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("error shutting down tracer provider", "err", err)
		}
	})

	sources := newSourcesFunc(tracer, cfg)
	if cfg.RedisURL != "" {
		client, err := initRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, fetching without cache", "err", err)
		} else {
			a.closers = append(a.closers, func() { _ = client.Close() })
			ttl := time.Duration(cfg.CacheTTLSecs) * time.Second
			sources = sources.Wrap(func(src service.IndicatorSource) service.IndicatorSource {
				return cache.NewCachedSource(tracer, src, client, ttl)
			})
		}
	}

	a.service = service.NewSnapshotService(tracer, sources)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// loadSettings reads .env and the environment and applies the log level.
func loadSettings() *config.Config {
	if err := loadEnvFunc(); err != nil {
		log.Debug("no .env file loaded", "err", err)
	}
	cfg := loadConfigFunc()
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return cfg
}
