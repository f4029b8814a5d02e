package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"onchain-index/internal/cache"
	"onchain-index/internal/config"
	"onchain-index/internal/handler"
	"onchain-index/internal/provider"
	"onchain-index/internal/service"
	"onchain-index/pkg/tracing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// redisConn is the part of *redis.Client the CLI needs.
type redisConn interface {
	cache.RedisClient
	Close() error
}

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	initRedisFunc  = func(ctx context.Context, addr string) (redisConn, error) {
		client, err := cache.InitRedis(ctx, addr)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	newSourcesFunc         = newSources
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	exitFunc               = os.Exit
)

func main() {
	exitFunc(execute(context.Background(), os.Args[1:]))
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error("onchainindex failed", "err", err)
		return 1
	}
	return 0
}

func newSources(tracer trace.Tracer, cfg *config.Config) service.Sources {
	timeout := time.Duration(cfg.HTTPTimeoutSecs) * time.Second
	launcher := provider.NewRodLauncher(cfg.ChromeRemoteURL, cfg.UPDIStealth)

	return service.Sources{
		UPDI:  provider.NewUPDIPageSource(tracer, launcher, cfg.UPDIPageURL, time.Duration(cfg.UPDIWaitSecs)*time.Second),
		Price: provider.NewCoinDeskPriceSource(tracer, cfg.PriceAPIURL, timeout),
		RSI:   provider.NewFearGreedSource(tracer, cfg.FearGreedAPIURL, timeout),
		Puell: provider.NewCryptoQuantSource(tracer, cfg.CryptoQuantAPIURL, cfg.APIKey, provider.MetricPuellMultiple, timeout),
		NUPL:  provider.NewCryptoQuantSource(tracer, cfg.CryptoQuantAPIURL, cfg.APIKey, provider.MetricNUPL, timeout),
		MVRV:  provider.NewCryptoQuantSource(tracer, cfg.CryptoQuantAPIURL, cfg.APIKey, provider.MetricMVRV, timeout),
	}
}
