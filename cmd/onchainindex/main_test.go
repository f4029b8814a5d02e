package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"onchain-index/internal/config"
	"onchain-index/internal/domain"
	"onchain-index/internal/report"
	"onchain-index/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func stubDeps(t *testing.T, cfg *config.Config, sources service.Sources) {
	t.Helper()

	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc
	origInitRedis := initRedisFunc
	origNewSources := newSourcesFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config { return cfg }
	initTracerFunc = func(ctx context.Context, version string) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	initRedisFunc = func(context.Context, string) (redisConn, error) {
		t.Fatal("redis must not be initialized without REDIS_URL")
		return nil, nil
	}
	newSourcesFunc = func(trace.Tracer, *config.Config) service.Sources { return sources }
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	t.Cleanup(func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
		initRedisFunc = origInitRedis
		newSourcesFunc = origNewSources
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	})
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		OutputPath:   filepath.Join(t.TempDir(), "output.csv"),
		CacheTTLSecs: 300,
		HTTPAddr:     ":0",
		LogLevel:     "error",
	}
}

func exampleSources() service.Sources {
	return service.Sources{
		UPDI:  fixedSource{name: "updi", values: []float64{1.5, -0.75, 2.25}},
		Price: fixedSource{name: "price", values: []float64{65432.1}},
		RSI:   fixedSource{name: "rsi", values: []float64{55}},
		Puell: fixedSource{name: "puell", values: []float64{1.2}},
		NUPL:  fixedSource{name: "nupl", values: []float64{0.3}},
		MVRV:  fixedSource{name: "mvrv", values: []float64{2.1}},
	}
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunPrintsTableAndWritesCSV(t *testing.T) {
	cfg := testConfig(t)
	stubDeps(t, cfg, exampleSources())

	out, err := runRoot(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(out, "Indicator,Value\n") {
		t.Fatalf("unexpected table header:\n%s", out)
	}
	if !strings.Contains(out, "On-Chain Index,0.54\n") {
		t.Fatalf("index row missing:\n%s", out)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("expected csv at %s: %v", cfg.OutputPath, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[1], ",0.54") {
		t.Fatalf("unexpected csv:\n%s", data)
	}
}

func TestRunSubcommandHonoursFlags(t *testing.T) {
	cfg := testConfig(t)
	stubDeps(t, cfg, exampleSources())
	path := filepath.Join(t.TempDir(), "custom.csv")

	out, err := runRoot(t, "run", "--output", path, "--format", "pretty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "Indicator,Value") || !strings.Contains(out, "On-Chain Index") {
		t.Fatalf("expected pretty table:\n%s", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected csv at flag path: %v", err)
	}
	if _, err := os.Stat(cfg.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("default output path must not be written, stat err = %v", err)
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	cfg := testConfig(t)
	stubDeps(t, cfg, exampleSources())

	if _, err := runRoot(t, "--format", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRunFailureWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	sources := exampleSources()
	sources.NUPL = fixedSource{name: "nupl", err: domain.NewFetchError("cryptoquant.nupl", domain.ErrAuth, nil)}
	stubDeps(t, cfg, sources)

	out, err := runRoot(t)
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if out != "" {
		t.Fatalf("nothing should be printed on failure, got:\n%s", out)
	}
	if _, err := os.Stat(cfg.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("csv must not be written on failure, stat err = %v", err)
	}
}

func TestRunWrapsSourcesWithRedisCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisURL = "redis://cache:6379/0"
	stubDeps(t, cfg, exampleSources())

	fake := &fakeRedis{data: map[string]string{}}
	initRedisFunc = func(ctx context.Context, addr string) (redisConn, error) {
		if addr != cfg.RedisURL {
			t.Errorf("unexpected redis addr %s", addr)
		}
		return fake, nil
	}

	if _, err := runRoot(t); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.data) != 6 {
		t.Fatalf("expected one cached reading per source, got %d", len(fake.data))
	}
	if fake.ttl != 300*time.Second {
		t.Fatalf("unexpected ttl %v", fake.ttl)
	}
	if !fake.closed {
		t.Fatal("expected redis client to be closed")
	}
}

func TestRunWithoutRedisWhenUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisURL = "localhost:6390"
	stubDeps(t, cfg, exampleSources())
	initRedisFunc = func(context.Context, string) (redisConn, error) {
		return nil, errors.New("connection refused")
	}

	if _, err := runRoot(t); err != nil {
		t.Fatalf("redis outage must not fail the run: %v", err)
	}
}

func TestShowPrintsStoredReport(t *testing.T) {
	cfg := testConfig(t)
	stubDeps(t, cfg, exampleSources())

	snap := domain.IndicatorSnapshot{BTCPrice: 1, BTCRSI: 2, PuellMultiple: 3, NUPL: 0.4, MVRV: 5, UPDIShort: 6, UPDIMedium: 7, UPDILong: 8, OnChainIndex: 0.9}
	if err := report.WriteCSV(cfg.OutputPath, snap); err != nil {
		t.Fatal(err)
	}

	out, err := runRoot(t, "show", "--format", "csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "NUPL,0.4\n") || !strings.Contains(out, "On-Chain Index,0.9\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestShowMissingFile(t *testing.T) {
	cfg := testConfig(t)
	stubDeps(t, cfg, exampleSources())

	_, err := runRoot(t, "show", "--input", filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, domain.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestServeBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	stubDeps(t, cfg, exampleSources())

	var servedAddr string
	started := make(chan struct{})
	startHTTPServerFunc = func(srv *http.Server) error {
		servedAddr = srv.Addr
		close(started)
		return http.ErrServerClosed
	}
	waitForSignalFunc = func(<-chan os.Signal) { <-started }

	done := make(chan error, 1)
	go func() {
		_, err := runRoot(t, "serve", "--addr", "127.0.0.1:9999")
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not exit")
	}
	if servedAddr != "127.0.0.1:9999" {
		t.Fatalf("unexpected listen address %q", servedAddr)
	}
}

func TestServeListenFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	stubDeps(t, cfg, exampleSources())

	block := make(chan struct{})
	defer close(block)
	startHTTPServerFunc = func(*http.Server) error { return errors.New("address in use") }
	waitForSignalFunc = func(<-chan os.Signal) { <-block }

	if _, err := runRoot(t, "serve"); err == nil {
		t.Fatal("expected listen error")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "onchainindex "+version+"\n" {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestExecuteExitCode(t *testing.T) {
	cfg := testConfig(t)
	stubDeps(t, cfg, exampleSources())

	if code := execute(context.Background(), []string{"version"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if code := execute(context.Background(), []string{"--format", "xml"}); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

type fixedSource struct {
	name   string
	values []float64
	err    error
}

func (s fixedSource) Name() string { return s.name }

func (s fixedSource) Fetch(ctx context.Context) (domain.Reading, error) {
	if s.err != nil {
		return domain.Reading{}, s.err
	}
	return domain.Reading{Source: s.name, Values: s.values, FetchedAt: time.Now().UTC()}, nil
}

type fakeRedis struct {
	data   map[string]string
	ttl    time.Duration
	closed bool
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}
