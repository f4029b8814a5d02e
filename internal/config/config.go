package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	DefaultPriceAPIURL       = "https://api.coindesk.com/v1/bpi/currentprice/BTC.json"
	DefaultFearGreedAPIURL   = "https://api.alternative.me"
	DefaultCryptoQuantAPIURL = "https://api.cryptoquant.com/v1"
	DefaultUPDIPageURL       = "https://www.polaritydigital.io/"
	DefaultOutputPath        = "output.csv"
)

type Config struct {
	APIKey string

	PriceAPIURL       string
	FearGreedAPIURL   string
	CryptoQuantAPIURL string
	HTTPTimeoutSecs   int

	UPDIPageURL     string
	UPDIWaitSecs    int
	UPDIStealth     bool
	ChromeRemoteURL string

	OutputPath string

	RedisURL     string
	CacheTTLSecs int

	HTTPAddr string
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		APIKey:          strings.TrimSpace(os.Getenv("API_KEY")),
		ChromeRemoteURL: strings.TrimSpace(os.Getenv("CHROME_REMOTE_URL")),
		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
	}

	if cfg.APIKey == "" {
		log.Warn("API_KEY not set, CryptoQuant indicators will fail with an authorization error")
	}

	cfg.PriceAPIURL = stringOr("PRICE_API_URL", DefaultPriceAPIURL)
	cfg.FearGreedAPIURL = stringOr("FEAR_GREED_API_URL", DefaultFearGreedAPIURL)
	cfg.CryptoQuantAPIURL = stringOr("CRYPTOQUANT_API_URL", DefaultCryptoQuantAPIURL)
	cfg.UPDIPageURL = stringOr("UPDI_PAGE_URL", DefaultUPDIPageURL)
	cfg.OutputPath = stringOr("OUTPUT_PATH", DefaultOutputPath)

	cfg.HTTPTimeoutSecs = positiveIntOr("HTTP_TIMEOUT_SECS", 15)
	cfg.UPDIWaitSecs = positiveIntOr("UPDI_WAIT_SECS", 10)
	cfg.CacheTTLSecs = positiveIntOr("CACHE_TTL_SECS", 300)

	cfg.UPDIStealth = true
	if v := strings.TrimSpace(os.Getenv("UPDI_STEALTH")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UPDIStealth = b
		} else {
			log.Warn("invalid UPDI_STEALTH, defaulting to true", "value", v)
		}
	}

	cfg.HTTPAddr = stringOr("HTTP_ADDR", ":8080")

	cfg.LogLevel = strings.ToLower(stringOr("LOG_LEVEL", "info"))
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn("unsupported LOG_LEVEL, defaulting to info", "value", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg
}

func stringOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func positiveIntOr(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn("invalid "+key+", using default", "value", v, "default", def)
		return def
	}
	return n
}
