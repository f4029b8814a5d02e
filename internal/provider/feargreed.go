package provider

import (
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const fearGreedBaseURL = "https://api.alternative.me"

// NewFearGreedSource reads the latest fear & greed value, which is reported
// as the BTC RSI in [0, 100]. The API encodes the value as a string.
func NewFearGreedSource(tracer trace.Tracer, baseURL string, timeout time.Duration) *HTTPJSONSource {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = fearGreedBaseURL
	}
	return NewHTTPJSONSource(tracer, HTTPJSONConfig{
		Name:    "feargreed.btc_rsi",
		URL:     strings.TrimRight(baseURL, "/") + "/fng/?limit=1",
		Paths:   []string{"data.0.value"},
		Timeout: timeout,
	})
}
