package provider

import (
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const cryptoQuantBaseURL = "https://api.cryptoquant.com/v1"

// CryptoQuantMetric identifies one daily BTC indicator on CryptoQuant.
type CryptoQuantMetric struct {
	Endpoint string
	Field    string
}

var (
	MetricPuellMultiple = CryptoQuantMetric{Endpoint: "btc/network-indicator/puell-multiple", Field: "puell_multiple"}
	MetricNUPL          = CryptoQuantMetric{Endpoint: "btc/network-indicator/nupl", Field: "nupl"}
	MetricMVRV          = CryptoQuantMetric{Endpoint: "btc/market-indicator/mvrv", Field: "mvrv"}
)

// NewCryptoQuantSource reads the latest daily value of metric. The API
// requires a bearer token; an empty token fails before any request is made.
func NewCryptoQuantSource(tracer trace.Tracer, baseURL, token string, metric CryptoQuantMetric, timeout time.Duration) *HTTPJSONSource {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = cryptoQuantBaseURL
	}
	return NewHTTPJSONSource(tracer, HTTPJSONConfig{
		Name:        "cryptoquant." + metric.Field,
		URL:         fmt.Sprintf("%s/%s?window=day&limit=1", strings.TrimRight(baseURL, "/"), metric.Endpoint),
		Paths:       []string{"result.data.0." + metric.Field},
		BearerToken: token,
		RequireAuth: true,
		Timeout:     timeout,
	})
}
