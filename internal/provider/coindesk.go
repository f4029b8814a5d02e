package provider

import (
	"time"

	"go.opentelemetry.io/otel/trace"
)

// NewCoinDeskPriceSource reads the BTC/USD spot price from the CoinDesk
// current price endpoint.
func NewCoinDeskPriceSource(tracer trace.Tracer, url string, timeout time.Duration) *HTTPJSONSource {
	return NewHTTPJSONSource(tracer, HTTPJSONConfig{
		Name:    "coindesk.btc_price",
		URL:     url,
		Paths:   []string{"bpi.USD.rate_float"},
		Timeout: timeout,
	})
}
