package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"onchain-index/internal/domain"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultHTTPTimeout = 15 * time.Second

var errNoCredential = errors.New("no API credential configured")

// HTTPJSONConfig describes one JSON endpoint and the gjson paths of the
// values to extract from its body.
type HTTPJSONConfig struct {
	Name        string
	URL         string
	Paths       []string
	BearerToken string
	RequireAuth bool
	Timeout     time.Duration
}

// HTTPJSONSource fetches indicator values with a single GET against a JSON API.
type HTTPJSONSource struct {
	client *resty.Client
	tracer trace.Tracer
	cfg    HTTPJSONConfig
}

func NewHTTPJSONSource(tracer trace.Tracer, cfg HTTPJSONConfig) *HTTPJSONSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	return &HTTPJSONSource{
		client: resty.New().SetTimeout(cfg.Timeout),
		tracer: tracer,
		cfg:    cfg,
	}
}

func (s *HTTPJSONSource) Name() string { return s.cfg.Name }

func (s *HTTPJSONSource) Fetch(ctx context.Context) (domain.Reading, error) {
	ctx, span := s.tracer.Start(ctx, "indicator."+s.cfg.Name+".fetch")
	defer span.End()
	span.SetAttributes(attribute.String("indicator.url", s.cfg.URL))

	values, err := s.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Reading{}, err
	}
	return domain.Reading{Source: s.cfg.Name, Values: values, FetchedAt: time.Now().UTC()}, nil
}

func (s *HTTPJSONSource) fetch(ctx context.Context) ([]float64, error) {
	token := strings.TrimSpace(s.cfg.BearerToken)
	if s.cfg.RequireAuth && token == "" {
		return nil, domain.NewFetchError(s.cfg.Name, domain.ErrAuth, errNoCredential)
	}

	req := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")
	if token != "" {
		req.SetAuthToken(token)
	}

	resp, err := req.Get(s.cfg.URL)
	if err != nil {
		return nil, domain.NewFetchError(s.cfg.Name, domain.ErrNetwork, err)
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, domain.NewFetchError(s.cfg.Name, domain.ErrAuth,
			fmt.Errorf("status %d: %s", status, truncate(resp.String(), 256)))
	case status != http.StatusOK:
		return nil, domain.NewFetchError(s.cfg.Name, domain.ErrNetwork,
			fmt.Errorf("status %d: %s", status, truncate(resp.String(), 256)))
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, domain.NewFetchError(s.cfg.Name, domain.ErrResponseFormat, errors.New("body is not valid JSON"))
	}

	values := make([]float64, 0, len(s.cfg.Paths))
	for _, path := range s.cfg.Paths {
		v, err := numberAt(body, path)
		if err != nil {
			return nil, domain.NewFetchError(s.cfg.Name, domain.ErrResponseFormat, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// numberAt reads a JSON number, or a string holding one, at path.
func numberAt(body []byte, path string) (float64, error) {
	res := gjson.GetBytes(body, path)
	switch res.Type {
	case gjson.Number:
		return res.Num, nil
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(res.Str), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("field %s: %q is not numeric", path, res.Str)
		}
		return v, nil
	case gjson.Null:
		if !res.Exists() {
			return 0, fmt.Errorf("field %s missing", path)
		}
		return 0, fmt.Errorf("field %s is null", path)
	default:
		return 0, fmt.Errorf("field %s has unexpected type %s", path, res.Type)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
