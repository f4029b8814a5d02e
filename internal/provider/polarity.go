package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"onchain-index/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	polarityPageURL = "https://www.polaritydigital.io/"

	// UPDIRowSelector matches the first data row of the Polarity Digital table.
	UPDIRowSelector = "tr.ant-table-row.ant-table-row-level-0"

	defaultUPDIWait = 10 * time.Second
)

// UPDI table columns, zero based: the 5th, 6th and 7th cells of the row.
var updiColumns = []int{4, 5, 6}

// UPDIPageSource scrapes BTC UPDI short, medium and long from the rendered
// Polarity Digital page. Each Fetch runs in its own browser session.
type UPDIPageSource struct {
	tracer   trace.Tracer
	launcher BrowserLauncher
	pageURL  string
	selector string
	wait     time.Duration
}

func NewUPDIPageSource(tracer trace.Tracer, launcher BrowserLauncher, pageURL string, wait time.Duration) *UPDIPageSource {
	if strings.TrimSpace(pageURL) == "" {
		pageURL = polarityPageURL
	}
	if wait <= 0 {
		wait = defaultUPDIWait
	}
	return &UPDIPageSource{
		tracer:   tracer,
		launcher: launcher,
		pageURL:  pageURL,
		selector: UPDIRowSelector,
		wait:     wait,
	}
}

func (s *UPDIPageSource) Name() string { return "polarity.updi" }

func (s *UPDIPageSource) Fetch(ctx context.Context) (domain.Reading, error) {
	ctx, span := s.tracer.Start(ctx, "indicator.polarity.updi.fetch")
	defer span.End()

	values, err := s.scrape(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Reading{}, err
	}
	return domain.Reading{Source: s.Name(), Values: values, FetchedAt: time.Now().UTC()}, nil
}

func (s *UPDIPageSource) scrape(ctx context.Context) ([]float64, error) {
	session, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, domain.NewFetchError(s.Name(), domain.ErrNetwork, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("browser session close failed", "source", s.Name(), "err", err)
		}
	}()

	if err := session.Navigate(ctx, s.pageURL); err != nil {
		return nil, domain.NewFetchError(s.Name(), domain.ErrNetwork, err)
	}

	if err := session.WaitElement(ctx, s.selector, s.wait); err != nil {
		if errors.Is(err, domain.ErrScrapeTimeout) {
			return nil, domain.NewFetchError(s.Name(), domain.ErrScrapeTimeout, err)
		}
		return nil, domain.NewFetchError(s.Name(), domain.ErrNetwork, err)
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return nil, domain.NewFetchError(s.Name(), domain.ErrNetwork, err)
	}

	values, err := ParseUPDIRow(html, s.selector)
	if err != nil {
		return nil, domain.NewFetchError(s.Name(), domain.ErrResponseFormat, err)
	}
	return values, nil
}

// ParseUPDIRow extracts the link text of the 5th, 6th and 7th cells of the
// first row matching rowSelector and parses each as a number.
func ParseUPDIRow(html, rowSelector string) ([]float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	row := doc.Find(rowSelector).First()
	if row.Length() == 0 {
		return nil, fmt.Errorf("row %q not found", rowSelector)
	}

	cells := row.Children()
	values := make([]float64, 0, len(updiColumns))
	for _, col := range updiColumns {
		cell := cells.Eq(col)
		if cell.Length() == 0 || !cell.Is("td") {
			return nil, fmt.Errorf("column %d missing", col+1)
		}
		link := cell.Find("a").First()
		if link.Length() == 0 {
			return nil, fmt.Errorf("column %d has no link", col+1)
		}
		v, err := parseSignedNumber(link.Text())
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", col+1, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func parseSignedNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "−", "-")
	if s == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not numeric", s)
	}
	return v, nil
}
