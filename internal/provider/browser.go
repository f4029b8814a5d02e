package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"onchain-index/internal/domain"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// BrowserLauncher starts an isolated browser session.
type BrowserLauncher interface {
	Launch(ctx context.Context) (BrowserSession, error)
}

// BrowserSession is one page in one browser. Close must release every
// process and connection the session holds; it is safe to call once per
// successful Launch.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	// WaitElement blocks until selector matches or timeout elapses. A timeout
	// is reported as domain.ErrScrapeTimeout.
	WaitElement(ctx context.Context, selector string, timeout time.Duration) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// RodLauncher launches headless Chrome through go-rod, or attaches to a
// remote Chrome when RemoteURL is set.
type RodLauncher struct {
	RemoteURL string
	Stealth   bool
}

func NewRodLauncher(remoteURL string, useStealth bool) *RodLauncher {
	return &RodLauncher{RemoteURL: remoteURL, Stealth: useStealth}
}

func (l *RodLauncher) Launch(ctx context.Context) (BrowserSession, error) {
	wsURL := l.RemoteURL
	var lnch *launcher.Launcher

	if wsURL == "" {
		lnch = launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := lnch.Context(ctx).Launch()
		if err != nil {
			lnch.Cleanup()
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		log.Debug("browser: launched local chrome", "url", wsURL)
	} else {
		log.Debug("browser: connecting to remote", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	var (
		page *rod.Page
		err  error
	)
	if l.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		s := &rodSession{browser: b, lnch: lnch, remote: lnch == nil}
		_ = s.Close()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	return &rodSession{browser: b, page: page, lnch: lnch, remote: lnch == nil}, nil
}

type rodSession struct {
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher
	remote  bool
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	if err := s.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

func (s *rodSession) WaitElement(ctx context.Context, selector string, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	_, err := p.Element(selector)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("browser: %s not present after %s: %w", selector, timeout, domain.ErrScrapeTimeout)
	}
	return fmt.Errorf("browser: wait %s: %w", selector, err)
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: read html: %w", err)
	}
	return html, nil
}

// Close closes the page, then the browser and its launcher. A remote browser
// is left running; only our page is closed there.
func (s *rodSession) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		s.page = nil
	}
	// Browser.Close would terminate a remote Chrome shared with other
	// clients, so a remote session only closes its own page.
	if s.browser != nil && !s.remote {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	s.browser = nil
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return errors.Join(errs...)
}
