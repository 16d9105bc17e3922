package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/lexscrape/extract"
	"github.com/hazyhaar/lexscrape/pipeline"
)

// NavigationTimeoutError reports a page that did not finish loading within
// the navigation bound.
type NavigationTimeoutError struct {
	URL     string
	Timeout string
	Err     error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("browser: %s not loaded within %s: %v", e.URL, e.Timeout, e.Err)
}

func (e *NavigationTimeoutError) Unwrap() error { return e.Err }

// Page is a loaded listing tab.
type Page struct {
	page   *rod.Page
	router *rod.HijackRouter
}

// OpenPage creates a tab with the session's identity applied, navigates to
// pageURL and waits for the load event. Only this wait is bounded.
func OpenPage(ctx context.Context, mgr *Manager, pageURL string) (*Page, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}
	cfg := mgr.cfg

	var page *rod.Page
	var err error
	if cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if err := configure(page, cfg); err != nil {
		page.Close()
		return nil, err
	}

	p := &Page{}
	if len(cfg.ResourceBlocking) > 0 {
		p.router = applyResourceBlocking(page, cfg.ResourceBlocking)
	}

	navCtx, cancel := context.WithTimeout(ctx, cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		p.page = page
		p.Close()
		return nil, navError(navCtx, pageURL, cfg, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		p.page = page
		p.Close()
		return nil, navError(navCtx, pageURL, cfg, err)
	}

	cfg.Logger.Info("browser: page loaded", "url", pageURL)
	p.page = page.Context(ctx)
	return p, nil
}

func configure(page *rod.Page, cfg Config) error {
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  cfg.ViewportWidth,
		Height: cfg.ViewportHeight,
	}); err != nil {
		return fmt.Errorf("browser: viewport: %w", err)
	}
	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      cfg.UserAgent,
			AcceptLanguage: cfg.Locale,
		}); err != nil {
			return fmt.Errorf("browser: user agent: %w", err)
		}
	}
	if err := (proto.EmulationSetLocaleOverride{Locale: cfg.Locale}).Call(page); err != nil {
		return fmt.Errorf("browser: locale: %w", err)
	}
	if err := (proto.EmulationSetTimezoneOverride{TimezoneID: cfg.Timezone}).Call(page); err != nil {
		return fmt.Errorf("browser: timezone: %w", err)
	}
	return nil
}

func navError(navCtx context.Context, pageURL string, cfg Config, err error) error {
	if errors.Is(navCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &NavigationTimeoutError{URL: pageURL, Timeout: cfg.NavTimeout.String(), Err: err}
	}
	return fmt.Errorf("browser: navigate %s: %w", pageURL, err)
}

// QueryAll implements pipeline.Page. It does not wait for late nodes.
func (p *Page) QueryAll(selector string) ([]extract.EntryNode, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: query %s: %w", selector, err)
	}
	nodes := make([]extract.EntryNode, len(els))
	for i, el := range els {
		nodes[i] = &Node{el: el}
	}
	return nodes, nil
}

// QueryText implements pipeline.Page.
func (p *Page) QueryText(selector string) (string, bool, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return "", false, fmt.Errorf("browser: query %s: %w", selector, err)
	}
	if len(els) == 0 {
		return "", false, nil
	}
	s, err := element{el: els[0]}.Text()
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// Close stops request interception and closes the tab.
func (p *Page) Close() error {
	if p.router != nil {
		if err := p.router.Stop(); err != nil {
			return fmt.Errorf("browser: stop router: %w", err)
		}
		p.router = nil
	}
	if p.page != nil {
		err := p.page.Close()
		p.page = nil
		return err
	}
	return nil
}

// Driver opens listing pages on a started Manager.
type Driver struct {
	mgr *Manager
}

// NewDriver creates a Driver. mgr must be started.
func NewDriver(mgr *Manager) *Driver {
	return &Driver{mgr: mgr}
}

// Navigate implements pipeline.Driver.
func (d *Driver) Navigate(ctx context.Context, url string) (pipeline.Page, error) {
	p, err := OpenPage(ctx, d.mgr, url)
	if err != nil {
		return nil, err
	}
	return p, nil
}
