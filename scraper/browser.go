package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/lyftr/config"
	"github.com/ysmood/gson"
	"golang.org/x/sync/semaphore"
)

// Browser owns one Chromium process and hands out incognito sessions.
// It is safe for concurrent use.
type Browser struct {
	browser     *rod.Browser
	launcher    *launcher.Launcher
	cfg         config.BrowserConfig
	sessions    *semaphore.Weighted
	maxSessions int
	active      atomic.Int32
}

// SessionStats is a point-in-time view of session usage.
type SessionStats struct {
	MaxSessions    int
	ActiveSessions int
}

// NewBrowser launches Chromium and connects to it over CDP.
func NewBrowser(cfg config.BrowserConfig) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	maxSessions := cfg.MaxSessions
	if maxSessions < 1 {
		maxSessions = 1
	}
	return &Browser{
		browser:     b,
		launcher:    l,
		cfg:         cfg,
		sessions:    semaphore.NewWeighted(int64(maxSessions)),
		maxSessions: maxSessions,
	}, nil
}

// Open starts a fresh incognito context with a single tab. It blocks while
// MaxSessions sessions are already open.
func (b *Browser) Open(ctx context.Context) (Page, error) {
	if err := b.sessions.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("browser: wait for session: %w", err)
	}
	b.active.Add(1)
	release := func() {
		b.active.Add(-1)
		b.sessions.Release(1)
	}

	incognito, err := b.browser.Incognito()
	if err != nil {
		release()
		return nil, fmt.Errorf("browser: incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		release()
		return nil, fmt.Errorf("browser: new page: %w", err)
	}

	if b.cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	if b.cfg.AcceptLanguage != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": b.cfg.AcceptLanguage}),
		}.Call(page)
	}

	return &rodPage{
		page:      page,
		incognito: incognito,
		router:    setupHijack(page, newRequestFilter(b.cfg.BlockedResourceTypes, b.cfg.BlockAds)),
		release:   release,
	}, nil
}

// Stats returns the current session usage.
func (b *Browser) Stats() SessionStats {
	return SessionStats{
		MaxSessions:    b.maxSessions,
		ActiveSessions: int(b.active.Load()),
	}
}

// Close kills the browser process. Open sessions become unusable.
func (b *Browser) Close() {
	slog.Info("browser shutting down")
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	b.launcher.Kill()
	slog.Info("browser shutdown complete")
}

// rodPage adapts a rod tab to Page. All operations bind the caller's
// context so a stuck CDP call cannot outlive its deadline.
type rodPage struct {
	page      *rod.Page
	incognito *rod.Browser
	router    *rod.HijackRouter
	release   func()
	closeOnce sync.Once
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)

	// WaitRequestIdle uses the Fetch domain, which conflicts with
	// HijackRequests on Chromium 145+. Fall back to DOM stability then.
	var waitIdle func()
	if p.router == nil {
		waitIdle = pg.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	}

	if err := pg.Navigate(url); err != nil {
		return err
	}
	if err := pg.WaitLoad(); err != nil {
		return err
	}

	// Network idle is best-effort: the load already succeeded, so hitting
	// the deadline here just means the page kept polling.
	if waitIdle != nil {
		waitIdle()
	} else if err := pg.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	return nil
}

func (p *rodPage) Elements(ctx context.Context, selector string) ([]Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = rodElement{el: el}
	}
	return out, nil
}

func (p *rodPage) ScrollBy(ctx context.Context, fraction float64) error {
	_, err := p.page.Context(ctx).Eval(`(f) => window.scrollBy(0, (document.body || document.documentElement).scrollHeight * f)`, fraction)
	return err
}

func (p *rodPage) URL(ctx context.Context) string {
	res, err := p.page.Context(ctx).Eval(`() => window.location.href`)
	if err == nil {
		if u := res.Value.Str(); u != "" {
			return u
		}
	}
	if info, err := p.page.Context(ctx).Info(); err == nil {
		return info.URL
	}
	return ""
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

// Close tears down the tab, its hijack router and its incognito context,
// then frees the session slot. Safe to call more than once.
func (p *rodPage) Close() error {
	var err error
	p.closeOnce.Do(func() {
		defer p.release()
		if p.router != nil {
			_ = p.router.Stop()
		}
		if cerr := p.page.Close(); cerr != nil {
			err = cerr
		}
		if cerr := p.incognito.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}

type rodElement struct{ el *rod.Element }

func (e rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders
// (map[string]gson.JSON).
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
