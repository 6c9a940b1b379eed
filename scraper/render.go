package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/use-agent/lyftr/models"
)

// TabSelectors are queried in order during the tab pass.
var TabSelectors = []string{"[role='tab']", "[data-tab]"}

// LoadMoreKeywords match (case-insensitively) the visible text of
// pagination and reveal controls.
var LoadMoreKeywords = []string{"load more", "show more", "more results", "next"}

const (
	loadMoreSelector = "button, a"
	tabLabelLen      = 30
	loadMoreLabelLen = 40
)

// RenderOptions tunes the interaction simulator.
type RenderOptions struct {
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	MaxTabClicks      int
	MaxLoadMoreScan   int
	ScrollDepth       int
	TabSettle         time.Duration
	LoadMoreSettle    time.Duration
	ScrollSettle      time.Duration
}

// DefaultRenderOptions mirrors the configuration defaults.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		NavigationTimeout: 30 * time.Second,
		ActionTimeout:     10 * time.Second,
		MaxTabClicks:      3,
		MaxLoadMoreScan:   20,
		ScrollDepth:       3,
		TabSettle:         time.Second,
		LoadMoreSettle:    1500 * time.Millisecond,
		ScrollSettle:      1500 * time.Millisecond,
	}
}

// RenderResult is what a dynamic render produced. HTML is empty when the
// session failed before a snapshot could be taken.
type RenderResult struct {
	HTML    string
	Clicks  []string
	Scrolls int
	Pages   []string
	Errors  []models.ErrorItem
}

func (r *RenderResult) fail(phase models.Phase, format string, args ...any) {
	r.Errors = append(r.Errors, models.ErrorItem{
		Message: fmt.Sprintf(format, args...),
		Phase:   phase,
	})
}

// Renderer loads a page in a browser session, exercises its tabs,
// load-more controls and scrolling, then snapshots the DOM.
type Renderer struct {
	launcher Launcher
	opts     RenderOptions
}

// NewRenderer wires a Renderer to launcher. Negative caps and depths are
// treated as zero, which disables that pass.
func NewRenderer(launcher Launcher, opts RenderOptions) *Renderer {
	opts.MaxTabClicks = max(opts.MaxTabClicks, 0)
	opts.MaxLoadMoreScan = max(opts.MaxLoadMoreScan, 0)
	opts.ScrollDepth = max(opts.ScrollDepth, 0)
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}
	return &Renderer{launcher: launcher, opts: opts}
}

// Render never returns nil. Fatal failures (session start, navigation,
// snapshot) are recorded with phase render and end the session; a failing
// tab click is recorded with phase interaction and skipped. The session is
// always closed.
func (r *Renderer) Render(ctx context.Context, url string) *RenderResult {
	res := &RenderResult{Clicks: []string{}, Pages: []string{}}

	page, err := r.launcher.Open(ctx)
	if err != nil {
		res.fail(models.PhaseRender, "render error: %v", err)
		return res
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			slog.Warn("render: session close failed", "url", url, "error", cerr)
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, r.opts.NavigationTimeout)
	err = page.Navigate(navCtx, url)
	cancel()
	if err != nil {
		res.fail(models.PhaseRender, "render error: navigate %s: %v", url, err)
		return res
	}
	res.Pages = append(res.Pages, page.URL(ctx))

	r.clickTabs(ctx, page, res)
	r.clickLoadMore(ctx, page, res)
	r.scroll(ctx, page, res)

	res.Pages = append(res.Pages, page.URL(ctx))

	actx, acancel := context.WithTimeout(ctx, r.opts.ActionTimeout)
	defer acancel()
	html, err := page.HTML(actx)
	if err != nil {
		res.fail(models.PhaseRender, "render error: snapshot: %v", err)
		return res
	}
	res.HTML = html

	slog.Debug("render: done",
		"url", url,
		"clicks", len(res.Clicks),
		"scrolls", res.Scrolls,
		"errors", len(res.Errors),
	)
	return res
}

func (r *Renderer) clickTabs(ctx context.Context, page Page, res *RenderResult) {
	for _, sel := range TabSelectors {
		els, err := r.elements(ctx, page, sel)
		if err != nil {
			res.fail(models.PhaseInteraction, "Failed tab query %s: %v", sel, err)
			continue
		}
		if len(els) > r.opts.MaxTabClicks {
			els = els[:r.opts.MaxTabClicks]
		}
		for _, el := range els {
			text, err := r.click(ctx, el, nil)
			if err != nil {
				res.fail(models.PhaseInteraction, "Failed tab click %s", sel)
				slog.Debug("render: tab click failed", "selector", sel, "error", err)
				continue
			}
			res.Clicks = append(res.Clicks, fmt.Sprintf("%s -> '%s'", sel, prefix(strings.TrimSpace(text), tabLabelLen)))
			if !settle(ctx, r.opts.TabSettle) {
				return
			}
		}
	}
}

// clickLoadMore clicks every scanned control whose text names a reveal
// action. Failures here are expected (stale or hidden controls) and are
// not reported.
func (r *Renderer) clickLoadMore(ctx context.Context, page Page, res *RenderResult) {
	els, err := r.elements(ctx, page, loadMoreSelector)
	if err != nil {
		slog.Debug("render: load-more query failed", "error", err)
		return
	}
	if len(els) > r.opts.MaxLoadMoreScan {
		els = els[:r.opts.MaxLoadMoreScan]
	}
	for _, el := range els {
		text, err := r.click(ctx, el, func(text string) bool {
			return isLoadMore(strings.ToLower(strings.TrimSpace(text)))
		})
		if err != nil {
			if !errors.Is(err, errSkipped) {
				slog.Debug("render: load-more click failed", "error", err)
			}
			continue
		}
		res.Clicks = append(res.Clicks, "click: "+prefix(strings.ToLower(strings.TrimSpace(text)), loadMoreLabelLen))
		if !settle(ctx, r.opts.LoadMoreSettle) {
			return
		}
	}
}

// scroll scrolls ScrollDepth times by half the document height. Scrolls counts
// only the attempts that succeeded; each failure is recorded instead.
func (r *Renderer) scroll(ctx context.Context, page Page, res *RenderResult) {
	for i := 0; i < r.opts.ScrollDepth; i++ {
		actx, cancel := context.WithTimeout(ctx, r.opts.ActionTimeout)
		err := page.ScrollBy(actx, 0.5)
		cancel()
		if err != nil {
			res.fail(models.PhaseInteraction, "Failed scroll %d: %v", i+1, err)
		} else {
			res.Scrolls++
		}
		if !settle(ctx, r.opts.ScrollSettle) {
			return
		}
	}
}

func (r *Renderer) elements(ctx context.Context, page Page, sel string) ([]Element, error) {
	actx, cancel := context.WithTimeout(ctx, r.opts.ActionTimeout)
	defer cancel()
	return page.Elements(actx, sel)
}

var errSkipped = errors.New("skipped")

// click reads el's text and clicks it, unless want rejects the text, in
// which case errSkipped is returned and no click happens.
func (r *Renderer) click(ctx context.Context, el Element, want func(string) bool) (string, error) {
	actx, cancel := context.WithTimeout(ctx, r.opts.ActionTimeout)
	defer cancel()

	text, err := el.Text(actx)
	if err != nil {
		return "", err
	}
	if want != nil && !want(text) {
		return text, errSkipped
	}
	if err := el.Click(actx); err != nil {
		return text, err
	}
	return text, nil
}

func isLoadMore(lowerText string) bool {
	for _, kw := range LoadMoreKeywords {
		if strings.Contains(lowerText, kw) {
			return true
		}
	}
	return false
}

// prefix returns the first n runes of s.
func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// settle waits d, returning false if ctx ended first.
func settle(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
