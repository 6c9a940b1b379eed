package pipeline

import (
	"log/slog"

	"github.com/use-agent/lyftr/cleaner"
	"github.com/use-agent/lyftr/config"
	"github.com/use-agent/lyftr/scraper"
)

// RenderOptions derives the interaction simulator settings from cfg.
func RenderOptions(cfg config.ScraperConfig) scraper.RenderOptions {
	return scraper.RenderOptions{
		NavigationTimeout: cfg.NavigationTimeout,
		ActionTimeout:     cfg.ActionTimeout,
		MaxTabClicks:      cfg.MaxTabClicks,
		MaxLoadMoreScan:   cfg.MaxLoadMoreScan,
		ScrollDepth:       cfg.ScrollDepth,
		TabSettle:         cfg.TabSettle,
		LoadMoreSettle:    cfg.LoadMoreSettle,
		ScrollSettle:      cfg.ScrollSettle,
	}
}

// Build wires the production fetcher, renderer and cleaner. The returned
// Browser is nil when rendering is disabled or Chromium could not start;
// escalations then record a render error instead of rendering. Callers
// own the Browser and must Close it.
func Build(cfg *config.Config) (*Pipeline, *scraper.Browser) {
	fetcher := scraper.NewHTTPFetcher(cfg.Scraper.HTTPTimeout, cfg.Browser.DefaultProxy)

	var (
		browser  *scraper.Browser
		launcher scraper.Launcher = scraper.Unavailable(nil)
	)
	if cfg.Browser.Enabled {
		b, err := scraper.NewBrowser(cfg.Browser)
		if err != nil {
			slog.Warn("browser unavailable, dynamic rendering disabled", "error", err)
			launcher = scraper.Unavailable(err)
		} else {
			browser, launcher = b, b
		}
	}

	renderer := scraper.NewRenderer(launcher, RenderOptions(cfg.Scraper))
	return New(cfg.Scraper, fetcher, renderer, cleaner.NewCleaner()), browser
}
