package scraper

import (
	"context"
	"errors"
)

// Launcher opens isolated browser sessions. Each Page it returns has its own
// cookies and storage and must be closed by the caller.
type Launcher interface {
	Open(ctx context.Context) (Page, error)
}

// Page is a single browser tab driven by the interaction simulator.
type Page interface {
	// Navigate loads url and waits for the network to go idle, bounded by ctx.
	Navigate(ctx context.Context, url string) error
	// Elements returns the elements currently matching selector.
	Elements(ctx context.Context, selector string) ([]Element, error)
	// ScrollBy scrolls the viewport by the given fraction of the document height.
	ScrollBy(ctx context.Context, fraction float64) error
	// URL reports the address the tab is currently showing.
	URL(ctx context.Context) string
	// HTML snapshots the serialized DOM.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Element is a handle to a DOM element inside a Page.
type Element interface {
	Text(ctx context.Context) (string, error)
	Click(ctx context.Context) error
}

// ErrBrowserUnavailable is returned by a Launcher that has no browser.
var ErrBrowserUnavailable = errors.New("browser unavailable")

type unavailable struct{ err error }

// Unavailable returns a Launcher whose Open always fails with err (or
// ErrBrowserUnavailable when err is nil). It stands in when the browser is
// disabled or failed to start, so escalation degrades to a recorded error.
func Unavailable(err error) Launcher {
	if err == nil {
		err = ErrBrowserUnavailable
	}
	return unavailable{err: err}
}

func (u unavailable) Open(context.Context) (Page, error) { return nil, u.err }
