package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to CDP resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// adDomains are ad and tracking hosts dropped when ad blocking is on.
// Subdomains match too.
var adDomains = map[string]struct{}{
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"googleadservices.com":  {},
	"google-analytics.com":  {},
	"googletagmanager.com":  {},
	"googletagservices.com": {},
	"connect.facebook.net":  {},
	"adnxs.com":             {},
	"adsrvr.org":            {},
	"amazon-adsystem.com":   {},
	"criteo.com":            {},
	"criteo.net":            {},
	"outbrain.com":          {},
	"taboola.com":           {},
	"moatads.com":           {},
	"pubmatic.com":          {},
	"rubiconproject.com":    {},
	"scorecardresearch.com": {},
	"quantserve.com":        {},
	"hotjar.com":            {},
	"segment.io":            {},
	"ads-twitter.com":       {},
	"chartbeat.com":         {},
	"openx.net":             {},
	"casalemedia.com":       {},
	"demdex.net":            {},
	"krxd.net":              {},
	"consensu.org":          {},
}

// requestFilter decides which browser requests never leave the page.
// Scripts and documents are never blocked: interactive content needs them.
type requestFilter struct {
	types    map[proto.NetworkResourceType]struct{}
	blockAds bool
}

func newRequestFilter(blockedTypes []string, blockAds bool) requestFilter {
	f := requestFilter{
		types:    make(map[proto.NetworkResourceType]struct{}, len(blockedTypes)),
		blockAds: blockAds,
	}
	for _, name := range blockedTypes {
		if rt, ok := resourceTypes[name]; ok {
			f.types[rt] = struct{}{}
		}
	}
	return f
}

func (f requestFilter) empty() bool {
	return len(f.types) == 0 && !f.blockAds
}

func (f requestFilter) blocks(rt proto.NetworkResourceType, rawURL string) bool {
	if _, ok := f.types[rt]; ok {
		return true
	}
	if !f.blockAds {
		return false
	}
	u, err := url.Parse(rawURL)
	return err == nil && isAdDomain(u.Hostname())
}

// isAdDomain reports whether host or any parent domain is listed.
func isAdDomain(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := adDomains[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
	}
	return false
}

// setupHijack routes every request of page through f. It returns nil when
// f blocks nothing; otherwise the caller must Stop the router.
func setupHijack(page *rod.Page, f requestFilter) *rod.HijackRouter {
	if f.empty() {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if f.blocks(h.Request.Type(), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop.
	go router.Run()
	return router
}
