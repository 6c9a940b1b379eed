package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html/charset"
)

const (
	chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// DefaultHTTPTimeout bounds the whole static fetch, redirects included.
	DefaultHTTPTimeout = 20 * time.Second

	maxRedirects = 10
	maxBodyBytes = 10 << 20
)

// ErrTooManyRedirects is returned when a redirect chain exceeds maxRedirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// chromeH1Spec is a Chrome ClientHello with ALPN pinned to http/1.1 so the
// server never selects h2, which net/http cannot speak over a utls conn.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// HTTPFetcher retrieves raw HTML over plain HTTP with a Chrome TLS
// fingerprint. It is safe for concurrent use.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPFetcher builds a fetcher. A non-positive timeout selects
// DefaultHTTPTimeout. proxy may be empty or an http(s) proxy URL.
func NewHTTPFetcher(timeout time.Duration, proxy string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	transport := &http.Transport{
		DialTLSContext:      dialTLSChrome,
		ForceAttemptHTTP2:   false,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	// Through a proxy net/http tunnels with crypto/tls and never calls
	// DialTLSContext, so proxied requests lose the Chrome fingerprint.
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		timeout: timeout,
	}
}

// Fetch performs a GET against targetURL, following redirects, and returns
// the decoded body. Any transport failure, timeout or non-2xx status is an
// error.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("httpfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("httpfetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, URL: resp.Request.URL.String()}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		// Unknown charset: fall back to the raw bytes.
		body = io.LimitReader(resp.Body, maxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("httpfetch: read body: %w", err)
	}
	return string(data), nil
}

// CloseIdleConnections releases pooled connections.
func (f *HTTPFetcher) CloseIdleConnections() {
	f.client.CloseIdleConnections()
}

func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("httpfetch: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}
