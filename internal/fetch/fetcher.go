package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Default HTTPFetcher settings.
const (
	// DefaultTimeout bounds a single request including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024

	// DefaultUserAgent is sent when no User-Agent is configured.
	DefaultUserAgent = "bfscrawler/1.0 (+https://github.com/nao1215/bfscrawler)"

	// maxRedirects matches the redirect limit of net/http.
	maxRedirects = 10
)

// Page is the content returned by a successful fetch.
// Any HTTP status counts as success; only transport-level problems fail.
type Page struct {
	// URL is the URL that was requested.
	URL string

	// FinalURL is the URL after redirects.
	FinalURL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// ContentType is the Content-Type response header.
	ContentType string

	// Body is the response body, truncated to the configured maximum size.
	Body []byte
}

// Fetcher retrieves the content of a URL.
// Failures are returned as *Error so callers can inspect the Kind.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// HTTPFetcher is a Fetcher backed by net/http.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// Option configures an HTTPFetcher.
type Option func(*httpOptions)

type httpOptions struct {
	timeout      time.Duration
	userAgent    string
	maxBodySize  int64
	proxyAddress string
	sites        map[string]credentials
	transport    http.RoundTripper
}

// WithTimeout sets the per-request timeout. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *httpOptions) {
		o.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *httpOptions) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum number of body bytes to read.
// Non-positive values keep the default.
func WithMaxBodySize(n int64) Option {
	return func(o *httpOptions) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}

// WithProxy routes all connections through a SOCKS5 proxy at "host:port".
func WithProxy(address string) Option {
	return func(o *httpOptions) {
		o.proxyAddress = address
	}
}

// WithSiteCredentials sends cookie (raw, "a=b; c=d") and headers with
// requests to host, and to "www." + host. Requests to any other host,
// including redirect targets, carry none of them. Calling it again for the
// same host replaces the earlier values.
func WithSiteCredentials(host, cookie string, headers map[string]string) Option {
	return func(o *httpOptions) {
		if host == "" || (cookie == "" && len(headers) == 0) {
			return
		}
		if o.sites == nil {
			o.sites = make(map[string]credentials)
		}
		c := credentials{cookie: cookie, headers: make(map[string]string, len(headers))}
		for k, v := range headers {
			c.headers[k] = v
		}
		o.sites[strings.ToLower(host)] = c
	}
}

// WithTransport replaces the HTTP transport. It takes precedence over WithProxy.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *httpOptions) {
		o.transport = rt
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts ...Option) (*HTTPFetcher, error) {
	o := &httpOptions{
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(o)
	}

	transport := o.transport
	if transport == nil {
		t, err := newTransport(o.proxyAddress)
		if err != nil {
			return nil, err
		}
		transport = t
	}
	if len(o.sites) > 0 {
		transport = &siteTransport{next: transport, sites: o.sites}
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	client := &http.Client{
		Transport: transport,
		Timeout:   o.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &HTTPFetcher{
		client:      client,
		userAgent:   o.userAgent,
		maxBodySize: o.maxBodySize,
	}, nil
}

// newTransport builds the default transport, optionally dialing through SOCKS5.
func newTransport(proxyAddress string) (*http.Transport, error) {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if proxyAddress == "" {
		return transport, nil
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	transport.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return transport, nil
}

// Fetch performs a GET request for rawURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if ferr := validateURL(rawURL); ferr != nil {
		return nil, ferr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newError(KindInvalidURL, rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newError(classify(ctx, err), rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, newError(classify(ctx, err), rawURL, err)
	}

	return &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
