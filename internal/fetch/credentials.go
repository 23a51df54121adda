package fetch

import (
	"net/http"
	"strings"
)

// credentials are the cookie and headers configured for one host.
type credentials struct {
	cookie  string
	headers map[string]string
}

// siteTransport adds per-host credentials to each outgoing request.
// It works at the transport level so every hop of a redirect chain is
// matched against its own host.
type siteTransport struct {
	next  http.RoundTripper
	sites map[string]credentials
}

// lookup returns the credentials for host, falling back to host without
// a leading "www.".
func (t *siteTransport) lookup(host string) (credentials, bool) {
	host = strings.ToLower(host)
	if c, ok := t.sites[host]; ok {
		return c, true
	}
	c, ok := t.sites[strings.TrimPrefix(host, "www.")]
	return c, ok
}

// RoundTrip implements http.RoundTripper.
func (t *siteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c, ok := t.lookup(req.URL.Hostname())
	if !ok {
		return t.next.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.cookie != "" {
		// Keep cookies the jar already attached.
		if jar := req.Header.Get("Cookie"); jar != "" {
			req.Header.Set("Cookie", c.cookie+"; "+jar)
		} else {
			req.Header.Set("Cookie", c.cookie)
		}
	}
	return t.next.RoundTrip(req)
}
