package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind        Kind
		name        string
		recoverable bool
	}{
		{KindMissingScheme, "MissingScheme", true},
		{KindConnectionError, "ConnectionError", true},
		{KindInvalidURL, "InvalidURL", true},
		{KindInvalidSchema, "InvalidSchema", true},
		{KindOther, "Other", false},
		{Kind(99), "Other", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.kind.String(); got != tt.name {
				t.Errorf("expected %q, got %q", tt.name, got)
			}
			if got := tt.kind.Recoverable(); got != tt.recoverable {
				t.Errorf("expected recoverable=%v, got %v", tt.recoverable, got)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	t.Run("wrapped fetch error keeps its kind", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("outer: %w", newError(KindInvalidSchema, "ftp://x", ErrUnsupportedScheme))
		if KindOf(err) != KindInvalidSchema {
			t.Errorf("expected InvalidSchema, got %s", KindOf(err))
		}
		if !IsRecoverable(err) {
			t.Error("expected wrapped error to be recoverable")
		}
		if !errors.Is(err, ErrUnsupportedScheme) {
			t.Error("expected Unwrap to expose the cause")
		}
	})

	t.Run("foreign error is Other", func(t *testing.T) {
		t.Parallel()

		err := errors.New("boom")
		if KindOf(err) != KindOther {
			t.Errorf("expected Other, got %s", KindOf(err))
		}
		if IsRecoverable(err) {
			t.Error("expected foreign error to be fatal")
		}
	})

	t.Run("nil is not recoverable", func(t *testing.T) {
		t.Parallel()

		if IsRecoverable(nil) {
			t.Error("expected nil to be not recoverable")
		}
	})
}

func TestHTTPFetcherValidation(t *testing.T) {
	t.Parallel()

	f, err := NewHTTPFetcher()
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	tests := []struct {
		name string
		url  string
		want Kind
	}{
		{"missing scheme", "example.com/page", KindMissingScheme},
		{"empty url", "", KindMissingScheme},
		{"unsupported scheme", "ftp://example.com/file", KindInvalidSchema},
		{"mailto", "mailto:someone@example.com", KindInvalidSchema},
		{"unparseable", "http://[::1", KindInvalidURL},
		{"no host", "http:///path", KindInvalidURL},
		{"colon in first segment", "1.2.3.4:80/x", KindInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := f.Fetch(context.Background(), tt.url)
			if err == nil {
				t.Fatalf("expected error for %q", tt.url)
			}
			var fe *Error
			if !errors.As(err, &fe) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if fe.Kind != tt.want {
				t.Errorf("expected %s, got %s (%v)", tt.want, fe.Kind, err)
			}
			if fe.URL != tt.url {
				t.Errorf("expected URL %q, got %q", tt.url, fe.URL)
			}
		})
	}
}

func TestHTTPFetcherFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body and metadata", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotCookie, gotHeader string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotCookie = r.Header.Get("Cookie")
			gotHeader = r.Header.Get("X-Test")
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, `<a href="/next">next</a>`)
		}))
		defer server.Close()

		f, err := NewHTTPFetcher(
			WithUserAgent("test-agent"),
			WithSiteCredentials("127.0.0.1", "session=abc", map[string]string{"X-Test": "yes"}),
		)
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		page, err := f.Fetch(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", page.StatusCode)
		}
		if !strings.Contains(string(page.Body), "/next") {
			t.Errorf("unexpected body %q", page.Body)
		}
		if page.ContentType != "text/html" {
			t.Errorf("expected text/html, got %q", page.ContentType)
		}
		if gotUA != "test-agent" {
			t.Errorf("expected user agent test-agent, got %q", gotUA)
		}
		if gotCookie != "session=abc" {
			t.Errorf("expected cookie session=abc, got %q", gotCookie)
		}
		if gotHeader != "yes" {
			t.Errorf("expected X-Test header, got %q", gotHeader)
		}
	})

	t.Run("error status is not a failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		page, err := f.Fetch(context.Background(), server.URL+"/missing")
		if err != nil {
			t.Fatalf("expected 404 to be fetched, got error: %v", err)
		}
		if page.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", page.StatusCode)
		}
	})

	t.Run("body is truncated to max size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, strings.Repeat("x", 100))
		}))
		defer server.Close()

		f, err := NewHTTPFetcher(WithMaxBodySize(10))
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		page, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Body) != 10 {
			t.Errorf("expected 10 bytes, got %d", len(page.Body))
		}
	})

	t.Run("follows redirects", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "new")
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		page, err := f.Fetch(context.Background(), server.URL+"/old")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.URL != server.URL+"/old" {
			t.Errorf("expected requested URL to be kept, got %q", page.URL)
		}
		if page.FinalURL != server.URL+"/new" {
			t.Errorf("expected final URL %q, got %q", server.URL+"/new", page.FinalURL)
		}
	})

	t.Run("redirect to unsupported scheme is InvalidSchema", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "ftp://example.com/file", http.StatusFound)
		}))
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		_, err = f.Fetch(context.Background(), server.URL)
		if KindOf(err) != KindInvalidSchema {
			t.Errorf("expected InvalidSchema, got %s (%v)", KindOf(err), err)
		}
	})

	t.Run("redirect loop is Other", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, r.URL.Path, http.StatusFound)
		}))
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		_, err = f.Fetch(context.Background(), server.URL+"/loop")
		if err == nil {
			t.Fatal("expected redirect loop to fail")
		}
		if KindOf(err) != KindOther {
			t.Errorf("expected Other, got %s (%v)", KindOf(err), err)
		}
	})
}

func TestHTTPFetcherConnectionErrors(t *testing.T) {
	t.Parallel()

	t.Run("refused connection", func(t *testing.T) {
		t.Parallel()

		// Reserve a port, then close the listener so nothing accepts on it.
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		addr := ln.Addr().String()
		_ = ln.Close()

		f, err := NewHTTPFetcher(WithTimeout(2 * time.Second))
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		_, err = f.Fetch(context.Background(), "http://"+addr+"/")
		if KindOf(err) != KindConnectionError {
			t.Errorf("expected ConnectionError, got %s (%v)", KindOf(err), err)
		}
	})

	t.Run("client timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		f, err := NewHTTPFetcher(WithTimeout(50 * time.Millisecond))
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		_, err = f.Fetch(context.Background(), server.URL)
		if KindOf(err) != KindConnectionError {
			t.Errorf("expected ConnectionError, got %s (%v)", KindOf(err), err)
		}
	})

	t.Run("server closes connection", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hj, ok := w.(http.Hijacker)
			if !ok {
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				return
			}
			_ = conn.Close()
		}))
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		_, err = f.Fetch(context.Background(), server.URL)
		if KindOf(err) != KindConnectionError {
			t.Errorf("expected ConnectionError, got %s (%v)", KindOf(err), err)
		}
	})

	t.Run("truncated body", func(t *testing.T) {
		t.Parallel()

		// The server closes the connection after a short write.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Length", "100")
			_, _ = io.WriteString(w, "short")
		}))
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		_, err = f.Fetch(context.Background(), server.URL)
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("expected unexpected EOF, got %v", err)
		}
		if KindOf(err) != KindConnectionError {
			t.Errorf("expected ConnectionError, got %s (%v)", KindOf(err), err)
		}
	})

	t.Run("cancelled context is Other", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}))
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = f.Fetch(ctx, server.URL)
		if err == nil {
			t.Fatal("expected cancelled fetch to fail")
		}
		if KindOf(err) != KindOther {
			t.Errorf("expected Other, got %s (%v)", KindOf(err), err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled in chain, got %v", err)
		}
	})
}

func TestNewHTTPFetcherProxy(t *testing.T) {
	t.Parallel()

	f, err := NewHTTPFetcher(WithProxy("127.0.0.1:9050"))
	if err != nil {
		t.Fatalf("expected SOCKS5 fetcher to be created, got %v", err)
	}
	if f.client.Transport == nil {
		t.Error("expected transport to be set")
	}
}

// routedTransport dials every request to the test server registered for its
// host, so tests can use distinct host names on one loopback interface.
func routedTransport(t *testing.T, routes map[string]*httptest.Server) *http.Transport {
	t.Helper()

	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			server, ok := routes[host]
			if !ok {
				return nil, fmt.Errorf("no route to %s", host)
			}
			var d net.Dialer
			return d.DialContext(ctx, network, server.Listener.Addr().String())
		},
	}
}

// recordingServer records the Cookie and Authorization headers it receives.
type recordingServer struct {
	*httptest.Server
	mu   sync.Mutex
	seen []string
}

func newRecordingServer(t *testing.T, handler http.HandlerFunc) *recordingServer {
	t.Helper()

	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.seen = append(rs.seen, r.Header.Get("Cookie")+"|"+r.Header.Get("Authorization")+"|"+r.Header.Get("X-Api-Key"))
		rs.mu.Unlock()
		if handler != nil {
			handler(w, r)
		}
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) requests() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.seen...)
}

func TestHTTPFetcherSiteCredentials(t *testing.T) {
	t.Parallel()

	newFetcher := func(t *testing.T, routes map[string]*httptest.Server) *HTTPFetcher {
		t.Helper()

		f, err := NewHTTPFetcher(
			WithTransport(routedTransport(t, routes)),
			WithSiteCredentials("site.test", "session=SECRET", map[string]string{
				"Authorization": "Bearer TOKEN",
				"X-Api-Key":     "KEY",
			}),
		)
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}
		return f
	}

	const withCreds = "session=SECRET|Bearer TOKEN|KEY"

	t.Run("only the configured host receives credentials", func(t *testing.T) {
		t.Parallel()

		site := newRecordingServer(t, nil)
		foreign := newRecordingServer(t, nil)
		f := newFetcher(t, map[string]*httptest.Server{
			"site.test":  site.Server,
			"other.test": foreign.Server,
		})

		for _, u := range []string{"http://site.test/", "http://other.test/"} {
			if _, err := f.Fetch(context.Background(), u); err != nil {
				t.Fatalf("fetch %s: %v", u, err)
			}
		}

		if got := site.requests(); len(got) != 1 || got[0] != withCreds {
			t.Errorf("expected site to receive credentials, got %q", got)
		}
		if got := foreign.requests(); len(got) != 1 || got[0] != "||" {
			t.Errorf("expected foreign host to receive no credentials, got %q", got)
		}
	})

	t.Run("www prefix matches the bare host", func(t *testing.T) {
		t.Parallel()

		site := newRecordingServer(t, nil)
		f := newFetcher(t, map[string]*httptest.Server{"www.site.test": site.Server})

		if _, err := f.Fetch(context.Background(), "http://www.site.test/"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := site.requests(); len(got) != 1 || got[0] != withCreds {
			t.Errorf("expected credentials for www host, got %q", got)
		}
	})

	t.Run("redirect to a foreign host drops credentials", func(t *testing.T) {
		t.Parallel()

		foreign := newRecordingServer(t, nil)
		site := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "http://other.test/landing", http.StatusFound)
		})
		f := newFetcher(t, map[string]*httptest.Server{
			"site.test":  site.Server,
			"other.test": foreign.Server,
		})

		page, err := f.Fetch(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.FinalURL != "http://other.test/landing" {
			t.Errorf("expected redirect to be followed, got %s", page.FinalURL)
		}
		if got := foreign.requests(); len(got) != 1 || got[0] != "||" {
			t.Errorf("expected redirect target to receive no credentials, got %q", got)
		}
	})

	t.Run("jar cookies are kept", func(t *testing.T) {
		t.Parallel()

		var second string
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				http.SetCookie(w, &http.Cookie{Name: "jar", Value: "1", Path: "/"})
				return
			}
			second = r.Header.Get("Cookie")
		}))
		defer server.Close()

		f := newFetcher(t, map[string]*httptest.Server{"site.test": server})
		for range 2 {
			if _, err := f.Fetch(context.Background(), "http://site.test/"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if !strings.Contains(second, "session=SECRET") || !strings.Contains(second, "jar=1") {
			t.Errorf("expected configured and jar cookies, got %q", second)
		}
	})

	t.Run("empty credentials are ignored", func(t *testing.T) {
		t.Parallel()

		f, err := NewHTTPFetcher(WithSiteCredentials("site.test", "", nil), WithSiteCredentials("", "a=b", nil))
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}
		if _, ok := f.client.Transport.(*siteTransport); ok {
			t.Error("expected no credential transport without credentials")
		}
	})
}
