package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// validateURL rejects URLs the fetcher can never request.
// The checks mirror what an HTTP client library reports before dialing.
func validateURL(rawURL string) *Error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return newError(KindInvalidURL, rawURL, err)
	}
	if u.Scheme == "" {
		return newError(KindMissingScheme, rawURL, ErrMissingScheme)
	}
	if !isSupportedScheme(u.Scheme) {
		return newError(KindInvalidSchema, rawURL, ErrUnsupportedScheme)
	}
	if u.Host == "" {
		return newError(KindInvalidURL, rawURL, ErrMissingHost)
	}
	return nil
}

func isSupportedScheme(scheme string) bool {
	s := strings.ToLower(scheme)
	return s == "http" || s == "https"
}

// classify maps an error from sending a request or reading its body to a Kind.
// ctx is the caller's context; its cancellation is never recoverable.
func classify(ctx context.Context, err error) Kind {
	if ctx.Err() != nil {
		return KindOther
	}

	// net/http does not export its unsupported-scheme error; it shows up
	// when a redirect points at e.g. ftp://.
	if strings.Contains(err.Error(), "unsupported protocol scheme") {
		return KindInvalidSchema
	}

	var (
		netErr    net.Error
		opErr     *net.OpError
		dnsErr    *net.DNSError
		addrErr   *net.AddrError
		recordErr tls.RecordHeaderError
		verifyErr *tls.CertificateVerificationError
		authErr   x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		certErr   x509.CertificateInvalidError
	)

	switch {
	case errors.As(err, &opErr),
		errors.As(err, &dnsErr),
		errors.As(err, &addrErr),
		errors.As(err, &recordErr),
		errors.As(err, &verifyErr),
		errors.As(err, &authErr),
		errors.As(err, &hostErr),
		errors.As(err, &certErr):
		return KindConnectionError
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return KindConnectionError
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindConnectionError
	}

	return KindOther
}
