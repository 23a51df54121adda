package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindOther is any failure the crawler does not know how to recover from.
	// The zero value, so an unclassified Error is never treated as recoverable.
	KindOther Kind = iota

	// KindMissingScheme means the URL has no scheme, e.g. "example.com/page".
	KindMissingScheme

	// KindConnectionError covers dial, DNS, TLS, proxy and timeout failures.
	KindConnectionError

	// KindInvalidURL means the URL could not be parsed or has no host.
	KindInvalidURL

	// KindInvalidSchema means the scheme is not one the fetcher can speak.
	KindInvalidSchema
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMissingScheme:
		return "MissingScheme"
	case KindConnectionError:
		return "ConnectionError"
	case KindInvalidURL:
		return "InvalidURL"
	case KindInvalidSchema:
		return "InvalidSchema"
	default:
		return "Other"
	}
}

// Recoverable reports whether a failure of this kind marks the URL broken
// and lets the crawl continue. KindOther aborts the crawl.
func (k Kind) Recoverable() bool {
	switch k {
	case KindMissingScheme, KindConnectionError, KindInvalidURL, KindInvalidSchema:
		return true
	default:
		return false
	}
}

// Sentinel causes for failures detected before any request is sent.
var (
	// ErrMissingScheme is the cause of KindMissingScheme failures.
	ErrMissingScheme = errors.New("no scheme supplied")

	// ErrMissingHost is the cause of KindInvalidURL failures on URLs without a host.
	ErrMissingHost = errors.New("no host supplied")

	// ErrUnsupportedScheme is the cause of KindInvalidSchema failures.
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

// Error is the failure returned by a Fetcher.
type Error struct {
	// Kind is the failure classification.
	Kind Kind

	// URL is the URL whose fetch failed.
	URL string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err as a fetch failure of the given kind.
func newError(kind Kind, rawURL string, err error) *Error {
	return &Error{Kind: kind, URL: rawURL, Err: err}
}

// KindOf returns the kind of err. Errors that are not an *Error are KindOther.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindOther
}

// IsRecoverable reports whether err is a fetch failure the crawl can skip past.
func IsRecoverable(err error) bool {
	return err != nil && KindOf(err).Recoverable()
}
