// Package resolver turns raw anchor strings into absolute URLs.
//
// Resolution is a string-level operation on purpose: no "." or ".." segment
// collapsing, no case folding, no percent-decoding. URL identity in the
// crawler is the exact string this package produces, so all URL parsing is
// kept here and in the fetch adapter.
package resolver

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidPageURL is returned when a page URL cannot be split into its parts.
var ErrInvalidPageURL = errors.New("invalid page URL")

// wwwPrefix is stripped from the authority for same-site matching.
const wwwPrefix = "www."

// Context is derived from the URL of the page whose anchors are being resolved.
type Context struct {
	// Scheme is the page URL scheme, e.g. "https".
	Scheme string

	// Authority is the host[:port] part of the page URL.
	Authority string

	// StrippedAuthority is Authority without a leading "www.".
	// It is used to recognize absolute links to the same site.
	StrippedAuthority string

	// BasePrefix is Scheme + "://" + Authority.
	BasePrefix string

	// DirectoryPath is the page URL cut after its last "/", or the whole URL
	// when it has no path.
	DirectoryPath string
}

// NewContext builds the resolution context for pageURL.
func NewContext(pageURL string) (Context, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Context{}, fmt.Errorf("%w: %q: %w", ErrInvalidPageURL, pageURL, err)
	}

	directory := pageURL
	if strings.Contains(u.Path, "/") {
		directory = pageURL[:strings.LastIndex(pageURL, "/")+1]
	}

	return Context{
		Scheme:            u.Scheme,
		Authority:         u.Host,
		StrippedAuthority: strings.TrimPrefix(u.Host, wwwPrefix),
		BasePrefix:        u.Scheme + "://" + u.Host,
		DirectoryPath:     directory,
	}, nil
}

// Resolve returns the absolute URL for anchor found on the page described by ctx.
//
// Rules, first match wins:
//  1. root-relative ("/x"): BasePrefix + anchor
//  2. anchor contains StrippedAuthority: anchor as-is (same-site absolute link)
//  3. anchor does not start with "http": DirectoryPath + anchor
//  4. anything else: anchor as-is (foreign absolute link)
//
// An empty anchor resolves to DirectoryPath.
func Resolve(anchor string, ctx Context) string {
	switch {
	case strings.HasPrefix(anchor, "/"):
		return ctx.BasePrefix + anchor
	case strings.Contains(anchor, ctx.StrippedAuthority):
		return anchor
	case !strings.HasPrefix(anchor, "http"):
		return ctx.DirectoryPath + anchor
	default:
		return anchor
	}
}

// ResolveAll resolves anchors in order.
func ResolveAll(anchors []string, ctx Context) []string {
	resolved := make([]string, 0, len(anchors))
	for _, anchor := range anchors {
		resolved = append(resolved, Resolve(anchor, ctx))
	}
	return resolved
}
