// Package extract pulls raw anchor hrefs out of fetched pages.
package extract

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Extractor returns the raw href strings of a page's anchors.
type Extractor interface {
	ExtractAnchors(body []byte) ([]string, error)
}

// HTMLExtractor is an Extractor backed by golang.org/x/net/html.
//
// Anchors come out in document order with entity-decoded href values.
// Malformed markup is parsed leniently.
type HTMLExtractor struct{}

// NewHTMLExtractor creates an HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// ExtractAnchors returns one entry per <a> element in document order.
// An anchor without an href attribute yields "". Values are returned
// exactly as written, without trimming or resolution.
func (e *HTMLExtractor) ExtractAnchors(body []byte) ([]string, error) {
	return e.Extract(bytes.NewReader(body))
}

// Extract is ExtractAnchors for a stream.
func (e *HTMLExtractor) Extract(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	anchors := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "a") {
			anchors = append(anchors, getAttr(n, "href"))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return anchors, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
