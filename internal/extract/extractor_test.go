package extract

import (
	"slices"
	"strings"
	"testing"
)

func TestHTMLExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "document order",
			html: `<html><body>
				<a href="/a">A</a>
				<p><a href="http://external.com">ext</a></p>
				<a href="page.html">rel</a>
			</body></html>`,
			want: []string{"/a", "http://external.com", "page.html"},
		},
		{
			name: "anchor without href yields empty string",
			html: `<a name="top">top</a><a href="/x">x</a>`,
			want: []string{"", "/x"},
		},
		{
			name: "empty href is kept",
			html: `<a href="">self</a>`,
			want: []string{""},
		},
		{
			name: "duplicates are kept",
			html: `<a href="/a">1</a><a href="/a">2</a>`,
			want: []string{"/a", "/a"},
		},
		{
			name: "values are not trimmed",
			html: `<a href=" /spaced ">s</a>`,
			want: []string{" /spaced "},
		},
		{
			name: "entities are decoded",
			html: `<a href="/q?a=1&amp;b=2">q</a>`,
			want: []string{"/q?a=1&b=2"},
		},
		{
			name: "uppercase tags",
			html: `<A HREF="/upper">U</A>`,
			want: []string{"/upper"},
		},
		{
			name: "other link-like elements are ignored",
			html: `<link href="/style.css"><img src="/i.png"><script src="/s.js"></script>`,
			want: []string{},
		},
		{
			name: "malformed markup",
			html: `<ul><li><a href="/one">one</a><li><a href="/two">two</ul>`,
			want: []string{"/one", "/two"},
		},
		{
			name: "non-html body",
			html: `{"json": true}`,
			want: []string{},
		},
	}

	e := NewHTMLExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := e.ExtractAnchors([]byte(tt.html))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHTMLExtractorExtract(t *testing.T) {
	t.Parallel()

	got, err := NewHTMLExtractor().Extract(strings.NewReader(`<a href="/stream">s</a>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []string{"/stream"}) {
		t.Errorf("expected [/stream], got %q", got)
	}
}
