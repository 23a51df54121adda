package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/bfscrawler/internal/model"
)

// JSONWriter renders a crawl report as one JSON document followed by a newline.
// URLs are written verbatim: '&', '<' and '>' are not escaped.
type JSONWriter struct {
	baseWriter
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values with indent, each line starting with prefix.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix = prefix
		w.indent = indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter; output is compact unless an indent
// option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write implements Writer.
func (w *JSONWriter) Write(report *model.CrawlReport) (int, error) {
	return w.encode(report)
}

func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.prefix != "" || w.indent != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// JSONReport is the document written by FullJSONWriter.
type JSONReport struct {
	// Version is the bfscrawler version that produced the report.
	Version string `json:"version"`

	Report *model.CrawlReport `json:"report"`
}

// FullJSONWriter is a JSONWriter that wraps the report in a JSONReport.
type FullJSONWriter struct {
	*JSONWriter
	version string
}

// NewFullJSONWriter creates a FullJSONWriter stamping reports with version.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{JSONWriter: NewJSONWriter(output, opts...), version: version}
}

// Write implements Writer.
func (w *FullJSONWriter) Write(report *model.CrawlReport) (int, error) {
	return w.encode(&JSONReport{Version: w.version, Report: report})
}
