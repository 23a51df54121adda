package report

import (
	"io"

	"github.com/nao1215/bfscrawler/internal/model"
)

// Writer defines the interface for report output.
// Implementations render a crawl report in one format.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CrawlReport) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers and stops at the
// first error. It returns the total bytes written.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how the crawl ended.
func statusText(report *model.CrawlReport) string {
	if report.Summary.LimitReached {
		return "Visit limit reached"
	}
	return "Complete"
}

// brokenReason returns the reason of a broken link, or "-" when unknown.
func brokenReason(b model.BrokenLink) string {
	if b.Reason == "" {
		return "-"
	}
	return b.Reason
}
