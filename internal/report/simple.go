package report

import (
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/bfscrawler/internal/model"
)

// ruleWidth is the width of the section separators.
const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Output is plain text without color codes.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// showDiscovered adds the full discovered list to the output.
	showDiscovered bool

	// printer formats counts with digit grouping.
	printer *message.Printer
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithShowDiscovered configures the writer to list every discovered URL.
func WithShowDiscovered(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showDiscovered = show
	}
}

// WithLanguage sets the language used to format counts.
func WithLanguage(tag language.Tag) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.printer = message.NewPrinter(tag)
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeVisited(&sb, report)
	w.writeBroken(&sb, report)
	w.writeList(&sb, "pending", report.Pending)
	if w.showDiscovered {
		w.writeList(&sb, "discovered", report.Discovered)
	}

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                         BFS CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	sb.WriteString(w.printer.Sprintf("Seed:           %s\n", report.Seed))
	sb.WriteString(w.printer.Sprintf("Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(w.printer.Sprintf("Duration:       %s\n", report.Duration().Round(time.Millisecond)))
	sb.WriteString(w.printer.Sprintf("Visit Limit:    %d\n", report.VisitLimit))
	sb.WriteString(w.printer.Sprintf("Status:         %s\n", statusText(report)))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	writeSection(sb, "summary")

	s := report.Summary
	sb.WriteString(w.printer.Sprintf("  Visited:     %d\n", s.Visited))
	sb.WriteString(w.printer.Sprintf("  Fetched:     %d\n", s.Fetched()))
	sb.WriteString(w.printer.Sprintf("  Broken:      %d\n", s.Broken))
	sb.WriteString(w.printer.Sprintf("  Discovered:  %d\n", s.Discovered))
	sb.WriteString(w.printer.Sprintf("  Pending:     %d\n", s.Pending))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeVisited(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Visited) == 0 && !w.showEmpty {
		return
	}
	writeSection(sb, "visited")

	if len(report.Visited) == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for i, u := range report.Visited {
		marker := "+"
		if report.IsBroken(u) {
			marker = "x"
		}
		sb.WriteString(w.printer.Sprintf("  %4d [%s] %s\n", i+1, marker, u))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeBroken(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Broken) == 0 && !w.showEmpty {
		return
	}
	writeSection(sb, "broken links")

	if len(report.Broken) == 0 {
		sb.WriteString("  No broken links found\n\n")
		return
	}
	for _, b := range report.Broken {
		sb.WriteString(w.printer.Sprintf("  [!] %s\n", b.URL))
		sb.WriteString(w.printer.Sprintf("      Kind:   %s\n", b.Kind))
		sb.WriteString(w.printer.Sprintf("      Reason: %s\n", brokenReason(b)))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeList(sb *strings.Builder, title string, urls []string) {
	if len(urls) == 0 && !w.showEmpty {
		return
	}
	writeSection(sb, title)

	if len(urls) == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for _, u := range urls {
		sb.WriteString("  - ")
		sb.WriteString(u)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// writeSection writes an upper-cased section title between rules.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(cases.Upper(language.English).String(title))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}
