package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/bfscrawler/internal/model"
)

// maxReasonLen bounds the reason column of the broken link table.
const maxReasonLen = 80

// MarkdownWriter outputs reports as GitHub Flavored Markdown with tables,
// alerts and a mermaid pie chart, built with nao1215/markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeBroken(md, report)
	w.writeURLList(md, "Visited URLs", report.Visited, "No URLs were visited.")
	if len(report.Pending) > 0 {
		w.writeURLList(md, "Pending URLs", report.Pending, "")
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("BFS Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + report.Seed + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Visit Limit", strconv.Itoa(report.VisitLimit)},
			{"Status", w.statusWithIcon(report)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) statusWithIcon(report *model.CrawlReport) string {
	if report.Summary.LimitReached {
		return "⚠️ " + statusText(report)
	}
	return "✅ " + statusText(report)
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	s := report.Summary

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Visited", strconv.Itoa(s.Visited)},
			{"🟢 Fetched", strconv.Itoa(s.Fetched())},
			{"🔴 Broken", strconv.Itoa(s.Broken)},
			{"Discovered", strconv.Itoa(s.Discovered)},
			{"Pending", strconv.Itoa(s.Pending)},
		},
	})
	md.PlainText("")

	if s.Visited > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of fetched versus broken URLs.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Visited URLs"),
		piechart.WithShowData(true),
	)

	if s.Fetched() > 0 {
		chart.LabelAndIntValue("Fetched", uint64(s.Fetched()))
	}
	if s.Broken > 0 {
		chart.LabelAndIntValue("Broken", uint64(s.Broken))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s model.Summary) {
	switch {
	case s.Visited > 0 && s.Broken == s.Visited:
		md.Cautionf("None of the %d visited URLs could be fetched.", s.Visited)
	case s.Broken > 0:
		md.Warningf("%d of %d visited URLs are broken.", s.Broken, s.Visited)
	case s.LimitReached:
		md.Importantf("The visit limit stopped the crawl with %d URLs still pending.", s.Pending)
	case s.Visited > 0:
		md.Tip("No broken links found.")
	default:
		md.Note("Nothing was crawled.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeBroken(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Broken Links")
	md.PlainText("")

	if len(report.Broken) == 0 {
		md.PlainText("No broken links found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Broken))
	for i, b := range report.Broken {
		rows[i] = []string{"`" + b.URL + "`", b.Kind, truncateString(brokenReason(b), maxReasonLen)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, b := range report.Broken {
		if len(b.Reason) > maxReasonLen {
			md.Details(b.URL, b.Reason)
		}
	}
}

func (w *MarkdownWriter) writeURLList(md *markdown.Markdown, title string, urls []string, empty string) {
	md.H2(title)
	md.PlainText("")

	if len(urls) == 0 {
		md.PlainText(empty)
		md.PlainText("")
		return
	}

	md.BulletList(urls...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [bfscrawler](https://github.com/nao1215/bfscrawler)*")
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
