// Package report renders crawl reports.
//
// Writers for each output format:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter and FullJSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown with a mermaid pie chart
//
// The report data lives in the model package; this package only formats it.
// All writers implement Writer and can be combined with MultiWriter.
package report
