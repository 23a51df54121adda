// Package crawler provides the breadth-first crawl engine.
//
// # Architecture
//
// The Engine runs a single sequential loop over a FIFO frontier:
//
//	dequeue -> record visited -> fetch -> extract anchors -> resolve -> enqueue new links
//
// It depends on two collaborators behind small interfaces, fetch.Fetcher and
// extract.Extractor, so the loop can be driven by an HTTP client in
// production and by in-memory site graphs in tests.
//
// # Bookkeeping rules
//
//   - A dequeued URL is always recorded as visited, before its fetch.
//   - A recoverable fetch failure additionally records the URL as broken and
//     skips extraction. Broken URLs therefore also appear as visited.
//   - A URL is never queued twice and never queued again once visited.
//   - Any other fetch failure aborts the run.
//
// The run ends when the frontier is empty or the visit limit (default 100)
// has been reached.
//
// # Usage
//
//	f, _ := fetch.NewHTTPFetcher()
//	engine := crawler.NewEngine(f, extract.NewHTMLExtractor(), crawler.WithVisitLimit(50))
//	report, err := engine.Run(ctx, "https://example.com/")
package crawler
