// Package fetch is the crawler's boundary to the network.
//
// A Fetcher returns either a Page or an *Error carrying a Kind. Four kinds
// are recoverable (MissingScheme, ConnectionError, InvalidURL,
// InvalidSchema): the crawler marks the URL broken and moves on. KindOther
// is deliberately narrow in what it excuses; anything unexpected, including a
// cancelled context, stops the crawl so it surfaces loudly.
//
// HTTP error statuses are not failures. A 404 page is a fetched page.
//
// # Usage
//
//	f, err := fetch.NewHTTPFetcher(fetch.WithTimeout(10 * time.Second))
//	page, err := f.Fetch(ctx, "https://example.com/")
//	if fetch.IsRecoverable(err) {
//		// record as broken
//	}
package fetch
