// Package main provides the entry point for the bfscrawler CLI.
//
// bfscrawler crawls a web site breadth-first from a seed URL, follows the
// anchors it finds, and reports which URLs were visited and which were
// broken.
//
// Usage:
//
//	bfscrawler crawl <seed-url>
//	bfscrawler crawl --limit 500 --json https://example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
