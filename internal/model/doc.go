// Package model defines the data produced by a crawl run.
//
// CrawlReport is shared by the crawler, which fills it, and the report
// writers, which render it. Keeping it here avoids an import cycle between
// those packages. All types marshal to JSON with snake_case keys.
package model
