// Package frontier holds the crawl queue and the result ledger.
//
// The Frontier is a FIFO queue with a membership set so a URL is never queued
// twice. The Ledger records the three outcome collections of a run:
// visited, broken and discovered URLs. Both keep insertion order so the
// crawl order and the reported collections are reproducible.
//
// Neither type is safe for concurrent use. The crawl engine is their only
// mutator and runs a single sequential loop.
package frontier
