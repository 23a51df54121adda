package model

import "time"

// CrawlReport is the outcome of one crawl run.
// All URL lists keep the order in which the crawler produced them.
type CrawlReport struct {
	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// VisitLimit is the maximum number of dequeues the run allowed.
	VisitLimit int `json:"visit_limit"`

	// StartedAt is when the crawl started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl loop terminated.
	FinishedAt time.Time `json:"finished_at"`

	// Visited lists every dequeued URL in dequeue order.
	// Broken URLs are included here too.
	Visited []string `json:"visited"`

	// Broken lists URLs whose fetch failed with a recoverable error.
	Broken []BrokenLink `json:"broken"`

	// Discovered lists every resolved link in first-seen order.
	Discovered []string `json:"discovered"`

	// Pending lists URLs still queued when the crawl stopped.
	Pending []string `json:"pending"`

	// Summary holds the counts derived from the lists above.
	Summary Summary `json:"summary"`
}

// BrokenLink is a URL that could not be fetched.
type BrokenLink struct {
	// URL is the URL that failed.
	URL string `json:"url"`

	// Kind is the failure classification, e.g. "ConnectionError".
	Kind string `json:"kind"`

	// Reason is the error message.
	Reason string `json:"reason"`
}

// Summary contains the counts of a crawl report.
type Summary struct {
	Visited    int `json:"visited"`
	Broken     int `json:"broken"`
	Discovered int `json:"discovered"`
	Pending    int `json:"pending"`

	// LimitReached is true when the crawl stopped because of the visit limit
	// rather than an empty frontier.
	LimitReached bool `json:"limit_reached"`
}

// NewCrawlReport creates an empty report for a crawl from seed.
func NewCrawlReport(seed string, visitLimit int) *CrawlReport {
	return &CrawlReport{
		Seed:       seed,
		VisitLimit: visitLimit,
		StartedAt:  time.Now(),
		Visited:    make([]string, 0),
		Broken:     make([]BrokenLink, 0),
		Discovered: make([]string, 0),
		Pending:    make([]string, 0),
	}
}

// Summarize recomputes Summary from the report lists.
func (r *CrawlReport) Summarize() Summary {
	r.Summary = Summary{
		Visited:      len(r.Visited),
		Broken:       len(r.Broken),
		Discovered:   len(r.Discovered),
		Pending:      len(r.Pending),
		LimitReached: len(r.Pending) > 0 && len(r.Visited) >= r.VisitLimit,
	}
	return r.Summary
}

// Duration returns how long the crawl ran.
// It is zero until FinishedAt is set.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Fetched returns the number of visited URLs that did not break.
func (s Summary) Fetched() int {
	return s.Visited - s.Broken
}

// IsBroken reports whether url is in the broken list.
func (r *CrawlReport) IsBroken(url string) bool {
	for _, b := range r.Broken {
		if b.URL == url {
			return true
		}
	}
	return false
}
