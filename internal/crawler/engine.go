package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/bfscrawler/internal/extract"
	"github.com/nao1215/bfscrawler/internal/fetch"
	"github.com/nao1215/bfscrawler/internal/frontier"
	"github.com/nao1215/bfscrawler/internal/model"
	"github.com/nao1215/bfscrawler/internal/resolver"
)

// DefaultVisitLimit is the number of URLs dequeued before a crawl stops.
const DefaultVisitLimit = 100

// Visit describes one dequeued URL after its fetch attempt.
type Visit struct {
	// Number is the 1-based position of the URL in dequeue order.
	Number int

	// URL is the dequeued URL.
	URL string

	// Err is the recoverable fetch error, or nil when the page was fetched.
	Err error

	// Anchors is the number of anchors extracted from the page.
	Anchors int

	// Enqueued is the number of new URLs this page added to the frontier.
	Enqueued int
}

// Broken reports whether the fetch of this visit failed.
func (v Visit) Broken() bool {
	return v.Err != nil
}

// Engine runs a breadth-first crawl.
//
// An Engine owns the frontier and ledger of the run in progress and is the
// only code that mutates them. It is not safe for concurrent use: one fetch
// is in flight at a time.
type Engine struct {
	// fetcher retrieves pages.
	fetcher fetch.Fetcher

	// extractor lists the anchors of a fetched page.
	extractor extract.Extractor

	// visitLimit stops the crawl once this many URLs have been dequeued.
	visitLimit int

	// logger receives per-URL debug logs and broken-URL warnings.
	logger *slog.Logger

	// onVisit is called after each dequeued URL has been handled.
	onVisit func(Visit)

	ledger   *frontier.Ledger
	frontier *frontier.Frontier
}

// Option configures an Engine.
type Option func(*Engine)

// WithVisitLimit sets the maximum number of URLs to dequeue.
// Non-positive values keep the default.
func WithVisitLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.visitLimit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithVisitHook registers fn to be called after every dequeued URL,
// including broken ones.
func WithVisitHook(fn func(Visit)) Option {
	return func(e *Engine) {
		e.onVisit = fn
	}
}

// NewEngine creates an Engine that fetches with f and extracts anchors with x.
func NewEngine(f fetch.Fetcher, x extract.Extractor, opts ...Option) *Engine {
	e := &Engine{
		fetcher:    f,
		extractor:  x,
		visitLimit: DefaultVisitLimit,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reset()
	return e
}

// reset discards the state of any previous run.
func (e *Engine) reset() {
	e.ledger = frontier.NewLedger()
	e.frontier = frontier.New(e.ledger)
}

// VisitLimit returns the configured visit limit.
func (e *Engine) VisitLimit() int {
	return e.visitLimit
}

// Start begins a new run from seed, discarding any previous state.
func (e *Engine) Start(seed string) {
	e.reset()
	e.frontier.EnqueueIfNew(seed)
}

// Done reports whether the run has terminated: the frontier is empty or the
// visit limit has been reached.
func (e *Engine) Done() bool {
	return e.frontier.Len() == 0 || e.ledger.VisitedCount() >= e.visitLimit
}

// Step handles one URL from the frontier.
// It returns false without doing anything when the run is Done.
// A non-nil error means the crawl hit an unrecoverable failure and must stop.
func (e *Engine) Step(ctx context.Context) (bool, error) {
	if e.Done() {
		return false, nil
	}

	pageURL, err := e.frontier.Dequeue()
	if err != nil {
		return false, fmt.Errorf("crawl loop dequeued from an empty frontier: %w", err)
	}

	// Dequeued means visited, whatever the fetch outcome.
	e.ledger.RecordVisited(pageURL)
	visit := Visit{Number: e.ledger.VisitedCount(), URL: pageURL}
	e.logger.Debug("processing url", "n", visit.Number, "url", pageURL)

	page, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if !fetch.IsRecoverable(err) {
			return false, fmt.Errorf("fetch %s: %w", pageURL, err)
		}
		kind := fetch.KindOf(err)
		e.ledger.RecordBroken(pageURL, frontier.Failure{Kind: kind.String(), Reason: err.Error()})
		e.logger.Warn("broken url", "url", pageURL, "kind", kind.String(), "error", err)

		visit.Err = err
		e.notify(visit)
		return true, nil
	}

	anchors, fresh, err := e.discover(pageURL, page)
	if err != nil {
		return false, err
	}
	visit.Anchors = anchors

	// Only links first discovered on this page can be new to the frontier:
	// anything discovered earlier was queued then and is queued or visited now.
	for _, link := range fresh {
		if e.frontier.EnqueueIfNew(link) {
			visit.Enqueued++
		}
	}

	e.notify(visit)
	return true, nil
}

// discover extracts and resolves the anchors of page, records them as
// discovered, and returns the anchor count plus the links not seen before.
func (e *Engine) discover(pageURL string, page *fetch.Page) (int, []string, error) {
	ctx, err := resolver.NewContext(pageURL)
	if err != nil {
		return 0, nil, fmt.Errorf("resolve links of %s: %w", pageURL, err)
	}

	anchors, err := e.extractor.ExtractAnchors(page.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("extract anchors from %s: %w", pageURL, err)
	}

	fresh := make([]string, 0, len(anchors))
	for _, link := range resolver.ResolveAll(anchors, ctx) {
		if e.ledger.RecordDiscovered(link) {
			fresh = append(fresh, link)
		}
	}
	return len(anchors), fresh, nil
}

func (e *Engine) notify(v Visit) {
	if e.onVisit != nil {
		e.onVisit(v)
	}
}

// Run crawls from seed until the frontier is empty or the visit limit is
// reached. On an unrecoverable fetch failure it returns the error and no report.
func (e *Engine) Run(ctx context.Context, seed string) (*model.CrawlReport, error) {
	report := model.NewCrawlReport(seed, e.visitLimit)
	e.Start(seed)

	for {
		more, err := e.Step(ctx)
		if err != nil {
			e.logger.Error("crawl aborted", "seed", seed, "visited", e.ledger.VisitedCount(), "error", err)
			return nil, err
		}
		if !more {
			break
		}
	}

	e.fill(report)
	report.FinishedAt = time.Now()

	e.logger.Info("crawl finished",
		"seed", seed,
		"visited", report.Summary.Visited,
		"broken", report.Summary.Broken,
		"discovered", report.Summary.Discovered,
		"duration", report.Duration().Round(time.Millisecond),
	)
	return report, nil
}

// fill copies the run state into report.
func (e *Engine) fill(report *model.CrawlReport) {
	report.Visited = e.ledger.Visited()
	report.Discovered = e.ledger.Discovered()
	report.Pending = e.frontier.Pending()

	broken := e.ledger.Broken()
	report.Broken = make([]model.BrokenLink, 0, len(broken))
	for _, u := range broken {
		f, _ := e.ledger.Failure(u)
		report.Broken = append(report.Broken, model.BrokenLink{URL: u, Kind: f.Kind, Reason: f.Reason})
	}

	report.Summarize()
}

// Ledger returns the ledger of the current run.
func (e *Engine) Ledger() *frontier.Ledger {
	return e.ledger
}

// Pending returns the URLs discovered but not yet dequeued.
func (e *Engine) Pending() []string {
	return e.frontier.Pending()
}
