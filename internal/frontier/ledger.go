package frontier

// orderedSet is a string set that remembers insertion order.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{
		items: make([]string, 0),
		index: make(map[string]struct{}),
	}
}

// add inserts s and reports whether it was new.
func (o *orderedSet) add(s string) bool {
	if _, ok := o.index[s]; ok {
		return false
	}
	o.index[s] = struct{}{}
	o.items = append(o.items, s)
	return true
}

func (o *orderedSet) contains(s string) bool {
	_, ok := o.index[s]
	return ok
}

func (o *orderedSet) len() int {
	return len(o.items)
}

// list returns a copy of the members in insertion order.
func (o *orderedSet) list() []string {
	out := make([]string, len(o.items))
	copy(out, o.items)
	return out
}

// Failure describes why a URL was recorded as broken.
type Failure struct {
	// Kind is the failure classification, e.g. "ConnectionError".
	Kind string

	// Reason is the human-readable error message.
	Reason string
}

// Ledger accumulates the outcome of every URL handled during a crawl run.
//
// A dequeued URL is always recorded as visited. When its fetch fails it is
// additionally recorded as broken, so the broken set is a subset of the
// visited set. All operations are additive.
type Ledger struct {
	visited    *orderedSet
	broken     *orderedSet
	failures   map[string]Failure
	discovered *orderedSet
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		visited:    newOrderedSet(),
		broken:     newOrderedSet(),
		failures:   make(map[string]Failure),
		discovered: newOrderedSet(),
	}
}

// RecordVisited adds url to the visited set.
// It reports whether url was not visited before.
func (l *Ledger) RecordVisited(url string) bool {
	return l.visited.add(url)
}

// RecordBroken adds url to the broken set with the given failure.
// The first recorded failure for a URL is kept.
// It reports whether url was not broken before.
func (l *Ledger) RecordBroken(url string, failure Failure) bool {
	if !l.broken.add(url) {
		return false
	}
	l.failures[url] = failure
	return true
}

// RecordDiscovered adds a resolved link to the discovered set.
// It reports whether url was discovered for the first time.
func (l *Ledger) RecordDiscovered(url string) bool {
	return l.discovered.add(url)
}

// IsVisited reports whether url has been dequeued.
func (l *Ledger) IsVisited(url string) bool {
	return l.visited.contains(url)
}

// IsBroken reports whether url failed to fetch.
func (l *Ledger) IsBroken(url string) bool {
	return l.broken.contains(url)
}

// IsDiscovered reports whether url was produced by link extraction.
func (l *Ledger) IsDiscovered(url string) bool {
	return l.discovered.contains(url)
}

// Failure returns the failure recorded for a broken url.
func (l *Ledger) Failure(url string) (Failure, bool) {
	f, ok := l.failures[url]
	return f, ok
}

// VisitedCount returns the number of visited URLs.
func (l *Ledger) VisitedCount() int {
	return l.visited.len()
}

// BrokenCount returns the number of broken URLs.
func (l *Ledger) BrokenCount() int {
	return l.broken.len()
}

// DiscoveredCount returns the number of distinct discovered URLs.
func (l *Ledger) DiscoveredCount() int {
	return l.discovered.len()
}

// Visited returns visited URLs in dequeue order.
func (l *Ledger) Visited() []string {
	return l.visited.list()
}

// Broken returns broken URLs in the order they failed.
func (l *Ledger) Broken() []string {
	return l.broken.list()
}

// Discovered returns discovered URLs in first-seen order.
func (l *Ledger) Discovered() []string {
	return l.discovered.list()
}
