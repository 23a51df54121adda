package frontier

import "errors"

// ErrEmptyFrontier is returned by Dequeue when no URL is waiting.
var ErrEmptyFrontier = errors.New("frontier is empty")

// Frontier is the FIFO queue of URLs waiting for a fetch attempt.
//
// A URL is queued at most once and is never queued again after it has been
// visited. The visited check is delegated to the Ledger the Frontier was
// created with.
type Frontier struct {
	queue  []string
	queued map[string]struct{}
	ledger *Ledger
}

// New creates an empty Frontier that consults ledger for visited URLs.
func New(ledger *Ledger) *Frontier {
	return &Frontier{
		queue:  make([]string, 0),
		queued: make(map[string]struct{}),
		ledger: ledger,
	}
}

// EnqueueIfNew appends url unless it is already queued or visited.
// It reports whether url was appended.
func (f *Frontier) EnqueueIfNew(url string) bool {
	if f.Contains(url) || f.ledger.IsVisited(url) {
		return false
	}
	f.queue = append(f.queue, url)
	f.queued[url] = struct{}{}
	return true
}

// Dequeue removes and returns the head of the queue.
func (f *Frontier) Dequeue() (string, error) {
	if len(f.queue) == 0 {
		return "", ErrEmptyFrontier
	}

	url := f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	delete(f.queued, url)
	return url, nil
}

// Contains reports whether url is waiting in the queue.
func (f *Frontier) Contains(url string) bool {
	_, ok := f.queued[url]
	return ok
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// Pending returns a copy of the queued URLs, head first.
func (f *Frontier) Pending() []string {
	out := make([]string, len(f.queue))
	copy(out, f.queue)
	return out
}
