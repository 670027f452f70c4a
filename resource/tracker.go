package resource

import (
	"fmt"
	"sync"
)

// Handle identifies one tracked acquisition.
type Handle uint64

// Tracker observes resource acquisition and release. The accessor calls
// Track when a voxel file is opened and Pop exactly once when it is
// closed, so tests can assert balanced open/close counts.
type Tracker interface {
	// Track records an acquisition and returns its handle.
	Track(kind, name string) Handle
	// Pop records the release of a previously tracked acquisition.
	Pop(h Handle)
}

// NopTracker discards all tracking. It is the default.
type NopTracker struct{}

func (NopTracker) Track(kind, name string) Handle { return 0 }

func (NopTracker) Pop(Handle) {}

// CountingTracker is a Tracker that keeps counts and the set of
// still-open resources. Safe for concurrent use.
type CountingTracker struct {
	mu     sync.Mutex
	next   Handle
	open   map[Handle]string
	popped int
}

// NewCountingTracker creates an empty CountingTracker.
func NewCountingTracker() *CountingTracker {
	return &CountingTracker{open: make(map[Handle]string)}
}

// Track records an acquisition.
func (t *CountingTracker) Track(kind, name string) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	t.open[t.next] = fmt.Sprintf("%s(%s)", kind, name)
	return t.next
}

// Pop records a release. Popping an unknown handle is ignored, which
// makes double-close a no-op at this level too.
func (t *CountingTracker) Pop(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.open[h]; ok {
		delete(t.open, h)
		t.popped++
	}
}

// OpenCount returns the number of currently open resources.
func (t *CountingTracker) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

// PoppedCount returns the number of released resources.
func (t *CountingTracker) PoppedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.popped
}

// Leaked returns descriptions of still-open resources.
func (t *CountingTracker) Leaked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.open))
	for _, desc := range t.open {
		out = append(out, desc)
	}
	return out
}
