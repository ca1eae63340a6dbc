package liveclient

import "sync"

// Entry is one live notification held in a feed.
type Entry struct {
	ID      string
	Type    string
	Title   string
	Message string
	Payload map[string]interface{}
}

// Feed is a capacity-bounded, most-recent-first list of live notifications.
// When full, the oldest entry is evicted. Entries are de-duplicated by ID so
// an event seen on both the live channel and a REST refresh appears once.
type Feed struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
}

func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = 100
	}
	return &Feed{cap: capacity}
}

// Prepend inserts the entry at the front. A duplicate ID refreshes the
// existing entry's position instead of growing the list.
func (f *Feed) Prepend(e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.entries {
		if f.entries[i].ID == e.ID {
			copy(f.entries[1:i+1], f.entries[:i])
			f.entries[0] = e
			return
		}
	}

	if len(f.entries) == f.cap {
		f.entries = f.entries[:f.cap-1]
	}
	f.entries = append([]Entry{e}, f.entries...)
}

// Remove deletes the entry with the given id. Removing an unknown id is a
// no-op.
func (f *Feed) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops all entries.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = nil
}

// Entries returns a copy of the list, most recent first.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Len returns the number of entries.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
