package recurrence

import "time"

type observation struct {
	IsGhost   bool
	Timestamp time.Time
}

// window is a fixed-capacity ring of classification outcomes. The backing
// array never grows - the write index wraps and overwrites the oldest entry
type window struct {
	entries []observation
	next    int
	count   int
}

func newWindow(capacity int) *window {
	return &window{
		entries: make([]observation, capacity),
	}
}

func (w *window) add(entry observation) {
	w.entries[w.next] = entry
	w.next = (w.next + 1) % len(w.entries)

	if w.count < len(w.entries) {
		w.count++
	}
}

// snapshot returns the live entries oldest-first
func (w *window) snapshot() []observation {
	entries := make([]observation, 0, w.count)

	start := w.next - w.count
	if start < 0 {
		start += len(w.entries)
	}

	for i := 0; i < w.count; i++ {
		entries = append(entries, w.entries[(start+i)%len(w.entries)])
	}

	return entries
}

// expire drops entries recorded before the horizon, keeping order
func (w *window) expire(horizon time.Time) {
	entries := w.snapshot()

	w.next = 0
	w.count = 0

	for _, entry := range entries {
		if entry.Timestamp.Before(horizon) {
			continue
		}

		w.add(entry)
	}
}
