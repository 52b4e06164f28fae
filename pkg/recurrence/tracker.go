// Package recurrence decides whether a vehicle's ghost behaviour is a
// persistent pattern rather than a one-off, based on a rolling window of its
// recent classification outcomes.
package recurrence

import (
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Tracker struct {
	mutex   sync.RWMutex
	windows map[string]*window

	windowSize int
	minSamples int
	ratio      float64
	retention  time.Duration
}

func NewTracker(windowSize int, minSamples int, ratio float64, retention time.Duration) *Tracker {
	return &Tracker{
		windows: map[string]*window{},

		windowSize: windowSize,
		minSamples: minSamples,
		ratio:      ratio,
		retention:  retention,
	}
}

// Record appends one classification outcome to the vehicle's window,
// evicting entries past the retention horizon relative to the new outcome's
// timestamp. Feed time is monotonic per vehicle so the horizon only moves
// forward
func (t *Tracker) Record(vehicleID string, isGhost bool, timestamp time.Time) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	vehicleWindow := t.windows[vehicleID]
	if vehicleWindow == nil {
		vehicleWindow = newWindow(t.windowSize)
		t.windows[vehicleID] = vehicleWindow
	}

	vehicleWindow.add(observation{IsGhost: isGhost, Timestamp: timestamp})
	vehicleWindow.expire(timestamp.Add(-t.retention))
}

// IsRecurring reports whether at least the configured ratio of the vehicle's
// windowed outcomes were ghost flags. A vehicle with fewer than the minimum
// sample count is never recurring, whatever its score
func (t *Tracker) IsRecurring(vehicleID string) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.isRecurring(vehicleID)
}

func (t *Tracker) isRecurring(vehicleID string) bool {
	vehicleWindow := t.windows[vehicleID]
	if vehicleWindow == nil {
		return false
	}

	entries := vehicleWindow.snapshot()
	if len(entries) < t.minSamples {
		return false
	}

	ghostCount := 0
	for _, entry := range entries {
		if entry.IsGhost {
			ghostCount++
		}
	}

	return float64(ghostCount)/float64(len(entries)) >= t.ratio
}

// Vehicles returns the identifiers currently classified recurring, sorted
func (t *Tracker) Vehicles() []string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	var vehicles []string
	for _, vehicleID := range maps.Keys(t.windows) {
		if t.isRecurring(vehicleID) {
			vehicles = append(vehicles, vehicleID)
		}
	}

	slices.Sort(vehicles)

	return vehicles
}
