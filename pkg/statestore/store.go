// Package statestore is the single source of truth for what is currently
// known about every vehicle. Each VehicleState is an immutable value replaced
// atomically on update, so the one writer (the ingestion loop) never races
// the many readers (query API, staleness sweep).
package statestore

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ghostwatch/ghostwatch/pkg/model"
	"github.com/rs/zerolog/log"
)

var ErrInvalidCoordinates = errors.New("report has non-finite or out-of-range coordinates")

type Store struct {
	mutex    sync.RWMutex
	vehicles map[string]*model.VehicleState

	historyCapacity int

	mirror *Mirror
}

func NewStore(historyCapacity int) *Store {
	return &Store{
		vehicles:        map[string]*model.VehicleState{},
		historyCapacity: historyCapacity,
	}
}

// SetMirror attaches a low-latency key value mirror that Publish writes
// through to. A nil mirror is simply skipped
func (s *Store) SetMirror(mirror *Mirror) {
	s.mirror = mirror
}

// Upsert stages an insert-or-update for the report's vehicle and returns the
// staged state for scoring. The staged state is not visible to readers until
// Publish - score and history always land together.
//
// Coordinate validation happens here, at the store boundary: a report that
// fails it never enters history or scoring. Reports whose timestamp is not
// newer than the stored latest refresh last-seen but are rejected from
// history, so derived speed calculations never see a non-positive elapsed
// time.
func (s *Store) Upsert(report model.PositionReport, now time.Time) (*model.VehicleState, error) {
	if !report.Location.Validate() {
		return nil, ErrInvalidCoordinates
	}

	s.mutex.RLock()
	existing := s.vehicles[report.VehicleIdentifier]
	s.mutex.RUnlock()

	var state *model.VehicleState
	if existing == nil {
		state = &model.VehicleState{
			PrimaryIdentifier: report.VehicleIdentifier,
			CreationDateTime:  now,
			Classification:    model.ClassificationNormal,
		}
	} else {
		state = existing.Copy()
	}

	if report.RouteIdentifier != "" {
		state.RouteIdentifier = report.RouteIdentifier
	}
	state.TripIdentifier = report.TripIdentifier

	position := model.VehiclePosition{
		Location:  report.Location,
		Speed:     report.Speed,
		HasSpeed:  report.HasSpeed,
		Bearing:   report.Bearing,
		Timestamp: report.Timestamp,
	}

	if len(state.History) > 0 && !report.Timestamp.After(state.History[len(state.History)-1].Timestamp) {
		log.Debug().
			Str("vehicle", report.VehicleIdentifier).
			Time("timestamp", report.Timestamp).
			Msg("Rejecting duplicate or out-of-order report from history")
	} else {
		state.History = append(state.History, position)
		if len(state.History) > s.historyCapacity {
			state.History = state.History[len(state.History)-s.historyCapacity:]
		}

		state.Position = position
	}

	state.LastSeen = now
	state.Stale = false

	return state, nil
}

// Publish atomically replaces the vehicle's visible state and writes through
// to the mirror when one is attached
func (s *Store) Publish(state *model.VehicleState) {
	s.mutex.Lock()
	s.vehicles[state.PrimaryIdentifier] = state
	s.mutex.Unlock()

	if s.mirror != nil {
		s.mirror.Write(state)
	}
}

func (s *Store) Get(vehicleID string) (*model.VehicleState, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	state, found := s.vehicles[vehicleID]
	return state, found
}

// List returns the current state of every vehicle, optionally filtered by
// route, sorted by vehicle identifier
func (s *Store) List(routeFilter string) []*model.VehicleState {
	s.mutex.RLock()

	states := make([]*model.VehicleState, 0, len(s.vehicles))
	for _, state := range s.vehicles {
		if routeFilter != "" && state.RouteIdentifier != routeFilter {
			continue
		}

		states = append(states, state)
	}

	s.mutex.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		return states[i].PrimaryIdentifier < states[j].PrimaryIdentifier
	})

	return states
}

// RescoreFunc recomputes score, rule results & classification for a staged
// state. Supplied by the pipeline so the store stays free of scoring logic
type RescoreFunc func(state *model.VehicleState) *model.VehicleState

// MarkStaleIfSilent sweeps every vehicle whose last-seen time is older than
// the threshold, flagging it stale and republishing it with a fresh scoring
// pass. Silent vehicles are flagged, never removed - a vehicle that stops
// reporting is itself evidence of a ghost. Returns the newly flagged states
func (s *Store) MarkStaleIfSilent(now time.Time, threshold time.Duration, rescore RescoreFunc) []*model.VehicleState {
	var flagged []*model.VehicleState

	for _, state := range s.List("") {
		if state.Stale || now.Sub(state.LastSeen) <= threshold {
			continue
		}

		newState := state.Copy()
		newState.Stale = true
		newState = rescore(newState)

		// Only replace if the vehicle hasn't reported since we read it - if
		// it has, it is no longer silent and the flag would be wrong
		if s.replaceIfCurrent(state, newState) {
			flagged = append(flagged, newState)
		}
	}

	return flagged
}

func (s *Store) replaceIfCurrent(observed *model.VehicleState, replacement *model.VehicleState) bool {
	s.mutex.Lock()
	if s.vehicles[observed.PrimaryIdentifier] != observed {
		s.mutex.Unlock()
		return false
	}
	s.vehicles[replacement.PrimaryIdentifier] = replacement
	s.mutex.Unlock()

	if s.mirror != nil {
		s.mirror.Write(replacement)
	}

	return true
}
