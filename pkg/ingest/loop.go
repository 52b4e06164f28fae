// Package ingest drives the detection pipeline: poll the feed on a fixed
// cadence, decode into position reports, push each report through the state
// store, scoring engine and recurrence tracker, and hand the scored states
// to the broadcast hub. The tick is the top-level recovery boundary - no
// feed, decode or store failure ever escalates beyond it.
package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ghostwatch/ghostwatch/pkg/config"
	"github.com/ghostwatch/ghostwatch/pkg/feed"
	"github.com/ghostwatch/ghostwatch/pkg/hub"
	"github.com/ghostwatch/ghostwatch/pkg/model"
	"github.com/ghostwatch/ghostwatch/pkg/recurrence"
	"github.com/ghostwatch/ghostwatch/pkg/routegeom"
	"github.com/ghostwatch/ghostwatch/pkg/score"
	"github.com/ghostwatch/ghostwatch/pkg/snapshots"
	"github.com/ghostwatch/ghostwatch/pkg/statestore"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const applyWorkers = 8

// SnapshotRecorder appends one historical snapshot; see snapshots.Store
type SnapshotRecorder interface {
	Record(snapshot model.HistoricalSnapshot) error
}

// AlertPublisher receives an event when a vehicle transitions into a ghost
// classification
type AlertPublisher interface {
	Publish(event model.GhostAlertEvent)
}

type Loop struct {
	Source  feed.Source
	Store   *statestore.Store
	Tracker *recurrence.Tracker
	Hub     *hub.Hub
	Config  config.Detection

	// Optional collaborators - nil simply disables the concern
	Routes    routegeom.Provider
	Snapshots SnapshotRecorder
	Alerts    AlertPublisher

	// Now is overridable for tests; defaults to time.Now
	Now func() time.Time
}

func (l *Loop) clock() time.Time {
	if l.Now != nil {
		return l.Now()
	}

	return time.Now()
}

// Run ticks until the context is cancelled. The staleness sweep and the
// snapshot writer run on their own timers so a slow historical store never
// delays ingestion
func (l *Loop) Run(ctx context.Context) {
	log.Info().
		Str("interval", l.Config.PollInterval.String()).
		Msg("Starting ingestion loop")

	ticker := time.NewTicker(l.Config.PollInterval)
	defer ticker.Stop()

	snapshotTicker := time.NewTicker(l.Config.SnapshotInterval)
	defer snapshotTicker.Stop()

	sweepTicker := time.NewTicker(l.sweepInterval())
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick(ctx)
		case <-sweepTicker.C:
			l.Sweep()
		case <-snapshotTicker.C:
			go l.RecordSnapshot()
		}
	}
}

func (l *Loop) sweepInterval() time.Duration {
	interval := l.Config.StaleThreshold / 2
	if interval < l.Config.PollInterval {
		interval = l.Config.PollInterval
	}

	return interval
}

// Tick performs one fetch/decode/apply pass. Transient failures are logged
// and retried on the next tick, never propagated
func (l *Loop) Tick(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, l.Config.FetchTimeout)
	defer cancel()

	reports, skipped, err := l.Source.Fetch(fetchCtx)
	if err != nil {
		log.Warn().Err(err).Msg("Feed fetch failed, retrying next tick")
		return
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("Skipped malformed feed entries")
	}

	l.Apply(ctx, reports)
}

// Apply pushes a batch of reports through the pipeline. Reports for the
// same vehicle are processed in arrival order; distinct vehicles have no
// ordering dependency and are scored in parallel
func (l *Loop) Apply(ctx context.Context, reports []model.PositionReport) {
	startTime := l.clock()

	perVehicle := map[string][]model.PositionReport{}
	var vehicleOrder []string

	for _, report := range reports {
		if _, seen := perVehicle[report.VehicleIdentifier]; !seen {
			vehicleOrder = append(vehicleOrder, report.VehicleIdentifier)
		}

		perVehicle[report.VehicleIdentifier] = append(perVehicle[report.VehicleIdentifier], report)
	}

	var applied, rejected atomic.Int64

	applyPool := pool.New().WithMaxGoroutines(applyWorkers)
	for _, vehicleID := range vehicleOrder {
		vehicleReports := perVehicle[vehicleID]

		applyPool.Go(func() {
			for _, report := range vehicleReports {
				if err := l.applyReport(ctx, report); err != nil {
					rejected.Add(1)
				} else {
					applied.Add(1)
				}
			}
		})
	}
	applyPool.Wait()

	log.Info().
		Int64("applied", applied.Load()).
		Int64("rejected", rejected.Load()).
		Str("time", time.Since(startTime).String()).
		Msg("Applied position reports")
}

func (l *Loop) applyReport(ctx context.Context, report model.PositionReport) error {
	now := l.clock()

	previous, _ := l.Store.Get(report.VehicleIdentifier)

	state, err := l.Store.Upsert(report, now)
	if err != nil {
		if errors.Is(err, statestore.ErrInvalidCoordinates) {
			log.Warn().
				Str("vehicle", report.VehicleIdentifier).
				Floats64("coordinates", report.Location.Coordinates).
				Msg("Rejecting report with invalid coordinates")
		}

		return err
	}

	state = l.rescore(ctx, state, now)

	l.Store.Publish(state)
	l.Hub.Publish(state)
	l.publishAlert(previous, state, now)

	return nil
}

// rescore runs one full scoring pass over a staged state. The recurrence
// verdict consulted by the recurring-pattern rule predates this pass - this
// pass's own outcome is recorded afterwards and only influences the next one
func (l *Loop) rescore(ctx context.Context, state *model.VehicleState, now time.Time) *model.VehicleState {
	confirmedRecurring := l.Tracker.IsRecurring(state.PrimaryIdentifier)

	ghostScore, results := score.Evaluate(score.Input{
		State:              state,
		RouteReference:     l.lookupRoute(ctx, state.RouteIdentifier),
		ConfirmedRecurring: confirmedRecurring,
		Now:                now,
		Config:             l.Config,
	})

	isGhost := ghostScore > l.Config.GhostScoreThreshold

	l.Tracker.Record(state.PrimaryIdentifier, isGhost, now)

	state.GhostScore = ghostScore
	state.RuleResults = results
	state.Classification = score.Classify(ghostScore, l.Tracker.IsRecurring(state.PrimaryIdentifier), l.Config.GhostScoreThreshold)
	state.ModificationDateTime = now

	return state
}

const routeLookupTimeout = 2 * time.Second

func (l *Loop) lookupRoute(ctx context.Context, routeID string) *model.RouteReference {
	if l.Routes == nil || routeID == "" {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, routeLookupTimeout)
	defer cancel()

	routeReference, err := l.Routes.Lookup(lookupCtx, routeID)
	if err != nil {
		// A slow or failing provider is the same as no reference available
		log.Debug().Err(err).Str("route", routeID).Msg("Route reference lookup failed")
		return nil
	}

	return routeReference
}

// Sweep flags vehicles that have gone silent, rescoring each so the stale
// rule result matches what an on-demand scoring pass would produce
func (l *Loop) Sweep() {
	now := l.clock()

	flagged := l.Store.MarkStaleIfSilent(now, l.Config.StaleThreshold, func(state *model.VehicleState) *model.VehicleState {
		return l.rescore(context.Background(), state, now)
	})

	for _, state := range flagged {
		l.Hub.Publish(state)
		l.publishAlert(nil, state, now)
	}

	if len(flagged) > 0 {
		log.Info().Int("flagged", len(flagged)).Msg("Flagged silent vehicles as stale")
	}
}

// RecordSnapshot aggregates the fleet and appends it to the historical store
func (l *Loop) RecordSnapshot() {
	if l.Snapshots == nil {
		return
	}

	snapshot := snapshots.Build(l.clock(), l.Store.List(""))

	l.Snapshots.Record(snapshot)
}

func (l *Loop) publishAlert(previous *model.VehicleState, state *model.VehicleState, now time.Time) {
	if l.Alerts == nil {
		return
	}

	if state.Classification == model.ClassificationNormal {
		return
	}

	if previous != nil && previous.Classification == state.Classification {
		return
	}

	l.Alerts.Publish(model.GhostAlertEvent{
		VehicleIdentifier: state.PrimaryIdentifier,
		RouteIdentifier:   state.RouteIdentifier,

		Classification: state.Classification,
		GhostScore:     state.GhostScore,
		FiredRules:     state.FiredRules(),

		Location:   state.Position.Location,
		RecordedAt: now,
	})
}
