package statestore

import (
	"math"
	"testing"
	"time"

	"github.com/ghostwatch/ghostwatch/pkg/geo"
	"github.com/ghostwatch/ghostwatch/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport(vehicleID string, routeID string, timestamp time.Time) model.PositionReport {
	return model.PositionReport{
		VehicleIdentifier: vehicleID,
		RouteIdentifier:   routeID,
		TripIdentifier:    "trip-1",
		Location:          geo.NewPoint(-71.0589, 42.3601),
		Speed:             -1,
		Timestamp:         timestamp,
	}
}

func TestUpsertEvictsOldestBeyondCapacity(t *testing.T) {
	store := NewStore(3)
	base := time.Now()

	for i := 0; i < 5; i++ {
		state, err := store.Upsert(testReport("V1", "route-1", base.Add(time.Duration(i)*time.Second)), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)

		store.Publish(state)
	}

	state, found := store.Get("V1")
	require.True(t, found)

	assert.Len(t, state.History, 3)
	assert.Equal(t, base.Add(2*time.Second), state.History[0].Timestamp)
	assert.Equal(t, base.Add(4*time.Second), state.History[2].Timestamp)
	assert.Equal(t, base.Add(4*time.Second), state.Position.Timestamp)
}

func TestUpsertRejectsInvalidCoordinates(t *testing.T) {
	store := NewStore(10)
	now := time.Now()

	report := testReport("V1", "route-1", now)
	report.Location = geo.NewPoint(math.NaN(), 42)

	_, err := store.Upsert(report, now)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	report.Location = geo.NewPoint(-200, 42)
	_, err = store.Upsert(report, now)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, found := store.Get("V1")
	assert.False(t, found)
}

func TestDuplicateReportRefreshesWithoutGrowingHistory(t *testing.T) {
	store := NewStore(10)
	base := time.Now()

	state, err := store.Upsert(testReport("V1", "route-1", base), base)
	require.NoError(t, err)
	store.Publish(state)

	// Same feed timestamp delivered again on a later poll
	state, err = store.Upsert(testReport("V1", "route-1", base), base.Add(10*time.Second))
	require.NoError(t, err)
	store.Publish(state)

	current, found := store.Get("V1")
	require.True(t, found)

	assert.Len(t, current.History, 1)
	assert.Equal(t, base.Add(10*time.Second), current.LastSeen)
	assert.False(t, current.Stale)
}

func TestOutOfOrderReportRejectedFromHistory(t *testing.T) {
	store := NewStore(10)
	base := time.Now()

	state, err := store.Upsert(testReport("V1", "route-1", base), base)
	require.NoError(t, err)
	store.Publish(state)

	state, err = store.Upsert(testReport("V1", "route-1", base.Add(-30*time.Second)), base.Add(10*time.Second))
	require.NoError(t, err)
	store.Publish(state)

	current, _ := store.Get("V1")
	assert.Len(t, current.History, 1)
	assert.Equal(t, base, current.Position.Timestamp)
}

func TestPublishedStateIsNotMutatedByLaterUpserts(t *testing.T) {
	store := NewStore(10)
	base := time.Now()

	first, err := store.Upsert(testReport("V1", "route-1", base), base)
	require.NoError(t, err)
	store.Publish(first)

	second, err := store.Upsert(testReport("V1", "route-1", base.Add(time.Second)), base.Add(time.Second))
	require.NoError(t, err)

	// Staged but unpublished - readers still see the first state
	current, _ := store.Get("V1")
	assert.Len(t, current.History, 1)

	store.Publish(second)

	current, _ = store.Get("V1")
	assert.Len(t, current.History, 2)
	assert.Len(t, first.History, 1)
}

func TestListFiltersByRoute(t *testing.T) {
	store := NewStore(10)
	now := time.Now()

	for _, vehicle := range []struct {
		id    string
		route string
	}{
		{"V2", "route-1"},
		{"V1", "route-1"},
		{"V3", "route-2"},
	} {
		state, err := store.Upsert(testReport(vehicle.id, vehicle.route, now), now)
		require.NoError(t, err)
		store.Publish(state)
	}

	all := store.List("")
	require.Len(t, all, 3)
	assert.Equal(t, "V1", all[0].PrimaryIdentifier)
	assert.Equal(t, "V3", all[2].PrimaryIdentifier)

	filtered := store.List("route-1")
	require.Len(t, filtered, 2)
	assert.Equal(t, "V1", filtered[0].PrimaryIdentifier)
	assert.Equal(t, "V2", filtered[1].PrimaryIdentifier)
}

func TestMarkStaleIfSilentFlagsButNeverRemoves(t *testing.T) {
	store := NewStore(10)
	base := time.Now()

	state, err := store.Upsert(testReport("V1", "route-1", base), base)
	require.NoError(t, err)
	store.Publish(state)

	state, err = store.Upsert(testReport("V2", "route-1", base), base.Add(350*time.Second))
	require.NoError(t, err)
	store.Publish(state)

	flagged := store.MarkStaleIfSilent(base.Add(400*time.Second), 300*time.Second, func(state *model.VehicleState) *model.VehicleState {
		return state
	})

	require.Len(t, flagged, 1)
	assert.Equal(t, "V1", flagged[0].PrimaryIdentifier)

	current, found := store.Get("V1")
	require.True(t, found)
	assert.True(t, current.Stale)

	fresh, _ := store.Get("V2")
	assert.False(t, fresh.Stale)

	// Already flagged vehicles are not flagged twice
	flagged = store.MarkStaleIfSilent(base.Add(500*time.Second), 300*time.Second, func(state *model.VehicleState) *model.VehicleState {
		return state
	})
	assert.Empty(t, flagged)
}

func TestSweepSkipsVehiclesRepublishedMidSweep(t *testing.T) {
	store := NewStore(10)
	base := time.Now()

	state, err := store.Upsert(testReport("V1", "route-1", base), base)
	require.NoError(t, err)
	store.Publish(state)

	// A report lands between the sweep reading the state and replacing it
	flagged := store.MarkStaleIfSilent(base.Add(400*time.Second), 300*time.Second, func(staged *model.VehicleState) *model.VehicleState {
		fresh, err := store.Upsert(testReport("V1", "route-1", base.Add(400*time.Second)), base.Add(400*time.Second))
		require.NoError(t, err)
		store.Publish(fresh)

		return staged
	})

	assert.Empty(t, flagged)

	current, _ := store.Get("V1")
	assert.False(t, current.Stale)
	assert.Len(t, current.History, 2)
}
