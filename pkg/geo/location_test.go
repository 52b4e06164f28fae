package geo

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	a := NewPoint(0, 0)
	b := NewPoint(0, 1)

	// One degree of latitude is roughly 111.2km
	assert.InDelta(t, 111.19, a.Distance(&b), 0.5)
	assert.InDelta(t, a.Distance(&b), b.Distance(&a), 0.0001)

	assert.Zero(t, a.Distance(&a))
}

func TestDistanceFromPath(t *testing.T) {
	path := []Location{
		NewPoint(0, 0),
		NewPoint(1, 0),
		NewPoint(2, 0),
	}

	onPath := NewPoint(0.5, 0)
	assert.InDelta(t, 0, onPath.DistanceFromPath(path), 0.0001)

	offPath := NewPoint(0.5, 0.01)
	assert.InDelta(t, 1.11, offPath.DistanceFromPath(path), 0.05)

	// Beyond the final point the nearest position clamps to the endpoint
	beyond := NewPoint(3, 0)
	assert.InDelta(t, 111.19, beyond.DistanceFromPath(path), 0.5)

	assert.Equal(t, float64(-1), onPath.DistanceFromPath(path[:1]))
	assert.Equal(t, float64(-1), onPath.DistanceFromPath(nil))
}

func TestSpeedBetween(t *testing.T) {
	a := NewPoint(0, 0)
	b := NewPoint(0, 0.01)

	now := time.Now()

	// ~1.112km in 100 seconds
	assert.InDelta(t, 11.12, SpeedBetween(a, b, now, now.Add(100*time.Second)), 0.05)

	assert.Equal(t, float64(-1), SpeedBetween(a, b, now, now))
	assert.Equal(t, float64(-1), SpeedBetween(a, b, now, now.Add(-1*time.Second)))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name     string
		location Location
		valid    bool
	}{
		{"origin", NewPoint(0, 0), true},
		{"boston", NewPoint(-71.0589, 42.3601), true},
		{"bounds", NewPoint(-180, 90), true},
		{"longitude out of range", NewPoint(181, 0), false},
		{"latitude out of range", NewPoint(0, -91), false},
		{"not a number", NewPoint(math.NaN(), 0), false},
		{"infinite", NewPoint(0, math.Inf(1)), false},
		{"empty", Location{Type: "Point"}, false},
		{"wrong arity", Location{Type: "Point", Coordinates: []float64{1, 2, 3}}, false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.valid, testCase.location.Validate())
		})
	}
}
