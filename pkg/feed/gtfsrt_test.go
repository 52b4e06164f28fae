package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func testFeedMessage() *gtfs.FeedMessage {
	return &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
		},
		Entity: []*gtfs.FeedEntity{
			{
				Id: proto.String("1"),
				Vehicle: &gtfs.VehiclePosition{
					Vehicle: &gtfs.VehicleDescriptor{Id: proto.String("V1")},
					Trip: &gtfs.TripDescriptor{
						RouteId: proto.String("route-1"),
						TripId:  proto.String("trip-1"),
					},
					Position: &gtfs.Position{
						Latitude:  proto.Float32(42.3601),
						Longitude: proto.Float32(-71.0589),
						Bearing:   proto.Float32(90),
						Speed:     proto.Float32(5.5),
					},
					Timestamp: proto.Uint64(1700000000),
				},
			},
			{
				Id: proto.String("2"),
				Vehicle: &gtfs.VehiclePosition{
					Vehicle:  &gtfs.VehicleDescriptor{Id: proto.String("V2")},
					Position: &gtfs.Position{Latitude: proto.Float32(42.4), Longitude: proto.Float32(-71.1)},
				},
			},
			{
				// Vehicle entity with no position payload
				Id: proto.String("3"),
				Vehicle: &gtfs.VehiclePosition{
					Vehicle: &gtfs.VehicleDescriptor{Id: proto.String("V3")},
				},
			},
			{
				// Vehicle entity with no identifier
				Id: proto.String("4"),
				Vehicle: &gtfs.VehiclePosition{
					Position: &gtfs.Position{Latitude: proto.Float32(42.4), Longitude: proto.Float32(-71.1)},
				},
			},
			{
				// Not a vehicle entity at all
				Id:        proto.String("5"),
				TripUpdate: &gtfs.TripUpdate{Trip: &gtfs.TripDescriptor{TripId: proto.String("trip-9")}},
			},
		},
	}
}

func TestNormalize(t *testing.T) {
	reports := Normalize(testFeedMessage())
	require.Len(t, reports, 2)

	first := reports[0]
	assert.Equal(t, "V1", first.VehicleIdentifier)
	assert.Equal(t, "route-1", first.RouteIdentifier)
	assert.Equal(t, "trip-1", first.TripIdentifier)
	assert.InDelta(t, -71.0589, first.Location.Longitude(), 0.0001)
	assert.InDelta(t, 42.3601, first.Location.Latitude(), 0.0001)
	assert.True(t, first.HasSpeed)
	assert.InDelta(t, 5.5, first.Speed, 0.0001)
	assert.Equal(t, time.Unix(1700000000, 0), first.Timestamp)

	// Feed supplied no speed or timestamp
	second := reports[1]
	assert.Equal(t, "V2", second.VehicleIdentifier)
	assert.False(t, second.HasSpeed)
	assert.Equal(t, float64(-1), second.Speed)
	assert.WithinDuration(t, time.Now(), second.Timestamp, time.Minute)
}

func TestFetchCountsMalformedEntities(t *testing.T) {
	feedBytes, err := proto.Marshal(testFeedMessage())
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(feedBytes)
	}))
	defer server.Close()

	source := NewGTFSRT(server.URL, 5*time.Second)

	reports, skipped, err := source.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, reports, 2)
	assert.Equal(t, 2, skipped)
}

func TestFetchRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	source := NewGTFSRT(server.URL, 5*time.Second)

	_, _, err := source.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetchRejectsGarbage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a protobuf"))
	}))
	defer server.Close()

	source := NewGTFSRT(server.URL, 5*time.Second)

	_, _, err := source.Fetch(context.Background())
	assert.Error(t, err)
}
