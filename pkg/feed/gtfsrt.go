package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/ghostwatch/ghostwatch/pkg/geo"
	"github.com/ghostwatch/ghostwatch/pkg/model"
	"google.golang.org/protobuf/proto"
)

type GTFSRT struct {
	URL    string
	client *http.Client
}

func NewGTFSRT(url string, timeout time.Duration) *GTFSRT {
	return &GTFSRT{
		URL: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (g *GTFSRT) Fetch(ctx context.Context) ([]model.PositionReport, int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", g.URL, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	feedMessage := gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, &feedMessage); err != nil {
		return nil, 0, fmt.Errorf("failed parsing GTFS-RT protobuf: %w", err)
	}

	return Normalize(&feedMessage), skippedEntities(&feedMessage), nil
}

// Normalize extracts one PositionReport per well-formed vehicle entity.
// Entities without a vehicle payload (trip updates, service alerts) are not
// counted as malformed - they are simply not position reports
func Normalize(feedMessage *gtfs.FeedMessage) []model.PositionReport {
	var reports []model.PositionReport

	for _, entity := range feedMessage.Entity {
		vehiclePosition := entity.GetVehicle()
		if vehiclePosition == nil {
			continue
		}

		if !wellFormed(vehiclePosition) {
			continue
		}

		position := vehiclePosition.GetPosition()
		trip := vehiclePosition.GetTrip()

		report := model.PositionReport{
			VehicleIdentifier: vehiclePosition.GetVehicle().GetId(),
			RouteIdentifier:   trip.GetRouteId(),
			TripIdentifier:    trip.GetTripId(),

			Location: geo.NewPoint(
				float64(position.GetLongitude()),
				float64(position.GetLatitude()),
			),

			Bearing: float64(position.GetBearing()),
		}

		if position.Speed != nil {
			report.Speed = float64(position.GetSpeed())
			report.HasSpeed = true
		} else {
			report.Speed = -1
		}

		if vehiclePosition.Timestamp != nil {
			report.Timestamp = time.Unix(int64(vehiclePosition.GetTimestamp()), 0)
		} else {
			report.Timestamp = time.Now()
		}

		reports = append(reports, report)
	}

	return reports
}

func skippedEntities(feedMessage *gtfs.FeedMessage) int {
	skipped := 0

	for _, entity := range feedMessage.Entity {
		vehiclePosition := entity.GetVehicle()
		if vehiclePosition == nil {
			continue
		}

		if !wellFormed(vehiclePosition) {
			skipped++
		}
	}

	return skipped
}

func wellFormed(vehiclePosition *gtfs.VehiclePosition) bool {
	if vehiclePosition.GetVehicle().GetId() == "" {
		return false
	}

	return vehiclePosition.Position != nil
}
