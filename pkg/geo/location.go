package geo

import (
	"math"
	"time"
)

const earthRadiusKm = 6371

// Location is a GeoJSON style point - coordinates are longitude, latitude
type Location struct {
	Type        string    `json:"type" bson:"type" groups:"basic"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" groups:"basic"`
}

func NewPoint(longitude float64, latitude float64) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{longitude, latitude},
	}
}

func (l *Location) Longitude() float64 {
	return l.Coordinates[0]
}

func (l *Location) Latitude() float64 {
	return l.Coordinates[1]
}

// Distance returns the great-circle distance between the two points in kilometres
func (l *Location) Distance(other *Location) float64 {
	lat1 := l.Latitude() * math.Pi / 180
	lat2 := other.Latitude() * math.Pi / 180
	dLat := (other.Latitude() - l.Latitude()) * math.Pi / 180
	dLon := (other.Longitude() - l.Longitude()) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceFromLine returns the distance in kilometres from the point to the
// closest position along the segment between a & b
// Shameless taken 'inspiration' from https://stackoverflow.com/a/6853926
func (l *Location) DistanceFromLine(a Location, b Location) float64 {
	A := l.Coordinates[0] - a.Coordinates[0]
	B := l.Coordinates[1] - a.Coordinates[1]
	C := b.Coordinates[0] - a.Coordinates[0]
	D := b.Coordinates[1] - a.Coordinates[1]

	dot := A*C + B*D
	lenSq := C*C + D*D

	param := -1.0
	if lenSq != 0 {
		param = dot / lenSq
	}

	var xx, yy float64

	if param < 0 {
		xx = a.Coordinates[0]
		yy = a.Coordinates[1]
	} else if param > 1 {
		xx = b.Coordinates[0]
		yy = b.Coordinates[1]
	} else {
		xx = a.Coordinates[0] + param*C
		yy = a.Coordinates[1] + param*D
	}

	closest := NewPoint(xx, yy)
	return l.Distance(&closest)
}

// DistanceFromPath returns the distance in kilometres to the nearest segment
// of an ordered path, or -1 for paths with fewer than two points
func (l *Location) DistanceFromPath(path []Location) float64 {
	if len(path) < 2 {
		return -1
	}

	closest := math.MaxFloat64
	for i := 0; i < len(path)-1; i++ {
		distance := l.DistanceFromLine(path[i], path[i+1])

		if distance < closest {
			closest = distance
		}
	}

	return closest
}

// Bearing returns the initial bearing in degrees from this point towards the other
func (l *Location) Bearing(other *Location) float64 {
	lat1 := l.Latitude() * math.Pi / 180
	lat2 := other.Latitude() * math.Pi / 180
	dLon := (other.Longitude() - l.Longitude()) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	bearing := math.Atan2(y, x) * 180 / math.Pi

	return math.Mod(bearing+360, 360)
}

// SpeedBetween derives a speed in metres per second from two timestamped
// points. Returns -1 when the elapsed time is zero or negative, which callers
// must treat as "no derivable speed" rather than an anomaly of its own.
func SpeedBetween(a Location, b Location, at time.Time, bt time.Time) float64 {
	elapsed := bt.Sub(at).Seconds()
	if elapsed <= 0 {
		return -1
	}

	return (a.Distance(&b) * 1000) / elapsed
}

// Validate rejects non-finite or out-of-range coordinates
func (l *Location) Validate() bool {
	if len(l.Coordinates) != 2 {
		return false
	}

	longitude := l.Coordinates[0]
	latitude := l.Coordinates[1]

	if math.IsNaN(longitude) || math.IsInf(longitude, 0) || math.IsNaN(latitude) || math.IsInf(latitude, 0) {
		return false
	}

	return longitude >= -180 && longitude <= 180 && latitude >= -90 && latitude <= 90
}
