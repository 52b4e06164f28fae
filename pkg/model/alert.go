package model

import (
	"time"

	"github.com/ghostwatch/ghostwatch/pkg/geo"
)

// GhostAlertEvent is published to the events queue whenever a vehicle
// transitions into a ghost or recurring-ghost classification
type GhostAlertEvent struct {
	VehicleIdentifier string
	RouteIdentifier   string

	Classification Classification
	GhostScore     int
	FiredRules     []string

	Location   geo.Location
	RecordedAt time.Time
}
