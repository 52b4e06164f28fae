package model

import (
	"time"

	"github.com/ghostwatch/ghostwatch/pkg/geo"
)

// PositionReport is one raw observation from the feed, consumed immediately
// by the ingestion loop and never stored as-is
type PositionReport struct {
	VehicleIdentifier string
	RouteIdentifier   string
	TripIdentifier    string

	Location geo.Location

	// Speed is metres per second as supplied by the feed, -1 when absent
	Speed     float64
	HasSpeed  bool
	Bearing   float64
	Timestamp time.Time
}

// VehiclePosition is a single entry in a vehicle's trailing history
type VehiclePosition struct {
	Location  geo.Location `groups:"basic"`
	Speed     float64      `groups:"basic"`
	HasSpeed  bool         `groups:"internal"`
	Bearing   float64      `groups:"basic"`
	Timestamp time.Time    `groups:"basic"`
}

type Classification string

const (
	ClassificationNormal         Classification = "normal"
	ClassificationGhost          Classification = "ghost"
	ClassificationRecurringGhost Classification = "recurring-ghost"
)

// VehicleState is the full record for one vehicle. States are immutable once
// published - the store replaces the whole value on every update so readers
// always observe a consistent snapshot
type VehicleState struct {
	PrimaryIdentifier string `groups:"basic"`
	RouteIdentifier   string `groups:"basic"`
	TripIdentifier    string `groups:"basic"`

	Position VehiclePosition   `groups:"basic"`
	History  []VehiclePosition `groups:"internal"`

	LastSeen time.Time `groups:"basic"`
	Stale    bool      `groups:"basic"`

	GhostScore     int            `groups:"basic"`
	Classification Classification `groups:"basic"`
	RuleResults    []RuleResult   `groups:"basic"`

	CreationDateTime     time.Time `groups:"internal"`
	ModificationDateTime time.Time `groups:"basic"`
}

// FiredRules returns the names of the rules that fired on the most recent
// scoring pass, in rule definition order
func (v *VehicleState) FiredRules() []string {
	var fired []string
	for _, result := range v.RuleResults {
		if result.Fired {
			fired = append(fired, result.Rule)
		}
	}

	return fired
}

// Copy returns a deep copy safe for single-writer mutation before the store
// republishes it
func (v *VehicleState) Copy() *VehicleState {
	newState := *v

	newState.History = make([]VehiclePosition, len(v.History))
	copy(newState.History, v.History)

	newState.RuleResults = make([]RuleResult, len(v.RuleResults))
	copy(newState.RuleResults, v.RuleResults)

	return &newState
}
