package model

import "time"

// HistoricalSnapshot is an immutable point-in-time aggregate of the fleet,
// appended to the historical store on a fixed cadence
type HistoricalSnapshot struct {
	Timestamp time.Time `bson:"timestamp" groups:"basic"`

	TotalVehicles   int            `bson:"totalvehicles" groups:"basic"`
	GhostCount      int            `bson:"ghostcount" groups:"basic"`
	RecurringCount  int            `bson:"recurringcount" groups:"basic"`
	StaleCount      int            `bson:"stalecount" groups:"basic"`
	RuleFiredCounts map[string]int `bson:"rulefiredcounts" groups:"basic"`
}
