package model

import "github.com/ghostwatch/ghostwatch/pkg/geo"

// RouteReference is the ordered reference path for a route, used only by the
// off-route rule. A route with no reference simply disables that rule
type RouteReference struct {
	PrimaryIdentifier string         `bson:"primaryidentifier" groups:"basic"`
	Path              []geo.Location `bson:"path" groups:"basic"`
}
