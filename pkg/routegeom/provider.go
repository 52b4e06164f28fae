// Package routegeom supplies reference paths for routes. A missing, slow or
// failing provider is never an error - it just means "no reference
// available", which disables the off-route rule for that route.
package routegeom

import (
	"context"

	"github.com/ghostwatch/ghostwatch/pkg/model"
)

// Provider returns the ordered reference path for a route id, or nil when no
// reference is available
type Provider interface {
	Lookup(ctx context.Context, routeID string) (*model.RouteReference, error)
}
