// Package feed turns a remote GTFS-Realtime vehicle positions feed into
// normalized position reports for the ingestion loop.
package feed

import (
	"context"

	"github.com/ghostwatch/ghostwatch/pkg/model"
)

// Source yields one batch of position reports per poll. Fetch returns the
// well-formed reports plus a count of individually malformed entries that
// were skipped; a non-nil error means the whole poll failed and should be
// retried on the next tick
type Source interface {
	Fetch(ctx context.Context) ([]model.PositionReport, int, error)
}
