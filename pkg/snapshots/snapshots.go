// Package snapshots maintains the append-only historical record: periodic
// fleet-wide aggregates written to the durable store for trend analysis.
package snapshots

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ghostwatch/ghostwatch/pkg/database"
	"github.com/ghostwatch/ghostwatch/pkg/model"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "historical_snapshots"

type Store struct {
	writeRetries uint64
}

func NewStore(writeRetries uint64) *Store {
	return &Store{
		writeRetries: writeRetries,
	}
}

// Build aggregates the current fleet into one immutable snapshot
func Build(now time.Time, states []*model.VehicleState) model.HistoricalSnapshot {
	snapshot := model.HistoricalSnapshot{
		Timestamp:       now,
		TotalVehicles:   len(states),
		RuleFiredCounts: map[string]int{},
	}

	for _, state := range states {
		switch state.Classification {
		case model.ClassificationGhost:
			snapshot.GhostCount++
		case model.ClassificationRecurringGhost:
			snapshot.GhostCount++
			snapshot.RecurringCount++
		}

		if state.Stale {
			snapshot.StaleCount++
		}

		for _, result := range state.RuleResults {
			if result.Fired {
				snapshot.RuleFiredCounts[result.Rule]++
			}
		}
	}

	return snapshot
}

// Record appends the snapshot to the historical store, retrying a bounded
// number of times. A snapshot that still cannot be written is dropped for
// this interval - recency matters more than completeness here, and the next
// interval produces a fresh one
func (s *Store) Record(snapshot model.HistoricalSnapshot) error {
	snapshotsCollection := database.GetCollection(collectionName)

	operation := func() error {
		_, err := snapshotsCollection.InsertOne(context.Background(), snapshot)
		return err
	}

	err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.writeRetries))
	if err != nil {
		log.Error().Err(err).Time("timestamp", snapshot.Timestamp).Msg("Dropping historical snapshot after retries")
		return err
	}

	return nil
}

// Range returns the snapshots recorded within [from, to], oldest first
func (s *Store) Range(ctx context.Context, from time.Time, to time.Time) ([]model.HistoricalSnapshot, error) {
	snapshotsCollection := database.GetCollection(collectionName)

	cursor, err := snapshotsCollection.Find(
		ctx,
		bson.M{"timestamp": bson.M{"$gte": from, "$lte": to}},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}

	snapshots := []model.HistoricalSnapshot{}
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, err
	}

	return snapshots, nil
}
