package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes sets up the indexes the detector relies on. The snapshots
// collection carries a TTL index so the historical store enforces its own
// retention
func CreateIndexes(snapshotRetention time.Duration) {
	routeReferencesCollection := GetCollection("route_references")
	routeReferencesIndex := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "primaryidentifier", Value: 1}},
		},
	}

	opts := options.CreateIndexes()
	_, err := routeReferencesCollection.Indexes().CreateMany(context.Background(), routeReferencesIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	snapshotsCollection := GetCollection("historical_snapshots")
	snapshotsIndex := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(snapshotRetention.Seconds())),
		},
	}

	opts = options.CreateIndexes()
	_, err = snapshotsCollection.Indexes().CreateMany(context.Background(), snapshotsIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
