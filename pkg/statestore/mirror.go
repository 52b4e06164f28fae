package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ghostwatch/ghostwatch/pkg/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Mirror writes each published VehicleState into Redis so other processes
// (the query API, dashboards) get low-latency reads without touching the
// in-process store. Entries expire on their own if the detector stops
type Mirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewMirror(client *redis.Client, ttl time.Duration) *Mirror {
	return &Mirror{
		client: client,
		ttl:    ttl,
	}
}

func (m *Mirror) Write(state *model.VehicleState) {
	stateJson, err := json.Marshal(state)
	if err != nil {
		log.Error().Err(err).Str("vehicle", state.PrimaryIdentifier).Msg("Failed to marshal vehicle state")
		return
	}

	key := fmt.Sprintf("vehicle:%s", state.PrimaryIdentifier)

	if err := m.client.Set(context.Background(), key, stateJson, m.ttl).Err(); err != nil {
		log.Error().Err(err).Str("vehicle", state.PrimaryIdentifier).Msg("Failed to mirror vehicle state")
	}
}
