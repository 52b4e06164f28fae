// Package alerts pushes ghost alert events onto a queue for external
// consumers - dashboards, notifiers, anything that wants to react to a
// vehicle turning ghost without subscribing to the full update stream.
package alerts

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/ghostwatch/ghostwatch/pkg/model"
	"github.com/ghostwatch/ghostwatch/pkg/redis_client"
	"github.com/rs/zerolog/log"
)

const queueName = "ghost-events"

type Publisher struct {
	queue rmq.Queue
}

func NewPublisher() (*Publisher, error) {
	queue, err := redis_client.QueueConnection.OpenQueue(queueName)
	if err != nil {
		return nil, err
	}

	return &Publisher{queue: queue}, nil
}

func (p *Publisher) Publish(event model.GhostAlertEvent) {
	eventJson, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal ghost alert event")
		return
	}

	if err := p.queue.PublishBytes(eventJson); err != nil {
		log.Error().Err(err).Str("vehicle", event.VehicleIdentifier).Msg("Failed to publish ghost alert event")
	}
}
