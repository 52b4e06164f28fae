package alerts

import (
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/ghostwatch/ghostwatch/pkg/redis_client"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
)

const numConsumers = 2

func StartConsumers() {
	log.Info().Msg("Starting ghost alert consumers")

	queue, err := redis_client.QueueConnection.OpenQueue(queueName)
	if err != nil {
		panic(err)
	}
	if err := queue.StartConsuming(numConsumers*20, 1*time.Second); err != nil {
		panic(err)
	}

	for i := 0; i < numConsumers; i++ {
		go startAlertConsumer(queue, i)
	}
}

func startAlertConsumer(queue rmq.Queue, id int) {
	log.Info().Msgf("Starting ghost alert consumer %d", id)

	if _, err := queue.AddBatchConsumer(fmt.Sprintf("ghost-events-%d", id), 20, 2*time.Second, NewBatchConsumer(id)); err != nil {
		panic(err)
	}
}

type BatchConsumer struct {
	id int
}

func NewBatchConsumer(id int) *BatchConsumer {
	return &BatchConsumer{id: id}
}

func (consumer *BatchConsumer) Consume(batch rmq.Deliveries) {
	payloads := batch.Payloads()

	for _, payload := range payloads {
		pretty.Println(string(payload))
	}

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Fatal().Err(err).Msg("Failed to consume ghost alert event")
		}
	}
}
