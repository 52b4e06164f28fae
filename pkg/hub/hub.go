// Package hub fans scored vehicle states out to live subscribers. Every
// subscriber gets its own bounded buffer; a subscriber that cannot keep up
// loses its own oldest events and never slows the publisher or anyone else.
package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ghostwatch/ghostwatch/pkg/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DefaultBufferSize = 64

type Hub struct {
	mutex       sync.RWMutex
	subscribers map[*Subscription]struct{}
	bufferSize  int
	shutdown    bool

	externalClient  *redis.Client
	externalChannel string
}

type Subscription struct {
	hub    *Hub
	events chan *model.VehicleState
	once   sync.Once
}

// Events yields scored states from subscribe time onwards, terminated only
// by Unsubscribe or hub shutdown
func (s *Subscription) Events() <-chan *model.VehicleState {
	return s.events
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	return &Hub{
		subscribers: map[*Subscription]struct{}{},
		bufferSize:  bufferSize,
	}
}

// SetExternal additionally publishes every event as JSON on a redis pub/sub
// channel, for subscribers outside this process
func (h *Hub) SetExternal(client *redis.Client, channel string) {
	h.externalClient = client
	h.externalChannel = channel
}

func (h *Hub) Subscribe() *Subscription {
	subscription := &Subscription{
		hub:    h,
		events: make(chan *model.VehicleState, h.bufferSize),
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.shutdown {
		close(subscription.events)
		return subscription
	}

	h.subscribers[subscription] = struct{}{}

	return subscription
}

// Publish hands the state to every subscriber without ever blocking. A full
// subscriber buffer drops its oldest event to make room
func (h *Hub) Publish(state *model.VehicleState) {
	h.mutex.RLock()
	for subscription := range h.subscribers {
		select {
		case subscription.events <- state:
		default:
			select {
			case <-subscription.events:
			default:
			}
			select {
			case subscription.events <- state:
			default:
			}
		}
	}
	h.mutex.RUnlock()

	if h.externalClient != nil {
		stateJson, err := json.Marshal(state)
		if err != nil {
			log.Error().Err(err).Str("vehicle", state.PrimaryIdentifier).Msg("Failed to marshal event")
			return
		}

		if err := h.externalClient.Publish(context.Background(), h.externalChannel, stateJson).Err(); err != nil {
			log.Error().Err(err).Msg("Failed to publish event externally")
		}
	}
}

func (h *Hub) remove(subscription *Subscription) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, found := h.subscribers[subscription]; found {
		delete(h.subscribers, subscription)
		close(subscription.events)
	}
}

// Shutdown terminates every subscription
func (h *Hub) Shutdown() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.shutdown = true

	for subscription := range h.subscribers {
		delete(h.subscribers, subscription)
		close(subscription.events)
	}
}
