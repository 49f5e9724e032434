package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// ConsumerConfig holds NATS settings for the room event consumer.
type ConsumerConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConsumerConfig returns default consumer configuration.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "auction.room",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// EventConsumer subscribes to room event subjects and relays each message
// to the WebSocket connections joined to that room.
type EventConsumer struct {
	connectionManager *ConnectionManager
	nc                *nats.Conn
	sub               *nats.Subscription
	config            ConsumerConfig
}

// NewEventConsumer connects to NATS and returns a room event consumer.
func NewEventConsumer(cm *ConnectionManager, config ConsumerConfig) (*EventConsumer, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &EventConsumer{
		connectionManager: cm,
		nc:                nc,
		config:            config,
	}, nil
}

// Start subscribes to every room subject and blocks until the context is
// cancelled.
func (ec *EventConsumer) Start(ctx context.Context) error {
	subject := fmt.Sprintf("%s.>", ec.config.SubjectPrefix)

	sub, err := ec.nc.Subscribe(subject, func(msg *nats.Msg) {
		if err := ec.processMessage(msg); err != nil {
			log.Error().
				Err(err).
				Str("subject", msg.Subject).
				Msg("failed to process room event")
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	ec.sub = sub

	log.Info().
		Str("subject", subject).
		Msg("room event consumer started")

	<-ctx.Done()
	log.Info().Msg("room event consumer shutting down")
	return nil
}

// processMessage relays one envelope to its room's connections.
func (ec *EventConsumer) processMessage(msg *nats.Msg) error {
	var event RoomEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if event.RoomID == "" {
		return fmt.Errorf("event envelope missing room id")
	}

	ec.connectionManager.BroadcastToRoom(event.RoomID, &event)

	log.Debug().
		Str("event_id", event.ID).
		Str("room_id", event.RoomID).
		Str("event_type", string(event.Type)).
		Msg("relayed room event")
	return nil
}

// Stop unsubscribes and closes the NATS connection.
func (ec *EventConsumer) Stop() {
	if ec.sub != nil {
		if err := ec.sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Msg("failed to unsubscribe room event consumer")
		}
	}
	if ec.nc != nil {
		ec.nc.Close()
	}
}
