package broadcast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/auction/events"
)

// Config holds NATS connection settings for the room event publisher.
type Config struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns the default publisher configuration.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "auction.room",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Envelope is the wire shape of a room event.
type Envelope struct {
	ID        string      `json:"id"`
	RoomID    string      `json:"room_id"`
	Type      events.Type `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// Publisher fans room events out over core NATS. Delivery is fire and
// forget: ticks and state change notifications are reconstructable from
// the aggregate, so a lost message never fails the mutation behind it.
type Publisher struct {
	nc     *nats.Conn
	config Config
}

// NewPublisher connects to NATS and returns a room event publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
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

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &Publisher{nc: nc, config: cfg}, nil
}

// Publish sends one event to the room's subject. Failures are logged and
// swallowed.
func (p *Publisher) Publish(roomID string, eventType events.Type, payload any) {
	env := Envelope{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}

	data, err := json.Marshal(env)
	if err != nil {
		log.Error().
			Err(err).
			Str("room_id", roomID).
			Str("event_type", string(eventType)).
			Msg("failed to marshal room event")
		return
	}

	subject := fmt.Sprintf("%s.%s", p.config.SubjectPrefix, roomID)
	if err := p.nc.Publish(subject, data); err != nil {
		log.Error().
			Err(err).
			Str("subject", subject).
			Str("event_type", string(eventType)).
			Msg("failed to publish room event")
	}
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			log.Error().Err(err).Msg("failed to drain NATS connection")
		}
	}
}
