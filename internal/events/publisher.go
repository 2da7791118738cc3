package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Type names one emitted fact. The stream is sufficient to reconstruct a
// session's history without re-deriving engine state.
type Type string

const (
	TypeSessionCreated    Type = "session.created"
	TypeSessionStarted    Type = "session.started"
	TypeSessionPaused     Type = "session.paused"
	TypeSessionResumed    Type = "session.resumed"
	TypeSessionCompleted  Type = "session.completed"
	TypeSessionCancelled  Type = "session.cancelled"
	TypeSessionExpired    Type = "session.expired"
	TypeSessionDisputed   Type = "session.disputed"
	TypeSessionNoShow     Type = "session.no_show"
	TypeSessionEmergency  Type = "session.emergency_resolved"
	TypePaymentReleased   Type = "payment.released"
	TypeHeartbeatReceived Type = "heartbeat.received"
	TypeAllowlistChanged  Type = "allowlist.changed"
	TypeWalletRotated     Type = "wallet.rotated"
	TypeEnginePaused      Type = "engine.paused"
	TypeEngineUnpaused    Type = "engine.unpaused"
)

// Event is one emitted fact.
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	SessionID string                 `json:"session_id,omitempty"`
	At        time.Time              `json:"at"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

const channel = "escrow:events"

// Publisher mirrors every emitted fact to the structured log and, when a
// Redis client is configured, publishes it on the escrow events channel for
// the external observability/UI layer.
type Publisher struct {
	client *redis.Client
}

// NewPublisher creates an event publisher. client may be nil; events are
// then only logged.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Emit publishes one fact. Publish failures are logged, not propagated: the
// engine mutation that produced the fact has already committed.
func (p *Publisher) Emit(ctx context.Context, typ Type, sessionID string, at time.Time, fields map[string]interface{}) {
	evt := Event{
		ID:        uuid.NewString(),
		Type:      typ,
		SessionID: sessionID,
		At:        at,
		Fields:    fields,
	}

	log.Info().
		Str("event_id", evt.ID).
		Str("event", string(typ)).
		Str("session_id", sessionID).
		Time("at", at).
		Fields(fields).
		Msg("Escrow event")

	if p.client == nil {
		return
	}

	data, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(errors.Wrap(err, "failed to marshal event")).Msg("Dropping escrow event")
		return
	}
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		log.Error().Err(err).Str("event", string(typ)).Msg("Failed to publish escrow event")
	}
}

// Subscribe returns a channel of decoded escrow events. Returns an error if
// no Redis client is configured.
func (p *Publisher) Subscribe(ctx context.Context) (<-chan Event, error) {
	if p.client == nil {
		return nil, errors.New("event subscription requires redis")
	}

	pubsub := p.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to subscribe")
	}

	ch := pubsub.Channel()
	out := make(chan Event)
	go func() {
		defer close(out)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					log.Warn().Err(err).Msg("Skipping malformed escrow event")
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
