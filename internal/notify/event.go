// Package notify fans handover lifecycle events out to downstream systems
// (Redis Streams, MQTT pagers, an HTTP webhook). Delivery is best effort:
// publish failures are logged and never fail the originating write.
package notify

import (
	"context"
	"time"

	"go.uber.org/multierr"
)

// Event types.
const (
	EventCreated   = "handover.created"
	EventReady     = "handover.ready"
	EventStarted   = "handover.started"
	EventAccepted  = "handover.accepted"
	EventCompleted = "handover.completed"
	EventCancelled = "handover.cancelled"
	EventRejected  = "handover.rejected"
)

// Event is the payload every publisher receives.
type Event struct {
	Type       string    `json:"type"`
	HandoverID string    `json:"handover_id"`
	PatientID  string    `json:"patient_id"`
	State      string    `json:"state"`
	Version    int64     `json:"version"`
	ActorID    string    `json:"actor_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every target and combines their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var err error
	for _, p := range m {
		err = multierr.Append(err, p.Publish(ctx, ev))
	}
	return err
}
