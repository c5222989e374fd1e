// Package events publishes imposter lifecycle notifications so other
// services can follow what a test environment has stubbed.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"mountebank-client/models"
)

// Type names a lifecycle transition.
type Type string

const (
	TypeImposterCreated  Type = "imposter.created"
	TypeImposterDeleted  Type = "imposter.deleted"
	TypeImpostersDeleted Type = "imposters.deleted"
)

// Event describes one lifecycle transition. Port and Protocol are empty for
// TypeImpostersDeleted.
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	Port       int             `json:"port,omitempty"`
	Protocol   models.Protocol `json:"protocol,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// New stamps an event with a fresh ID and the current time.
func New(t Type, port int, protocol models.Protocol) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Port:       port,
		Protocol:   protocol,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) Encode() ([]byte, error) { return json.Marshal(e) }

// Publisher delivers lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
