package events

import (
	"context"
	"time"
)

const (
	TypeUserRegistered  = "user_registered"
	TypeUserSignedIn    = "user_signed_in"
	TypeTokenRefreshed  = "token_refreshed"
	TypeUserProvisioned = "user_provisioned"
)

type Event struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"userId"`
	Username   string    `json:"username"`
	Provider   string    `json:"provider,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func New(typ string, userID uint, username string) Event {
	return Event{Type: typ, UserID: userID, Username: username, OccurredAt: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
