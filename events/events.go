// Package events carries auth-state notifications and match changes between the identity
// provider, live sessions and scoreboards, either in-process or over NATS.
package events

import (
	"context"

	"github.com/Dosada05/hockey-madness/models"
)

const (
	TopicAuthState    = "hockey.auth.state"
	TopicMatchUpdated = "hockey.match.updated"
	TopicMatchDeleted = "hockey.match.deleted"

	// TopicMatchAll matches every match topic.
	TopicMatchAll = "hockey.match.>"
)

type AuthEventType string

const (
	AuthSignedIn       AuthEventType = "SIGNED_IN"
	AuthSignedOut      AuthEventType = "SIGNED_OUT"
	AuthTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	AuthUserUpdated    AuthEventType = "USER_UPDATED"
)

// AuthEvent is pushed by the identity provider whenever a session changes.
type AuthEvent struct {
	Type     AuthEventType    `json:"type"`
	UserID   string           `json:"user_id"`
	TokenID  string           `json:"token_id,omitempty"`
	Identity *models.Identity `json:"identity,omitempty"`
}

type MatchUpdated struct {
	Match *models.Match         `json:"match"`
	Event *models.TimelineEvent `json:"event,omitempty"`
}

type MatchDeleted struct {
	MatchID string `json:"match_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber delivers raw JSON payloads for a topic. The cancel func unsubscribes and closes the channel.
type Subscriber interface {
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

// Bus is both ends of the event stream.
type Bus interface {
	Publisher
	Subscriber
}
