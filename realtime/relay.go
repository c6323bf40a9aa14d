package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Dosada05/hockey-madness/events"
)

// Relay forwards match changes from the bus to the hub.
type Relay struct {
	hub             *Hub
	updates         <-chan []byte
	deletions       <-chan []byte
	cancelUpdates   func()
	cancelDeletions func()
}

// NewRelay subscribes immediately, so changes published after it returns are never missed.
func NewRelay(sub events.Subscriber, hub *Hub) (*Relay, error) {
	updates, cancelUpdates, err := sub.Subscribe(events.TopicMatchUpdated)
	if err != nil {
		return nil, fmt.Errorf("subscribing to match updates: %w", err)
	}
	deletions, cancelDeletions, err := sub.Subscribe(events.TopicMatchDeleted)
	if err != nil {
		cancelUpdates()
		return nil, fmt.Errorf("subscribing to match deletions: %w", err)
	}
	return &Relay{
		hub:             hub,
		updates:         updates,
		deletions:       deletions,
		cancelUpdates:   cancelUpdates,
		cancelDeletions: cancelDeletions,
	}, nil
}

// Run blocks until ctx is done or the bus closes the subscriptions.
func (r *Relay) Run(ctx context.Context) {
	defer r.cancelUpdates()
	defer r.cancelDeletions()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-r.updates:
			if !ok {
				return
			}
			var e events.MatchUpdated
			if err := json.Unmarshal(data, &e); err != nil || e.Match == nil {
				r.hub.logger.Warn("dropping malformed match update", slog.Any("error", err))
				continue
			}
			r.broadcast(e.Match.ID, Message{Type: MessageMatchUpdated, Payload: e})
		case data, ok := <-r.deletions:
			if !ok {
				return
			}
			var e events.MatchDeleted
			if err := json.Unmarshal(data, &e); err != nil {
				r.hub.logger.Warn("dropping malformed match deletion", slog.Any("error", err))
				continue
			}
			r.broadcast(e.MatchID, Message{Type: MessageMatchDeleted, Payload: e})
		}
	}
}

func (r *Relay) broadcast(matchID string, msg Message) {
	r.hub.BroadcastToRoom(RoomForMatch(matchID), msg)
	r.hub.BroadcastToRoom(ScoreboardRoom, msg)
}
