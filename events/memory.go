package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Dosada05/hockey-madness/metrics"
)

const memoryBufferSize = 256

// MemoryBus is an in-process Bus used when NATS is not configured. Every subscriber receives
// payloads in publish order. Auth-state events are never dropped: Publish waits for a full
// subscriber until ctx is done. Match events are dropped for a full subscriber.
type MemoryBus struct {
	mu      sync.RWMutex
	subs    map[*memorySub]struct{}
	closed  bool
	closing chan struct{}
	shut    sync.Once
	logger  *slog.Logger
}

type memorySub struct {
	topic string
	ch    chan []byte
	done  chan struct{}
	once  sync.Once
}

func NewMemoryBus(logger *slog.Logger) *MemoryBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryBus{subs: make(map[*memorySub]struct{}), closing: make(chan struct{}), logger: logger}
}

// lossless reports whether events on topic must reach every subscriber.
func lossless(topic string) bool {
	return topic == TopicAuthState
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for sub := range b.subs {
		if !topicMatches(sub.topic, topic) {
			continue
		}
		if lossless(topic) {
			select {
			case sub.ch <- data:
			case <-sub.done:
			case <-b.closing:
				return nil
			case <-ctx.Done():
				return fmt.Errorf("publishing to %s: %w", topic, ctx.Err())
			}
			continue
		}
		select {
		case sub.ch <- data:
		default:
			b.logger.Warn("event subscriber buffer full, dropping event", slog.String("topic", topic))
			metrics.EventsDroppedTotal.WithLabelValues(topic).Inc()
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(topic string) (<-chan []byte, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, nil, fmt.Errorf("subscribing to %s: bus closed", topic)
	}
	sub := &memorySub{topic: topic, ch: make(chan []byte, memoryBufferSize), done: make(chan struct{})}
	b.subs[sub] = struct{}{}

	cancel := func() {
		sub.once.Do(func() {
			// Releases a Publish waiting on this subscriber before the lock is taken.
			close(sub.done)
			b.mu.Lock()
			delete(b.subs, sub)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel, nil
}

func (b *MemoryBus) Close() error {
	b.shut.Do(func() { close(b.closing) })

	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[*memorySub]struct{})
	b.closed = true
	b.mu.Unlock()

	for sub := range subs {
		sub.once.Do(func() {
			close(sub.done)
			close(sub.ch)
		})
	}
	return nil
}

// topicMatches supports the NATS-style trailing ">" wildcard.
func topicMatches(pattern, topic string) bool {
	if prefix, ok := strings.CutSuffix(pattern, ">"); ok {
		return strings.HasPrefix(topic, prefix)
	}
	return pattern == topic
}
