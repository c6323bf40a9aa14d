package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Dosada05/hockey-madness/metrics"
)

// NATSBus publishes JSON-encoded events to NATS subjects and subscribes to them, so several
// service instances share auth-state and match updates.
type NATSBus struct {
	conn *nats.Conn
}

// NewNATSBus connects with automatic reconnection. Extra options are appended to the defaults.
func NewNATSBus(url string, opts ...nats.Option) (*NATSBus, error) {
	defaults := []nats.Option{
		nats.Name("hockey-madness"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSBus{conn: nc}, nil
}

func (b *NATSBus) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return b.conn.Publish(topic, data)
}

func (b *NATSBus) Subscribe(topic string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, memoryBufferSize)
	done := make(chan struct{})

	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)

	sub, err := b.conn.Subscribe(topic, func(msg *nats.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		if lossless(msg.Subject) {
			// Ждем читателя: NATS копит сообщения в pending, пока мы блокируем.
			select {
			case ch <- msg.Data:
			case <-done:
			}
			return
		}
		select {
		case ch <- msg.Data:
		default:
			// Не блокируем клиент NATS.
			metrics.EventsDroppedTotal.WithLabelValues(msg.Subject).Inc()
		}
	})
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	if lossless(topic) {
		if err := sub.SetPendingLimits(-1, -1); err != nil {
			_ = sub.Unsubscribe()
			close(ch)
			return nil, nil, fmt.Errorf("lifting pending limits on %s: %w", topic, err)
		}
	}
	// Flush so the subscription is registered before we return.
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		close(ch)
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}

	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
	return ch, cancel, nil
}

func (b *NATSBus) Close() error {
	b.conn.Close()
	return nil
}
