package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is a domain notification fanned out to subscribed notifiers.
type Event struct {
	Topic   string    `json:"topic"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

// Notifier consumes domain events. Notifier errors are logged, never
// propagated to the emitting operation.
type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// Bus is a synchronous in-process event fanout.
type Bus struct {
	Log zerolog.Logger

	mu        sync.RWMutex
	notifiers []Notifier
}

// Subscribe registers a notifier for all topics.
func (b *Bus) Subscribe(n Notifier) {
	if b == nil || n == nil {
		return
	}
	b.mu.Lock()
	b.notifiers = append(b.notifiers, n)
	b.mu.Unlock()
}

// Emit delivers the event to every notifier. A nil bus is a no-op so
// emitting code never needs a guard.
func (b *Bus) Emit(ctx context.Context, topic string, payload any) {
	if b == nil {
		return
	}
	evt := Event{Topic: topic, At: time.Now().UTC(), Payload: payload}
	b.mu.RLock()
	notifiers := b.notifiers
	b.mu.RUnlock()
	for _, n := range notifiers {
		if err := n.Notify(ctx, evt); err != nil {
			b.Log.Warn().Err(err).Str("topic", topic).Msg("event notifier failed")
		}
	}
}

// LogNotifier writes every event to the structured log.
type LogNotifier struct {
	Log zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, evt Event) error {
	n.Log.Info().Str("topic", evt.Topic).Interface("payload", evt.Payload).Msg("event")
	return nil
}
