package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/danupratama/backend-kasir/internal/events"
)

type recorder struct {
	seen []events.Event
	err  error
}

func (r *recorder) Notify(_ context.Context, evt events.Event) error {
	r.seen = append(r.seen, evt)
	return r.err
}

func TestEmitFansOutToAllNotifiers(t *testing.T) {
	bus := &events.Bus{Log: zerolog.Nop()}
	first := &recorder{}
	second := &recorder{err: errors.New("boom")}
	third := &recorder{}
	bus.Subscribe(first)
	bus.Subscribe(second)
	bus.Subscribe(third)

	bus.Emit(context.Background(), events.TopicCheckoutCompleted, map[string]any{"invoiceId": "POS-INV-00001"})

	require.Len(t, first.seen, 1)
	require.Equal(t, events.TopicCheckoutCompleted, first.seen[0].Topic)
	require.False(t, first.seen[0].At.IsZero())
	// A failing notifier never blocks the rest.
	require.Len(t, third.seen, 1)
}

func TestNilBusIsNoOp(t *testing.T) {
	var bus *events.Bus
	bus.Subscribe(&recorder{})
	bus.Emit(context.Background(), events.TopicCheckoutHeld, nil)
}
