package leadstest

import (
	"context"
	"sync"

	"homni_backend/internal/events"
)

// Bus records published events and delivers nothing.
type Bus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *Bus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *Bus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *Bus) Subscribe(string, events.Handler) {}

// Named returns the recorded events with the given name, in publish order.
func (b *Bus) Named(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.Event, 0)
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

var _ events.Bus = (*Bus)(nil)
