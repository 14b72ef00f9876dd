package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"homni_backend/platform/logger"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishSyncRunsAllHandlersAndReturnsFirstError(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	calls := 0
	boom := errors.New("boom")

	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls++
		return boom
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls++
		return nil
	}))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
}

func TestPublishSurvivesCancelledContext(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	done := make(chan error, 1)

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, _ Event) error {
		done <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pingEvent{BaseEvent: NewBaseEvent()})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("handler saw cancelled context: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}
