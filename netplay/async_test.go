package netplay

import (
	"context"
	"errors"
	"testing"
)

func TestAsyncBus_KeepsOrder(t *testing.T) {
	inner := &recordingBus{}
	bus := NewAsyncBus(inner, 8)

	for i := 1; i <= 3; i++ {
		msg := Message{Event: EventAttack, RoomID: "r", Attack: &Attack{Count: i}}
		if err := bus.Publish(context.Background(), msg); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}
	bus.Close()

	sent := inner.events(EventAttack)
	if len(sent) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(sent))
	}
	for i, m := range sent {
		if m.Attack.Count != i+1 {
			t.Errorf("Message %d out of order: count %d", i, m.Attack.Count)
		}
	}
}

// gateBus blocks each publish until released.
type gateBus struct {
	recordingBus
	entered chan struct{}
	release chan struct{}
}

func (b *gateBus) Publish(ctx context.Context, msg Message) error {
	b.entered <- struct{}{}
	<-b.release
	return b.recordingBus.Publish(ctx, msg)
}

func TestAsyncBus_FullQueueDoesNotBlock(t *testing.T) {
	inner := &gateBus{entered: make(chan struct{}, 4), release: make(chan struct{})}
	bus := NewAsyncBus(inner, 1)
	ctx := context.Background()

	bus.Publish(ctx, Message{Event: EventInput})
	<-inner.entered
	if err := bus.Publish(ctx, Message{Event: EventInput}); err != nil {
		t.Fatalf("Expected queued publish, got %v", err)
	}
	if err := bus.Publish(ctx, Message{Event: EventInput}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Expected ErrQueueFull, got %v", err)
	}

	close(inner.release)
	bus.Close()
	if got := len(inner.events(EventInput)); got != 2 {
		t.Errorf("Expected 2 delivered, got %d", got)
	}
}

func TestAsyncBus_PublishAfterClose(t *testing.T) {
	inner := &recordingBus{}
	bus := NewAsyncBus(inner, 4)
	bus.Publish(context.Background(), Message{Event: EventInput})
	bus.Close()
	bus.Close()

	if err := bus.Publish(context.Background(), Message{Event: EventInput}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if got := len(inner.events(EventInput)); got != 1 {
		t.Errorf("Expected the queued message delivered, got %d", got)
	}
}
