package netplay

import (
	"context"
	"sync"
)

// recordingBus keeps every published message and fans them out to
// subscribers, including the publisher.
type recordingBus struct {
	mu   sync.Mutex
	sent []Message
	subs []chan Message
}

func (b *recordingBus) Publish(ctx context.Context, msg Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, msg)
	for _, ch := range b.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, roomID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Message, 64)
	b.subs = append(b.subs, ch)
	return ch, nil
}

func (b *recordingBus) events(event EventType) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Message
	for _, m := range b.sent {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}
