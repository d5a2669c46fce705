package netplay

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

const publishTimeout = 3 * time.Second

var (
	// ErrQueueFull is returned when the async publisher is backed up.
	ErrQueueFull = errors.New("netplay: publish queue full")
	ErrClosed    = errors.New("netplay: bus closed")
)

// AsyncBus queues publishes and sends them from one goroutine, so a
// session never waits on the network. Order of publishes is kept.
type AsyncBus struct {
	inner Bus
	queue chan Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsyncBus(inner Bus, size int) *AsyncBus {
	b := &AsyncBus{
		inner: inner,
		queue: make(chan Message, size),
		done:  make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *AsyncBus) loop() {
	defer close(b.done)
	for msg := range b.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := b.inner.Publish(ctx, msg); err != nil {
			log.Printf("[SYNC] async publish %s to room %s failed: %v", msg.Event, msg.RoomID, err)
		}
		cancel()
	}
}

// Publish enqueues msg. It does not block.
func (b *AsyncBus) Publish(ctx context.Context, msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	select {
	case b.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (b *AsyncBus) Subscribe(ctx context.Context, roomID string) (<-chan Message, error) {
	return b.inner.Subscribe(ctx, roomID)
}

// Close sends what is already queued and waits for it. Later publishes
// fail with ErrClosed. Close may be called more than once.
func (b *AsyncBus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()
	<-b.done
}
