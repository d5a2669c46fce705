package room

import (
	"context"
	"log"
	"time"
)

// PollInterval is how often a watcher re-reads the room when the feed is
// quiet.
const PollInterval = 3 * time.Second

// Watcher merges a room's change feed with periodic polling. The feed can
// die exactly when a disconnecting peer's last update would have arrived;
// the poll covers that.
type Watcher struct {
	store    Store
	interval time.Duration
}

func NewWatcher(store Store, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = PollInterval
	}
	return &Watcher{store: store, interval: interval}
}

// Run emits each distinct status of room id. The channel is closed after
// finished is emitted or when ctx is done.
func (w *Watcher) Run(ctx context.Context, id string) <-chan Status {
	out := make(chan Status, 4)

	go func() {
		defer close(out)

		feed, err := w.store.Watch(ctx, id)
		if err != nil {
			log.Printf("[ROOM] change feed for %s unavailable, polling only: %v", id, err)
			feed = nil
		}

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		var last Status
		// emit reports whether watching should continue.
		emit := func(s Status) bool {
			if s == last {
				return true
			}
			last = s
			select {
			case out <- s:
			case <-ctx.Done():
				return false
			}
			return s != StatusFinished
		}

		for {
			select {
			case <-ctx.Done():
				return

			case s, ok := <-feed:
				if !ok {
					feed = nil
					continue
				}
				if !emit(s) {
					return
				}

			case <-ticker.C:
				r, err := w.store.Get(ctx, id)
				if err != nil {
					if reason, ok := ReasonOf(err); ok && reason == ReasonNotFound {
						emit(StatusFinished)
						return
					}
					log.Printf("[ROOM] poll %s failed: %v", id, err)
					continue
				}
				if !emit(r.Status) {
					return
				}
			}
		}
	}()

	return out
}

// OnFinished calls fn once when room id is observed finished.
func (w *Watcher) OnFinished(ctx context.Context, id string, fn func()) {
	go func() {
		for s := range w.Run(ctx, id) {
			if s == StatusFinished {
				fn()
				return
			}
		}
	}()
}
