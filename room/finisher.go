package room

import (
	"context"
	"log"
	"sync"
	"time"
)

const detachedTimeout = 5 * time.Second

// Finisher delivers teardown writes that must land even when the caller
// is going away. Each write is issued twice: once on the caller's context
// and once on a detached context that survives its cancellation. Both are
// idempotent, so double delivery is harmless. Failures are logged.
type Finisher struct {
	lobby *Lobby
	wg    sync.WaitGroup
}

func NewFinisher(lobby *Lobby) *Finisher {
	return &Finisher{lobby: lobby}
}

// MarkFinished finishes room id for member playerID without blocking.
func (f *Finisher) MarkFinished(ctx context.Context, id, playerID string) {
	f.fire(ctx, "finish "+id+" by "+playerID, func(ctx context.Context) error {
		return f.lobby.Finish(ctx, id, playerID)
	})
}

// LeaveWaiting removes playerID from waiting room id without blocking.
func (f *Finisher) LeaveWaiting(ctx context.Context, id, playerID string) {
	f.fire(ctx, "leave "+id+" by "+playerID, func(ctx context.Context) error {
		return f.lobby.Leave(ctx, id, playerID)
	})
}

func (f *Finisher) fire(ctx context.Context, what string, op func(context.Context) error) {
	run := func(ctx context.Context, path string) {
		defer f.wg.Done()
		if err := op(ctx); err != nil {
			log.Printf("[ROOM] %s (%s) failed: %v", what, path, err)
		}
	}

	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), detachedTimeout)
	f.wg.Add(2)
	go run(ctx, "async")
	go func() {
		defer cancel()
		run(detached, "detached")
	}()
}

// Wait blocks until every write issued so far has completed.
func (f *Finisher) Wait() {
	f.wg.Wait()
}
