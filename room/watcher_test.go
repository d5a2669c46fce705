package room_test

import (
	"context"
	"testing"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/game"
	"github.com/Park-Jeong-Gil/tap-tap-burger/room"
)

func TestWatcher_FeedFinish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	lobby, store, _ := newTestLobby()
	r, _ := lobby.Create(ctx, game.ModeVersus, room.Player{ID: "host"})

	w := room.NewWatcher(store, time.Hour)
	statuses := w.Run(ctx, r.ID)

	// Let the watcher subscribe before the change.
	time.Sleep(20 * time.Millisecond)
	lobby.Finish(ctx, r.ID, "host")

	var last room.Status
	for s := range statuses {
		last = s
	}
	if last != room.StatusFinished {
		t.Errorf("Expected finished, got %q", last)
	}
}

// silentStore never publishes on its feed, like a push channel that died.
type silentStore struct {
	room.Store
}

func (silentStore) Watch(ctx context.Context, id string) (<-chan room.Status, error) {
	return make(chan room.Status), nil
}

func TestWatcher_PollCoversDeadFeed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	lobby, store, _ := newTestLobby()
	r, _ := lobby.Create(ctx, game.ModeVersus, room.Player{ID: "host"})
	lobby.Finish(ctx, r.ID, "host")

	w := room.NewWatcher(silentStore{store}, 10*time.Millisecond)
	fired := make(chan struct{})
	w.OnFinished(ctx, r.ID, func() { close(fired) })

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("Poll never observed the finished room")
	}
}

func TestWatcher_MissingRoomIsFinished(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, store, _ := newTestLobby()

	w := room.NewWatcher(store, 10*time.Millisecond)
	var got []room.Status
	for s := range w.Run(ctx, "gone") {
		got = append(got, s)
	}
	if len(got) != 1 || got[0] != room.StatusFinished {
		t.Errorf("Expected [finished], got %v", got)
	}
}
