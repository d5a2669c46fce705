package room_test

import (
	"context"
	"testing"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/game"
	"github.com/Park-Jeong-Gil/tap-tap-burger/mocks"
	"github.com/Park-Jeong-Gil/tap-tap-burger/room"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestLobby() (*room.Lobby, *mocks.MockRoomStore, *clock) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	store := mocks.NewMockRoomStore()
	return room.NewLobby(store, room.WithClock(c.Now)), store, c
}

func TestLobby_FullFlow(t *testing.T) {
	ctx := context.Background()
	lobby, _, _ := newTestLobby()

	r, err := lobby.Create(ctx, game.ModeVersus, room.Player{ID: "host", Nickname: "Host"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := lobby.Join(ctx, r.ID, room.Player{ID: "guest", Nickname: "Guest"}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := lobby.SetReady(ctx, r.ID, "guest", true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}
	started, err := lobby.Start(ctx, r.ID, "host")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if started.Status != room.StatusPlaying {
		t.Errorf("Expected playing, got %s", started.Status)
	}

	if err := lobby.Finish(ctx, r.ID, "host"); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if err := lobby.Finish(ctx, r.ID, "host"); err != nil {
		t.Errorf("Second finish should succeed, got %v", err)
	}

	_, err = lobby.Join(ctx, r.ID, room.Player{ID: "guest"})
	if reason, _ := room.ReasonOf(err); reason != room.ReasonExpired {
		t.Errorf("Expected expired link, got %v", err)
	}
}

func TestLobby_FinishRequiresMember(t *testing.T) {
	ctx := context.Background()
	lobby, store, _ := newTestLobby()
	r, _ := lobby.Create(ctx, game.ModeVersus, room.Player{ID: "host"})

	err := lobby.Finish(ctx, r.ID, "stranger")
	if reason, _ := room.ReasonOf(err); reason != room.ReasonNotMember {
		t.Errorf("Expected not_member, got %v", err)
	}
	got, _ := store.Get(ctx, r.ID)
	if got.Status != room.StatusWaiting {
		t.Errorf("Expected room untouched, got %s", got.Status)
	}

	f := room.NewFinisher(lobby)
	f.MarkFinished(ctx, r.ID, "stranger")
	f.Wait()
	got, _ = store.Get(ctx, r.ID)
	if got.Status != room.StatusWaiting {
		t.Errorf("Expected finisher to refuse a stranger, got %s", got.Status)
	}
}

func TestLobby_CreateRejectsSolo(t *testing.T) {
	lobby, store, _ := newTestLobby()
	if _, err := lobby.Create(context.Background(), game.ModeSolo, room.Player{ID: "host"}); err == nil {
		t.Error("Expected solo room to be rejected")
	}
	if store.RoomCount() != 0 {
		t.Errorf("Expected no rooms, got %d", store.RoomCount())
	}
}

func TestLobby_JoinFullDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	lobby, store, _ := newTestLobby()
	r, _ := lobby.Create(ctx, game.ModeCoop, room.Player{ID: "host"})
	lobby.Join(ctx, r.ID, room.Player{ID: "guest"})

	_, err := lobby.Join(ctx, r.ID, room.Player{ID: "third"})
	if reason, _ := room.ReasonOf(err); reason != room.ReasonRoomFull {
		t.Fatalf("Expected room_full, got %v", err)
	}

	got, _ := store.Get(ctx, r.ID)
	if len(got.Players) != 2 {
		t.Errorf("Expected 2 members, got %d", len(got.Players))
	}
	if _, ok := got.Member("third"); ok {
		t.Error("Refused player became a member")
	}
}

func TestLobby_NotFound(t *testing.T) {
	lobby, _, _ := newTestLobby()
	_, err := lobby.Join(context.Background(), "nope", room.Player{ID: "p"})
	if reason, _ := room.ReasonOf(err); reason != room.ReasonNotFound {
		t.Errorf("Expected not_found, got %v", err)
	}
}

func TestLobby_StartAfterTimeout(t *testing.T) {
	ctx := context.Background()
	lobby, _, c := newTestLobby()
	r, _ := lobby.Create(ctx, game.ModeVersus, room.Player{ID: "host"})
	lobby.Join(ctx, r.ID, room.Player{ID: "guest"})
	lobby.SetReady(ctx, r.ID, "guest", true)

	c.now = c.now.Add(room.WaitingTimeout + time.Second)
	_, err := lobby.Start(ctx, r.ID, "host")
	if reason, _ := room.ReasonOf(err); reason != room.ReasonExpired {
		t.Fatalf("Expected expired, got %v", err)
	}

	info, _ := lobby.Info(ctx, r.ID)
	if info.Status != room.StatusFinished {
		t.Errorf("Expected overdue room reported finished, got %s", info.Status)
	}
}

func TestFinisher_DeliversAfterCancel(t *testing.T) {
	lobby, store, _ := newTestLobby()
	r, _ := lobby.Create(context.Background(), game.ModeVersus, room.Player{ID: "host"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := room.NewFinisher(lobby)
	f.MarkFinished(ctx, r.ID, "host")
	f.Wait()

	got, _ := store.Get(context.Background(), r.ID)
	if got.Status != room.StatusFinished {
		t.Errorf("Expected finished via detached path, got %s", got.Status)
	}
}

func TestFinisher_LeaveWaiting(t *testing.T) {
	ctx := context.Background()
	lobby, store, _ := newTestLobby()
	r, _ := lobby.Create(ctx, game.ModeVersus, room.Player{ID: "host"})
	lobby.Join(ctx, r.ID, room.Player{ID: "guest"})

	f := room.NewFinisher(lobby)
	f.LeaveWaiting(ctx, r.ID, "guest")
	f.Wait()

	got, _ := store.Get(ctx, r.ID)
	if _, ok := got.Member("guest"); ok {
		t.Error("Guest still a member after leave")
	}
	if got.Status != room.StatusWaiting {
		t.Errorf("Expected room still waiting, got %s", got.Status)
	}
}

func TestFinisher_SwallowsErrors(t *testing.T) {
	lobby, _, _ := newTestLobby()
	f := room.NewFinisher(lobby)
	f.MarkFinished(context.Background(), "missing", "host")
	f.Wait()
}
