package netplay

import (
	"context"
	"testing"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/game"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestVersus(playerID string, bus Bus) (*Versus, *testClock) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	v := NewVersus(VersusConfig{RoomID: "room-1", PlayerID: playerID, Bus: bus, Clock: clock.Now})
	return v, clock
}

func playing(combo int) game.Snapshot {
	return game.Snapshot{Status: game.StatusPlaying, Combo: combo, HP: 80}
}

func TestComboAttack(t *testing.T) {
	tests := []struct {
		prev, cur, want int
	}{
		{0, 1, 0},
		{5, 6, 6},
		{6, 7, 0},
		{11, 12, 6},
		{7, 0, 1},
		{12, 0, 0},
		{14, 0, 2},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := comboAttack(tt.prev, tt.cur); got != tt.want {
			t.Errorf("comboAttack(%d, %d): expected %d, got %d", tt.prev, tt.cur, tt.want, got)
		}
	}
}

func TestVersus_ComboChunkThenRemainder(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	sender, _ := newTestVersus("p1", bus)

	for combo := 1; combo <= 7; combo++ {
		sender.Sync(ctx, playing(combo), nil)
	}
	sender.Sync(ctx, playing(0), nil)

	attacks := bus.events(EventAttack)
	if len(attacks) != 2 {
		t.Fatalf("Expected 2 attacks, got %d", len(attacks))
	}
	if attacks[0].Attack.Count != 6 || attacks[1].Attack.Count != 1 {
		t.Errorf("Expected attacks 6 then 1, got %d then %d", attacks[0].Attack.Count, attacks[1].Attack.Count)
	}

	receiver, _ := newTestVersus("p2", bus)
	m := game.NewMatch(game.DefaultConfig(game.ModeVersus))
	m.Start()
	for _, msg := range attacks {
		receiver.Receive(ctx, m, msg)
	}

	var got []int
	for _, e := range m.DrainEvents() {
		if e.Kind == game.EventAttackReceived {
			got = append(got, e.AttackCount)
		}
	}
	if len(got) != 2 || got[0] != 6 || got[1] != 1 {
		t.Errorf("Expected received attacks [6 1], got %v", got)
	}
}

func TestVersus_FeverBlocksComboAttacks(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	v, _ := newTestVersus("p1", bus)

	for combo := 1; combo <= 5; combo++ {
		v.Sync(ctx, playing(combo), nil)
	}
	fever := playing(6)
	fever.Fever.Active = true
	v.Sync(ctx, fever, nil)

	if n := len(bus.events(EventAttack)); n != 0 {
		t.Fatalf("Expected no attacks during fever, got %d", n)
	}

	// Opponent fever blocks too.
	v.Receive(ctx, game.NewMatch(game.DefaultConfig(game.ModeVersus)), Message{
		Event: EventStateUpdate, From: "p2", State: &PeerState{FeverActive: true, Status: game.StatusPlaying},
	})
	v.Sync(ctx, playing(0), nil)
	if n := len(bus.events(EventAttack)); n != 0 {
		t.Errorf("Expected no attacks during opponent fever, got %d", n)
	}
}

func TestVersus_StateThrottle(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	v, clock := newTestVersus("p1", bus)

	v.Sync(ctx, playing(0), nil)
	clock.now = clock.now.Add(40 * time.Millisecond)
	v.Sync(ctx, playing(0), nil)
	if n := len(bus.events(EventStateUpdate)); n != 1 {
		t.Fatalf("Expected 1 state update inside the interval, got %d", n)
	}

	clock.now = clock.now.Add(60 * time.Millisecond)
	v.Sync(ctx, playing(0), nil)
	if n := len(bus.events(EventStateUpdate)); n != 2 {
		t.Fatalf("Expected 2 state updates, got %d", n)
	}

	v.Connected()
	v.Sync(ctx, playing(0), nil)
	if n := len(bus.events(EventStateUpdate)); n != 3 {
		t.Errorf("Expected immediate update after reconnect, got %d", n)
	}
}

func TestVersus_TerminalSnapshotOnce(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	v, _ := newTestVersus("p1", bus)

	over := game.Snapshot{Status: game.StatusGameOver, Score: 700, HP: 0}
	v.Sync(ctx, over, nil)
	v.Sync(ctx, over, nil)

	states := bus.events(EventStateUpdate)
	if len(states) != 1 {
		t.Fatalf("Expected 1 terminal update, got %d", len(states))
	}
	if states[0].State.Status != game.StatusGameOver || states[0].State.QueueLength != 0 {
		t.Errorf("Unexpected terminal state %+v", states[0].State)
	}
	if v.Result() != ResultLoss {
		t.Errorf("Expected loss, got %q", v.Result())
	}
}

func TestVersus_OpponentGameOverWins(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVersus("p1", &recordingBus{})
	m := game.NewMatch(game.DefaultConfig(game.ModeVersus))
	m.Start()

	eff := v.Receive(ctx, m, Message{
		Event: EventStateUpdate, From: "p2", State: &PeerState{Status: game.StatusGameOver},
	})
	if !eff.Won || !eff.OpponentChanged {
		t.Errorf("Unexpected effect %+v", eff)
	}
	if m.Status() != game.StatusGameOver {
		t.Errorf("Expected forced game over, got %s", m.Status())
	}
	if v.Result() != ResultWin {
		t.Errorf("Expected win, got %q", v.Result())
	}

	v.Sync(ctx, m.Snapshot(), m.DrainEvents())
	if v.Result() != ResultWin {
		t.Errorf("Terminal sync overwrote result with %q", v.Result())
	}
}

func TestVersus_IgnoresOwnMessages(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVersus("p1", &recordingBus{})
	m := game.NewMatch(game.DefaultConfig(game.ModeVersus))
	m.Start()
	before := m.Snapshot()

	v.Receive(ctx, m, Message{Event: EventAttack, From: "p1", Attack: &Attack{Count: 6, Type: game.AttackCombo}})

	after := m.Snapshot()
	for i := range before.Orders {
		if len(before.Orders[i].Ticket.Tokens()) != len(after.Orders[i].Ticket.Tokens()) {
			t.Fatal("Self-sent attack was applied")
		}
	}
}

func TestVersus_FeverExchange(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	v, _ := newTestVersus("p1", bus)

	v.Sync(ctx, playing(0), []game.Event{{Kind: game.EventFeverResult, FeverCycle: 1, FeverCount: 12}})
	results := bus.events(EventFeverResult)
	if len(results) != 1 || results[0].Fever.Count != 12 {
		t.Fatalf("Expected fever result broadcast, got %+v", results)
	}

	m := game.NewMatch(game.DefaultConfig(game.ModeVersus))
	m.Start()
	msg := Message{Event: EventFeverResult, From: "p2", Fever: &FeverResult{Cycle: 1, Count: 2}}
	v.Receive(ctx, m, msg)
	v.Receive(ctx, m, msg)

	attacks := bus.events(EventAttack)
	if len(attacks) != 1 {
		t.Fatalf("Expected exactly 1 fever attack, got %d", len(attacks))
	}
	if attacks[0].Attack.Count != 3 || attacks[0].Attack.Type != game.AttackFeverDelta {
		t.Errorf("Unexpected attack %+v", attacks[0].Attack)
	}
}

func TestVersus_Forfeit(t *testing.T) {
	v, _ := newTestVersus("p1", &recordingBus{})
	m := game.NewMatch(game.DefaultConfig(game.ModeVersus))

	if v.Forfeit(m) {
		t.Error("Forfeit should not apply to an idle match")
	}
	m.Start()
	if !v.Forfeit(m) {
		t.Fatal("Forfeit was refused")
	}
	if v.Result() != ResultWin || m.Status() != game.StatusGameOver {
		t.Errorf("Expected win and game over, got %q %s", v.Result(), m.Status())
	}
}
