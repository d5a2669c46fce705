package netplay

import (
	"context"
	"log"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/game"
)

const (
	// StateInterval bounds how often state_update is broadcast.
	StateInterval = 100 * time.Millisecond
	// ComboChunk is the combo length that fires one attack.
	ComboChunk = 6
)

// Result is the local outcome of a versus match.
type Result string

const (
	ResultNone Result = ""
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
)

// Effect reports what an inbound message changed.
type Effect struct {
	OpponentChanged bool
	GameStart       bool
	// Won is set when the opponent went down and the local match was
	// forced over.
	Won bool
}

type VersusConfig struct {
	RoomID        string
	PlayerID      string
	Bus           Bus
	StateInterval time.Duration
	Clock         func() time.Time
}

// Versus runs the attack and HUD exchange for one player. Like the match
// it observes, it is owned by a single goroutine.
type Versus struct {
	roomID   string
	playerID string
	bus      Bus
	now      func() time.Time
	interval time.Duration

	lastState    time.Time
	prevCombo    int
	terminalSent bool

	opponent    PeerState
	hasOpponent bool
	ledger      *FeverLedger
	result      Result
}

func NewVersus(cfg VersusConfig) *Versus {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.StateInterval <= 0 {
		cfg.StateInterval = StateInterval
	}
	return &Versus{
		roomID:   cfg.RoomID,
		playerID: cfg.PlayerID,
		bus:      cfg.Bus,
		now:      cfg.Clock,
		interval: cfg.StateInterval,
		ledger:   NewFeverLedger(cfg.Clock),
	}
}

func (v *Versus) message(event EventType) Message {
	return Message{Event: event, RoomID: v.roomID, From: v.playerID}
}

// Connected makes the next Sync send a state update immediately.
func (v *Versus) Connected() {
	v.lastState = time.Time{}
}

// Sync is called after every local transition with the events the match
// emitted. It broadcasts state, combo attacks and fever results, and
// returns the attacks it sent.
func (v *Versus) Sync(ctx context.Context, snap game.Snapshot, events []game.Event) []Attack {
	var sent []Attack
	send := func(a Attack) {
		msg := v.message(EventAttack)
		msg.Attack = &a
		if publish(ctx, v.bus, msg) {
			sent = append(sent, a)
		}
	}

	if snap.Status == game.StatusPlaying {
		if now := v.now(); v.lastState.IsZero() || now.Sub(v.lastState) >= v.interval {
			v.lastState = now
			v.sendState(ctx, snap)
		}

		if !snap.Fever.Active && !v.opponent.FeverActive {
			if count := comboAttack(v.prevCombo, snap.Combo); count > 0 {
				send(Attack{Count: count, Type: game.AttackCombo})
			}
		}
		v.prevCombo = snap.Combo
	}

	for _, e := range events {
		if e.Kind != game.EventFeverResult || e.FeverCycle <= 0 {
			continue
		}
		msg := v.message(EventFeverResult)
		msg.Fever = &FeverResult{Cycle: e.FeverCycle, Count: e.FeverCount}
		publish(ctx, v.bus, msg)
		if count := v.ledger.RecordMine(e.FeverCycle, e.FeverCount); count > 0 {
			send(Attack{Count: count, Type: game.AttackFeverDelta})
		}
	}

	if snap.Status == game.StatusGameOver && !v.terminalSent {
		v.terminalSent = true
		v.sendState(ctx, snap)
		if v.result == ResultNone {
			v.result = ResultLoss
			if v.hasOpponent && v.opponent.Status == game.StatusGameOver {
				v.result = ResultWin
			}
		}
		log.Printf("[SYNC] %s finished room %s: %s", v.playerID, v.roomID, v.result)
	}
	return sent
}

func (v *Versus) sendState(ctx context.Context, snap game.Snapshot) {
	state := StateFromSnapshot(snap)
	msg := v.message(EventStateUpdate)
	msg.State = &state
	publish(ctx, v.bus, msg)
}

// comboAttack returns the attack size for a combo change: a full chunk
// each time the combo crosses a multiple of ComboChunk, and the leftover
// when the combo breaks.
func comboAttack(prev, cur int) int {
	if cur == 0 && prev > 0 {
		return prev % ComboChunk
	}
	if cur > 0 && cur/ComboChunk > prev/ComboChunk {
		return ComboChunk
	}
	return 0
}

// Receive applies an inbound message to the local match.
func (v *Versus) Receive(ctx context.Context, m *game.Match, msg Message) Effect {
	var eff Effect
	if msg.From == v.playerID {
		return eff
	}

	switch msg.Event {
	case EventStateUpdate:
		if msg.State == nil {
			return eff
		}
		v.opponent = *msg.State
		v.hasOpponent = true
		eff.OpponentChanged = true
		if v.opponent.Status == game.StatusGameOver && m.Status() == game.StatusPlaying {
			v.result = ResultWin
			m.ForceGameOver()
			eff.Won = true
		}

	case EventAttack:
		if msg.Attack != nil && msg.Attack.Count > 0 {
			m.InjectAttack(msg.Attack.Count, msg.Attack.Type)
		}

	case EventFeverResult:
		if msg.Fever == nil {
			return eff
		}
		if count := v.ledger.RecordOpponent(msg.Fever.Cycle, msg.Fever.Count); count > 0 {
			out := v.message(EventAttack)
			out.Attack = &Attack{Count: count, Type: game.AttackFeverDelta}
			publish(ctx, v.bus, out)
		}

	case EventGameStart:
		eff.GameStart = true
	}
	return eff
}

// Forfeit records a win because the room finished while the local match
// was still running, and ends the local match.
func (v *Versus) Forfeit(m *game.Match) bool {
	if m.Status() != game.StatusPlaying {
		return false
	}
	v.result = ResultWin
	return m.ForceGameOver()
}

// Opponent returns the last known opponent view.
func (v *Versus) Opponent() (PeerState, bool) {
	return v.opponent, v.hasOpponent
}

func (v *Versus) Result() Result {
	return v.result
}
