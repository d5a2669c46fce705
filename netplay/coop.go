package netplay

import (
	"context"

	"github.com/Park-Jeong-Gil/tap-tap-burger/game"
)

// Coop relays raw input between two players whose matches share a seeded
// order stream. Inputs carry no sequence numbers; duplicates and
// reordering are not corrected.
type Coop struct {
	roomID   string
	playerID string
	bus      Bus
	keys     game.CoopKeys
}

func NewCoop(roomID, playerID string, keys game.CoopKeys, bus Bus) *Coop {
	return &Coop{roomID: roomID, playerID: playerID, bus: bus, keys: keys}
}

// Keys returns the actions this player may send.
func (c *Coop) Keys() game.CoopKeys {
	return c.keys
}

// Local applies an action from this player and broadcasts it. Actions
// outside the player's key set are dropped. The broadcast happens even if
// the local match refused the action, since the peer may accept it.
func (c *Coop) Local(ctx context.Context, m *game.Match, a game.Action) bool {
	if !c.keys.Allows(a) {
		return false
	}
	applied := m.Apply(a)
	publish(ctx, c.bus, Message{Event: EventInput, RoomID: c.roomID, From: c.playerID, Input: a})
	return applied
}

// Receive replays the partner's input against the local match.
func (c *Coop) Receive(m *game.Match, msg Message) Effect {
	var eff Effect
	if msg.From == c.playerID {
		return eff
	}
	switch msg.Event {
	case EventInput:
		m.Apply(msg.Input)
	case EventGameStart:
		eff.GameStart = true
	}
	return eff
}
