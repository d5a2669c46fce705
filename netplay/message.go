// Package netplay keeps two independently simulated matches playing the
// same game over an unreliable room bus.
package netplay

import "github.com/Park-Jeong-Gil/tap-tap-burger/game"

// EventType tags a bus message.
type EventType string

const (
	EventInput       EventType = "input"
	EventStateUpdate EventType = "state_update"
	EventAttack      EventType = "attack"
	EventFeverResult EventType = "fever_result"
	EventGameStart   EventType = "game_start"
)

// Message is one broadcast on a room topic. Exactly one payload field is
// set, matching Event.
type Message struct {
	Event  EventType    `json:"event" msgpack:"event"`
	RoomID string       `json:"roomId" msgpack:"roomId"`
	From   string       `json:"from" msgpack:"from"`
	Input  game.Action  `json:"input,omitempty" msgpack:"input,omitempty"`
	State  *PeerState   `json:"state,omitempty" msgpack:"state,omitempty"`
	Attack *Attack      `json:"attack,omitempty" msgpack:"attack,omitempty"`
	Fever  *FeverResult `json:"fever,omitempty" msgpack:"fever,omitempty"`
}

// PeerState is the opponent HUD snapshot carried by state_update.
type PeerState struct {
	HP           float64           `json:"hp" msgpack:"hp"`
	QueueLength  int               `json:"queueLength" msgpack:"queueLength"`
	Score        int               `json:"score" msgpack:"score"`
	Combo        int               `json:"combo" msgpack:"combo"`
	ClearedCount int               `json:"clearedCount" msgpack:"clearedCount"`
	Target       []game.Ingredient `json:"targetIngredients" msgpack:"targetIngredients"`
	FeverActive  bool              `json:"feverActive" msgpack:"feverActive"`
	FeverStack   int               `json:"feverStack" msgpack:"feverStack"`
	Status       game.Status       `json:"status" msgpack:"status"`
}

// Attack asks the receiver to extend its queue.
type Attack struct {
	Count int             `json:"count" msgpack:"count"`
	Type  game.AttackType `json:"attackType" msgpack:"attackType"`
}

// FeverResult is one side's stack count for a fever cycle.
type FeverResult struct {
	Cycle int `json:"cycle" msgpack:"cycle"`
	Count int `json:"count" msgpack:"count"`
}

// StateFromSnapshot builds the HUD view of a local match.
func StateFromSnapshot(s game.Snapshot) PeerState {
	if s.Status == game.StatusGameOver {
		return PeerState{
			Score:        s.Score,
			Combo:        s.Combo,
			ClearedCount: s.ClearedCount,
			Target:       []game.Ingredient{},
			Status:       game.StatusGameOver,
		}
	}
	return PeerState{
		HP:           s.HP,
		QueueLength:  len(s.Orders),
		Score:        s.Score,
		Combo:        s.Combo,
		ClearedCount: s.ClearedCount,
		Target:       s.Target(),
		FeverActive:  s.Fever.Active,
		FeverStack:   s.Fever.StackCount,
		Status:       s.Status,
	}
}
