// Package room implements the single-use waiting -> playing -> finished
// lifecycle of two-player rooms.
package room

import (
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/game"
)

// Status is the room lifecycle state. Finished is terminal.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

const (
	MaxPlayers     = 2
	WaitingTimeout = 10 * time.Minute
)

type Player struct {
	ID       string        `json:"playerId"`
	Nickname string        `json:"nickname"`
	Ready    bool          `json:"ready"`
	Keys     game.CoopKeys `json:"assignedKeys,omitempty"`
}

// Room is the shared row both players see. Its methods are the pure
// transitions; stores apply them atomically.
type Room struct {
	ID         string    `json:"id"`
	Mode       game.Mode `json:"mode"`
	Status     Status    `json:"status"`
	HostID     string    `json:"hostId"`
	Players    []Player  `json:"players"`
	CreatedAt  time.Time `json:"createdAt"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// New returns a waiting room whose only member is the ready host.
func New(id string, mode game.Mode, host Player, now time.Time) *Room {
	host.Ready = true
	host.Keys = nil
	return &Room{
		ID:        id,
		Mode:      mode,
		Status:    StatusWaiting,
		HostID:    host.ID,
		Players:   []Player{host},
		CreatedAt: now,
	}
}

// Clone returns a deep copy.
func (r *Room) Clone() *Room {
	c := *r
	c.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		p.Keys = append(game.CoopKeys(nil), p.Keys...)
		c.Players[i] = p
	}
	return &c
}

func (r *Room) indexOf(playerID string) int {
	for i, p := range r.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// Member returns the player with the given id.
func (r *Room) Member(playerID string) (Player, bool) {
	if i := r.indexOf(playerID); i >= 0 {
		return r.Players[i], true
	}
	return Player{}, false
}

// Overdue reports a waiting room that was never started in time.
func (r *Room) Overdue(now time.Time, timeout time.Duration) bool {
	return r.Status == StatusWaiting && timeout > 0 && now.Sub(r.CreatedAt) > timeout
}

// Join admits p, or recognizes a returning member. Refusals leave the room
// untouched.
func (r *Room) Join(p Player, now time.Time, timeout time.Duration) error {
	if r.Status == StatusFinished || r.Overdue(now, timeout) {
		return refuse(r.ID, ReasonExpired)
	}

	i := r.indexOf(p.ID)
	if r.Status == StatusPlaying {
		switch {
		case i < 0:
			return refuse(r.ID, ReasonNotWaiting)
		case p.ID != r.HostID:
			// A guest coming back to a running match is looking at a
			// result window that is already gone.
			return refuse(r.ID, ReasonExpired)
		}
		return nil
	}

	if i >= 0 {
		if p.Nickname != "" {
			r.Players[i].Nickname = p.Nickname
		}
		return nil
	}
	if len(r.Players) >= MaxPlayers {
		return refuse(r.ID, ReasonRoomFull)
	}
	r.Players = append(r.Players, Player{ID: p.ID, Nickname: p.Nickname})
	return nil
}

// SetReady sets a member's ready flag. Setting it twice is harmless.
func (r *Room) SetReady(playerID string, ready bool) error {
	i := r.indexOf(playerID)
	if i < 0 {
		return refuse(r.ID, ReasonNotMember)
	}
	if r.Status != StatusWaiting {
		return refuse(r.ID, ReasonNotWaiting)
	}
	r.Players[i].Ready = ready
	return nil
}

// Start moves a full, ready room to playing. Only the host may start.
// Coop rooms get their key split here.
func (r *Room) Start(playerID string, now time.Time, timeout time.Duration) error {
	if r.Status == StatusFinished || r.Overdue(now, timeout) {
		return refuse(r.ID, ReasonExpired)
	}
	if r.Status != StatusWaiting {
		return refuse(r.ID, ReasonNotWaiting)
	}
	if playerID != r.HostID {
		return refuse(r.ID, ReasonNotHost)
	}
	ready := 0
	for _, p := range r.Players {
		if p.Ready {
			ready++
		}
	}
	if ready < MaxPlayers {
		return refuse(r.ID, ReasonNotReady)
	}

	if r.Mode == game.ModeCoop {
		hostKeys, guestKeys := game.AssignCoopKeys(r.ID)
		for i := range r.Players {
			if r.Players[i].ID == r.HostID {
				r.Players[i].Keys = hostKeys
			} else {
				r.Players[i].Keys = guestKeys
			}
		}
	}
	r.Status = StatusPlaying
	r.StartedAt = now
	return nil
}

// Finish marks the room finished. It reports false if it already was.
func (r *Room) Finish(now time.Time) bool {
	if r.Status == StatusFinished {
		return false
	}
	r.Status = StatusFinished
	r.FinishedAt = now
	return true
}

// Leave removes a member from a waiting room. The room cannot be started
// without its host, so a departing host finishes it. Leaving any other
// state is a no-op.
func (r *Room) Leave(playerID string, now time.Time) bool {
	if r.Status != StatusWaiting {
		return false
	}
	i := r.indexOf(playerID)
	if i < 0 {
		return false
	}
	if playerID == r.HostID {
		return r.Finish(now)
	}
	r.Players = append(r.Players[:i], r.Players[i+1:]...)
	return true
}
