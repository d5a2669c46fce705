package room

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/game"
	"github.com/google/uuid"
)

// Lobby runs room lifecycle operations against a Store.
type Lobby struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
}

type LobbyOption func(*Lobby)

// WithWaitingTimeout overrides how long a room may wait for its start.
func WithWaitingTimeout(d time.Duration) LobbyOption {
	return func(l *Lobby) { l.timeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) LobbyOption {
	return func(l *Lobby) { l.now = now }
}

func NewLobby(store Store, opts ...LobbyOption) *Lobby {
	l := &Lobby{store: store, timeout: WaitingTimeout, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Store exposes the backing store for watchers.
func (l *Lobby) Store() Store { return l.store }

// WaitingTimeout is the configured start deadline.
func (l *Lobby) WaitingTimeout() time.Duration { return l.timeout }

// Create opens a new waiting room hosted by host.
func (l *Lobby) Create(ctx context.Context, mode game.Mode, host Player) (*Room, error) {
	if mode != game.ModeCoop && mode != game.ModeVersus {
		return nil, fmt.Errorf("rooms are only for coop and versus, got %q", mode)
	}
	r := New(uuid.NewString(), mode, host, l.now())
	if err := l.store.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	log.Printf("[ROOM] %s created %s room %s", host.ID, mode, r.ID)
	return r, nil
}

// Info returns the room, reporting an overdue waiting room as finished.
func (l *Lobby) Info(ctx context.Context, id string) (*Room, error) {
	r, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Overdue(l.now(), l.timeout) {
		r.Finish(l.now())
	}
	return r, nil
}

// Join admits p to the room if it is available.
func (l *Lobby) Join(ctx context.Context, id string, p Player) (*Room, error) {
	r, err := l.store.Update(ctx, id, func(r *Room) error {
		return r.Join(p, l.now(), l.timeout)
	})
	if err != nil {
		if reason, ok := ReasonOf(err); ok {
			log.Printf("[ROOM] join %s by %s refused: %s", id, p.ID, reason)
		}
		return nil, err
	}
	return r, nil
}

func (l *Lobby) SetReady(ctx context.Context, id, playerID string, ready bool) (*Room, error) {
	return l.store.Update(ctx, id, func(r *Room) error {
		return r.SetReady(playerID, ready)
	})
}

// Start moves the room to playing if every rule allows it. The check and
// the write happen in one atomic update so a room that expired in between
// is refused.
func (l *Lobby) Start(ctx context.Context, id, playerID string) (*Room, error) {
	r, err := l.store.Update(ctx, id, func(r *Room) error {
		return r.Start(playerID, l.now(), l.timeout)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[ROOM] room %s started by %s", id, playerID)
	return r, nil
}

// Finish marks the room finished on behalf of one of its members.
// Finishing twice is not an error.
func (l *Lobby) Finish(ctx context.Context, id, playerID string) error {
	_, err := l.store.Update(ctx, id, func(r *Room) error {
		if _, ok := r.Member(playerID); !ok {
			return refuse(r.ID, ReasonNotMember)
		}
		r.Finish(l.now())
		return nil
	})
	return err
}

// Leave removes a waiting-room participant.
func (l *Lobby) Leave(ctx context.Context, id, playerID string) error {
	_, err := l.store.Update(ctx, id, func(r *Room) error {
		r.Leave(playerID, l.now())
		return nil
	})
	return err
}
