package room

import "context"

// Store persists rooms shared between players.
type Store interface {
	Create(ctx context.Context, r *Room) error
	// Get returns a copy of the room or a not_found refusal.
	Get(ctx context.Context, id string) (*Room, error)
	// Update applies fn atomically. If fn returns an error nothing is
	// written and the error is returned as is. A status change is
	// published on the room's feed.
	Update(ctx context.Context, id string, fn func(*Room) error) (*Room, error)
	// Watch streams status changes until ctx is done. The stream may
	// drop changes silently, so callers also poll.
	Watch(ctx context.Context, id string) (<-chan Status, error)
}
