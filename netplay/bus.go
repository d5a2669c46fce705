package netplay

import (
	"context"
	"log"
)

// Bus is a per-room publish/subscribe channel. Delivery is at-most-once
// with no redelivery, and a publisher may receive its own messages.
type Bus interface {
	Publish(ctx context.Context, msg Message) error
	// Subscribe delivers messages for roomID until ctx is done, then
	// closes the channel.
	Subscribe(ctx context.Context, roomID string) (<-chan Message, error)
}

// publish sends msg and logs failures. Lost messages are superseded by
// the next state update, so nothing is retried.
func publish(ctx context.Context, bus Bus, msg Message) bool {
	if err := bus.Publish(ctx, msg); err != nil {
		log.Printf("[SYNC] publish %s to room %s failed: %v", msg.Event, msg.RoomID, err)
		return false
	}
	return true
}

// AnnounceStart mirrors the room's playing transition to peers that may
// have missed the change feed.
func AnnounceStart(ctx context.Context, bus Bus, roomID, from string) {
	publish(ctx, bus, Message{Event: EventGameStart, RoomID: roomID, From: from})
}
