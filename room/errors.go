package room

import (
	"errors"
	"fmt"
)

// Reason is why a room operation was refused.
type Reason string

const (
	ReasonExpired    Reason = "expired"
	ReasonRoomFull   Reason = "room_full"
	ReasonNotWaiting Reason = "not_waiting"
	ReasonNotFound   Reason = "not_found"
	ReasonNotHost    Reason = "not_host"
	ReasonNotReady   Reason = "not_ready"
	ReasonNotMember  Reason = "not_member"
)

// RefusalError is returned when a room operation is rejected by the
// lifecycle rules. Refusals are final and never retried.
type RefusalError struct {
	RoomID string
	Reason Reason
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("room %s refused: %s", e.RoomID, e.Reason)
}

func refuse(roomID string, reason Reason) error {
	return &RefusalError{RoomID: roomID, Reason: reason}
}

// NotFound is the refusal stores return for unknown rooms.
func NotFound(roomID string) error {
	return refuse(roomID, ReasonNotFound)
}

// ReasonOf extracts the refusal reason from err, if it is a refusal.
func ReasonOf(err error) (Reason, bool) {
	var refusal *RefusalError
	if errors.As(err, &refusal) {
		return refusal.Reason, true
	}
	return "", false
}
