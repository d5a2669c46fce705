package mocks

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Park-Jeong-Gil/tap-tap-burger/netplay"
	"github.com/Park-Jeong-Gil/tap-tap-burger/room"
)

// MockBus is an in-memory room bus. Like the Redis one it echoes a
// publisher's own messages back and drops messages for slow subscribers.
type MockBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan netplay.Message
}

var mockBusInstance *MockBus
var mockBusOnce sync.Once

// GetMockBus returns the singleton mock bus
func GetMockBus() *MockBus {
	mockBusOnce.Do(func() {
		mockBusInstance = NewMockBus()
		log.Println("[MOCK] In-memory room bus initialized for local development")
	})
	return mockBusInstance
}

func NewMockBus() *MockBus {
	return &MockBus{subscribers: make(map[string][]chan netplay.Message)}
}

// Publish delivers msg to every subscriber of its room
func (b *MockBus) Publish(ctx context.Context, msg netplay.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers[msg.RoomID] {
		select {
		case sub <- msg:
		default:
			// Channel full, skip
		}
	}
	return nil
}

// Subscribe returns a channel for roomID that is closed when ctx is done
func (b *MockBus) Subscribe(ctx context.Context, roomID string) (<-chan netplay.Message, error) {
	ch := make(chan netplay.Message, 100)

	b.mu.Lock()
	b.subscribers[roomID] = append(b.subscribers[roomID], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[roomID]
		for i, sub := range subs {
			if sub == ch {
				b.subscribers[roomID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(b.subscribers[roomID]) == 0 {
			delete(b.subscribers, roomID)
		}
		close(ch)
	}()

	return ch, nil
}

// SubscriberCount returns the number of live subscriptions for roomID
func (b *MockBus) SubscriberCount(roomID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[roomID])
}

// ==================== ROOM STORE MOCK ====================

// MockRoomStore keeps rooms in memory and publishes status changes to
// watchers.
type MockRoomStore struct {
	mu       sync.Mutex
	rooms    map[string]*room.Room
	watchers map[string][]chan room.Status
}

var mockRoomStoreInstance *MockRoomStore
var mockRoomStoreOnce sync.Once

// GetMockRoomStore returns the singleton mock room store
func GetMockRoomStore() *MockRoomStore {
	mockRoomStoreOnce.Do(func() {
		mockRoomStoreInstance = NewMockRoomStore()
		log.Println("[MOCK] In-memory room store initialized")
	})
	return mockRoomStoreInstance
}

func NewMockRoomStore() *MockRoomStore {
	return &MockRoomStore{
		rooms:    make(map[string]*room.Room),
		watchers: make(map[string][]chan room.Status),
	}
}

// Create stores a new room
func (s *MockRoomStore) Create(ctx context.Context, r *room.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[r.ID]; exists {
		return fmt.Errorf("room %s already exists", r.ID)
	}
	s.rooms[r.ID] = r.Clone()
	log.Printf("[MOCK] Room saved: %s", r.ID)
	return nil
}

// Get retrieves a copy of a room
func (s *MockRoomStore) Get(ctx context.Context, id string) (*room.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.rooms[id]
	if !exists {
		return nil, room.NotFound(id)
	}
	return r.Clone(), nil
}

// Update applies fn under the store lock
func (s *MockRoomStore) Update(ctx context.Context, id string, fn func(*room.Room) error) (*room.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.rooms[id]
	if !exists {
		return nil, room.NotFound(id)
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.rooms[id] = next

	if next.Status != current.Status {
		for _, w := range s.watchers[id] {
			select {
			case w <- next.Status:
			default:
			}
		}
	}
	return next.Clone(), nil
}

// Watch streams status changes of room id until ctx is done
func (s *MockRoomStore) Watch(ctx context.Context, id string) (<-chan room.Status, error) {
	ch := make(chan room.Status, 8)

	s.mu.Lock()
	s.watchers[id] = append(s.watchers[id], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		ws := s.watchers[id]
		for i, w := range ws {
			if w == ch {
				s.watchers[id] = append(ws[:i], ws[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

// RoomCount returns the number of stored rooms
func (s *MockRoomStore) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
