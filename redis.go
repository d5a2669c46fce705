package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/mocks"
	"github.com/Park-Jeong-Gil/tap-tap-burger/netplay"
	"github.com/Park-Jeong-Gil/tap-tap-burger/room"
	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix     = "burger:room:"
	roomStatusChannel = "burger:room:status:"
	roomBusChannel    = "burger:room:bus:"
	roomTTL           = 2 * time.Hour

	// maxTxRetries bounds optimistic-lock retries on a contended room.
	maxTxRetries = 5
)

// initRedis returns the room bus and store. Mock mode, or a Redis that
// cannot be reached, falls back to the in-memory versions, which only work
// for a single instance.
func initRedis(cfg Config) (netplay.Bus, room.Store) {
	if cfg.UseMocks {
		log.Println("[REDIS] Running in MOCK MODE - using in-memory rooms and bus")
		return mocks.GetMockBus(), mocks.GetMockRoomStore()
	}

	client, err := newRedisClient(cfg.RedisEndpoint)
	if err != nil {
		log.Printf("Warning: Redis connection failed: %v. Using in-memory fallback.", err)
		return mocks.GetMockBus(), mocks.GetMockRoomStore()
	}
	return NewRedisBus(client), NewRedisRoomStore(client)
}

func newRedisClient(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "", // ElastiCache doesn't use password by default
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	log.Printf("Connected to Redis/Valkey at %s", addr)
	return client, nil
}

// ==================== ROOM BUS ====================

// RedisBus carries netplay messages over one Pub/Sub channel per room.
type RedisBus struct {
	client *redis.Client
	codec  netplay.Codec
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client, codec: netplay.MsgpackCodec{}}
}

func (b *RedisBus) Publish(ctx context.Context, msg netplay.Message) error {
	data, err := b.codec.Marshal(msg)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, roomBusChannel+msg.RoomID, data).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, roomID string) (<-chan netplay.Message, error) {
	pubsub := b.client.Subscribe(ctx, roomBusChannel+roomID)
	// Wait for the confirmation so nothing published after we return is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe room %s: %w", roomID, err)
	}

	out := make(chan netplay.Message, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				msg, err := b.codec.Unmarshal([]byte(raw.Payload))
				if err != nil {
					log.Printf("[REDIS] Failed to parse room message: %v", err)
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// ==================== ROOM STORE ====================

// RedisRoomStore keeps each room as a JSON value and publishes status
// changes on a per-room channel.
type RedisRoomStore struct {
	client *redis.Client
}

func NewRedisRoomStore(client *redis.Client) *RedisRoomStore {
	return &RedisRoomStore{client: client}
}

func (s *RedisRoomStore) Create(ctx context.Context, r *room.Room) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	created, err := s.client.SetNX(ctx, roomKeyPrefix+r.ID, data, roomTTL).Result()
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("room %s already exists", r.ID)
	}
	return nil
}

func (s *RedisRoomStore) Get(ctx context.Context, id string) (*room.Room, error) {
	return getRoom(ctx, s.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getRoom(ctx context.Context, c getter, id string) (*room.Room, error) {
	data, err := c.Get(ctx, roomKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, room.NotFound(id)
	}
	if err != nil {
		return nil, err
	}
	var r room.Room
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Update applies fn inside WATCH/MULTI so concurrent transitions on the
// same room serialize. A refusal from fn aborts without writing.
func (s *RedisRoomStore) Update(ctx context.Context, id string, fn func(*room.Room) error) (*room.Room, error) {
	key := roomKeyPrefix + id
	var updated *room.Room

	txf := func(tx *redis.Tx) error {
		r, err := getRoom(ctx, tx, id)
		if err != nil {
			return err
		}
		before := r.Status
		if err := fn(r); err != nil {
			return err
		}
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, roomTTL)
			if r.Status != before {
				pipe.Publish(ctx, roomStatusChannel+id, string(r.Status))
			}
			return nil
		})
		updated = r
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("room %s: too much contention", id)
}

// Watch streams status changes published by Update.
func (s *RedisRoomStore) Watch(ctx context.Context, id string) (<-chan room.Status, error) {
	pubsub := s.client.Subscribe(ctx, roomStatusChannel+id)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan room.Status, 4)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- room.Status(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
