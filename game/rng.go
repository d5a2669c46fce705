package game

import (
	"hash/fnv"
	"math/rand/v2"
)

// source yields floats in [0, 1).
type source interface {
	Float64() float64
}

// mulberry32 is a tiny 32-bit PRNG. Its output depends only on the seed,
// which is what lets two peers derive the same ticket stream.
type mulberry32 struct {
	state uint32
}

func newMulberry32(seed uint32) *mulberry32 {
	return &mulberry32{state: seed}
}

func (m *mulberry32) Float64() float64 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

func sourceFor(seed *uint32) source {
	if seed == nil {
		return globalSource{}
	}
	return newMulberry32(*seed)
}

func pick[T any](src source, pool []T) T {
	return pool[int(src.Float64()*float64(len(pool)))%len(pool)]
}

// RoomSeed hashes a room identifier into a 32-bit stream seed.
func RoomSeed(roomID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(roomID))
	return h.Sum32()
}

// SeedFor derives the seed for one order of a room's shared stream.
func SeedFor(roomSeed uint32, orderIndex int) uint32 {
	return roomSeed ^ (uint32(orderIndex+1) * 0x9E3779B9)
}
