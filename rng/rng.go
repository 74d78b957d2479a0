// Package rng hands out deterministic random streams for the randomized
// search strategies. Nothing here touches a process-wide generator.
package rng

import (
	"encoding/binary"

	"lukechampine.com/frand"
)

// DefaultSeed replaces a zero seed.
const DefaultSeed int64 = 1

// New returns a ChaCha8 stream fully determined by seed.
func New(seed int64) *frand.RNG {
	if seed == 0 {
		seed = DefaultSeed
	}
	var key [32]byte
	s := uint64(seed)
	for i := 0; i < 4; i++ {
		s = splitmix(s)
		binary.LittleEndian.PutUint64(key[i*8:], s)
	}
	return frand.NewCustom(key[:], 0, 0)
}

// Derive mixes a parent seed and a stream id into an independent seed.
func Derive(parent int64, stream uint64) int64 {
	return int64(splitmix(uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)))
}

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
