package keys

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"sync"

	"github.com/minio/blake2b-simd"
)

// ErrEmptySeed is returned when a keyed hash is requested without a seed.
var ErrEmptySeed = errors.New("keyed hash needs a non-empty seed")

// KeyedStrings returns a contract for string keys hashed with BLAKE2b keyed
// by seed. Without the seed an adversary cannot pick keys that collide.
// Seeds longer than 64 bytes are rejected. Hashing costs one BLAKE2b block
// per 128 bytes of key; wrap the result with Memoize if keys are long and
// hashed often.
func KeyedStrings(seed []byte) (*Hasher[string], error) {
	states, err := keyedStates(seed)
	if err != nil {
		return nil, err
	}
	return &Hasher[string]{
		Order: Order[string]{Compare: compareOrdered[string]},
		Hash:  func(s string) uint32 { return keyedSum(states, []byte(s)) },
		Equal: func(a, b string) bool { return a == b },
	}, nil
}

// KeyedBytes is KeyedStrings for []byte keys.
func KeyedBytes(seed []byte) (*Hasher[[]byte], error) {
	states, err := keyedStates(seed)
	if err != nil {
		return nil, err
	}
	return &Hasher[[]byte]{
		Order: Order[[]byte]{Compare: bytes.Compare},
		Hash:  func(b []byte) uint32 { return keyedSum(states, b) },
		Equal: bytes.Equal,
	}, nil
}

// keyedStates returns a pool of BLAKE2b states keyed by seed. Reset puts a
// state back to just after the key block, so the key is absorbed once per
// state rather than once per hash.
func keyedStates(seed []byte) (*sync.Pool, error) {
	if len(seed) == 0 {
		return nil, ErrEmptySeed
	}
	cfg := &blake2b.Config{Size: 8, Key: append([]byte(nil), seed...)}
	first, err := blake2b.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("keyed hash: %w", err)
	}
	states := &sync.Pool{New: func() interface{} {
		h, err := blake2b.New(cfg)
		if err != nil {
			// the first state was made from this config
			panic(err)
		}
		return h
	}}
	states.Put(first)
	return states, nil
}

func keyedSum(states *sync.Pool, data []byte) uint32 {
	h := states.Get().(hash.Hash)
	h.Reset()
	h.Write(data)
	var buf [8]byte
	sum := h.Sum(buf[:0])
	states.Put(h)
	return fold(binary.LittleEndian.Uint64(sum))
}
