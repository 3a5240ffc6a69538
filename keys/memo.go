package keys

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// Memoize wraps h so that a key's hash is computed once while the key stays
// in an ARC cache holding up to size hashes. It suits keys whose Hash is
// expensive. The cache is safe for concurrent use, so the returned contract
// may be shared like any other.
func Memoize[K comparable](h *Hasher[K], size int) (*Hasher[K], error) {
	cache, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("hash cache: %w", err)
	}
	hash := h.Hash
	return &Hasher[K]{
		Order: h.Order,
		Equal: h.Equal,
		Hash: func(k K) uint32 {
			if cached, ok := cache.Get(k); ok {
				return cached.(uint32)
			}
			sum := hash(k)
			cache.Add(k, sum)
			return sum
		},
	}, nil
}
