// Package cache implements the TTL response cache used by the API client.
//
// Entries are keyed by the literal request identity (the fully composed
// URL), stored in an in-memory LRU so the entry count stays bounded.
// Freshness is checked lazily on lookup; there is no eviction thread.
// Expired entries are simply overwritten by the next store for the key.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type entry struct {
	value    any
	storedAt time.Time
}

// Store is a TTL cache over request identities. It is safe for concurrent
// use, but identical in-flight requests are not coalesced: two callers
// racing on the same key may both miss and both hit the network.
type Store struct {
	entries *lru.Cache
	ttl     time.Duration
	now     func() time.Time
}

// New creates a Store holding at most size entries, each fresh for ttl
// after being stored.
func New(size int, ttl time.Duration) (*Store, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &Store{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Lookup returns the cached value for key if a fresh entry exists.
func (s *Store) Lookup(key string) (any, bool) {
	v, ok := s.entries.Get(key)
	if !ok {
		return nil, false
	}

	e := v.(entry)
	if s.now().Sub(e.storedAt) > s.ttl {
		return nil, false
	}

	return e.value, true
}

// Put stores value under key, replacing any previous entry, and returns
// the stored value so call sites can chain on it.
func (s *Store) Put(key string, value any) any {
	s.entries.Add(key, entry{value: value, storedAt: s.now()})
	return value
}

// IsFresh reports whether a fresh entry exists for key.
func (s *Store) IsFresh(key string) bool {
	_, ok := s.Lookup(key)
	return ok
}

// Fingerprint computes the legacy 32-bit string hash of s, kept as a
// compact correlation id for log output. It is deterministic and
// non-cryptographic; distinct strings can collide, which is why it is no
// longer used as the cache key.
func Fingerprint(s string) int32 {
	var h int32
	for _, r := range s {
		h = (h << 5) - h + int32(r)
	}
	return h
}
