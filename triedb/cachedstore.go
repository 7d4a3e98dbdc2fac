package triedb

import (
	"github.com/VictoriaMetrics/fastcache"
	"github.com/harkal/dash/types"
)

// CachedStore fronts another NodeStore with a fixed-size fastcache,
// trading memory for fewer round-trips to a disk-backed store such as
// LevelStore. Trie nodes are immutable once written (content-addressed),
// so the cache never needs invalidation on write.
type CachedStore struct {
	back  NodeStore
	cache *fastcache.Cache
}

// NewCachedStore wraps back with an in-memory cache of roughly
// maxBytes capacity.
func NewCachedStore(back NodeStore, maxBytes int) *CachedStore {
	return &CachedStore{back: back, cache: fastcache.New(maxBytes)}
}

func (s *CachedStore) Read(hash types.Hash) ([]byte, error) {
	if data, ok := s.cache.HasGet(nil, hash[:]); ok {
		return data, nil
	}
	data, err := s.back.Read(hash)
	if err != nil {
		return nil, err
	}
	s.cache.Set(hash[:], data)
	return data, nil
}

func (s *CachedStore) Write(hash types.Hash, data []byte) error {
	if err := s.back.Write(hash, data); err != nil {
		return err
	}
	s.cache.Set(hash[:], data)
	return nil
}

func (s *CachedStore) Erase(hash types.Hash) error {
	s.cache.Del(hash[:])
	return s.back.Erase(hash)
}
