package core

import (
	"encoding/json"
	"sort"
)

// GeneralServiceState is the three-tier state a single registered service
// reads and writes through: an uncommitted write cache, a stash of writes
// accepted for the current block but not yet committed to the trie, and
// the trie itself. A lookup checks cache, then stash, then trie, so a
// service always observes its own in-flight writes.
type GeneralServiceState struct {
	trie  *Trie
	cache map[string][]byte
	stash map[string][]byte
}

// NewGeneralServiceState wraps trie with empty cache and stash layers.
func NewGeneralServiceState(trie *Trie) *GeneralServiceState {
	return &GeneralServiceState{
		trie:  trie,
		cache: make(map[string][]byte),
		stash: make(map[string][]byte),
	}
}

// Get resolves key against cache, then stash, then the trie.
func (s *GeneralServiceState) Get(key []byte) ([]byte, bool, error) {
	if v, ok := s.cache[string(key)]; ok {
		return v, true, nil
	}
	if v, ok := s.stash[string(key)]; ok {
		return v, true, nil
	}
	return s.trie.Get(key)
}

// Contains reports whether key resolves to a value in any tier.
func (s *GeneralServiceState) Contains(key []byte) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

// Insert stages a write in the cache tier. It is not visible to the trie
// until Stash then Commit are called.
func (s *GeneralServiceState) Insert(key, value []byte) {
	s.cache[string(key)] = value
}

// Stash moves every cache entry into the stash tier and clears the cache.
// It never fails: by the time a write reaches the cache it is already
// serialized, so there is no encode step left to fail here.
func (s *GeneralServiceState) Stash() error {
	for k, v := range s.cache {
		s.stash[k] = v
	}
	s.cache = make(map[string][]byte)
	return nil
}

// RevertCache discards the cache tier, leaving the stash (and trie)
// untouched. Used when a call panics or a hook returns an error.
func (s *GeneralServiceState) RevertCache() {
	s.cache = make(map[string][]byte)
}

// Commit writes every stashed key into the trie in sorted order — map
// iteration order is never relied on for a deterministic root — and
// returns the new trie root. The stash is cleared on success.
func (s *GeneralServiceState) Commit() (Hash, error) {
	keys := make([]string, 0, len(s.stash))
	for k := range s.stash {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.trie.Insert([]byte(k), s.stash[k]); err != nil {
			return Hash{}, err
		}
	}
	s.stash = make(map[string][]byte)
	return s.trie.Root(), nil
}

// GetTyped decodes the JSON value stored under key into a V.
func GetTyped[V any](s *GeneralServiceState, key []byte) (V, bool, error) {
	var zero V
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return zero, ok, err
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// SetTyped JSON-encodes v and stages it under key.
func SetTyped[V any](s *GeneralServiceState, key []byte, v V) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Insert(key, raw)
	return nil
}
