package core

import "fmt"

// TrieDB adapts a raw KVStore to the node-level contract the MPT layer
// needs: get/contains/insert/insert_batch/remove/remove_batch/flush. In
// light mode, removed nodes are actually deleted; in archive mode remove is
// a no-op so historical tries stay queryable.
type TrieDB struct {
	store KVStore
	light bool
}

// NewTrieDB wraps store. light selects pruning (true) or archive (false)
// retention for removed nodes.
func NewTrieDB(store KVStore, light bool) *TrieDB {
	return &TrieDB{store: store, light: light}
}

func (t *TrieDB) Get(key []byte) ([]byte, bool, error) { return t.store.Get(key) }

func (t *TrieDB) Contains(key []byte) (bool, error) { return t.store.Has(key) }

func (t *TrieDB) Insert(key, value []byte) error { return t.store.Put(key, value) }

// InsertBatch writes keys[i]->values[i] atomically. A length mismatch is an
// error, never a silent truncation.
func (t *TrieDB) InsertBatch(keys, values [][]byte) error {
	if len(keys) != len(values) {
		return fmt.Errorf("triedb: insert_batch length mismatch: %d keys, %d values", len(keys), len(values))
	}
	batch := NewKVBatch()
	for i := range keys {
		batch.Puts[string(keys[i])] = values[i]
	}
	return t.store.WriteBatch(batch)
}

// Remove deletes key's node in light mode; it is a no-op in archive mode.
func (t *TrieDB) Remove(key []byte) error {
	if !t.light {
		return nil
	}
	return t.store.Delete(key)
}

// RemoveBatch deletes keys in light mode; it is a no-op in archive mode.
func (t *TrieDB) RemoveBatch(keys [][]byte) error {
	if !t.light {
		return nil
	}
	batch := NewKVBatch()
	batch.Deletes = make([]string, len(keys))
	for i, k := range keys {
		batch.Deletes[i] = string(k)
	}
	return t.store.WriteBatch(batch)
}

// Flush is a no-op: MemKVStore and any real disk KVStore this adapts both
// persist synchronously on Put/WriteBatch.
func (t *TrieDB) Flush() error { return nil }
