package core

import (
	"encoding/gob"
	"os"
	"path/filepath"
)

// FileKVStore is a MemKVStore that persists its full key set to a single
// file on every mutation, giving the CLI's genesis/exec commands durable
// storage across process runs without pulling in a disk-backed database
// engine this codebase's pack never depends on.
type FileKVStore struct {
	*MemKVStore
	path string
}

// NewFileKVStore opens (or creates) the store at path, loading any
// previously persisted contents into memory.
func NewFileKVStore(path string) (*FileKVStore, error) {
	store := &FileKVStore{MemKVStore: NewMemKVStore(), path: path}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (f *FileKVStore) load() error {
	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	var data map[string][]byte
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return err
	}
	f.MemKVStore.mu.Lock()
	f.MemKVStore.data = data
	f.MemKVStore.mu.Unlock()
	return nil
}

// persist snapshots the in-memory map to path, writing to a temp file and
// renaming into place so a crash mid-write never corrupts the existing file.
func (f *FileKVStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	f.MemKVStore.mu.RLock()
	err = gob.NewEncoder(file).Encode(f.MemKVStore.data)
	f.MemKVStore.mu.RUnlock()
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileKVStore) Put(key, value []byte) error {
	if err := f.MemKVStore.Put(key, value); err != nil {
		return err
	}
	return f.persist()
}

func (f *FileKVStore) Delete(key []byte) error {
	if err := f.MemKVStore.Delete(key); err != nil {
		return err
	}
	return f.persist()
}

func (f *FileKVStore) WriteBatch(batch *KVBatch) error {
	if err := f.MemKVStore.WriteBatch(batch); err != nil {
		return err
	}
	return f.persist()
}
