package core

import "testing"

func TestTrieDBInsertAndGet(t *testing.T) {
	db := NewTrieDB(NewMemKVStore(), false)
	if err := db.Insert([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, ok, err := db.Get([]byte("k"))
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("get: got %q ok=%v err=%v", got, ok, err)
	}
}

func TestTrieDBInsertBatchLengthMismatchErrors(t *testing.T) {
	db := NewTrieDB(NewMemKVStore(), false)
	err := db.InsertBatch([][]byte{[]byte("a"), []byte("b")}, [][]byte{[]byte("1")})
	if err == nil {
		t.Fatalf("expected length mismatch to error")
	}
}

func TestTrieDBRemoveNoopInArchiveMode(t *testing.T) {
	db := NewTrieDB(NewMemKVStore(), false)
	if err := db.Insert([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Remove([]byte("k")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, _ := db.Contains([]byte("k")); !ok {
		t.Fatalf("expected archive-mode remove to be a no-op")
	}
}

func TestTrieDBRemoveDeletesInLightMode(t *testing.T) {
	db := NewTrieDB(NewMemKVStore(), true)
	if err := db.Insert([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Remove([]byte("k")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, _ := db.Contains([]byte("k")); ok {
		t.Fatalf("expected light-mode remove to delete the node")
	}
}

func TestTrieDBFlushIsNoop(t *testing.T) {
	db := NewTrieDB(NewMemKVStore(), false)
	if err := db.Flush(); err != nil {
		t.Fatalf("expected flush to be a no-op, got %v", err)
	}
}
