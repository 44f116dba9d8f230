package core

import "testing"

func newTestSDKForContainers() ServiceSDK {
	db := NewTrieDB(NewMemKVStore(), false)
	state := NewGeneralServiceState(NewTrie(db))
	return NewDefaultServiceSDK(state, nil, nil)
}

func TestStoreMapGetSetContains(t *testing.T) {
	sdk := newTestSDKForContainers()
	m := NewStoreMap[int](sdk, "balances")

	if ok, err := m.Contains("alice"); err != nil || ok {
		t.Fatalf("expected unset key absent, ok=%v err=%v", ok, err)
	}
	if err := m.Set("alice", 42); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := m.Get("alice")
	if err != nil || !ok || v != 42 {
		t.Fatalf("get: v=%d ok=%v err=%v", v, ok, err)
	}
	if ok, err := m.Contains("alice"); err != nil || !ok {
		t.Fatalf("expected key present, ok=%v err=%v", ok, err)
	}
}

func TestStoreArrayPushAndLen(t *testing.T) {
	sdk := newTestSDKForContainers()
	a := NewStoreArray[string](sdk, "log")

	n, err := a.Len()
	if err != nil || n != 0 {
		t.Fatalf("expected empty array, n=%d err=%v", n, err)
	}
	if err := a.Push("first"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := a.Push("second"); err != nil {
		t.Fatalf("push: %v", err)
	}
	n, err = a.Len()
	if err != nil || n != 2 {
		t.Fatalf("expected length 2, n=%d err=%v", n, err)
	}
	v0, ok, err := a.Get(0)
	if err != nil || !ok || v0 != "first" {
		t.Fatalf("get 0: v=%q ok=%v err=%v", v0, ok, err)
	}
	v1, ok, err := a.Get(1)
	if err != nil || !ok || v1 != "second" {
		t.Fatalf("get 1: v=%q ok=%v err=%v", v1, ok, err)
	}
}

func TestStoreUint64AddAndSub(t *testing.T) {
	sdk := newTestSDKForContainers()
	u := NewStoreUint64(sdk, "supply")

	got, err := u.Add(10)
	if err != nil || got != 10 {
		t.Fatalf("add: got=%d err=%v", got, err)
	}
	got, err = u.Add(5)
	if err != nil || got != 15 {
		t.Fatalf("add: got=%d err=%v", got, err)
	}
	got, err = u.Sub(3)
	if err != nil || got != 12 {
		t.Fatalf("sub: got=%d err=%v", got, err)
	}
}

func TestStoreUint64SubUnderflowRejected(t *testing.T) {
	sdk := newTestSDKForContainers()
	u := NewStoreUint64(sdk, "supply")
	if _, err := u.Add(5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := u.Sub(6); err == nil {
		t.Fatalf("expected underflow subtraction to error")
	}
	got, err := u.Get()
	if err != nil || got != 5 {
		t.Fatalf("expected rejected sub to leave counter unchanged, got=%d err=%v", got, err)
	}
}

func TestStoreBoolRoundTrip(t *testing.T) {
	sdk := newTestSDKForContainers()
	b := NewStoreBool(sdk, "paused")
	if got, err := b.Get(); err != nil || got {
		t.Fatalf("expected default false, got=%v err=%v", got, err)
	}
	if err := b.Set(true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := b.Get(); err != nil || !got {
		t.Fatalf("expected true, got=%v err=%v", got, err)
	}
}

func TestStoreStringRoundTrip(t *testing.T) {
	sdk := newTestSDKForContainers()
	s := NewStoreString(sdk, "memo")
	if err := s.Set("hello"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get()
	if err != nil || got != "hello" {
		t.Fatalf("get: got=%q err=%v", got, err)
	}
}
