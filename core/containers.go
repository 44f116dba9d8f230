package core

import "fmt"

// StoreMap is a typed key/value container scoped by id, mirroring this
// codebase's per-feature state-key namespacing convention
// (access:<addr>:<role>, vote:<hash>) but generic over the stored value.
type StoreMap[V any] struct {
	sdk ServiceSDK
	id  string
}

// NewStoreMap returns a map container scoped under id.
func NewStoreMap[V any](sdk ServiceSDK, id string) *StoreMap[V] {
	return &StoreMap[V]{sdk: sdk, id: id}
}

func (m *StoreMap[V]) key(k string) []byte { return []byte(m.id + ":" + k) }

func (m *StoreMap[V]) Get(k string) (V, bool, error) { return SDKGetValue[V](m.sdk, m.key(k)) }

func (m *StoreMap[V]) Set(k string, v V) error { return SDKSetValue[V](m.sdk, m.key(k), v) }

func (m *StoreMap[V]) Contains(k string) (bool, error) {
	_, ok, err := m.sdk.GetValue(m.key(k))
	return ok, err
}

// StoreArray is an append-only typed sequence scoped by id.
type StoreArray[V any] struct {
	sdk ServiceSDK
	id  string
}

// NewStoreArray returns an array container scoped under id.
func NewStoreArray[V any](sdk ServiceSDK, id string) *StoreArray[V] {
	return &StoreArray[V]{sdk: sdk, id: id}
}

func (a *StoreArray[V]) lenKey() []byte { return []byte(a.id + ":len") }

func (a *StoreArray[V]) elemKey(i uint64) []byte { return []byte(fmt.Sprintf("%s:%d", a.id, i)) }

// Len returns the array's element count (0 if never written).
func (a *StoreArray[V]) Len() (uint64, error) {
	n, ok, err := SDKGetValue[uint64](a.sdk, a.lenKey())
	if err != nil || !ok {
		return 0, err
	}
	return n, nil
}

// Get returns the element at index i.
func (a *StoreArray[V]) Get(i uint64) (V, bool, error) { return SDKGetValue[V](a.sdk, a.elemKey(i)) }

// Push appends v, growing the array's length.
func (a *StoreArray[V]) Push(v V) error {
	n, err := a.Len()
	if err != nil {
		return err
	}
	if err := SDKSetValue[V](a.sdk, a.elemKey(n), v); err != nil {
		return err
	}
	return SDKSetValue[uint64](a.sdk, a.lenKey(), n+1)
}

// StoreUint64 is a single named uint64 counter.
type StoreUint64 struct {
	sdk ServiceSDK
	key []byte
}

// NewStoreUint64 returns a counter scoped under id.
func NewStoreUint64(sdk ServiceSDK, id string) *StoreUint64 {
	return &StoreUint64{sdk: sdk, key: []byte(id)}
}

func (u *StoreUint64) Get() (uint64, error) {
	v, _, err := SDKGetValue[uint64](u.sdk, u.key)
	return v, err
}

func (u *StoreUint64) Set(v uint64) error { return SDKSetValue[uint64](u.sdk, u.key, v) }

// Add adds delta to the counter and returns the new value.
func (u *StoreUint64) Add(delta uint64) (uint64, error) {
	cur, err := u.Get()
	if err != nil {
		return 0, err
	}
	next := cur + delta
	return next, u.Set(next)
}

// Sub subtracts delta from the counter, failing rather than wrapping on
// underflow.
func (u *StoreUint64) Sub(delta uint64) (uint64, error) {
	cur, err := u.Get()
	if err != nil {
		return 0, err
	}
	if delta > cur {
		return 0, fmt.Errorf("store_uint64: underflow subtracting %d from %d", delta, cur)
	}
	next := cur - delta
	return next, u.Set(next)
}

// StoreBool is a single named boolean flag.
type StoreBool struct {
	sdk ServiceSDK
	key []byte
}

// NewStoreBool returns a flag scoped under id.
func NewStoreBool(sdk ServiceSDK, id string) *StoreBool {
	return &StoreBool{sdk: sdk, key: []byte(id)}
}

func (b *StoreBool) Get() (bool, error) {
	v, _, err := SDKGetValue[bool](b.sdk, b.key)
	return v, err
}

func (b *StoreBool) Set(v bool) error { return SDKSetValue[bool](b.sdk, b.key, v) }

// StoreString is a single named string value.
type StoreString struct {
	sdk ServiceSDK
	key []byte
}

// NewStoreString returns a string slot scoped under id.
func NewStoreString(sdk ServiceSDK, id string) *StoreString {
	return &StoreString{sdk: sdk, key: []byte(id)}
}

func (s *StoreString) Get() (string, error) {
	v, _, err := SDKGetValue[string](s.sdk, s.key)
	return v, err
}

func (s *StoreString) Set(v string) error { return SDKSetValue[string](s.sdk, s.key, v) }
