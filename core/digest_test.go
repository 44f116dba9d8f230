package core

import "testing"

func TestDigestAccumulatesInOrder(t *testing.T) {
	d1 := NewDigest()
	d1.WriteBytes([]byte("a"))
	d1.WriteUint64(7)

	d2 := NewDigest()
	d2.WriteBytes([]byte("a"))
	d2.WriteUint64(7)

	if d1.Sum() != d2.Sum() {
		t.Fatalf("expected identical write sequences to produce identical digests")
	}
}

func TestDigestOrderSensitive(t *testing.T) {
	d1 := NewDigest()
	d1.WriteUint64(1)
	d1.WriteUint64(2)

	d2 := NewDigest()
	d2.WriteUint64(2)
	d2.WriteUint64(1)

	if d1.Sum() == d2.Sum() {
		t.Fatalf("expected differently-ordered writes to produce different digests")
	}
}

func TestDigestHashDeterministic(t *testing.T) {
	a := DigestHash([]byte("same input"))
	b := DigestHash([]byte("same input"))
	if a != b {
		t.Fatalf("expected DigestHash to be deterministic")
	}
	c := DigestHash([]byte("different input"))
	if a == c {
		t.Fatalf("expected different inputs to hash differently")
	}
}
