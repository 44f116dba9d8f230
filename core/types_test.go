package core

import "testing"

func TestAddressHexAndShort(t *testing.T) {
	a := BytesToAddress([]byte{0x01, 0x02, 0x03})
	if got := a.Hex(); got[:2] != "0x" {
		t.Fatalf("expected 0x-prefixed hex, got %q", got)
	}
	if got := a.Short(); len(got) == 0 {
		t.Fatalf("expected non-empty short form")
	}
}

func TestBytesToAddressPadsAndTruncates(t *testing.T) {
	short := BytesToAddress([]byte{0xaa})
	if short[19] != 0xaa {
		t.Fatalf("expected short input right-aligned into last byte, got %x", short)
	}
	long := make([]byte, 32)
	for i := range long {
		long[i] = byte(i)
	}
	truncated := BytesToAddress(long)
	if truncated[0] != long[12] {
		t.Fatalf("expected oversized input truncated to its low 20 bytes")
	}
}

func TestBytesToHashPadsAndTruncates(t *testing.T) {
	h := BytesToHash([]byte("short"))
	if h.IsZero() {
		t.Fatalf("expected non-zero hash")
	}
	full := make([]byte, 32)
	for i := range full {
		full[i] = byte(i + 1)
	}
	exact := BytesToHash(full)
	if exact.Hex() == (Hash{}).Hex() {
		t.Fatalf("expected hash content to round-trip")
	}
}

func TestServiceResponseSucceedAndError(t *testing.T) {
	ok := Succeed("value")
	if ok.IsError() {
		t.Fatalf("expected success response")
	}
	if ok.SucceedData == nil || *ok.SucceedData != "value" {
		t.Fatalf("expected succeed data to be set")
	}

	bad := Error[string](42, "broken")
	if !bad.IsError() {
		t.Fatalf("expected error response")
	}
	if bad.Code != 42 || bad.ErrorMessage != "broken" {
		t.Fatalf("unexpected error response: %+v", bad)
	}
}

func TestErrorPanicsOnZeroCode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic constructing an Error with code 0")
		}
	}()
	Error[string](0, "should panic")
}

func TestBlockHashStableForSameContent(t *testing.T) {
	b1 := &Block{Header: BlockHeader{Height: 1, Timestamp: 100}}
	b2 := &Block{Header: BlockHeader{Height: 1, Timestamp: 100}}
	if b1.Hash() != b2.Hash() {
		t.Fatalf("expected identical blocks to hash identically")
	}
	b2.Header.Timestamp = 200
	if b1.Hash() == b2.Hash() {
		t.Fatalf("expected differing blocks to hash differently")
	}
}
