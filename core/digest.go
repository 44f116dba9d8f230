package core

import (
	"crypto/sha256"
	"encoding/binary"
)

// Digest accumulates bytes into a single sha256 content hash, mirroring the
// running-hash pattern this codebase's ledger uses to derive state roots and
// transaction ids from heterogeneous fields.
type Digest struct {
	h [32]byte
	w []byte
}

// NewDigest returns an empty digest accumulator.
func NewDigest() *Digest { return &Digest{} }

// WriteBytes appends raw bytes to the digest input.
func (d *Digest) WriteBytes(b []byte) { d.w = append(d.w, b...) }

// WriteUint64 appends the big-endian encoding of v.
func (d *Digest) WriteUint64(v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	d.w = append(d.w, buf[:]...)
}

// WriteInt64 appends the big-endian encoding of v.
func (d *Digest) WriteInt64(v int64) { d.WriteUint64(uint64(v)) }

// Sum finalizes the digest into a Hash.
func (d *Digest) Sum() Hash { return Hash(sha256.Sum256(d.w)) }

// DigestHash is a one-shot sha256 digest of data into a Hash, used to derive
// the content hashes fed to AddressFromHash.
func DigestHash(data []byte) Hash { return Hash(sha256.Sum256(data)) }
