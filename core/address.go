package core

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressFromPubKey derives the caller address of a transaction from its
// raw secp256k1 public key, accepting either compressed (33-byte) or
// uncompressed (65-byte) encodings the same way this codebase's compliance
// signature check parses witness public keys before converting them to an
// ecdsa.PublicKey.
func AddressFromPubKey(pub []byte) (Address, error) {
	pk, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return Address{}, fmt.Errorf("core: parse pubkey: %w", err)
	}
	return Address(crypto.PubkeyToAddress(*pk.ToECDSA())), nil
}

// AddressFromHash derives a fresh address from a 32-byte hash, used to mint
// addresses for generated multi-sig accounts that have no backing keypair.
// It takes the low 20 bytes of the digest, the same truncation this
// codebase's address derivation already applies to a keccak/sha digest.
func AddressFromHash(h Hash) Address {
	return BytesToAddress(h[12:])
}
