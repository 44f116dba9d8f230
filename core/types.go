// Package core implements the transactional execution core: a per-service
// Merkle-Patricia state layer, a sandboxed executor pipeline, and the shared
// host-side types every built-in service is wired against.
package core

import (
	"encoding/hex"
	"fmt"
)

// Address is a 20-byte account identifier, derived either from a public key
// or from a 32-byte hash (used for freshly generated multi-sig accounts).
type Address [20]byte

// Hash is a 32-byte content digest used as a transaction id, Merkle root and
// trie storage key.
type Hash [32]byte

// AddressZero is the sentinel zero-value address.
var AddressZero = Address{}

// Hex returns the "0x"-prefixed hexadecimal representation of the address.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Short returns a shortened "0x1234..abcd" representation, handy for logs.
func (a Address) Short() string {
	full := hex.EncodeToString(a[:])
	return fmt.Sprintf("0x%s..%s", full[:4], full[len(full)-4:])
}

// Bytes returns the address's raw bytes.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the "0x"-prefixed hexadecimal representation of the hash.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// Bytes returns the hash's raw bytes.
func (h Hash) Bytes() []byte { return h[:] }

// IsZero reports whether the hash is the zero value.
func (h Hash) IsZero() bool { return h == Hash{} }

// BytesToAddress left-truncates or left-pads b into a 20-byte Address.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) >= len(a) {
		copy(a[:], b[len(b)-len(a):])
	} else {
		copy(a[len(a)-len(b):], b)
	}
	return a
}

// BytesToHash left-truncates or left-pads b into a 32-byte Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) >= len(h) {
		copy(h[:], b[len(b)-len(h):])
	} else {
		copy(h[len(h)-len(b):], b)
	}
	return h
}

// TransactionRequest names the service method a transaction invokes and
// carries its JSON-encoded payload.
type TransactionRequest struct {
	ServiceName string `json:"service_name"`
	Method      string `json:"method"`
	Payload     string `json:"payload"`
}

// RawTransaction is the unsigned body of a transaction.
type RawTransaction struct {
	Nonce       uint64              `json:"nonce"`
	Sender      Address             `json:"sender"`
	CyclesPrice uint64              `json:"cycles_price"`
	CyclesLimit uint64              `json:"cycles_limit"`
	Request     TransactionRequest  `json:"request"`
}

// SignedTransaction is a transaction together with its authorization
// material. PubKey and Signature each carry either a single encoded item
// (single-signer path) or an RLP length-prefixed list of items
// (multi-signer path); see services/multisig for the decoder.
type SignedTransaction struct {
	TxHash    Hash           `json:"tx_hash"`
	PubKey    []byte         `json:"pubkey"`
	Signature []byte         `json:"signature"`
	Raw       RawTransaction `json:"raw"`
}

// Event is a single log entry emitted by a service during a call.
type Event struct {
	Service string `json:"service"`
	Data    string `json:"data"`
}

// ServiceResponse is the uniform return envelope every service endpoint
// produces. Code 0 means success; any other code is a service-visible
// error, never a panic.
type ServiceResponse[T any] struct {
	Code         uint64 `json:"code"`
	SucceedData  *T     `json:"succeed_data,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Succeed builds a successful ServiceResponse wrapping data.
func Succeed[T any](data T) ServiceResponse[T] {
	return ServiceResponse[T]{Code: 0, SucceedData: &data}
}

// Error builds a failed ServiceResponse with the given error code.
func Error[T any](code uint64, message string) ServiceResponse[T] {
	if code == 0 {
		panic("core: Error called with code 0")
	}
	return ServiceResponse[T]{Code: code, ErrorMessage: message}
}

// IsError reports whether the response carries a non-zero code.
func (r ServiceResponse[T]) IsError() bool { return r.Code != 0 }

// ServiceParam names a service and the genesis payload it should be
// initialized with.
type ServiceParam struct {
	Name    string `json:"name"`
	Payload string `json:"payload"`
}

// ReceiptResponse records which service/method a receipt's response came
// from alongside the response itself.
type ReceiptResponse struct {
	ServiceName string                   `json:"service_name"`
	Method      string                   `json:"method"`
	Response    ServiceResponse[string] `json:"response"`
}

// Receipt is the per-transaction execution result recorded in a block.
type Receipt struct {
	StateRoot   Hash            `json:"state_root"`
	Height      uint64          `json:"height"`
	TxHash      Hash            `json:"tx_hash"`
	CyclesUsed  uint64          `json:"cycles_used"`
	Events      []Event         `json:"events"`
	Response    ReceiptResponse `json:"response"`
}

// ExecutorParams carries the per-block parameters hooks and contexts need.
type ExecutorParams struct {
	Height    uint64  `json:"height"`
	Timestamp int64   `json:"timestamp"`
	Proposer  Address `json:"proposer"`
}

// ExecutorResp is the aggregate result of executing a block's transactions.
type ExecutorResp struct {
	Receipts      []Receipt `json:"receipts"`
	AllCyclesUsed uint64    `json:"all_cycles_used"`
	StateRoot     Hash      `json:"state_root"`
	LogsBloom     []byte    `json:"logs_bloom"`
}

// BlockHeader is the minimal block header the executor and chain querier
// exchange.
type BlockHeader struct {
	Height    uint64  `json:"height"`
	Timestamp int64   `json:"timestamp"`
	Proposer  Address `json:"proposer"`
	PrevHash  Hash    `json:"prev_hash"`
}

// Block pairs a header with its ordered transaction list.
type Block struct {
	Header       BlockHeader          `json:"header"`
	Transactions []*SignedTransaction `json:"transactions"`
}

// Hash returns the block's content digest over its header and transaction
// hashes, independent of any field not already committed to by the state
// root.
func (b *Block) Hash() Hash {
	h := NewDigest()
	h.WriteUint64(b.Header.Height)
	h.WriteInt64(b.Header.Timestamp)
	h.WriteBytes(b.Header.Proposer[:])
	h.WriteBytes(b.Header.PrevHash[:])
	for _, tx := range b.Transactions {
		h.WriteBytes(tx.TxHash[:])
	}
	return h.Sum()
}
