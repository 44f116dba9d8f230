package multisig

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/rlp"

	"synnergy-execcore/core"
)

// Error codes returned in ServiceResponse.Code, mirroring the authorization
// engine's original numbering so downstream tooling keyed on these values
// keeps working.
const (
	ErrInvalidAccountCount   = 110
	ErrInvalidThreshold      = 111
	ErrGenerateAddressFailed = 112
	ErrAccountNotFound       = 113
	ErrWitnessLengthMismatch = 114
	ErrWitnessCountOutOfBand = 115
	ErrMaxRecursionDepth     = 116
	ErrSignatureNotVerified  = 117
	ErrInvalidOwner          = 118
	ErrMaxAccountsReached    = 119
	ErrOwnerSignatureFailed  = 120
	ErrWeightOrThreshold     = 121
	ErrDecodeFailed          = 122
	ErrInvalidPubKey         = 123
)

// DecodeWitnessList RLP-decodes a length-prefixed list of raw byte strings,
// the wire shape both the pubkey and signature fields of a multi-signer
// SignedTransaction use.
func DecodeWitnessList(data []byte) (out [][]byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("multisig: malformed witness list: %v", r)
		}
	}()
	if err := rlp.DecodeBytes(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeWitnessList RLP-encodes a list of raw byte strings into the same
// length-prefixed wire shape DecodeWitnessList reads back, letting callers
// outside this package (governance's cross-service witness forwarding)
// build a SignedTransaction's pubkey/signature fields without depending on
// go-ethereum/rlp directly.
func EncodeWitnessList(items [][]byte) ([]byte, error) {
	return rlp.EncodeToBytes(items)
}

// VerifySingleSignature checks a single 64-byte raw r‖s ECDSA signature
// over txHash against pubkey, the same secp256k1-parse-then-ecdsa.Verify
// pairing this codebase's compliance signature check uses.
func VerifySingleSignature(txHash core.Hash, sig, pubkey []byte) bool {
	if len(sig) != 64 {
		return false
	}
	pk, err := secp256k1.ParsePubKey(pubkey)
	if err != nil {
		return false
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	return ecdsa.Verify(pk.ToECDSA(), txHash[:], r, s)
}

// witnessMap indexes a witness's pubkeys/signatures by the address each
// pubkey derives to.
func witnessMap(pubkeys, signatures [][]byte) map[core.Address][2][]byte {
	m := make(map[core.Address][2][]byte, len(pubkeys))
	for i := range pubkeys {
		addr, err := core.AddressFromPubKey(pubkeys[i])
		if err != nil {
			continue
		}
		m[addr] = [2][]byte{pubkeys[i], signatures[i]}
	}
	return m
}

// PermissionKey is the fixed sub-key every MultiSigPermission is stored
// under via ServiceSDK.GetAccountValue/SetAccountValue.
var PermissionKey = []byte{0}

func getPermission(sdk core.ServiceSDK, addr core.Address) (MultiSigPermission, bool, error) {
	return core.SDKGetAccountValue[MultiSigPermission](sdk, addr, PermissionKey)
}

// VerifyWitness runs the full recursive multi-signature check described by
// payload against whatever permission records sdk can see. It is exported
// so other services can authorize against a multi-sig permission graph
// without duplicating the recursion/weight-accounting algorithm.
func VerifyWitness(sdk core.ServiceSDK, payload VerifySignaturePayload) core.ServiceResponse[any] {
	if len(payload.PubKeys) != len(payload.Signatures) {
		return core.Error[any](ErrWitnessLengthMismatch, "pubkeys length is not equal to signatures length")
	}
	if len(payload.PubKeys) == 0 || len(payload.PubKeys) > MaxPermissionAccounts {
		return core.Error[any](ErrWitnessCountOutOfBand, "len of signatures must be [1,16]")
	}

	if len(payload.PubKeys) == 1 {
		addr, err := core.AddressFromPubKey(payload.PubKeys[0])
		if err != nil {
			return core.Error[any](ErrInvalidPubKey, "invalid public key")
		}
		if addr == payload.Sender {
			if VerifySingleSignature(payload.TxHash, payload.Signatures[0], payload.PubKeys[0]) {
				return core.Succeed[any](nil)
			}
			return core.Error[any](ErrSignatureNotVerified, "signature verified failed")
		}
	}

	wit := witnessMap(payload.PubKeys, payload.Signatures)
	depth := 0
	return verifyMultiSignature(sdk, payload.TxHash, wit, payload.Sender, &depth)
}

func verifyMultiSignature(sdk core.ServiceSDK, txHash core.Hash, wit map[core.Address][2][]byte, sender core.Address, depth *int) core.ServiceResponse[any] {
	*depth++
	if *depth >= MaxRecursionDepth {
		return core.Error[any](ErrMaxRecursionDepth, "above max recursion depth")
	}

	permission, ok, err := getPermission(sdk, sender)
	if err != nil || !ok {
		return core.Error[any](ErrAccountNotFound, "account not existed")
	}

	var weightAcc uint32
	for _, account := range permission.Accounts {
		if !account.IsMultiple {
			if pair, ok := wit[account.Address]; ok {
				if VerifySingleSignature(txHash, pair[1], pair[0]) {
					weightAcc += uint32(account.Weight)
				}
			}
		} else {
			sub := verifyMultiSignature(sdk, txHash, wit, account.Address, depth)
			if sub.Code == ErrMaxRecursionDepth {
				return sub
			}
			if !sub.IsError() {
				weightAcc += uint32(account.Weight)
			}
		}
		if weightAcc >= permission.Threshold {
			return core.Succeed[any](nil)
		}
	}
	return core.Error[any](ErrSignatureNotVerified, "multi signature not verified")
}

// RecursionDepth computes how many levels deep address's permission graph
// nests, used to reject accounts/owners that would push a graph over
// MaxRecursionDepth before they are even added. The walk stops descending
// after MaxRecursionDepth levels, so a deeper or cyclic graph reports
// MaxRecursionDepth.
func RecursionDepth(sdk core.ServiceSDK, address core.Address) int {
	return recursionDepth(sdk, address, 0)
}

func recursionDepth(sdk core.ServiceSDK, address core.Address, level int) int {
	if level >= MaxRecursionDepth {
		return 0
	}
	permission, ok, err := getPermission(sdk, address)
	if err != nil || !ok {
		return 0
	}
	max := 0
	for _, account := range permission.Accounts {
		if !account.IsMultiple {
			continue
		}
		if d := recursionDepth(sdk, account.Address, level+1); d > max {
			max = d
		}
	}
	return max + 1
}
