// Package governance implements a role-grant/revoke service whose mutating
// endpoints require a caller-supplied multi-sig witness verified against
// the multisig service's permission graph through a cross-service call,
// modeled on an access-control table keyed by address and role rather than
// a bare ledger check.
package governance

import (
	"encoding/json"
	"fmt"

	"synnergy-execcore/core"
	"synnergy-execcore/services/multisig"
)

const (
	ErrDecodeFailed    = 150
	ErrWitnessRequired = 151
	ErrUnauthorized    = 152
	ErrRoleNotFound    = 153
)

// roleKey is the account sub-key a role grant is stored under, namespaced
// by role so one address may hold several independent roles.
func roleKey(role string) []byte { return []byte("role:" + role) }

// Service grants/revokes roles, gating every mutation on a witness the
// caller supplies being verified against the named authority's permission
// graph in the multisig service.
type Service struct {
	core.BaseService
	sdk core.ServiceSDK
}

// New builds a Service bound to sdk, suitable for core.ServiceRegistry.Register.
func New(sdk core.ServiceSDK) (core.Service, error) {
	return &Service{sdk: sdk}, nil
}

func (s *Service) Genesis(payload string) error { return nil }

func (s *Service) Write(ctx *core.ServiceContext) core.ServiceResponse[string] {
	switch ctx.ServiceMethod() {
	case "grant_role":
		return encode(s.grantRole(ctx))
	case "revoke_role":
		return encode(s.revokeRole(ctx))
	default:
		return core.Error[string](core.ErrCodeNotFoundMethod, "governance: unknown write method "+ctx.ServiceMethod())
	}
}

func (s *Service) Read(ctx *core.ServiceContext) core.ServiceResponse[string] {
	switch ctx.ServiceMethod() {
	case "has_role":
		return encode(s.hasRole(ctx))
	default:
		return core.Error[string](core.ErrCodeNotFoundMethod, "governance: unknown read method "+ctx.ServiceMethod())
	}
}

func encode[T any](resp core.ServiceResponse[T]) core.ServiceResponse[string] {
	if resp.IsError() {
		return core.ServiceResponse[string]{Code: resp.Code, ErrorMessage: resp.ErrorMessage}
	}
	raw, err := json.Marshal(resp.SucceedData)
	if err != nil {
		return core.Error[string](ErrDecodeFailed, "encode response: "+err.Error())
	}
	return core.Succeed(string(raw))
}

// Witness is the signature bundle a caller supplies to authorize a
// governance mutation, verified against the authority address's multisig
// permission graph.
type Witness struct {
	TxHash     core.Hash    `json:"tx_hash"`
	PubKeys    [][]byte     `json:"pubkeys"`
	Signatures [][]byte     `json:"signatures"`
	Authority  core.Address `json:"authority"`
}

// verifyWitness delegates to the multisig service's verify_signature
// endpoint through the shared ServiceSDK's cross-service dispatch, so
// governance never touches multisig's trie state directly.
func (s *Service) verifyWitness(w Witness) core.ServiceResponse[any] {
	if len(w.PubKeys) == 0 {
		return core.Error[any](ErrWitnessRequired, "witness pubkeys required")
	}
	tx := core.SignedTransaction{
		TxHash: w.TxHash,
		Raw:    core.RawTransaction{Sender: w.Authority},
	}
	pubkeys, err := encodeWitnessList(w.PubKeys)
	if err != nil {
		return core.Error[any](ErrDecodeFailed, "encode pubkeys: "+err.Error())
	}
	sigs, err := encodeWitnessList(w.Signatures)
	if err != nil {
		return core.Error[any](ErrDecodeFailed, "encode signatures: "+err.Error())
	}
	tx.PubKey = pubkeys
	tx.Signature = sigs
	raw, err := json.Marshal(tx)
	if err != nil {
		return core.Error[any](ErrDecodeFailed, "encode witness transaction: "+err.Error())
	}
	resp := s.sdk.CallService("multisig", "verify_signature", string(raw))
	if resp.IsError() {
		return core.Error[any](ErrUnauthorized, resp.ErrorMessage)
	}
	return core.Succeed[any](nil)
}

func encodeWitnessList(items [][]byte) ([]byte, error) { return multisig.EncodeWitnessList(items) }

// GrantRolePayload names the role and address the caller requests, and the
// authority whose multisig graph must witness the request.
type GrantRolePayload struct {
	Witness Witness      `json:"witness"`
	Address core.Address `json:"address"`
	Role    string       `json:"role"`
}

func (s *Service) grantRole(ctx *core.ServiceContext) core.ServiceResponse[any] {
	var p GrantRolePayload
	if err := json.Unmarshal([]byte(ctx.ServicePayload()), &p); err != nil {
		return core.Error[any](ErrDecodeFailed, "decode payload: "+err.Error())
	}
	if resp := s.verifyWitness(p.Witness); resp.IsError() {
		return resp
	}
	if err := core.SDKSetAccountValue(s.sdk, p.Address, roleKey(p.Role), true); err != nil {
		return core.Error[any](ErrDecodeFailed, err.Error())
	}
	ctx.AddEvent("governance", fmt.Sprintf("grant role %q to %s", p.Role, p.Address.Hex()))
	return core.Succeed[any](nil)
}

// RevokeRolePayload mirrors GrantRolePayload for the revoke endpoint.
type RevokeRolePayload struct {
	Witness Witness      `json:"witness"`
	Address core.Address `json:"address"`
	Role    string       `json:"role"`
}

func (s *Service) revokeRole(ctx *core.ServiceContext) core.ServiceResponse[any] {
	var p RevokeRolePayload
	if err := json.Unmarshal([]byte(ctx.ServicePayload()), &p); err != nil {
		return core.Error[any](ErrDecodeFailed, "decode payload: "+err.Error())
	}
	if resp := s.verifyWitness(p.Witness); resp.IsError() {
		return resp
	}
	has, ok, err := core.SDKGetAccountValue[bool](s.sdk, p.Address, roleKey(p.Role))
	if err != nil {
		return core.Error[any](ErrDecodeFailed, err.Error())
	}
	if !ok || !has {
		return core.Error[any](ErrRoleNotFound, "address does not hold role "+p.Role)
	}
	if err := core.SDKSetAccountValue(s.sdk, p.Address, roleKey(p.Role), false); err != nil {
		return core.Error[any](ErrDecodeFailed, err.Error())
	}
	ctx.AddEvent("governance", fmt.Sprintf("revoke role %q from %s", p.Role, p.Address.Hex()))
	return core.Succeed[any](nil)
}

// HasRolePayload queries whether Address currently holds Role.
type HasRolePayload struct {
	Address core.Address `json:"address"`
	Role    string       `json:"role"`
}

func (s *Service) hasRole(ctx *core.ServiceContext) core.ServiceResponse[bool] {
	var p HasRolePayload
	if err := json.Unmarshal([]byte(ctx.ServicePayload()), &p); err != nil {
		return core.Error[bool](ErrDecodeFailed, "decode payload: "+err.Error())
	}
	has, ok, err := core.SDKGetAccountValue[bool](s.sdk, p.Address, roleKey(p.Role))
	if err != nil {
		return core.Error[bool](ErrDecodeFailed, err.Error())
	}
	if !ok {
		return core.Succeed(false)
	}
	return core.Succeed(has)
}
