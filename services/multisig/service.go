package multisig

import (
	"encoding/json"
	"fmt"

	"synnergy-execcore/core"
)

// Service is the recursive multi-signature authorization service: register
// multi-sig accounts, mutate their permission graph under owner
// authorization, and verify arbitrary witness sets against it.
type Service struct {
	core.BaseService
	sdk core.ServiceSDK
}

// New builds a Service bound to sdk, suitable for core.ServiceRegistry.Register.
func New(sdk core.ServiceSDK) (core.Service, error) {
	return &Service{sdk: sdk}, nil
}

func (s *Service) Genesis(payload string) error {
	var p InitGenesisPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("multisig: genesis payload: %w", err)
	}
	if len(p.AddrWithWeight) == 0 || len(p.AddrWithWeight) > MaxPermissionAccounts {
		panic("multisig: invalid account number")
	}
	var weightSum uint32
	for _, a := range p.AddrWithWeight {
		weightSum += uint32(a.Weight)
	}
	if p.Threshold == 0 || weightSum < p.Threshold {
		panic("multisig: invalid threshold or weights")
	}

	accounts := make([]Account, len(p.AddrWithWeight))
	for i, a := range p.AddrWithWeight {
		accounts[i] = Account{Address: a.Address, Weight: a.Weight, IsMultiple: false}
	}
	permission := MultiSigPermission{Accounts: accounts, Owner: p.Owner, Threshold: p.Threshold, Memo: p.Memo}
	return core.SDKSetAccountValue(s.sdk, p.Address, PermissionKey, permission)
}

func (s *Service) Write(ctx *core.ServiceContext) core.ServiceResponse[string] {
	switch ctx.ServiceMethod() {
	case "generate_account":
		return encode(s.generateAccount(ctx))
	case "change_owner":
		return encode(s.changeOwner(ctx))
	case "change_memo":
		return encode(s.changeMemo(ctx))
	case "add_account":
		return encode(s.addAccount(ctx))
	case "remove_account":
		return encode(s.removeAccount(ctx))
	case "set_account_weight":
		return encode(s.setAccountWeight(ctx))
	case "set_threshold":
		return encode(s.setThreshold(ctx))
	default:
		return core.Error[string](core.ErrCodeNotFoundMethod, "multisig: unknown write method "+ctx.ServiceMethod())
	}
}

func (s *Service) Read(ctx *core.ServiceContext) core.ServiceResponse[string] {
	switch ctx.ServiceMethod() {
	case "get_account_from_address":
		return encode(s.getAccountFromAddress(ctx))
	case "verify_signature":
		return encode(s.verifySignature(ctx))
	default:
		return core.Error[string](core.ErrCodeNotFoundMethod, "multisig: unknown read method "+ctx.ServiceMethod())
	}
}

// encode folds any typed ServiceResponse into the string-carrying envelope
// every Service.Write/Read returns, the uniform shape the executor's
// receipts and cross-service dispatch share.
func encode[T any](resp core.ServiceResponse[T]) core.ServiceResponse[string] {
	if resp.IsError() {
		return core.ServiceResponse[string]{Code: resp.Code, ErrorMessage: resp.ErrorMessage}
	}
	raw, err := json.Marshal(resp.SucceedData)
	if err != nil {
		return core.Error[string](ErrDecodeFailed, "encode response: "+err.Error())
	}
	s := string(raw)
	return core.Succeed(s)
}

func decode[T any](payload string) (T, error) {
	var p T
	err := json.Unmarshal([]byte(payload), &p)
	return p, err
}

func (s *Service) generateAccount(ctx *core.ServiceContext) core.ServiceResponse[GenerateMultiSigAccountResponse] {
	p, err := decode[GenerateMultiSigAccountPayload](ctx.ServicePayload())
	if err != nil {
		return core.Error[GenerateMultiSigAccountResponse](core.ErrCodeNotFoundMethod, "decode payload: "+err.Error())
	}
	if len(p.AddrWithWeight) == 0 || len(p.AddrWithWeight) > MaxPermissionAccounts {
		return core.Error[GenerateMultiSigAccountResponse](ErrInvalidAccountCount, "accounts length must be [1,16]")
	}
	var weightSum uint32
	for _, a := range p.AddrWithWeight {
		weightSum += uint32(a.Weight)
	}
	if p.Threshold == 0 || weightSum < p.Threshold {
		return core.Error[GenerateMultiSigAccountResponse](ErrInvalidThreshold, "accounts weight or threshold not valid")
	}

	maxDepth := 0
	for _, a := range p.AddrWithWeight {
		if d := RecursionDepth(s.sdk, a.Address); d > maxDepth {
			maxDepth = d
		}
	}
	if maxDepth >= MaxRecursionDepth {
		return core.Error[GenerateMultiSigAccountResponse](ErrMaxRecursionDepth, "above max recursion depth")
	}

	txHash := ctx.TxHash()
	if txHash == nil {
		return core.Error[GenerateMultiSigAccountResponse](ErrGenerateAddressFailed, "generate address from tx_hash failed")
	}
	address := core.AddressFromHash(core.DigestHash(txHash[:]))

	accounts := make([]Account, len(p.AddrWithWeight))
	for i, a := range p.AddrWithWeight {
		_, exists, _ := getPermission(s.sdk, a.Address)
		accounts[i] = Account{Address: a.Address, Weight: a.Weight, IsMultiple: exists}
	}
	permission := MultiSigPermission{Accounts: accounts, Owner: p.Owner, Threshold: p.Threshold, Memo: p.Memo}
	if err := core.SDKSetAccountValue(s.sdk, address, PermissionKey, permission); err != nil {
		return core.Error[GenerateMultiSigAccountResponse](ErrGenerateAddressFailed, err.Error())
	}
	return core.Succeed(GenerateMultiSigAccountResponse{Address: address})
}

func (s *Service) getAccountFromAddress(ctx *core.ServiceContext) core.ServiceResponse[GetMultiSigAccountResponse] {
	p, err := decode[GetMultiSigAccountPayload](ctx.ServicePayload())
	if err != nil {
		return core.Error[GetMultiSigAccountResponse](core.ErrCodeNotFoundMethod, "decode payload: "+err.Error())
	}
	permission, ok, err := getPermission(s.sdk, p.MultiSigAddress)
	if err != nil {
		return core.Error[GetMultiSigAccountResponse](ErrAccountNotFound, err.Error())
	}
	if !ok {
		return core.Error[GetMultiSigAccountResponse](ErrAccountNotFound, "account not existed")
	}
	return core.Succeed(GetMultiSigAccountResponse{Permission: permission})
}

func (s *Service) verifySignature(ctx *core.ServiceContext) core.ServiceResponse[any] {
	var tx core.SignedTransaction
	if err := json.Unmarshal([]byte(ctx.ServicePayload()), &tx); err != nil {
		return core.Error[any](ErrDecodeFailed, "decode payload failed")
	}
	pubkeys, err := DecodeWitnessList(tx.PubKey)
	if err != nil {
		return core.Error[any](ErrDecodeFailed, "decode pubkey failed")
	}
	sigs, err := DecodeWitnessList(tx.Signature)
	if err != nil {
		return core.Error[any](ErrDecodeFailed, "decode signatures failed")
	}
	return VerifyWitness(s.sdk, VerifySignaturePayload{
		TxHash: tx.TxHash, PubKeys: pubkeys, Signatures: sigs, Sender: tx.Raw.Sender,
	})
}

// requireOwner checks only that sender owns multiSigAddr, without touching
// the witness signature. Split out so callers whose error-code ordering puts
// another check (e.g. a capacity check) between the owner check and the
// signature check don't have to route through the combined helper below.
func (s *Service) requireOwner(multiSigAddr core.Address, sender core.Address) (MultiSigPermission, core.ServiceResponse[any]) {
	permission, ok, err := getPermission(s.sdk, multiSigAddr)
	if err != nil || !ok {
		return MultiSigPermission{}, core.Error[any](ErrAccountNotFound, "account not existed")
	}
	if permission.Owner != sender {
		return MultiSigPermission{}, core.Error[any](ErrInvalidOwner, "invalid owner")
	}
	return permission, core.Succeed[any](nil)
}

func (s *Service) verifyOwnerSignature(witness Witness) core.ServiceResponse[any] {
	if resp := VerifyWitness(s.sdk, VerifySignaturePayload{
		TxHash: witness.TxHash, PubKeys: witness.PubKeys, Signatures: witness.Signatures, Sender: witness.Sender,
	}); resp.IsError() {
		return core.Error[any](ErrOwnerSignatureFailed, "owner signature verified failed")
	}
	return core.Succeed[any](nil)
}

func (s *Service) requireOwnerWitness(multiSigAddr core.Address, witness Witness) (MultiSigPermission, core.ServiceResponse[any]) {
	permission, resp := s.requireOwner(multiSigAddr, witness.Sender)
	if resp.IsError() {
		return MultiSigPermission{}, resp
	}
	if resp := s.verifyOwnerSignature(witness); resp.IsError() {
		return MultiSigPermission{}, resp
	}
	return permission, core.Succeed[any](nil)
}

func (s *Service) changeOwner(ctx *core.ServiceContext) core.ServiceResponse[any] {
	p, err := decode[ChangeOwnerPayload](ctx.ServicePayload())
	if err != nil {
		return core.Error[any](core.ErrCodeNotFoundMethod, "decode payload: "+err.Error())
	}
	permission, resp := s.requireOwnerWitness(p.MultiSigAddress, p.Witness)
	if resp.IsError() {
		return resp
	}
	if RecursionDepth(s.sdk, p.NewOwner) >= MaxRecursionDepth {
		return core.Error[any](ErrMaxRecursionDepth, "new owner above max recursion depth")
	}
	permission.SetOwner(p.NewOwner)
	if err := core.SDKSetAccountValue(s.sdk, p.MultiSigAddress, PermissionKey, permission); err != nil {
		return core.Error[any](ErrAccountNotFound, err.Error())
	}
	return core.Succeed[any](nil)
}

func (s *Service) changeMemo(ctx *core.ServiceContext) core.ServiceResponse[any] {
	p, err := decode[ChangeMemoPayload](ctx.ServicePayload())
	if err != nil {
		return core.Error[any](core.ErrCodeNotFoundMethod, "decode payload: "+err.Error())
	}
	permission, resp := s.requireOwnerWitness(p.MultiSigAddress, p.Witness)
	if resp.IsError() {
		return resp
	}
	permission.SetMemo(p.NewMemo)
	if err := core.SDKSetAccountValue(s.sdk, p.MultiSigAddress, PermissionKey, permission); err != nil {
		return core.Error[any](ErrAccountNotFound, err.Error())
	}
	return core.Succeed[any](nil)
}

func (s *Service) addAccount(ctx *core.ServiceContext) core.ServiceResponse[any] {
	p, err := decode[AddAccountPayload](ctx.ServicePayload())
	if err != nil {
		return core.Error[any](core.ErrCodeNotFoundMethod, "decode payload: "+err.Error())
	}
	// Owner, then capacity, then signature, then depth: a full account
	// list rejects with ErrMaxAccountsReached even when the caller's
	// signature is also bad.
	permission, resp := s.requireOwner(p.MultiSigAddress, p.Witness.Sender)
	if resp.IsError() {
		return resp
	}
	if len(permission.Accounts) == MaxPermissionAccounts {
		return core.Error[any](ErrMaxAccountsReached, "the account count reach max value")
	}
	if resp := s.verifyOwnerSignature(p.Witness); resp.IsError() {
		return resp
	}
	if RecursionDepth(s.sdk, p.NewAccount.Address) >= MaxRecursionDepth-1 {
		return core.Error[any](ErrMaxRecursionDepth, "new account above max recursion depth")
	}
	permission.AddAccount(p.NewAccount)
	if err := core.SDKSetAccountValue(s.sdk, p.MultiSigAddress, PermissionKey, permission); err != nil {
		return core.Error[any](ErrAccountNotFound, err.Error())
	}
	return core.Succeed[any](nil)
}

func (s *Service) removeAccount(ctx *core.ServiceContext) core.ServiceResponse[Account] {
	p, err := decode[RemoveAccountPayload](ctx.ServicePayload())
	if err != nil {
		return core.Error[Account](core.ErrCodeNotFoundMethod, "decode payload: "+err.Error())
	}
	permission, resp := s.requireOwnerWitness(p.MultiSigAddress, p.Witness)
	if resp.IsError() {
		return core.Error[Account](resp.Code, resp.ErrorMessage)
	}
	removed, result := permission.RemoveAccount(p.AccountAddress)
	switch result {
	case RemoveSuccess:
		if err := core.SDKSetAccountValue(s.sdk, p.MultiSigAddress, PermissionKey, permission); err != nil {
			return core.Error[Account](ErrAccountNotFound, err.Error())
		}
		return core.Succeed(removed)
	case RemoveBelowThreshold:
		return core.Error[Account](ErrWeightOrThreshold, "the sum of weight will below threshold")
	default:
		return core.Error[Account](ErrAccountNotFound, "account not existed")
	}
}

func (s *Service) setAccountWeight(ctx *core.ServiceContext) core.ServiceResponse[any] {
	p, err := decode[SetAccountWeightPayload](ctx.ServicePayload())
	if err != nil {
		return core.Error[any](core.ErrCodeNotFoundMethod, "decode payload: "+err.Error())
	}
	permission, resp := s.requireOwnerWitness(p.MultiSigAddress, p.Witness)
	if resp.IsError() {
		return resp
	}
	switch permission.SetAccountWeight(p.AccountAddress, p.NewWeight) {
	case SetWeightSuccess:
		if err := core.SDKSetAccountValue(s.sdk, p.MultiSigAddress, PermissionKey, permission); err != nil {
			return core.Error[any](ErrAccountNotFound, err.Error())
		}
		return core.Succeed[any](nil)
	case SetWeightInvalid:
		return core.Error[any](ErrWeightOrThreshold, "the sum of weight will below threshold")
	default:
		return core.Error[any](ErrAccountNotFound, "account not existed")
	}
}

func (s *Service) setThreshold(ctx *core.ServiceContext) core.ServiceResponse[any] {
	p, err := decode[SetThresholdPayload](ctx.ServicePayload())
	if err != nil {
		return core.Error[any](core.ErrCodeNotFoundMethod, "decode payload: "+err.Error())
	}
	permission, ok, err := getPermission(s.sdk, p.MultiSigAddress)
	if err != nil || !ok {
		return core.Error[any](ErrAccountNotFound, "account not existed")
	}
	if permission.Owner != p.Witness.Sender {
		return core.Error[any](ErrInvalidOwner, "invalid owner")
	}
	if permission.weightSum() < p.NewThreshold {
		return core.Error[any](ErrWeightOrThreshold, "new threshold larger the sum of the weights")
	}
	if resp := VerifyWitness(s.sdk, VerifySignaturePayload{
		TxHash: p.Witness.TxHash, PubKeys: p.Witness.PubKeys, Signatures: p.Witness.Signatures, Sender: p.Witness.Sender,
	}); resp.IsError() {
		return core.Error[any](ErrOwnerSignatureFailed, "owner signature verified failed")
	}
	permission.SetThreshold(p.NewThreshold)
	if err := core.SDKSetAccountValue(s.sdk, p.MultiSigAddress, PermissionKey, permission); err != nil {
		return core.Error[any](ErrAccountNotFound, err.Error())
	}
	return core.Succeed[any](nil)
}
