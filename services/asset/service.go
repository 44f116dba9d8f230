// Package asset implements a minimal fungible-token service built entirely
// on ServiceSDK's typed account containers: mint, transfer and balance_of,
// with no direct trie access, demonstrating the SDK contract end to end.
package asset

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"synnergy-execcore/core"
)

const (
	ErrInvalidAmount       = 140
	ErrInsufficientBalance = 141
	ErrUnauthorizedMinter  = 142
)

const balanceSubKey = "balance"

// Service holds balances under ServiceSDK.GetAccountValue/SetAccountValue,
// keyed per-address, plus a single genesis-configured minter address
// authorized to call mint.
type Service struct {
	core.BaseService
	sdk    core.ServiceSDK
	minter *core.StoreString
}

// New builds a Service bound to sdk, suitable for core.ServiceRegistry.Register.
func New(sdk core.ServiceSDK) (core.Service, error) {
	return &Service{sdk: sdk, minter: core.NewStoreString(sdk, "minter")}, nil
}

// GenesisPayload names the address allowed to mint and the initial
// balances to seed.
type GenesisPayload struct {
	Minter   core.Address      `json:"minter"`
	Balances map[string]uint64 `json:"balances"`
}

func (s *Service) Genesis(payload string) error {
	var p GenesisPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("asset: genesis payload: %w", err)
	}
	if p.Minter == core.AddressZero {
		panic("asset: minter address must be set")
	}
	if err := s.minter.Set(p.Minter.Hex()); err != nil {
		return fmt.Errorf("asset: set minter: %w", err)
	}
	for hexAddr, bal := range p.Balances {
		addr, err := hexToAddress(hexAddr)
		if err != nil {
			return fmt.Errorf("asset: genesis balance address: %w", err)
		}
		if err := core.SDKSetAccountValue(s.sdk, addr, []byte(balanceSubKey), bal); err != nil {
			return fmt.Errorf("asset: seed balance: %w", err)
		}
	}
	return nil
}

func hexToAddress(h string) (core.Address, error) {
	var a core.Address
	raw, err := hex.DecodeString(strings.TrimPrefix(h, "0x"))
	if err != nil {
		return a, fmt.Errorf("malformed address %q: %w", h, err)
	}
	if len(raw) != len(a) {
		return a, fmt.Errorf("malformed address %q: want %d bytes, got %d", h, len(a), len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

func (s *Service) Write(ctx *core.ServiceContext) core.ServiceResponse[string] {
	switch ctx.ServiceMethod() {
	case "mint":
		return encode(s.mint(ctx))
	case "transfer":
		return encode(s.transfer(ctx))
	default:
		return core.Error[string](core.ErrCodeNotFoundMethod, "asset: unknown write method "+ctx.ServiceMethod())
	}
}

func (s *Service) Read(ctx *core.ServiceContext) core.ServiceResponse[string] {
	switch ctx.ServiceMethod() {
	case "balance_of":
		return encode(s.balanceOf(ctx))
	default:
		return core.Error[string](core.ErrCodeNotFoundMethod, "asset: unknown read method "+ctx.ServiceMethod())
	}
}

func encode[T any](resp core.ServiceResponse[T]) core.ServiceResponse[string] {
	if resp.IsError() {
		return core.ServiceResponse[string]{Code: resp.Code, ErrorMessage: resp.ErrorMessage}
	}
	raw, err := json.Marshal(resp.SucceedData)
	if err != nil {
		return core.Error[string](ErrInvalidAmount, "encode response: "+err.Error())
	}
	return core.Succeed(string(raw))
}

func balanceOf(sdk core.ServiceSDK, addr core.Address) (uint64, error) {
	bal, ok, err := core.SDKGetAccountValue[uint64](sdk, addr, []byte(balanceSubKey))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return bal, nil
}

func setBalance(sdk core.ServiceSDK, addr core.Address, bal uint64) error {
	return core.SDKSetAccountValue(sdk, addr, []byte(balanceSubKey), bal)
}

// MintPayload credits amount to to.
type MintPayload struct {
	To     core.Address `json:"to"`
	Amount uint64       `json:"amount"`
}

func (s *Service) mint(ctx *core.ServiceContext) core.ServiceResponse[uint64] {
	minterHex, err := s.minter.Get()
	if err != nil {
		return core.Error[uint64](ErrUnauthorizedMinter, err.Error())
	}
	if minterHex != ctx.Caller().Hex() {
		return core.Error[uint64](ErrUnauthorizedMinter, "caller is not the configured minter")
	}
	var p MintPayload
	if err := json.Unmarshal([]byte(ctx.ServicePayload()), &p); err != nil {
		return core.Error[uint64](core.ErrCodeNotFoundMethod, "decode payload: "+err.Error())
	}
	if p.Amount == 0 {
		return core.Error[uint64](ErrInvalidAmount, "amount must be non-zero")
	}
	bal, err := balanceOf(s.sdk, p.To)
	if err != nil {
		return core.Error[uint64](ErrInvalidAmount, err.Error())
	}
	next := bal + p.Amount
	if err := setBalance(s.sdk, p.To, next); err != nil {
		return core.Error[uint64](ErrInvalidAmount, err.Error())
	}
	return core.Succeed(next)
}

// TransferPayload moves amount from the caller to To.
type TransferPayload struct {
	To     core.Address `json:"to"`
	Amount uint64       `json:"amount"`
}

func (s *Service) transfer(ctx *core.ServiceContext) core.ServiceResponse[uint64] {
	var p TransferPayload
	if err := json.Unmarshal([]byte(ctx.ServicePayload()), &p); err != nil {
		return core.Error[uint64](core.ErrCodeNotFoundMethod, "decode payload: "+err.Error())
	}
	if p.Amount == 0 {
		return core.Error[uint64](ErrInvalidAmount, "amount must be non-zero")
	}
	from := ctx.Caller()
	fromBal, err := balanceOf(s.sdk, from)
	if err != nil {
		return core.Error[uint64](ErrInvalidAmount, err.Error())
	}
	if fromBal < p.Amount {
		return core.Error[uint64](ErrInsufficientBalance, "insufficient balance")
	}
	toBal, err := balanceOf(s.sdk, p.To)
	if err != nil {
		return core.Error[uint64](ErrInvalidAmount, err.Error())
	}
	if err := setBalance(s.sdk, from, fromBal-p.Amount); err != nil {
		return core.Error[uint64](ErrInvalidAmount, err.Error())
	}
	next := toBal + p.Amount
	if err := setBalance(s.sdk, p.To, next); err != nil {
		return core.Error[uint64](ErrInvalidAmount, err.Error())
	}
	ctx.AddEvent("asset", fmt.Sprintf("transfer %d from %s to %s", p.Amount, from.Hex(), p.To.Hex()))
	return core.Succeed(fromBal - p.Amount)
}

// BalanceOfPayload names the address whose balance is being queried.
type BalanceOfPayload struct {
	Address core.Address `json:"address"`
}

func (s *Service) balanceOf(ctx *core.ServiceContext) core.ServiceResponse[uint64] {
	var p BalanceOfPayload
	if err := json.Unmarshal([]byte(ctx.ServicePayload()), &p); err != nil {
		return core.Error[uint64](core.ErrCodeNotFoundMethod, "decode payload: "+err.Error())
	}
	bal, err := balanceOf(s.sdk, p.Address)
	if err != nil {
		return core.Error[uint64](ErrInvalidAmount, err.Error())
	}
	return core.Succeed(bal)
}
