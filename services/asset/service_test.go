package asset

import (
	"encoding/json"
	"testing"

	"synnergy-execcore/core"
)

func newTestSDK() core.ServiceSDK {
	db := core.NewTrieDB(core.NewMemKVStore(), false)
	state := core.NewGeneralServiceState(core.NewTrie(db))
	return core.NewDefaultServiceSDK(state, nil, nil)
}

var (
	minterAddr = core.BytesToAddress([]byte("minter"))
	aliceAddr  = core.BytesToAddress([]byte("alice"))
	bobAddr    = core.BytesToAddress([]byte("bob"))
)

func newGenesisService(t *testing.T, balances map[string]uint64) (*Service, core.ServiceSDK) {
	t.Helper()
	sdk := newTestSDK()
	svcAny, err := New(sdk)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	svc := svcAny.(*Service)
	payload, _ := json.Marshal(GenesisPayload{Minter: minterAddr, Balances: balances})
	if err := svc.Genesis(string(payload)); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	return svc, sdk
}

func callWrite(svc *Service, caller core.Address, method string, payload any) core.ServiceResponse[string] {
	raw, _ := json.Marshal(payload)
	ctx := core.NewServiceContext(nil, caller, 1, 0, 1, 1_000_000, core.TransactionRequest{ServiceName: "asset", Method: method, Payload: string(raw)})
	return svc.Write(ctx)
}

func callRead(svc *Service, method string, payload any) core.ServiceResponse[string] {
	raw, _ := json.Marshal(payload)
	ctx := core.NewServiceContext(nil, core.AddressZero, 1, 0, 1, 1_000_000, core.TransactionRequest{ServiceName: "asset", Method: method, Payload: string(raw)})
	return svc.Read(ctx)
}

func mustBalance(t *testing.T, svc *Service, addr core.Address) uint64 {
	t.Helper()
	resp := callRead(svc, "balance_of", BalanceOfPayload{Address: addr})
	if resp.IsError() {
		t.Fatalf("balance_of: %+v", resp)
	}
	var bal uint64
	if err := json.Unmarshal([]byte(*resp.SucceedData), &bal); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	return bal
}

func TestGenesisSeedsInitialBalances(t *testing.T) {
	svc, _ := newGenesisService(t, map[string]uint64{aliceAddr.Hex(): 100})
	if got := mustBalance(t, svc, aliceAddr); got != 100 {
		t.Fatalf("expected seeded balance 100, got %d", got)
	}
}

func TestMintByAuthorizedMinterCreditsBalance(t *testing.T) {
	svc, _ := newGenesisService(t, nil)
	resp := callWrite(svc, minterAddr, "mint", MintPayload{To: aliceAddr, Amount: 50})
	if resp.IsError() {
		t.Fatalf("mint: %+v", resp)
	}
	if got := mustBalance(t, svc, aliceAddr); got != 50 {
		t.Fatalf("expected balance 50, got %d", got)
	}
}

func TestMintByUnauthorizedCallerRejected(t *testing.T) {
	svc, _ := newGenesisService(t, nil)
	resp := callWrite(svc, aliceAddr, "mint", MintPayload{To: aliceAddr, Amount: 50})
	if !resp.IsError() || resp.Code != ErrUnauthorizedMinter {
		t.Fatalf("expected unauthorized-minter error, got %+v", resp)
	}
}

func TestTransferMovesBalanceBetweenAccounts(t *testing.T) {
	svc, _ := newGenesisService(t, map[string]uint64{aliceAddr.Hex(): 100})
	resp := callWrite(svc, aliceAddr, "transfer", TransferPayload{To: bobAddr, Amount: 40})
	if resp.IsError() {
		t.Fatalf("transfer: %+v", resp)
	}
	if got := mustBalance(t, svc, aliceAddr); got != 60 {
		t.Fatalf("expected sender balance 60, got %d", got)
	}
	if got := mustBalance(t, svc, bobAddr); got != 40 {
		t.Fatalf("expected receiver balance 40, got %d", got)
	}
}

func TestTransferInsufficientBalanceRejectedAndLeavesBalancesUnchanged(t *testing.T) {
	svc, _ := newGenesisService(t, map[string]uint64{aliceAddr.Hex(): 10})
	resp := callWrite(svc, aliceAddr, "transfer", TransferPayload{To: bobAddr, Amount: 40})
	if !resp.IsError() || resp.Code != ErrInsufficientBalance {
		t.Fatalf("expected insufficient-balance error, got %+v", resp)
	}
	if got := mustBalance(t, svc, aliceAddr); got != 10 {
		t.Fatalf("expected sender balance unchanged at 10, got %d", got)
	}
	if got := mustBalance(t, svc, bobAddr); got != 0 {
		t.Fatalf("expected receiver balance unchanged at 0, got %d", got)
	}
}

func TestTransferZeroAmountRejected(t *testing.T) {
	svc, _ := newGenesisService(t, map[string]uint64{aliceAddr.Hex(): 10})
	resp := callWrite(svc, aliceAddr, "transfer", TransferPayload{To: bobAddr, Amount: 0})
	if !resp.IsError() || resp.Code != ErrInvalidAmount {
		t.Fatalf("expected invalid-amount error, got %+v", resp)
	}
}

func TestBalanceOfUnknownAddressReturnsZero(t *testing.T) {
	svc, _ := newGenesisService(t, nil)
	if got := mustBalance(t, svc, bobAddr); got != 0 {
		t.Fatalf("expected zero balance for unseeded address, got %d", got)
	}
}

func TestGenesisWithoutMinterPanics(t *testing.T) {
	sdk := newTestSDK()
	svcAny, err := New(sdk)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	svc := svcAny.(*Service)
	payload, _ := json.Marshal(GenesisPayload{})

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected genesis without a minter to panic")
		}
	}()
	_ = svc.Genesis(string(payload))
}
