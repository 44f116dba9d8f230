package metadata

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

func TestGenesisThenReadParamsRoundTrip(t *testing.T) {
	sdk := newTestSDK()
	svc, err := New(sdk)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	payload, _ := json.Marshal(Params{ChainID: 7, EpochLength: 100, BaseCyclesPrice: 2, NetworkName: "testnet"})
	if err := svc.Genesis(string(payload)); err != nil {
		t.Fatalf("genesis: %v", err)
	}

	ctx := core.NewServiceContext(nil, core.AddressZero, 1, 0, 1, 100, core.TransactionRequest{ServiceName: "metadata", Method: "read_params"})
	resp := svc.Read(ctx)
	if resp.IsError() {
		t.Fatalf("read_params errored: %+v", resp)
	}
	var got Params
	if err := json.Unmarshal([]byte(*resp.SucceedData), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ChainID != 7 || got.EpochLength != 100 || got.BaseCyclesPrice != 2 || got.NetworkName != "testnet" {
		t.Fatalf("unexpected params: %+v", got)
	}
}

func TestGenesisRejectsZeroEpochLength(t *testing.T) {
	sdk := newTestSDK()
	svc, err := New(sdk)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	payload, _ := json.Marshal(Params{ChainID: 1, EpochLength: 0})

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected genesis to panic on zero epoch_length")
		}
	}()
	_ = svc.Genesis(string(payload))
}

func TestReadUnknownMethodReturnsNotFound(t *testing.T) {
	sdk := newTestSDK()
	svc, err := New(sdk)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := core.NewServiceContext(nil, core.AddressZero, 1, 0, 1, 100, core.TransactionRequest{ServiceName: "metadata", Method: "nope"})
	resp := svc.Read(ctx)
	if !resp.IsError() || resp.Code != core.ErrCodeNotFoundMethod {
		t.Fatalf("expected not-found-method, got %+v", resp)
	}
}

func TestWriteIsUnsupported(t *testing.T) {
	sdk := newTestSDK()
	svc, err := New(sdk)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := core.NewServiceContext(nil, core.AddressZero, 1, 0, 1, 100, core.TransactionRequest{ServiceName: "metadata", Method: "anything"})
	resp := svc.Write(ctx)
	if !resp.IsError() || resp.Code != core.ErrCodeNotFoundMethod {
		t.Fatalf("expected metadata to have no write endpoints, got %+v", resp)
	}
}
