package core

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// counterService is a minimal test-only Service: write_ increments a named
// counter (or panics when asked to), read_ returns its current value.
type counterService struct {
	BaseService
	sdk ServiceSDK
}

func newCounterService(sdk ServiceSDK) (Service, error) {
	return &counterService{sdk: sdk}, nil
}

const counterKey = "counter"

func (c *counterService) Genesis(payload string) error {
	if payload == "bad" {
		panic("counterService: bad genesis payload")
	}
	return SDKSetValue(c.sdk, []byte(counterKey), uint64(0))
}

func (c *counterService) Write(ctx *ServiceContext) ServiceResponse[string] {
	if ctx.ServicePayload() == "panic" {
		panic("counterService: forced panic")
	}
	cur, _, _ := SDKGetValue[uint64](c.sdk, []byte(counterKey))
	cur++
	if err := SDKSetValue(c.sdk, []byte(counterKey), cur); err != nil {
		return Error[string](1, err.Error())
	}
	return Succeed("ok")
}

func (c *counterService) Read(ctx *ServiceContext) ServiceResponse[string] {
	cur, _, _ := SDKGetValue[uint64](c.sdk, []byte(counterKey))
	return Succeed(string(rune('0' + cur)))
}

func newTestExecutorEnv(t *testing.T) (*TrieDB, Storage, *ServiceRegistry) {
	t.Helper()
	db := NewTrieDB(NewMemKVStore(), false)
	storage := NewMemStorage()
	registry := NewServiceRegistry()
	registry.Register("counter", newCounterService)
	return db, storage, registry
}

func TestCreateGenesisThenExecIncrementsState(t *testing.T) {
	db, storage, registry := newTestExecutorEnv(t)
	root, err := CreateGenesis([]ServiceParam{{Name: "counter", Payload: "ok"}}, db, storage, registry)
	if err != nil {
		t.Fatalf("create genesis: %v", err)
	}
	if root.IsZero() {
		t.Fatalf("expected non-zero genesis root")
	}

	exec, err := WithRoot(root, db, storage, registry)
	if err != nil {
		t.Fatalf("with root: %v", err)
	}

	tx := &SignedTransaction{
		TxHash: BytesToHash([]byte("tx-1")),
		PubKey: testPubKey(t),
		Raw: RawTransaction{
			CyclesLimit: 1_000_000,
			Request:     TransactionRequest{ServiceName: "counter", Method: "increment", Payload: "go"},
		},
	}
	resp, err := exec.Exec(&ExecutorParams{Height: 1}, []*SignedTransaction{tx})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(resp.Receipts) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(resp.Receipts))
	}
	if resp.Receipts[0].Response.Response.IsError() {
		t.Fatalf("expected successful receipt, got %+v", resp.Receipts[0].Response.Response)
	}
	if resp.StateRoot.IsZero() {
		t.Fatalf("expected non-zero state root after exec")
	}
}

func TestExecPanicProducesErrorReceiptWithoutAbortingBlock(t *testing.T) {
	db, storage, registry := newTestExecutorEnv(t)
	root, err := CreateGenesis([]ServiceParam{{Name: "counter", Payload: "ok"}}, db, storage, registry)
	if err != nil {
		t.Fatalf("create genesis: %v", err)
	}
	exec, err := WithRoot(root, db, storage, registry)
	if err != nil {
		t.Fatalf("with root: %v", err)
	}

	panicking := &SignedTransaction{
		TxHash: BytesToHash([]byte("tx-panic")),
		PubKey: testPubKey(t),
		Raw: RawTransaction{
			CyclesLimit: 1_000_000,
			Request:     TransactionRequest{ServiceName: "counter", Method: "increment", Payload: "panic"},
		},
	}
	healthy := &SignedTransaction{
		TxHash: BytesToHash([]byte("tx-healthy")),
		PubKey: testPubKey(t),
		Raw: RawTransaction{
			CyclesLimit: 1_000_000,
			Request:     TransactionRequest{ServiceName: "counter", Method: "increment", Payload: "go"},
		},
	}

	resp, err := exec.Exec(&ExecutorParams{Height: 1}, []*SignedTransaction{panicking, healthy})
	if err != nil {
		t.Fatalf("exec should not abort the block on a service panic: %v", err)
	}
	if len(resp.Receipts) != 2 {
		t.Fatalf("expected both transactions to produce a receipt, got %d", len(resp.Receipts))
	}
	if !resp.Receipts[0].Response.Response.IsError() {
		t.Fatalf("expected the panicking transaction's receipt to carry an error")
	}
	if resp.Receipts[1].Response.Response.IsError() {
		t.Fatalf("expected the following transaction to still succeed: %+v", resp.Receipts[1].Response.Response)
	}
}

func TestExecUnknownServiceProducesErrorReceipt(t *testing.T) {
	db, storage, registry := newTestExecutorEnv(t)
	root, err := CreateGenesis([]ServiceParam{{Name: "counter", Payload: "ok"}}, db, storage, registry)
	if err != nil {
		t.Fatalf("create genesis: %v", err)
	}
	exec, err := WithRoot(root, db, storage, registry)
	if err != nil {
		t.Fatalf("with root: %v", err)
	}

	tx := &SignedTransaction{
		TxHash: BytesToHash([]byte("tx-unknown")),
		PubKey: testPubKey(t),
		Raw: RawTransaction{
			CyclesLimit: 1_000_000,
			Request:     TransactionRequest{ServiceName: "does-not-exist", Method: "noop", Payload: ""},
		},
	}
	resp, err := exec.Exec(&ExecutorParams{Height: 1}, []*SignedTransaction{tx})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !resp.Receipts[0].Response.Response.IsError() {
		t.Fatalf("expected error receipt for unregistered service")
	}
}

func TestCreateGenesisPanicAborts(t *testing.T) {
	db, storage, registry := newTestExecutorEnv(t)
	_, err := CreateGenesis([]ServiceParam{{Name: "counter", Payload: "bad"}}, db, storage, registry)
	if err == nil {
		t.Fatalf("expected genesis panic to abort CreateGenesis")
	}
}

// testPubKey returns a freshly generated, validly-encoded compressed
// secp256k1 public key, the minimal input AddressFromPubKey needs to
// derive a caller address for a test transaction.
func testPubKey(t *testing.T) []byte {
	t.Helper()
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate test key: %v", err)
	}
	return priv.PubKey().SerializeCompressed()
}
