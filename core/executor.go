package core

import (
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"synnergy-execcore/pkg/utils"
)

type execKind int

const (
	execRead execKind = iota
	execWrite
)

type hookKind int

const (
	hookBefore hookKind = iota
	hookAfter
)

// Executor owns one GeneralServiceState and one live Service instance per
// registered service, plus a root state mapping service name to its
// per-service trie root. After genesis (CreateGenesis, which builds its own
// states) it is the only place that mutates service state: a single block's
// worth of transactions and its hook sweeps go through it under its own
// mutex.
type Executor struct {
	mu        sync.Mutex
	db        *TrieDB
	storage   Storage
	querier   ChainQuerier
	registry  *ServiceRegistry
	states    map[string]*GeneralServiceState
	services  map[string]Service
	rootState *GeneralServiceState
	log       *logrus.Entry
}

// CreateGenesis builds every registered service fresh, runs each genesis
// param's payload under panic isolation, stashes and commits every
// service's state in sorted name order, and returns the resulting root
// state's root digest. It does not return a live Executor: call WithRoot
// with the returned root to start executing blocks.
func CreateGenesis(params []ServiceParam, db *TrieDB, storage Storage, registry *ServiceRegistry) (Hash, error) {
	querier := NewDefaultChainQuerier(storage)
	names := registry.Names()

	states := make(map[string]*GeneralServiceState, len(names))
	services := make(map[string]Service, len(names))
	for _, name := range names {
		state := NewGeneralServiceState(NewTrie(db))
		sdk := NewDefaultServiceSDK(state, querier, nil)
		svc, err := registry.Build(name, sdk)
		if err != nil {
			return Hash{}, err
		}
		states[name] = state
		services[name] = svc
	}

	for _, p := range params {
		state, ok := states[p.Name]
		if !ok {
			return Hash{}, &ExecutorError{Kind: ErrNotFoundService, Service: p.Name, Detail: "genesis param for unregistered service"}
		}
		if err := runGenesis(services[p.Name], p.Payload); err != nil {
			return Hash{}, &ExecutorError{Kind: ErrInitService, Service: p.Name, Detail: err.Error()}
		}
		if err := state.Stash(); err != nil {
			return Hash{}, utils.Wrap(err, "stash genesis state for "+p.Name)
		}
	}

	rootState := NewGeneralServiceState(NewTrie(db))
	for _, name := range names {
		root, err := states[name].Commit()
		if err != nil {
			return Hash{}, utils.Wrap(err, "commit genesis state for "+name)
		}
		if err := SetTyped(rootState, []byte(name), root); err != nil {
			return Hash{}, utils.Wrap(err, "record root for "+name)
		}
	}
	if err := rootState.Stash(); err != nil {
		return Hash{}, utils.Wrap(err, "stash root state")
	}
	return rootState.Commit()
}

func runGenesis(svc Service, payload string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in genesis: %v", r)
		}
	}()
	return svc.Genesis(payload)
}

// WithRoot reopens a finalized root state, rebuilding every registered
// service's live instance rooted at its committed per-service trie.
func WithRoot(root Hash, db *TrieDB, storage Storage, registry *ServiceRegistry) (*Executor, error) {
	querier := NewDefaultChainQuerier(storage)
	rootState := NewGeneralServiceState(TrieFromRoot(root, db))
	names := registry.Names()

	e := &Executor{
		db:        db,
		storage:   storage,
		querier:   querier,
		registry:  registry,
		states:    make(map[string]*GeneralServiceState, len(names)),
		services:  make(map[string]Service, len(names)),
		rootState: rootState,
		log:       logrus.WithField("component", "executor"),
	}

	for _, name := range names {
		serviceRoot, _, err := GetTyped[Hash](rootState, []byte(name))
		if err != nil {
			return nil, utils.Wrap(err, "load root for "+name)
		}
		state := NewGeneralServiceState(TrieFromRoot(serviceRoot, db))
		sdk := NewDefaultServiceSDK(state, querier, e.crossCall)
		svc, err := registry.Build(name, sdk)
		if err != nil {
			return nil, err
		}
		e.states[name] = state
		e.services[name] = svc
	}
	return e, nil
}

// crossCall is the dispatch closure handed to every service's SDK so
// CallService can reach another service's read_ endpoint under the same
// panic boundary as any other call.
func (e *Executor) crossCall(serviceName, method, payload string) ServiceResponse[string] {
	svc, ok := e.services[serviceName]
	if !ok {
		return Error[string](executorErrorCode(ErrNotFoundService), fmt.Sprintf("cross-service call: service %q not found", serviceName))
	}
	ctx := NewServiceContext(nil, AddressZero, 0, 0, 0, math.MaxUint64, TransactionRequest{
		ServiceName: serviceName, Method: method, Payload: payload,
	})
	return e.safeRead(svc, ctx)
}

func (e *Executor) safeRead(svc Service, ctx *ServiceContext) (resp ServiceResponse[string]) {
	defer func() {
		if r := recover(); r != nil {
			resp = Error[string](executorErrorCode(ErrQueryService), fmt.Sprintf("panic in read: %v", r))
		}
	}()
	return svc.Read(ctx)
}

// executorErrorCode maps an infrastructure ErrorKind to the numeric code a
// ServiceResponse receipt surfaces when catch_call absorbs a panic or
// dispatch failure, offset clear of any built-in service's own error-code
// range (every service in this tree uses codes below 200).
func executorErrorCode(k ErrorKind) uint64 { return uint64(k) + 200 }

// Exec runs a block's worth of transactions: a before-hook sweep, each
// transaction's tx-hooks-then-call under panic isolation, an after-hook
// sweep, and a final commit across every registered service.
func (e *Executor) Exec(params *ExecutorParams, txs []*SignedTransaction) (*ExecutorResp, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.hook(hookBefore, params); err != nil {
		return nil, err
	}

	receipts := make([]Receipt, 0, len(txs))
	for _, stx := range txs {
		caller, err := AddressFromPubKey(stx.PubKey)
		if err != nil {
			return nil, utils.Wrap(err, "derive caller address")
		}
		ctx := NewServiceContext(&stx.TxHash, caller, params.Height, params.Timestamp, stx.Raw.CyclesPrice, stx.Raw.CyclesLimit, stx.Raw.Request)
		// A panic inside catch_call never aborts the block: it surfaces as
		// an error response on this transaction's own receipt, and
		// execution moves on to the next transaction. Only an infra error
		// (failing to stash) aborts here.
		resp, err := e.catchCall(ctx, execWrite)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, Receipt{
			Height:     params.Height,
			TxHash:     stx.TxHash,
			CyclesUsed: ctx.CyclesUsed(),
			Events:     ctx.Events(),
			Response: ReceiptResponse{
				ServiceName: ctx.ServiceName(),
				Method:      ctx.ServiceMethod(),
				Response:    resp,
			},
		})
	}

	if err := e.hook(hookAfter, params); err != nil {
		return nil, err
	}

	root, err := e.commit()
	if err != nil {
		return nil, err
	}

	var bloom types.Bloom
	var total uint64
	for i := range receipts {
		receipts[i].StateRoot = root
		total += receipts[i].CyclesUsed
		for _, ev := range receipts[i].Events {
			bloom.Add([]byte(ev.Service + ev.Data))
		}
	}

	return &ExecutorResp{
		Receipts:      receipts,
		AllCyclesUsed: total,
		StateRoot:     root,
		LogsBloom:     bloom.Bytes(),
	}, nil
}

// ReadAt constructs a fresh executor rooted at root and runs a single
// read-only call against it, sharing no mutable state with any live
// Executor handling concurrent block execution.
func ReadAt(root Hash, db *TrieDB, storage Storage, registry *ServiceRegistry, caller Address, cyclesPrice uint64, req *TransactionRequest, params *ExecutorParams) (ServiceResponse[string], error) {
	exec, err := WithRoot(root, db, storage, registry)
	if err != nil {
		return ServiceResponse[string]{}, err
	}
	ctx := NewServiceContext(nil, caller, params.Height, params.Timestamp, cyclesPrice, math.MaxUint64, *req)
	return exec.catchCall(ctx, execRead)
}

// catchCall is the choke point where a transaction's or query's call
// crosses from trusted executor code into untrusted service code (genesis,
// block hooks and cross-service reads have their own recover wrappers in
// runGenesis, runHook and safeRead). A panic anywhere in that crossing is caught
// and converted into a ServiceResponse error on resp, never into the `err`
// return: per the error-handling policy, only infrastructure failures
// (a failing stash) abort the caller's block. Service misbehavior, however
// severe, always ends as a receipt, never as an aborted Exec.
func (e *Executor) catchCall(ctx *ServiceContext, kind execKind) (resp ServiceResponse[string], err error) {
	svc, ok := e.services[ctx.ServiceName()]
	if !ok {
		return Error[string](executorErrorCode(ErrNotFoundService), fmt.Sprintf("service %q not registered", ctx.ServiceName())), nil
	}

	var panicErr *ExecutorError
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.revertCache()
				e.log.WithFields(logrus.Fields{
					"service": ctx.ServiceName(),
					"method":  ctx.ServiceMethod(),
				}).Errorf("inner chain error occurred when calling service: %v", r)
				errKind := ErrCallService
				if kind == execRead {
					errKind = ErrQueryService
				}
				panicErr = &ExecutorError{Kind: errKind, Service: ctx.ServiceName(), Method: ctx.ServiceMethod(), Detail: fmt.Sprintf("%v", r)}
			}
		}()
		switch kind {
		case execWrite:
			resp = e.callWithTxHooks(svc, ctx)
		case execRead:
			resp = svc.Read(ctx)
		}
	}()

	if panicErr != nil {
		return Error[string](executorErrorCode(panicErr.Kind), panicErr.Error()), nil
	}

	if stashErr := e.stash(); stashErr != nil {
		return resp, utils.Wrap(stashErr, "stash after call")
	}
	return resp, nil
}

func (e *Executor) callWithTxHooks(svc Service, ctx *ServiceContext) ServiceResponse[string] {
	names := e.registry.Names()
	for _, name := range names {
		e.services[name].TxHookBefore(ctx)
	}
	resp := svc.Write(ctx)
	for _, name := range names {
		e.services[name].TxHookAfter(ctx)
	}
	return resp
}

// hook runs HookBefore or HookAfter on every registered service in sorted
// name order. Each service's hook call is isolated: a panic reverts every
// service's cache and is logged, a clean return stashes every service's
// cache, before moving on to the next service. A hook panic never aborts
// the block — only that hook's own staged writes are discarded; only a
// stash I/O failure propagates and aborts.
func (e *Executor) hook(kind hookKind, params *ExecutorParams) error {
	for _, name := range e.registry.Names() {
		if err := e.runHook(e.services[name], kind, params); err != nil {
			e.log.WithFields(logrus.Fields{"service": name}).Warnf("hook failed, reverting block state: %v", err)
			e.revertCache()
			continue
		}
		if err := e.stash(); err != nil {
			return utils.Wrap(err, "stash after hook for "+name)
		}
	}
	return nil
}

func (e *Executor) runHook(svc Service, kind hookKind, params *ExecutorParams) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in hook: %v", r)
		}
	}()
	if kind == hookBefore {
		svc.HookBefore(params)
	} else {
		svc.HookAfter(params)
	}
	return nil
}

func (e *Executor) stash() error {
	for _, name := range e.registry.Names() {
		if err := e.states[name].Stash(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) revertCache() {
	for _, name := range e.registry.Names() {
		e.states[name].RevertCache()
	}
}

func (e *Executor) commit() (Hash, error) {
	for _, name := range e.registry.Names() {
		root, err := e.states[name].Commit()
		if err != nil {
			return Hash{}, err
		}
		if err := SetTyped(e.rootState, []byte(name), root); err != nil {
			return Hash{}, err
		}
	}
	if err := e.rootState.Stash(); err != nil {
		return Hash{}, err
	}
	return e.rootState.Commit()
}
