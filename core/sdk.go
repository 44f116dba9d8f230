package core

import (
	"encoding/json"
	"fmt"
)

// ServiceSDK is the host interface every service is built against: raw and
// per-account key/value access, a chain querier, and a narrow cross-service
// call for the handful of services (governance) that must authorize
// against another service's state.
type ServiceSDK interface {
	GetValue(key []byte) ([]byte, bool, error)
	SetValue(key, value []byte) error
	GetAccountValue(addr Address, subKey []byte) ([]byte, bool, error)
	SetAccountValue(addr Address, subKey []byte, value []byte) error
	ChainQuerier() ChainQuerier
	// CallService invokes another registered service's read_ endpoint
	// under the same panic-isolation boundary as any other call, letting
	// a service compose authorization logic (e.g. governance verifying a
	// witness against multisig) without reaching into that service's
	// private trie directly.
	CallService(serviceName, method, payload string) ServiceResponse[string]
}

// SDKGetValue decodes the JSON value at key into a V.
func SDKGetValue[V any](sdk ServiceSDK, key []byte) (V, bool, error) {
	var zero V
	raw, ok, err := sdk.GetValue(key)
	if err != nil || !ok {
		return zero, ok, err
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// SDKSetValue JSON-encodes v and stores it at key.
func SDKSetValue[V any](sdk ServiceSDK, key []byte, v V) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sdk.SetValue(key, raw)
}

// SDKGetAccountValue decodes the JSON value at addr/subKey into a V.
func SDKGetAccountValue[V any](sdk ServiceSDK, addr Address, subKey []byte) (V, bool, error) {
	var zero V
	raw, ok, err := sdk.GetAccountValue(addr, subKey)
	if err != nil || !ok {
		return zero, ok, err
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// SDKSetAccountValue JSON-encodes v and stores it at addr/subKey.
func SDKSetAccountValue[V any](sdk ServiceSDK, addr Address, subKey []byte, v V) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sdk.SetAccountValue(addr, subKey, raw)
}

func accountKey(addr Address, subKey []byte) []byte {
	key := make([]byte, 0, len("acct:")+40+1+len(subKey))
	key = append(key, "acct:"...)
	key = append(key, []byte(addr.Hex())...)
	key = append(key, ':')
	key = append(key, subKey...)
	return key
}

// DefaultServiceSDK is the standard ServiceSDK implementation: per-service
// state plus a dispatch closure the executor supplies for cross-service
// calls.
type DefaultServiceSDK struct {
	state    *GeneralServiceState
	querier  ChainQuerier
	dispatch func(serviceName, method, payload string) ServiceResponse[string]
}

// NewDefaultServiceSDK builds an SDK over state, querier and a
// cross-service dispatch closure. dispatch may be nil for services that
// never call another service.
func NewDefaultServiceSDK(state *GeneralServiceState, querier ChainQuerier, dispatch func(string, string, string) ServiceResponse[string]) *DefaultServiceSDK {
	return &DefaultServiceSDK{state: state, querier: querier, dispatch: dispatch}
}

func (sdk *DefaultServiceSDK) GetValue(key []byte) ([]byte, bool, error) { return sdk.state.Get(key) }

func (sdk *DefaultServiceSDK) SetValue(key, value []byte) error {
	sdk.state.Insert(key, value)
	return nil
}

func (sdk *DefaultServiceSDK) GetAccountValue(addr Address, subKey []byte) ([]byte, bool, error) {
	return sdk.state.Get(accountKey(addr, subKey))
}

func (sdk *DefaultServiceSDK) SetAccountValue(addr Address, subKey []byte, value []byte) error {
	sdk.state.Insert(accountKey(addr, subKey), value)
	return nil
}

func (sdk *DefaultServiceSDK) ChainQuerier() ChainQuerier { return sdk.querier }

func (sdk *DefaultServiceSDK) CallService(serviceName, method, payload string) ServiceResponse[string] {
	if sdk.dispatch == nil {
		return Error[string](ErrorCodeNoDispatch, fmt.Sprintf("sdk: cross-service call to %q not available in this context", serviceName))
	}
	return sdk.dispatch(serviceName, method, payload)
}

// ErrorCodeNoDispatch is returned by CallService when an SDK was built
// without a cross-service dispatch closure (e.g. the SDKs CreateGenesis
// builds, where cross-service calls are not wired).
const ErrorCodeNoDispatch = 199
