// Package metadata implements the genesis-only chain-parameters service:
// the handful of chain-wide values (chain id, epoch length, base cycles
// price) every other service reads but none may mutate after genesis.
package metadata

import (
	"encoding/json"
	"fmt"

	"synnergy-execcore/core"
)

const (
	chainIDKey         = "chain_id"
	epochLengthKey     = "epoch_length"
	baseCyclesPriceKey = "base_cycles_price"
	networkNameKey     = "network_name"
)

// ErrCodeReadFailed is returned when read_params gets a load or decode error
// for one of the parameter fields. Before genesis has run, unset fields read
// as zero values without error.
const ErrCodeReadFailed = 130

// Params is the full chain-parameter set, returned whole by read_params.
type Params struct {
	ChainID         uint64 `json:"chain_id"`
	EpochLength     uint64 `json:"epoch_length"`
	BaseCyclesPrice uint64 `json:"base_cycles_price"`
	NetworkName     string `json:"network_name"`
}

// Service stores each Params field in its own typed SDK container rather
// than a single blob; read_params loads and returns the whole set.
type Service struct {
	core.BaseService
	sdk         core.ServiceSDK
	chainID     *core.StoreUint64
	epochLength *core.StoreUint64
	cyclesPrice *core.StoreUint64
	networkName *core.StoreString
}

// New builds a Service bound to sdk, suitable for core.ServiceRegistry.Register.
func New(sdk core.ServiceSDK) (core.Service, error) {
	return &Service{
		sdk:         sdk,
		chainID:     core.NewStoreUint64(sdk, chainIDKey),
		epochLength: core.NewStoreUint64(sdk, epochLengthKey),
		cyclesPrice: core.NewStoreUint64(sdk, baseCyclesPriceKey),
		networkName: core.NewStoreString(sdk, networkNameKey),
	}, nil
}

func (s *Service) Genesis(payload string) error {
	var p Params
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("metadata: genesis payload: %w", err)
	}
	if p.EpochLength == 0 {
		panic("metadata: epoch_length must be non-zero")
	}
	if err := s.chainID.Set(p.ChainID); err != nil {
		return fmt.Errorf("metadata: set chain_id: %w", err)
	}
	if err := s.epochLength.Set(p.EpochLength); err != nil {
		return fmt.Errorf("metadata: set epoch_length: %w", err)
	}
	if err := s.cyclesPrice.Set(p.BaseCyclesPrice); err != nil {
		return fmt.Errorf("metadata: set base_cycles_price: %w", err)
	}
	if err := s.networkName.Set(p.NetworkName); err != nil {
		return fmt.Errorf("metadata: set network_name: %w", err)
	}
	return nil
}

func (s *Service) Read(ctx *core.ServiceContext) core.ServiceResponse[string] {
	switch ctx.ServiceMethod() {
	case "read_params":
		return s.readParams()
	default:
		return core.Error[string](core.ErrCodeNotFoundMethod, "metadata: unknown read method "+ctx.ServiceMethod())
	}
}

func (s *Service) readParams() core.ServiceResponse[string] {
	chainID, err := s.chainID.Get()
	if err != nil {
		return core.Error[string](ErrCodeReadFailed, err.Error())
	}
	epochLength, err := s.epochLength.Get()
	if err != nil {
		return core.Error[string](ErrCodeReadFailed, err.Error())
	}
	cyclesPrice, err := s.cyclesPrice.Get()
	if err != nil {
		return core.Error[string](ErrCodeReadFailed, err.Error())
	}
	networkName, err := s.networkName.Get()
	if err != nil {
		return core.Error[string](ErrCodeReadFailed, err.Error())
	}
	raw, err := json.Marshal(Params{
		ChainID:         chainID,
		EpochLength:     epochLength,
		BaseCyclesPrice: cyclesPrice,
		NetworkName:     networkName,
	})
	if err != nil {
		return core.Error[string](ErrCodeReadFailed, err.Error())
	}
	return core.Succeed(string(raw))
}
