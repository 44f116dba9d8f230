package core

import (
	"context"
	"fmt"
)

// ChainQuerier is the read-only view of chain history services are handed
// through their ServiceSDK. It is a thin, context-aware façade over
// Storage so a service never needs to know whether history lives in
// memory or on disk.
type ChainQuerier interface {
	GetBlockByHeight(ctx context.Context, height uint64) (*Block, error)
	GetBlockByHash(ctx context.Context, hash Hash) (*Block, error)
	GetTransaction(ctx context.Context, txHash Hash) (*SignedTransaction, error)
	GetReceipt(ctx context.Context, txHash Hash) (*Receipt, error)
}

// DefaultChainQuerier implements ChainQuerier over a Storage.
type DefaultChainQuerier struct {
	storage Storage
}

// NewDefaultChainQuerier wraps storage.
func NewDefaultChainQuerier(storage Storage) *DefaultChainQuerier {
	return &DefaultChainQuerier{storage: storage}
}

func (q *DefaultChainQuerier) GetBlockByHeight(ctx context.Context, height uint64) (*Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok, err := q.storage.GetBlockByHeight(height)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("chain_querier: no block at height %d", height)
	}
	return b, nil
}

func (q *DefaultChainQuerier) GetBlockByHash(ctx context.Context, hash Hash) (*Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok, err := q.storage.GetBlockByHash(hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("chain_querier: no block with hash %s", hash.Hex())
	}
	return b, nil
}

func (q *DefaultChainQuerier) GetTransaction(ctx context.Context, txHash Hash) (*SignedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, ok, err := q.storage.GetTransaction(txHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("chain_querier: no transaction with hash %s", txHash.Hex())
	}
	return tx, nil
}

func (q *DefaultChainQuerier) GetReceipt(ctx context.Context, txHash Hash) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ok, err := q.storage.GetReceipt(txHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("chain_querier: no receipt for transaction %s", txHash.Hex())
	}
	return r, nil
}
