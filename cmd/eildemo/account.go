package main

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eil-sdk/eil"
)

// demoAccount is a minimal in-memory MultiChainSmartAccount standing in for
// a deployed smart-contract wallet (Safe, Biconomy, ...): one fixed address
// per chain, a no-op signature, and a fake bundler submission that always
// "lands". Grounded on original_source/src/test_utils.rs's MockAccount.
type demoAccount struct {
	addresses map[eil.ChainId]eil.Address
	nonces    map[eil.ChainId]*big.Int
}

func newDemoAccount(chainIDs ...eil.ChainId) *demoAccount {
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	addrs := make(map[eil.ChainId]eil.Address, len(chainIDs))
	nonces := make(map[eil.ChainId]*big.Int, len(chainIDs))
	for _, id := range chainIDs {
		addrs[id] = addr
		nonces[id] = big.NewInt(0)
	}
	return &demoAccount{addresses: addrs, nonces: nonces}
}

func (a *demoAccount) AddressOn(chainID eil.ChainId) (eil.Address, bool) {
	addr, ok := a.addresses[chainID]
	return addr, ok
}

func (a *demoAccount) SignUserOps(ctx context.Context, ops []eil.UserOperation) ([]eil.UserOperation, error) {
	signed := make([]eil.UserOperation, len(ops))
	for i, op := range ops {
		op.Signature = make([]byte, 65)
		op.Signature[64] = 27
		signed[i] = op
	}
	return signed, nil
}

func (a *demoAccount) EncodeCalls(chainID eil.ChainId, calls []eil.RawCall) (eil.Hex, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	return []byte{byte(len(calls))}, nil
}

func (a *demoAccount) EncodeStaticCalls(chainID eil.ChainId, calls []eil.RawCall) (eil.Hex, error) {
	return a.EncodeCalls(chainID, calls)
}

func (a *demoAccount) SendUserOperation(ctx context.Context, chainID eil.ChainId, op eil.UserOperation) (eil.Hex, error) {
	return []byte{0xde, 0xad, 0xbe, 0xef}, nil
}

func (a *demoAccount) VerifyBundlerConfig(chainID eil.ChainId, entryPoint eil.Address) error {
	return nil
}

func (a *demoAccount) GetNonce(ctx context.Context, chainID eil.ChainId) (*big.Int, error) {
	return a.nonces[chainID], nil
}

func (a *demoAccount) GetFactoryArgs(chainID eil.ChainId) (*eil.Address, eil.Hex, error) {
	return nil, nil, nil
}
