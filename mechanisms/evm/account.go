// Package evm is the reference eil.MultiChainSmartAccount implementation:
// a Safe smart-contract wallet (one counterfactual address reused across
// every configured chain, since CREATE2 derivation is chain-independent)
// reachable through one ERC-4337 bundler per chain. Grounded on the Safe
// 4337 module's setup/executeUserOp contract surface.
package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/eil-sdk/eil"
	sevm "github.com/eil-sdk/eil/signers/evm"
)

// SafeAccount is one counterfactual Safe address with one bundler client per
// configured chain.
type SafeAccount struct {
	owner        *ecdsa.PrivateKey
	ownerAddress common.Address
	salt         *big.Int
	threshold    int
	entryPoint   eil.Address

	bundlers map[eil.ChainId]*bundlerClient

	cachedAddress  eil.Address
	cachedInitCode eil.Hex
}

// NewSafeAccount derives a Safe smart account from ownerPrivateKeyHex and
// wires one bundler client per (chain id, bundler URL) pair. entryPoint must
// be the same EntryPoint deployment on every configured chain.
func NewSafeAccount(ownerPrivateKeyHex string, entryPoint eil.Address, bundlerURLs map[eil.ChainId]string) (*SafeAccount, error) {
	owner, err := crypto.HexToECDSA(strings.TrimPrefix(ownerPrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid owner private key: %w", err)
	}

	account := &SafeAccount{
		owner:        owner,
		ownerAddress: crypto.PubkeyToAddress(owner.PublicKey),
		salt:         big.NewInt(0),
		threshold:    1,
		entryPoint:   entryPoint,
		bundlers:     make(map[eil.ChainId]*bundlerClient, len(bundlerURLs)),
	}
	for chainID, url := range bundlerURLs {
		account.bundlers[chainID] = newBundlerClient(url, entryPoint, chainID)
	}

	if _, err := account.address(); err != nil {
		return nil, fmt.Errorf("deriving safe address: %w", err)
	}
	return account, nil
}

func (a *SafeAccount) AddressOn(chainID eil.ChainId) (eil.Address, bool) {
	if _, ok := a.bundlers[chainID]; !ok {
		return eil.Address{}, false
	}
	return a.cachedAddress, true
}

// SignUserOps hashes each op with the authoritative per-chain EIP-712 digest
// and signs it through the Safe owner key.
func (a *SafeAccount) SignUserOps(ctx context.Context, ops []eil.UserOperation) ([]eil.UserOperation, error) {
	signed := make([]eil.UserOperation, len(ops))
	for i, op := range ops {
		hash, err := sevm.ComputeUserOpHash(op)
		if err != nil {
			return nil, fmt.Errorf("hashing user op for chain %d: %w", op.ChainID, err)
		}
		sig, err := a.signUserOpHash(hash)
		if err != nil {
			return nil, fmt.Errorf("signing user op for chain %d: %w", op.ChainID, err)
		}
		op.Signature = sig
		signed[i] = op
	}
	return signed, nil
}

func (a *SafeAccount) EncodeCalls(chainID eil.ChainId, calls []eil.RawCall) (eil.Hex, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	if len(calls) == 1 {
		return a.encodeExecute(calls[0].Target, valueOrZero(calls[0].Value), calls[0].Data)
	}
	targets := make([]common.Address, len(calls))
	values := make([]*big.Int, len(calls))
	datas := make([][]byte, len(calls))
	for i, c := range calls {
		targets[i] = c.Target
		values[i] = valueOrZero(c.Value)
		datas[i] = c.Data
	}
	return a.encodeExecuteBatch(targets, values, datas)
}

func (a *SafeAccount) EncodeStaticCalls(chainID eil.ChainId, calls []eil.RawCall) (eil.Hex, error) {
	return a.EncodeCalls(chainID, calls)
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

func (a *SafeAccount) SendUserOperation(ctx context.Context, chainID eil.ChainId, op eil.UserOperation) (eil.Hex, error) {
	bundler, ok := a.bundlers[chainID]
	if !ok {
		return nil, eil.NewError(eil.ErrUnsupportedChain, "no bundler configured for chain %d", chainID)
	}
	hash, err := bundler.sendUserOperation(op)
	if err != nil {
		return nil, fmt.Errorf("submitting user op on chain %d: %w", chainID, err)
	}
	return hash.Bytes(), nil
}

// AwaitReceipt polls chainID's bundler until the UserOperation identified by
// hash lands or timeout elapses.
func (a *SafeAccount) AwaitReceipt(ctx context.Context, chainID eil.ChainId, hash eil.Hex, timeout time.Duration) (*UserOperationReceipt, error) {
	bundler, ok := a.bundlers[chainID]
	if !ok {
		return nil, eil.NewError(eil.ErrUnsupportedChain, "no bundler configured for chain %d", chainID)
	}
	return bundler.waitForReceipt(common.BytesToHash(hash), timeout, 0)
}

func (a *SafeAccount) VerifyBundlerConfig(chainID eil.ChainId, entryPoint eil.Address) error {
	if _, ok := a.bundlers[chainID]; !ok {
		return eil.NewError(eil.ErrUnsupportedChain, "no bundler configured for chain %d", chainID)
	}
	if entryPoint != a.entryPoint {
		return eil.NewError(eil.ErrUnsupportedChain, "chain %d expects entry point %s, got %s", chainID, a.entryPoint.Hex(), entryPoint.Hex())
	}
	return nil
}

// GetNonce returns zero: a live nonce requires an EntryPoint.getNonce RPC
// call, which this type does not make. Zero is only correct for a fresh,
// undeployed counterfactual account; callers past their first operation
// must wrap this type with a live nonce source.
func (a *SafeAccount) GetNonce(ctx context.Context, chainID eil.ChainId) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (a *SafeAccount) GetFactoryArgs(chainID eil.ChainId) (*eil.Address, eil.Hex, error) {
	deployed, err := a.isDeployed()
	if err != nil {
		return nil, nil, err
	}
	if deployed {
		return nil, nil, nil
	}
	initCode, err := a.initCode()
	if err != nil {
		return nil, nil, err
	}
	if len(initCode) < 20 {
		return nil, nil, fmt.Errorf("safe init code shorter than a factory address")
	}
	factory := common.BytesToAddress(initCode[:20])
	factoryData := append([]byte(nil), initCode[20:]...)
	return &factory, factoryData, nil
}
