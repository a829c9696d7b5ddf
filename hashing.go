package eil

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

// UserOpHasher computes the per-chain digest stored in
// SingleChainBatch.UserOpHash. It is not passed to SignUserOps: each
// MultiChainSmartAccount computes its own signing digest (mechanisms/evm's
// SafeAccount uses signers/evm.ComputeUserOpHash). Concrete, chain-family-specific hashers (e.g. the EIP-712 domain-separated
// ERC-4337 hash in signers/evm) are injected via WithUserOpHasher; this
// package's default is a minimal fallback that still binds the digest to
// chain id and EntryPoint so it cannot collide across deployments.
type UserOpHasher func(op UserOperation) (Hex, error)

// defaultUserOpHash keccak256s a fixed-order concatenation of the fields
// that must make two UserOperations distinguishable: chain id, entry point,
// sender, nonce, and the call data/factory data digests. It is not an
// EIP-712 structured hash; callers targeting a real ERC-4337 EntryPoint
// should inject a wrapper around signers/evm.ComputeUserOpHash instead.
func defaultUserOpHash(op UserOperation) (Hex, error) {
	var chainIDBytes [8]byte
	binary.BigEndian.PutUint64(chainIDBytes[:], op.ChainID)

	buf := make([]byte, 0, 256)
	buf = append(buf, chainIDBytes[:]...)
	buf = append(buf, op.EntryPointAddress.Bytes()...)
	buf = append(buf, op.Sender.Bytes()...)
	if op.Nonce != nil {
		buf = append(buf, op.Nonce.Bytes()...)
	}
	callDataHash := crypto.Keccak256(op.CallData)
	buf = append(buf, callDataHash...)
	factoryHash := crypto.Keccak256(op.FactoryData)
	buf = append(buf, factoryHash...)

	return crypto.Keccak256(buf), nil
}
