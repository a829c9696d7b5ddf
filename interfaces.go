package eil

import (
	"context"
	"math/big"
)

// MultiChainSmartAccount is the abstract capability surface C7 (builder) and
// C10 (executor) consume. Concrete implementations live outside this module
// (signer + bundler transport are external collaborators); mechanisms/evm
// provides one reference implementation (a Safe smart account over an
// ERC-4337 bundler).
type MultiChainSmartAccount interface {
	MultiChainEntity

	// SignUserOps signs every op and returns them with Signature filled in.
	// Order-preserving, length-preserving; non-signature fields are
	// untouched.
	SignUserOps(ctx context.Context, ops []UserOperation) ([]UserOperation, error)

	// EncodeCalls packs an ordered sequence of raw calls into a single
	// UserOperation call_data blob for the given chain.
	EncodeCalls(chainID ChainId, calls []RawCall) (Hex, error)

	// EncodeStaticCalls is like EncodeCalls but for calls the account knows
	// will not revert (may allow cheaper batching); defaults to EncodeCalls.
	EncodeStaticCalls(chainID ChainId, calls []RawCall) (Hex, error)

	// SendUserOperation submits a signed UserOperation to the chain's
	// bundler and returns the bundler-assigned user-op hash.
	SendUserOperation(ctx context.Context, chainID ChainId, op UserOperation) (Hex, error)

	// VerifyBundlerConfig checks that entryPoint is the one this account
	// expects to interact with on chainID.
	VerifyBundlerConfig(chainID ChainId, entryPoint Address) error

	// GetNonce returns the account's current on-chain nonce for chainID.
	GetNonce(ctx context.Context, chainID ChainId) (*big.Int, error)

	// GetFactoryArgs returns the counterfactual deployment factory and its
	// call data, if the account is not yet deployed on chainID.
	GetFactoryArgs(chainID ChainId) (factory *Address, factoryData Hex, err error)
}

// Signer abstracts a private key capable of producing raw ECDSA signatures
// over a 32-byte digest.
type Signer interface {
	Sign(hash [32]byte) (Hex, error)
	Address() Address
}

// BundlerManager abstracts submission of a UserOperation to a chain's
// ERC-4337 bundler.
type BundlerManager interface {
	SendUserOperation(ctx context.Context, op UserOperation, entryPoint Address) (Hex, error)
	VerifyEntryPoint(chainID ChainId, entryPoint Address) error
}

// PaymasterData is what a SourcePaymaster attaches to a UserOperation.
type PaymasterData struct {
	Paymaster                    *Address
	PaymasterData                Hex
	PaymasterVerificationGasLimit *big.Int
	PaymasterPostOpGasLimit       *big.Int
}

// SourcePaymaster sponsors gas on chains that have no voucher-funded
// paymaster of their own.
type SourcePaymaster interface {
	GetPaymasterStubData(ctx context.Context, op UserOperation) (PaymasterData, error)
}

// XLPSource discovers candidate cross-chain liquidity providers for a
// voucher's destination chain. The concrete HTTP-backed implementation lives
// in package xlp; tests use an in-memory fake.
type XLPSource interface {
	CandidateXLPs(ctx context.Context, chainID ChainId, token Address) ([]XLPCandidate, error)
}

// XLPCandidate is one liquidity provider's standing for a given token.
type XLPCandidate struct {
	Address          Address
	AvailableDeposit  *big.Int
	Balance           *big.Int
}

// VoucherEvent is a (ref_id, signed voucher) pair pushed by the collaborator
// that observes on-chain voucher issuance, consumed by the executor.
type VoucherEvent struct {
	RefID         string
	SignedVoucher Hex
	RequestIDs    []Hex
}
