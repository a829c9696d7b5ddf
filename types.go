package eil

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ChainId is an opaque identifier of a blockchain.
type ChainId = uint64

// Address is a 20-byte account or contract address.
type Address = common.Address

// Hex is a variable-length byte blob.
type Hex = []byte

// Well-known chain ids used across tests and examples.
const (
	ChainMainnet  ChainId = 1
	ChainOptimism ChainId = 10
	ChainPolygon  ChainId = 137
	ChainBase     ChainId = 8453
	ChainArbitrum ChainId = 42161
)

// Amount is either a fixed U256 value or a runtime-resolved variable.
// It is a closed sum type: the unexported marker method prevents
// implementations outside this package, the idiomatic Go substitute for a
// Rust enum.
type Amount interface {
	isAmount()
}

// FixedAmount is a concrete, known-at-build-time amount.
type FixedAmount struct {
	Value *big.Int
}

func (FixedAmount) isAmount() {}

// NewFixedAmount wraps an int64 convenience value as a FixedAmount.
func NewFixedAmount(v int64) FixedAmount {
	return FixedAmount{Value: big.NewInt(v)}
}

// RuntimeAmount names a value to be resolved on-chain at execution time.
// Invariant: len(Name) <= MaxRuntimeVarNameLength.
type RuntimeAmount struct {
	Name string
}

func (RuntimeAmount) isAmount() {}

// MaxRuntimeVarNameLength is the invariant bound on RuntimeAmount.Name.
const MaxRuntimeVarNameLength = 8

// NewRuntimeAmount validates the name length and constructs a RuntimeAmount.
func NewRuntimeAmount(name string) (RuntimeAmount, error) {
	if len(name) > MaxRuntimeVarNameLength {
		return RuntimeAmount{}, NewError(ErrInvalidVariableName, "runtime variable name exceeds %d bytes: %q", MaxRuntimeVarNameLength, name)
	}
	return RuntimeAmount{Name: name}, nil
}

// MultiChainEntity is any object that, given a ChainId, either yields an
// Address or reports absence.
type MultiChainEntity interface {
	AddressOn(chainID ChainId) (Address, bool)
}

// AddressPerChain is the concrete map backing of most MultiChainEntity
// implementations.
type AddressPerChain map[ChainId]Address

// TokenAmount is a token reference, its amount, and the minimum deposit a
// provider must hold when the amount is Runtime.
type TokenAmount struct {
	Token             MultiChainEntity
	Amount            Amount
	MinProviderDeposit *big.Int // nil unless Amount is RuntimeAmount
}

// RawCall is target/data/value the way it will be encoded into a
// UserOperation's call data.
type RawCall struct {
	Target Address
	Data   Hex
	Value  *big.Int // nil means zero
}

// SdkVoucherRequest is the user-facing description of a cross-chain voucher.
// Invariant: DestinationChainID != SourceChainID (when SourceChainID is set).
type SdkVoucherRequest struct {
	RefID             string
	SourceChainID     *ChainId
	DestinationChainID ChainId
	Tokens            []TokenAmount
	Target            *Address
}

// OperationStatus is a batch's execution lifecycle state.
type OperationStatus int

const (
	StatusPending OperationStatus = iota
	StatusExecuting
	StatusDone
	StatusFailed
)

func (s OperationStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusExecuting:
		return "executing"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BlockNumber is a plain chain block height.
type BlockNumber = uint64
