package eil

import "math/big"

// Version is the SDK version.
const Version = "0.1.0"

// Default gas/fee values attached to a fresh UserOperation when not
// overridden by an account or a config override.
var (
	DefaultCallGasLimit         = big.NewInt(3_000_000)
	DefaultVerificationGasLimit = big.NewInt(500_000)
	DefaultPreVerificationGas   = big.NewInt(100_000)
	DefaultMaxFeePerGas         = big.NewInt(1_000_000_000) // 1 gwei
	DefaultMaxPriorityFeePerGas = big.NewInt(1_000_000_000) // 1 gwei
)

// DefaultMaxUserOpCost is the hardcoded cost ceiling (0.01 ETH, in wei)
// attached to a voucher's destination component absent a real cost estimator.
var DefaultMaxUserOpCost = big.NewInt(10_000_000_000_000_000)

// FeeNumeratorScale is the fixed-point scale fee percentages are multiplied
// by to produce an on-chain U256 numerator (1 bp = 1).
const FeeNumeratorScale = 10000
