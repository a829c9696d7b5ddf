package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EntryPoint addresses for the canonical ERC-4337 deployments.
const (
	EntryPointV07Address = "0x0000000071727De22E5E9d8BAf0edAc6f37da032"
	EntryPointV06Address = "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"
)

// bundlerMethods are the standard bundler JSON-RPC method names this SDK's
// mechanism layer calls.
var bundlerMethods = struct {
	SendUserOperation       string
	GetUserOperationReceipt string
}{
	SendUserOperation:       "eth_sendUserOperation",
	GetUserOperationReceipt: "eth_getUserOperationReceipt",
}

// safe4337Addresses are the Safe 4337 module addresses (v0.3.0) this SDK's
// counterfactual address derivation and init code assume.
var safe4337Addresses = struct {
	Module          common.Address
	Singleton       common.Address
	ProxyFactory    common.Address
	FallbackHandler common.Address
	AddModulesLib   common.Address
}{
	Module:          common.HexToAddress("0xa581c4A4DB7175302464fF3C06380BC3270b4037"),
	Singleton:       common.HexToAddress("0x29fcB43b46531BcA003ddC8FCB67FFE91900C762"),
	ProxyFactory:    common.HexToAddress("0x4e1DCf7AD4e460CfD30791CCC4F9c8a4f820ec67"),
	FallbackHandler: common.HexToAddress("0xfd0732Dc9E303f09fCEf3a7388Ad10A83459Ec99"),
	AddModulesLib:   common.HexToAddress("0x8EcD4ec46D4D2a6B64fE960B3D64e8B94B2234eb"),
}

// PackAccountGasLimits packs verification and call gas limits into the
// single bytes32 slot the EntryPoint's packed UserOperation shape expects.
func PackAccountGasLimits(verificationGasLimit, callGasLimit *big.Int) [32]byte {
	var result [32]byte
	v := verificationGasLimit.Bytes()
	copy(result[16-len(v):16], v)
	c := callGasLimit.Bytes()
	copy(result[32-len(c):32], c)
	return result
}

// UnpackAccountGasLimits reverses PackAccountGasLimits.
func UnpackAccountGasLimits(packed [32]byte) (verificationGasLimit, callGasLimit *big.Int) {
	return new(big.Int).SetBytes(packed[:16]), new(big.Int).SetBytes(packed[16:])
}

// PackGasFees packs the priority and max fee per gas into a single bytes32.
func PackGasFees(maxPriorityFeePerGas, maxFeePerGas *big.Int) [32]byte {
	var result [32]byte
	p := maxPriorityFeePerGas.Bytes()
	copy(result[16-len(p):16], p)
	m := maxFeePerGas.Bytes()
	copy(result[32-len(m):32], m)
	return result
}

// UnpackGasFees reverses PackGasFees.
func UnpackGasFees(packed [32]byte) (maxPriorityFeePerGas, maxFeePerGas *big.Int) {
	return new(big.Int).SetBytes(packed[:16]), new(big.Int).SetBytes(packed[16:])
}
