// Package evm provides an EIP-712 signing adapter for UserOperation hashes:
// an EOA-backed eil.Signer plus the authoritative domain-separated digest
// computation that replaces a placeholder zero hash with a real one keyed on
// chain id and EntryPoint address.
package evm

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/eil-sdk/eil"
)

// EOASigner implements eil.Signer with a raw ECDSA private key.
type EOASigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewEOASignerFromPrivateKey parses a hex-encoded private key (with or
// without a "0x" prefix) into a Signer.
func NewEOASignerFromPrivateKey(privateKeyHex string) (*EOASigner, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &EOASigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// Address returns the signer's Ethereum address.
func (s *EOASigner) Address() eil.Address {
	return s.address
}

// Sign produces a 65-byte (r,s,v) ECDSA signature over hash, with the
// recovery byte normalized to Ethereum's 27/28 convention.
func (s *EOASigner) Sign(hash [32]byte) (eil.Hex, error) {
	signature, err := crypto.Sign(hash[:], s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	if signature[64] < 27 {
		signature[64] += 27
	}
	return signature, nil
}

// userOpDomainName/Version are the EIP-712 domain constants this SDK signs
// UserOperation hashes under.
const (
	userOpDomainName    = "EIL"
	userOpDomainVersion = "1"
)

var packedUserOpFields = []apitypes.Type{
	{Name: "sender", Type: "address"},
	{Name: "nonce", Type: "uint256"},
	{Name: "initCodeHash", Type: "bytes32"},
	{Name: "callDataHash", Type: "bytes32"},
	{Name: "accountGasLimits", Type: "bytes32"},
	{Name: "preVerificationGas", Type: "uint256"},
	{Name: "gasFees", Type: "bytes32"},
	{Name: "paymasterAndDataHash", Type: "bytes32"},
}

// ComputeUserOpHash computes the authoritative EIP-712 domain-separated
// digest for op, using op.ChainID and op.EntryPointAddress as the domain's
// chainId and verifyingContract. This replaces the placeholder
// keccak256(zero-bytes) hash: the domain binds the hash to exactly one
// chain and one EntryPoint, so the same UserOperation content hashes
// differently per chain.
func ComputeUserOpHash(op eil.UserOperation) (common.Hash, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"PackedUserOperation": packedUserOpFields,
		},
		PrimaryType: "PackedUserOperation",
		Domain: apitypes.TypedDataDomain{
			Name:              userOpDomainName,
			Version:           userOpDomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(op.ChainID)),
			VerifyingContract: op.EntryPointAddress.Hex(),
		},
		Message: packedUserOpMessage(op),
	}

	dataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash struct: %w", err)
	}
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash domain: %w", err)
	}

	rawData := []byte{0x19, 0x01}
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, dataHash...)
	return common.BytesToHash(crypto.Keccak256(rawData)), nil
}

func packedUserOpMessage(op eil.UserOperation) map[string]interface{} {
	accountGasLimits := packAccountGasLimits(op.VerificationGasLimit, op.CallGasLimit)
	gasFees := packGasFees(op.MaxPriorityFeePerGas, op.MaxFeePerGas)

	var initCode []byte
	if op.Factory != nil {
		initCode = append(initCode, op.Factory.Bytes()...)
		initCode = append(initCode, op.FactoryData...)
	}

	var paymasterAndData []byte
	if op.Paymaster != nil {
		paymasterAndData = append(paymasterAndData, op.Paymaster.Bytes()...)
		paymasterAndData = append(paymasterAndData, op.PaymasterData...)
	}

	return map[string]interface{}{
		"sender":               op.Sender,
		"nonce":                op.Nonce,
		"initCodeHash":         crypto.Keccak256Hash(initCode),
		"callDataHash":         crypto.Keccak256Hash(op.CallData),
		"accountGasLimits":     accountGasLimits[:],
		"preVerificationGas":   op.PreVerificationGas,
		"gasFees":              gasFees[:],
		"paymasterAndDataHash": crypto.Keccak256Hash(paymasterAndData),
	}
}

// packAccountGasLimits packs verification and call gas limits into the
// single bytes32 slot the EntryPoint's packed UserOperation shape expects.
func packAccountGasLimits(verificationGasLimit, callGasLimit *big.Int) [32]byte {
	var result [32]byte
	v := verificationGasLimit.Bytes()
	copy(result[16-len(v):16], v)
	c := callGasLimit.Bytes()
	copy(result[32-len(c):32], c)
	return result
}

// packGasFees packs the priority and max fee per gas into a single bytes32.
func packGasFees(maxPriorityFeePerGas, maxFeePerGas *big.Int) [32]byte {
	var result [32]byte
	p := maxPriorityFeePerGas.Bytes()
	copy(result[16-len(p):16], p)
	m := maxFeePerGas.Bytes()
	copy(result[32-len(m):32], m)
	return result
}
