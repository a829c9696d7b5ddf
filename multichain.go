package eil

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// MultichainToken is a symbolic token name plus a per-chain address
// mapping, the reference MultiChainEntity implementation for ERC-20 actions.
type MultichainToken struct {
	Name        string
	Deployments AddressPerChain
}

// NewMultichainToken constructs a token from its per-chain deployments.
func NewMultichainToken(name string, deployments AddressPerChain) *MultichainToken {
	return &MultichainToken{Name: name, Deployments: deployments}
}

func (t *MultichainToken) AddressOn(chainID ChainId) (Address, bool) {
	addr, ok := t.Deployments[chainID]
	return addr, ok
}

// IsDeployedOn reports whether the token has a known address on chainID.
func (t *MultichainToken) IsDeployedOn(chainID ChainId) bool {
	_, ok := t.Deployments[chainID]
	return ok
}

// ABI returns the minimal ERC-20 surface (balanceOf, transfer, approve,
// allowance, decimals, symbol) this SDK needs, shared across all tokens.
func (t *MultichainToken) ABI() abi.ABI {
	return erc20FullABI
}

var erc20FullABI = mustParseABI(`[
	{"type":"function","name":"balanceOf","inputs":[{"name":"account","type":"address"}],"outputs":[{"type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]},
	{"type":"function","name":"approve","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]},
	{"type":"function","name":"allowance","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"decimals","inputs":[],"outputs":[{"type":"uint8"}],"stateMutability":"view"},
	{"type":"function","name":"symbol","inputs":[],"outputs":[{"type":"string"}],"stateMutability":"view"}
]`)

// MultichainContract is an ABI plus a per-chain address mapping, the
// reference MultiChainEntity implementation for FunctionCall actions that
// target a bespoke contract rather than an ERC-20 token.
type MultichainContract struct {
	ABI         abi.ABI
	Deployments AddressPerChain
}

// NewMultichainContract parses abiJSON and pairs it with deployments.
func NewMultichainContract(abiJSON string, deployments AddressPerChain) (*MultichainContract, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, WrapError(ErrSerialization, err, "parsing contract ABI")
	}
	return &MultichainContract{ABI: parsed, Deployments: deployments}, nil
}

func (c *MultichainContract) AddressOn(chainID ChainId) (Address, bool) {
	addr, ok := c.Deployments[chainID]
	return addr, ok
}

func (c *MultichainContract) IsDeployedOn(chainID ChainId) bool {
	_, ok := c.Deployments[chainID]
	return ok
}
