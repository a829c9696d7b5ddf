package eil

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// BatchContext is what an Action's Encode method sees: the chain it is
// being encoded for and read access to the coordinator that will eventually
// record its voucher effects.
type BatchContext struct {
	ChainID     ChainId
	Coordinator *VoucherCoordinator
}

// Action is a polymorphic unit of on-chain work. Encode returns a finite
// ordered sequence of raw calls; VoucherRequestAction and SetVariable
// produce none (they mutate planning state instead).
type Action interface {
	Encode(ctx BatchContext) ([]RawCall, error)
}

var erc20MinimalABI = mustParseABI(`[
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]},
	{"type":"function","name":"approve","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]}
]`)

func mustParseABI(json string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Transfer encodes an ERC-20 transfer(address,uint256) call.
type Transfer struct {
	Token     MultiChainEntity
	Recipient Address
	Amount    Amount
}

func (a Transfer) Encode(ctx BatchContext) ([]RawCall, error) {
	fixed, ok := a.Amount.(FixedAmount)
	if !ok {
		return nil, NewError(ErrDynamicVariableCall, "transfer amount is a runtime variable, not yet supported")
	}
	tokenAddr, err := resolveAddress(a.Token, ctx.ChainID, "transfer token")
	if err != nil {
		return nil, err
	}
	data, err := erc20MinimalABI.Pack("transfer", a.Recipient, fixed.Value)
	if err != nil {
		return nil, WrapError(ErrSerialization, err, "encoding transfer call")
	}
	return []RawCall{{Target: tokenAddr, Data: data}}, nil
}

// Approve encodes an ERC-20 approve(address,uint256) call.
type Approve struct {
	Token   MultiChainEntity
	Spender Address
	Value   Amount
}

func (a Approve) Encode(ctx BatchContext) ([]RawCall, error) {
	fixed, ok := a.Value.(FixedAmount)
	if !ok {
		return nil, NewError(ErrDynamicVariableCall, "approve value is a runtime variable, not yet supported")
	}
	tokenAddr, err := resolveAddress(a.Token, ctx.ChainID, "approve token")
	if err != nil {
		return nil, err
	}
	data, err := erc20MinimalABI.Pack("approve", a.Spender, fixed.Value)
	if err != nil {
		return nil, WrapError(ErrSerialization, err, "encoding approve call")
	}
	return []RawCall{{Target: tokenAddr, Data: data}}, nil
}

// FunctionCall encodes an arbitrary ABI-described call by function name.
type FunctionCall struct {
	Target       Address
	ABI          abi.ABI
	FunctionName string
	Args         []interface{}
	Value        *big.Int
}

func (a FunctionCall) Encode(ctx BatchContext) ([]RawCall, error) {
	if a.Target == (Address{}) {
		return nil, errInvalidAddress(ctx.ChainID, "function call target")
	}
	if _, ok := a.ABI.Methods[a.FunctionName]; !ok {
		return nil, NewError(ErrContractNotSupported, "function %q not found in ABI", a.FunctionName)
	}
	data, err := a.ABI.Pack(a.FunctionName, a.Args...)
	if err != nil {
		return nil, WrapError(ErrSerialization, err, "encoding call to %s", a.FunctionName)
	}
	return []RawCall{{Target: a.Target, Data: data, Value: a.Value}}, nil
}

// VoucherRequestAction declares a cross-chain voucher. It produces no direct
// calls; the batch builder registers its output with the coordinator when
// the batch is closed.
type VoucherRequestAction struct {
	Request SdkVoucherRequest
}

func (a VoucherRequestAction) Encode(ctx BatchContext) ([]RawCall, error) {
	return nil, nil
}

// SetVariable is reserved for a future runtime-variable execution protocol
// (spec open question a). Any attempt to encode it fails loudly rather than
// silently no-op-ing or returning a generic error.
type SetVariable struct {
	VarName string
	Call    FunctionCall
}

// NewSetVariable validates the name-length invariant shared with
// RuntimeAmount.
func NewSetVariable(varName string, call FunctionCall) (SetVariable, error) {
	if len(varName) > MaxRuntimeVarNameLength {
		return SetVariable{}, NewError(ErrInvalidVariableName, "runtime variable name exceeds %d bytes: %q", MaxRuntimeVarNameLength, varName)
	}
	return SetVariable{VarName: varName, Call: call}, nil
}

func (a SetVariable) Encode(ctx BatchContext) ([]RawCall, error) {
	return nil, NewError(ErrDynamicVariableCall, "runtime-variable execution protocol is reserved and not yet implemented (var %q)", a.VarName)
}
