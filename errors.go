package eil

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of error kinds this SDK can return.
type ErrorKind string

const (
	ErrUnsupportedChain         ErrorKind = "unsupported_chain"
	ErrInvalidAddress           ErrorKind = "invalid_address"
	ErrVoucherNotFound          ErrorKind = "voucher_not_found"
	ErrDuplicateVoucher         ErrorKind = "duplicate_voucher"
	ErrVoucherNotConsumed       ErrorKind = "voucher_not_consumed"
	ErrVoucherAlreadyUsed       ErrorKind = "voucher_already_used"
	ErrInvalidVoucherDestination ErrorKind = "invalid_voucher_destination"
	ErrAccountNotSet            ErrorKind = "account_not_set"
	ErrAccountAlreadySet        ErrorKind = "account_already_set"
	ErrBuilderAlreadyBuilt      ErrorKind = "builder_already_built"
	ErrContractNotDeployed      ErrorKind = "contract_not_deployed"
	ErrContractNotSupported     ErrorKind = "contract_not_supported"
	ErrNoXLPsFound              ErrorKind = "no_xlps_found"
	ErrInsufficientXLPs         ErrorKind = "insufficient_xlps"
	ErrInvalidVariableName      ErrorKind = "invalid_variable_name"
	ErrDynamicVariableCall      ErrorKind = "dynamic_variable_call"
	ErrSameChainVoucher         ErrorKind = "same_chain_voucher"
	ErrCannotOverridePaymaster  ErrorKind = "cannot_override_paymaster"
	ErrNoVoucherForChain        ErrorKind = "no_voucher_for_chain"
	ErrUserOpNotSigned          ErrorKind = "user_op_not_signed"
	ErrExecutionAlreadyStarted  ErrorKind = "execution_already_started"
	ErrExecutionTimeout         ErrorKind = "execution_timeout"

	// Transport/serialization wrappers.
	ErrTransport     ErrorKind = "transport"
	ErrSerialization ErrorKind = "serialization"
)

// EilError is the SDK's single exported error type. All domain error kinds
// carry structured context in Details; transport/serialization kinds wrap an
// underlying cause via Err.
type EilError struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *EilError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EilError) Unwrap() error {
	return e.Err
}

// NewError constructs an EilError with a formatted message and no details.
func NewError(kind ErrorKind, format string, args ...interface{}) *EilError {
	return &EilError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewErrorWithDetails constructs an EilError carrying structured context.
func NewErrorWithDetails(kind ErrorKind, message string, details map[string]interface{}) *EilError {
	return &EilError{Kind: kind, Message: message, Details: details}
}

// WrapError constructs a transport/serialization EilError wrapping cause.
func WrapError(kind ErrorKind, cause error, format string, args ...interface{}) *EilError {
	return &EilError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// IsKind reports whether err is an *EilError with the given kind. Convenience
// wrapper around errors.As for call sites that only care about the kind.
func IsKind(err error, kind ErrorKind) bool {
	var ee *EilError
	if !errors.As(err, &ee) {
		return false
	}
	return ee.Kind == kind
}

func errUnsupportedChain(chainID ChainId) *EilError {
	return NewErrorWithDetails(ErrUnsupportedChain, fmt.Sprintf("chain %d is not configured", chainID),
		map[string]interface{}{"chain_id": chainID})
}

func errInvalidAddress(chainID ChainId, context string) *EilError {
	return NewErrorWithDetails(ErrInvalidAddress, fmt.Sprintf("no address for %s on chain %d", context, chainID),
		map[string]interface{}{"chain_id": chainID, "context": context})
}

func errVoucherNotFound(refID string) *EilError {
	return NewErrorWithDetails(ErrVoucherNotFound, fmt.Sprintf("voucher %q not found", refID),
		map[string]interface{}{"ref_id": refID})
}

func errDuplicateVoucher(refID string) *EilError {
	return NewErrorWithDetails(ErrDuplicateVoucher, fmt.Sprintf("voucher %q already registered", refID),
		map[string]interface{}{"ref_id": refID})
}

func errVoucherNotConsumed(refID string, sourceChainID ChainId) *EilError {
	return NewErrorWithDetails(ErrVoucherNotConsumed, fmt.Sprintf("voucher %q from chain %d was never consumed", refID, sourceChainID),
		map[string]interface{}{"ref_id": refID, "source_chain_id": sourceChainID})
}

func errVoucherAlreadyUsed(refID string) *EilError {
	return NewErrorWithDetails(ErrVoucherAlreadyUsed, fmt.Sprintf("voucher %q already consumed", refID),
		map[string]interface{}{"ref_id": refID})
}
