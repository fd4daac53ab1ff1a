package vault

import (
	"errors"
	"fmt"
)

// OpError represents a failed vault operation.
//
// Every failure carries a Code the caller can use to decide whether a retry
// makes sense: WITHDRAWAL_NOT_READY is retryable later, UNAUTHORIZED is not.
// A failed operation performs no state mutation; the enclosing transaction
// rolls back as a unit.
type OpError struct {
	// Code identifies the failure category.
	Code Code

	// Op names the entry point that failed.
	Op string

	// Caller is the principal that invoked the operation, if any.
	Caller string

	// Message is a human-readable description.
	Message string
}

// Code categorizes vault operation failures.
type Code string

const (
	// CodeUnauthorized indicates a role check failed.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeAlreadyInitialized indicates a one-shot setup was re-run.
	CodeAlreadyInitialized Code = "ALREADY_INITIALIZED"

	// CodeNotYetAtPriorVersion indicates a setup ran out of order.
	CodeNotYetAtPriorVersion Code = "NOT_YET_AT_PRIOR_VERSION"

	// CodeInsufficientBalance indicates the caller's available balance
	// cannot cover the requested amount.
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"

	// CodeTransferFailed indicates the external token ledger refused or
	// failed the transfer.
	CodeTransferFailed Code = "TRANSFER_FAILED"

	// CodeDepositsPaused indicates deposits are paused.
	CodeDepositsPaused Code = "DEPOSITS_PAUSED"

	// CodeNoPendingWithdrawal indicates no outstanding request exists.
	CodeNoPendingWithdrawal Code = "NO_PENDING_WITHDRAWAL"

	// CodeWithdrawalNotReady indicates the delay has not elapsed.
	CodeWithdrawalNotReady Code = "WITHDRAWAL_NOT_READY"

	// CodeDuplicateWithdrawalRequest indicates the caller already has a
	// non-terminal request.
	CodeDuplicateWithdrawalRequest Code = "DUPLICATE_WITHDRAWAL_REQUEST"

	// CodeInvalidAmount indicates a zero, negative, or missing amount.
	CodeInvalidAmount Code = "INVALID_AMOUNT"

	// CodeNotSupported indicates the operation does not exist in the
	// active logic version.
	CodeNotSupported Code = "NOT_SUPPORTED"
)

// Retryable reports whether the same call can plausibly succeed later
// without any administrative intervention.
func (c Code) Retryable() bool {
	return c == CodeWithdrawalNotReady || c == CodeDepositsPaused
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Caller != "" {
		return fmt.Sprintf("%s: %s (op=%s, caller=%s)", e.Code, e.Message, e.Op, e.Caller)
	}
	return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
}

// CodeOf extracts the failure code from an error chain. Returns "" for nil
// or non-vault errors. Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}

// IsCode reports whether err carries the given failure code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

func opErr(code Code, op, caller, format string, args ...any) *OpError {
	return &OpError{
		Code:    code,
		Op:      op,
		Caller:  caller,
		Message: fmt.Sprintf(format, args...),
	}
}
