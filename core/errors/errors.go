// Package errors defines the stable error classification returned by the
// settlement contract. Callers only ever see a Code; internal detail stays in
// logs.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code is the stable numeric discriminant of a contract failure.
type Code uint32

const (
	CodeAlreadyInitialized      Code = 1
	CodeNotInitialized          Code = 2
	CodeInvalidAmount           Code = 3
	CodeInvalidFeeBps           Code = 4
	CodeAgentNotRegistered      Code = 5
	CodeRemittanceNotFound      Code = 6
	CodeInvalidStatus           Code = 7
	CodeOverflow                Code = 8
	CodeNoFeesToWithdraw        Code = 9
	CodeInvalidAddress          Code = 10
	CodeInsufficientFees        Code = 11
	CodeDuplicateSettlement     Code = 12
	CodeContractPaused          Code = 13
	CodeRateLimitExceeded       Code = 14
	CodeAdminAlreadyExists      Code = 15
	CodeAdminNotFound           Code = 16
	CodeCannotRemoveLastAdmin   Code = 17
	CodeTokenNotWhitelisted     Code = 18
	CodeTokenAlreadyWhitelisted Code = 19
	CodeInvalidMigrationHash    Code = 20
	CodeMigrationInProgress     Code = 21
	CodeInvalidMigrationBatch   Code = 22
	CodeDailySendLimitExceeded  Code = 23

	// Unauthorized used to share 14 with RateLimitExceeded.
	CodeUnauthorized       Code = 24
	CodeMigrationNotActive Code = 25
	CodeTransferFailed     Code = 26
	CodeInvalidCorridor    Code = 27
	CodeRemittanceMismatch Code = 28
)

// String names the code. The switch lists every code exactly once; the
// compiler rejects duplicate constant cases, so two codes can never share a
// discriminant.
func (c Code) String() string {
	switch c {
	case CodeAlreadyInitialized:
		return "AlreadyInitialized"
	case CodeNotInitialized:
		return "NotInitialized"
	case CodeInvalidAmount:
		return "InvalidAmount"
	case CodeInvalidFeeBps:
		return "InvalidFeeBps"
	case CodeAgentNotRegistered:
		return "AgentNotRegistered"
	case CodeRemittanceNotFound:
		return "RemittanceNotFound"
	case CodeInvalidStatus:
		return "InvalidStatus"
	case CodeOverflow:
		return "Overflow"
	case CodeNoFeesToWithdraw:
		return "NoFeesToWithdraw"
	case CodeInvalidAddress:
		return "InvalidAddress"
	case CodeInsufficientFees:
		return "InsufficientFees"
	case CodeDuplicateSettlement:
		return "DuplicateSettlement"
	case CodeContractPaused:
		return "ContractPaused"
	case CodeRateLimitExceeded:
		return "RateLimitExceeded"
	case CodeAdminAlreadyExists:
		return "AdminAlreadyExists"
	case CodeAdminNotFound:
		return "AdminNotFound"
	case CodeCannotRemoveLastAdmin:
		return "CannotRemoveLastAdmin"
	case CodeTokenNotWhitelisted:
		return "TokenNotWhitelisted"
	case CodeTokenAlreadyWhitelisted:
		return "TokenAlreadyWhitelisted"
	case CodeInvalidMigrationHash:
		return "InvalidMigrationHash"
	case CodeMigrationInProgress:
		return "MigrationInProgress"
	case CodeInvalidMigrationBatch:
		return "InvalidMigrationBatch"
	case CodeDailySendLimitExceeded:
		return "DailySendLimitExceeded"
	case CodeUnauthorized:
		return "Unauthorized"
	case CodeMigrationNotActive:
		return "MigrationNotActive"
	case CodeTransferFailed:
		return "TransferFailed"
	case CodeInvalidCorridor:
		return "InvalidCorridor"
	case CodeRemittanceMismatch:
		return "RemittanceMismatch"
	default:
		return fmt.Sprintf("Code(%d)", uint32(c))
	}
}

// Codes returns every defined code in ascending order.
func Codes() []Code {
	out := make([]Code, 0, CodeRemittanceMismatch)
	for c := CodeAlreadyInitialized; c <= CodeRemittanceMismatch; c++ {
		out = append(out, c)
	}
	return out
}

// Error is a classified contract failure.
type Error struct {
	Code Code
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("remit: %s (code %d)", e.Code, uint32(e.Code))
}

// Is matches any *Error carrying the same code so sentinel values work with
// errors.Is.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code
}

// New returns an error classified by code.
func New(code Code) *Error { return &Error{Code: code} }

// CodeOf extracts the classification from err. The boolean is false for
// infrastructure failures that carry no code.
func CodeOf(err error) (Code, bool) {
	var classified *Error
	if stderrors.As(err, &classified) && classified != nil {
		return classified.Code, true
	}
	return 0, false
}

var (
	ErrAlreadyInitialized      = New(CodeAlreadyInitialized)
	ErrNotInitialized          = New(CodeNotInitialized)
	ErrInvalidAmount           = New(CodeInvalidAmount)
	ErrInvalidFeeBps           = New(CodeInvalidFeeBps)
	ErrAgentNotRegistered      = New(CodeAgentNotRegistered)
	ErrRemittanceNotFound      = New(CodeRemittanceNotFound)
	ErrInvalidStatus           = New(CodeInvalidStatus)
	ErrOverflow                = New(CodeOverflow)
	ErrNoFeesToWithdraw        = New(CodeNoFeesToWithdraw)
	ErrInvalidAddress          = New(CodeInvalidAddress)
	ErrInsufficientFees        = New(CodeInsufficientFees)
	ErrDuplicateSettlement     = New(CodeDuplicateSettlement)
	ErrContractPaused          = New(CodeContractPaused)
	ErrRateLimitExceeded       = New(CodeRateLimitExceeded)
	ErrAdminAlreadyExists      = New(CodeAdminAlreadyExists)
	ErrAdminNotFound           = New(CodeAdminNotFound)
	ErrCannotRemoveLastAdmin   = New(CodeCannotRemoveLastAdmin)
	ErrTokenNotWhitelisted     = New(CodeTokenNotWhitelisted)
	ErrTokenAlreadyWhitelisted = New(CodeTokenAlreadyWhitelisted)
	ErrInvalidMigrationHash    = New(CodeInvalidMigrationHash)
	ErrMigrationInProgress     = New(CodeMigrationInProgress)
	ErrInvalidMigrationBatch   = New(CodeInvalidMigrationBatch)
	ErrDailySendLimitExceeded  = New(CodeDailySendLimitExceeded)
	ErrUnauthorized            = New(CodeUnauthorized)
	ErrMigrationNotActive      = New(CodeMigrationNotActive)
	ErrTransferFailed          = New(CodeTransferFailed)
	ErrInvalidCorridor         = New(CodeInvalidCorridor)
	ErrRemittanceMismatch      = New(CodeRemittanceMismatch)
)
