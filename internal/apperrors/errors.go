// Package apperrors provides the storefront error taxonomy.
//
// Every failure surfaced by the resolver, the stores or the claim engine is an
// *Error carrying a Kind (how the caller should react) and a Code (which
// condition blocked the operation). The request layer maps kinds to transport
// status codes; the message is always safe to show to the caller.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the caller should react to it.
type Kind string

const (
	// KindValidation means the input was malformed and must be corrected.
	KindValidation Kind = "validation"
	// KindConflict means the current state forbids the operation.
	KindConflict Kind = "conflict"
	// KindNotFound means an identifier did not resolve.
	KindNotFound Kind = "not_found"
	// KindPartialFailure means some effects were applied before the failure.
	KindPartialFailure Kind = "partial_failure"
	// KindInfrastructure means a dependency such as the durable store failed.
	KindInfrastructure Kind = "infrastructure"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Validation
	CodeInvalidInput Code = "INVALID_INPUT"

	// Lookups
	CodeOrderNotFound  Code = "ORDER_NOT_FOUND"
	CodeSellerNotFound Code = "SELLER_NOT_FOUND"
	CodeItemNotFound   Code = "ITEM_NOT_FOUND"

	// Order state
	CodeOrderClosed            Code = "ORDER_CLOSED"
	CodeOrderCancelled         Code = "ORDER_CANCELLED"
	CodeOrderAssignedElsewhere Code = "ORDER_ASSIGNED_ELSEWHERE"

	// Item state
	CodeItemClaimedElsewhere Code = "ITEM_CLAIMED_ELSEWHERE"
	CodeItemNotClaimedByYou  Code = "ITEM_NOT_CLAIMED_BY_SELLER"
	CodeItemAlreadyFulfilled Code = "ITEM_ALREADY_FULFILLED"
	CodeNothingToClaim       Code = "NOTHING_TO_CLAIM"
	CodeNothingToFulfill     Code = "NOTHING_TO_FULFILL"

	// Seller state
	CodeInsufficientStock   Code = "INSUFFICIENT_STOCK"
	CodeSellerInactive      Code = "SELLER_INACTIVE"
	CodeSellerNotInvolved   Code = "SELLER_NOT_INVOLVED"
	CodeSellerAlreadyClosed Code = "SELLER_ALREADY_CLOSED"
	CodeSellerHasOpenClaims Code = "SELLER_HAS_OPEN_CLAIMS"
	CodeHandleTaken         Code = "DISCORD_HANDLE_TAKEN"

	// Fulfillment
	CodePartialFulfillment Code = "PARTIAL_FULFILLMENT"

	// Infrastructure
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
	CodeLockAbandoned      Code = "LOCK_ABANDONED"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Kind     Kind
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil && e.Kind == KindInfrastructure {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithMetadata returns a copy of e carrying the given metadata.
func (e *Error) WithMetadata(metadata map[string]string) *Error {
	out := *e
	out.Metadata = metadata
	return &out
}

// Validation creates a validation error.
func Validation(format string, args ...any) *Error {
	return Newf(KindValidation, CodeInvalidInput, format, args...)
}

// Conflict creates a state-conflict error.
func Conflict(code Code, format string, args ...any) *Error {
	return Newf(KindConflict, code, format, args...)
}

// NotFound creates a not-found error.
func NotFound(code Code, format string, args ...any) *Error {
	return Newf(KindNotFound, code, format, args...)
}

// Infrastructure wraps a dependency failure.
func Infrastructure(message string, cause error) *Error {
	return &Error{Kind: KindInfrastructure, Code: CodeStorageUnavailable, Message: message, Cause: cause}
}

// KindOf returns the kind of err, or KindInfrastructure for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInfrastructure
}

// CodeOf returns the code of err, or CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// LockAbandoned wraps a failure to acquire a record lock.
func LockAbandoned(cause error) *Error {
	return &Error{Kind: KindInfrastructure, Code: CodeLockAbandoned, Message: "gave up waiting for the record lock", Cause: cause}
}
