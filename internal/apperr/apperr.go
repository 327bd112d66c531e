// Package apperr defines the error kinds the core surfaces across the
// GraphQL-over-SQL pipeline: validation failures, missing records, cursor
// and coercion errors, and wrapped mutation/subscription failures.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error so resolvers and the HTTP layer can decide how
// to present it without string-matching on messages.
type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	InvalidCursor
	OrderRequired
	InvalidJSON
	InvalidEnum
	InvalidNetworkAddress
	InvalidUUID
	InvalidTimestamp
	MutationFailed
	SubscriptionFailed
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "Validation"
	case NotFound:
		return "NotFound"
	case InvalidCursor:
		return "InvalidCursor"
	case OrderRequired:
		return "OrderRequired"
	case InvalidJSON:
		return "InvalidJson"
	case InvalidEnum:
		return "InvalidEnum"
	case InvalidNetworkAddress:
		return "InvalidNetworkAddress"
	case InvalidUUID:
		return "InvalidUuid"
	case InvalidTimestamp:
		return "InvalidTimestamp"
	case MutationFailed:
		return "MutationFailed"
	case SubscriptionFailed:
		return "SubscriptionFailed"
	default:
		return "Internal"
	}
}

// Error is the error value carried through the core. It wraps an
// underlying cause (when present) the way pkg/errors.Wrap does, so
// errors.Cause/Unwrap still reach the originating database or coercion
// error.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Cause returns the wrapped cause, letting pkg/errors.Cause walk past e.
func (e *Error) Cause() error { return e.cause }

// New builds a kind-tagged error with no wrapped cause.
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a new kind-tagged error, preserving it for
// errors.Is/As and errors.Cause.
func Wrap(k Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

// Is reports whether err (or anything in its chain) is an *Error of kind k.
func Is(err error, k Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == k {
			return true
		}
		err = e.cause
	}
	return false
}
