package ast

import "github.com/pkg/errors"

// Kind closes the engine's error taxonomy (spec §7). It is deliberately
// a small fixed set rather than an open string so callers can switch
// on it exhaustively, the way error.rs's AstError variants are matched
// in the napi binding layer.
type Kind string

const (
	ParseFailed          Kind = "ParseFailed"
	ValidationFailed     Kind = "ValidationFailed"
	NoSource             Kind = "NoSource"
	ContractNotFound     Kind = "ContractNotFound"
	NoContracts          Kind = "NoContracts"
	TargetNotFound       Kind = "TargetNotFound"
	Ambiguous            Kind = "Ambiguous"
	NotImplementable     Kind = "NotImplementable"
	AssemblyUnsupported  Kind = "AssemblyUnsupported"
	EmptySnippets        Kind = "EmptySnippets"
	ConfigError          Kind = "ConfigError"
	InvariantViolation   Kind = "InvariantViolation"
)

// Error is the engine's error type: a Kind plus a wrapped cause chain.
// It satisfies error and implements Unwrap, so callers can reach the
// originating solc or json failure with errors.Unwrap / errors.As.
// It has no Cause method, so github.com/pkg/errors.Cause stops at it.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

// newErr builds a Kind-tagged Error with no wrapped cause.
func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// newErrf builds a Kind-tagged Error with a wrapped cause, the way
// error.rs's From<SolcError>/From<serde_json::Error> impls attach a
// variant to an underlying failure.
func newErrf(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, msg: msg, err: errors.WithStack(cause)}
}

// KindOf extracts the Kind from err if it (or something it wraps) is
// an *Error, reporting ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err's Kind equals kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
