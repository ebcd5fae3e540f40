// Package saveerrors defines the typed failure taxonomy shared by the
// persistence pipeline. Everything below the engine wraps causes with
// one of these codes; the engine folds them into result objects instead
// of letting them escape as raised errors.
package saveerrors

import (
	"errors"
	"fmt"
)

// Code classifies a persistence failure.
type Code string

const (
	// CodeNotFound means the slot has no payload file.
	CodeNotFound Code = "not_found"
	// CodeCorrupted means a checksum mismatch or unparsable payload.
	CodeCorrupted Code = "corrupted"
	// CodeVersionIncompatible means the save version is outside the supported range.
	CodeVersionIncompatible Code = "version_incompatible"
	// CodeValidationFailed means structural or semantic validation found fatal errors.
	CodeValidationFailed Code = "validation_failed"
	// CodeSerializationFailed means an encode/decode failure not otherwise classified.
	CodeSerializationFailed Code = "serialization_failed"
	// CodeInvalidArgument means a caller contract violation (blank id, bad interval).
	CodeInvalidArgument Code = "invalid_argument"
)

// SaveError carries a failure code, a human-readable message and the
// underlying cause. It supports errors.Is/As through Unwrap.
type SaveError struct {
	Code    Code
	Message string
	Err     error
}

func (e *SaveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// New builds a SaveError without a cause.
func New(code Code, format string, args ...any) *SaveError {
	return &SaveError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a SaveError around a cause.
func Wrap(code Code, err error, format string, args ...any) *SaveError {
	return &SaveError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the failure code from an error chain, or "" if the
// chain contains no SaveError.
func CodeOf(err error) Code {
	var se *SaveError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNotFound reports whether the chain carries CodeNotFound.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsCorrupted reports whether the chain carries CodeCorrupted.
func IsCorrupted(err error) bool { return CodeOf(err) == CodeCorrupted }

// IsInvalidArgument reports whether the chain carries CodeInvalidArgument.
func IsInvalidArgument(err error) bool { return CodeOf(err) == CodeInvalidArgument }
