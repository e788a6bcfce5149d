// Copyright didcomm-go Contributors (https://github.com/didcommx/didcomm-go)
// SPDX-License-Identifier: Apache-2.0

// Package errors defines the stable error-kind taxonomy this module's
// pack/unpack pipeline, resolvers, and crypto engines report through. It
// generalizes the teacher's component-tagged wrapped error
// (utils/componenterror.ComponentError) into the closed set of kinds the
// wire protocol needs, dropping the gRPC errdetails bridge this module
// has no transport to carry it over.
package errors

import (
	"errors"
	"fmt"
)

// Kind is a stable, wire-identifiable error category.
type Kind string

const (
	DIDNotResolved     Kind = "DIDNotResolved"
	DIDUrlNotFound     Kind = "DIDUrlNotFound"
	SecretNotFound     Kind = "SecretNotFound"
	Malformed          Kind = "Malformed"
	IoError            Kind = "IoError"
	InvalidState       Kind = "InvalidState"
	NoCompatibleCrypto Kind = "NoCompatibleCrypto"
	Unsupported        Kind = "Unsupported"
	IllegalArgument    Kind = "IllegalArgument"
)

// Error is the error type returned across this module's public API.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind wrapping err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}
