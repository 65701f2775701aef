// Package apperr defines the error kinds the HTTP layer maps to status
// codes. Services return these; infrastructure errors pass through unwrapped
// and surface as internal errors.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidRepeatSpec
	KindValidation
)

type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

func NotFound(msg string) error {
	return &Error{kind: KindNotFound, msg: msg}
}

func Forbidden(msg string) error {
	return &Error{kind: KindForbidden, msg: msg}
}

func InvalidRepeatSpec(msg string) error {
	return &Error{kind: KindInvalidRepeatSpec, msg: msg}
}

func Validation(msg string) error {
	return &Error{kind: KindValidation, msg: msg}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf returns the kind of err, or KindInternal for errors that don't
// carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

func IsNotFound(err error) bool  { return KindOf(err) == KindNotFound }
func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }
