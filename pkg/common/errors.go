package common

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is against these to classify a failure.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrReadOnly   = errors.New("read-only mode")
	ErrUpstream   = errors.New("upstream failure")
	ErrConflict   = errors.New("conflict")
)

// Error carries the kind of a graph failure together with the operation that
// produced it.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg = e.Msg
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NotFound(op, msg string) error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: msg}
}

func Validation(op, msg string) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: msg}
}

// ReadOnly is a validation failure: errors.Is matches both ErrReadOnly and
// ErrValidation.
func ReadOnly(op string, mode Mode) error {
	return &Error{
		Kind: ErrReadOnly,
		Op:   op,
		Msg:  fmt.Sprintf("mutation rejected in %s mode", mode),
		Err:  ErrValidation,
	}
}

func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrUpstream, Op: op, Err: err}
}

func Conflict(op string, err error) error {
	return &Error{Kind: ErrConflict, Op: op, Err: err}
}

// KindOf returns the kind sentinel of err, or nil when err is unclassified.
// ErrReadOnly wins over ErrValidation.
func KindOf(err error) error {
	for _, kind := range []error{ErrReadOnly, ErrNotFound, ErrValidation, ErrConflict, ErrUpstream} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
