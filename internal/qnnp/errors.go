package qnnp

import (
	"errors"
	"fmt"
)

// Status classifies the outcome of an operator call.
type Status int

// Operator call outcomes.
const (
	StatusSuccess Status = iota
	StatusUninitialized
	StatusInvalidParameter
	StatusOutOfMemory
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusUninitialized:
		return "uninitialized"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusOutOfMemory:
		return "out of memory"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Sentinel errors, one per failure classification.
var (
	ErrUninitialized    = errors.New("library context is not initialized")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrOutOfMemory      = errors.New("out of memory")
)

// Error is returned by every failing operator call.
//
// It matches the sentinel for its Status under errors.Is, and also any
// underlying cause it carries.
type Error struct {
	Status Status // Failure classification
	Op     string // Operation that failed (e.g., "create max pooling")
	Msg    string // Human-readable detail
	Err    error  // Underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// Unwrap returns the status sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Status.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (s Status) sentinel() error {
	switch s {
	case StatusUninitialized:
		return ErrUninitialized
	case StatusInvalidParameter:
		return ErrInvalidParameter
	case StatusOutOfMemory:
		return ErrOutOfMemory
	default:
		return nil
	}
}

// Errorf builds an *Error with a formatted message.
func Errorf(status Status, op, format string, args ...any) *Error {
	return &Error{Status: status, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// StatusOf classifies err. A nil error is StatusSuccess; an error that
// carries no classification is reported as StatusInvalidParameter.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Status
	}
	switch {
	case errors.Is(err, ErrUninitialized):
		return StatusUninitialized
	case errors.Is(err, ErrOutOfMemory):
		return StatusOutOfMemory
	default:
		return StatusInvalidParameter
	}
}
