package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidImposter is returned when an imposter definition fails structural validation.
	ErrInvalidImposter = errors.New("invalid imposter")

	// ErrMalformedResponse matches every *MalformedResponseError.
	ErrMalformedResponse = errors.New("malformed response")
)

// MalformedResponseError reports a payload that could not be decoded into the
// expected shape: a missing or mistyped required field, or a predicate/response
// node without a known discriminator.
type MalformedResponseError struct {
	Reason string
	Err    error
}

// NewMalformedResponseError builds a *MalformedResponseError. If err already is
// one, it is returned unchanged so nested decoders keep the innermost reason.
func NewMalformedResponseError(reason string, err error) error {
	var existing *MalformedResponseError
	if errors.As(err, &existing) {
		return err
	}
	return &MalformedResponseError{Reason: reason, Err: err}
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMalformedResponse) hold for any MalformedResponseError.
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}
