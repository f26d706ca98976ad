package app

import (
	"errors"

	"finview/internal/api"
)

// Kind tags a failed operation.
type Kind string

const (
	KindValidation Kind = "validationError"
	KindBackend    Kind = "backendError"
)

// Failure is returned by every controller operation that did not complete.
// Message is what the user sees; it has already been posted to the message slot.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// IsValidation reports whether err is a locally detected validation failure.
func IsValidation(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindValidation
}

// IsBackend reports whether err is a failed backend call.
func IsBackend(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindBackend
}

func validationFailure(err error) *Failure {
	return &Failure{Kind: KindValidation, Message: err.Error(), Err: err}
}

// backendFailure uses the message the backend sent, else fallback.
func backendFailure(err error, fallback string) *Failure {
	return &Failure{Kind: KindBackend, Message: api.MessageOf(err, fallback), Err: err}
}
