package runtime

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNonFatalInternalError is used to indicate that an operation failed
// because of an internal error that isn't expected to affect other jobs.
//
// The worker should report the job as failed, but need not restart or reset
// itself because of this error. Whoever returned this error has already
// logged and/or reported it.
var ErrNonFatalInternalError = errors.New("encountered a non-fatal internal error")

// ErrFatalInternalError is used to signal that a fatal internal error has
// been logged and that the worker should gracefully terminate/reset.
//
// This is only used when the error has already been reported and logged, so
// the worker won't report it again.
var ErrFatalInternalError = errors.New("encountered a fatal internal error")

// The MalformedPayloadError error type is used to indicate that a job payload
// or environment descriptor was invalid.
//
// For example a required property was missing, a string expected to be a
// command was empty, or a value was outside the permitted range.
type MalformedPayloadError struct {
	messages []string
}

// Error returns the error message and adheres to the error interface
func (e MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed-payload error: %s", strings.Join(e.messages, "\n"))
}

// Messages returns the messages carried by this error, one per issue found.
func (e MalformedPayloadError) Messages() []string {
	return e.messages
}

// NewMalformedPayloadError creates a MalformedPayloadError object, please
// make sure to include a detailed description of the error, end-users will
// rely on it to debug their configuration.
func NewMalformedPayloadError(a ...interface{}) MalformedPayloadError {
	return MalformedPayloadError{messages: []string{fmt.Sprint(a...)}}
}

// MergeMalformedPayload merges a list of MalformedPayloadError objects
func MergeMalformedPayload(errs ...MalformedPayloadError) MalformedPayloadError {
	messages := []string{}
	for _, e := range errs {
		messages = append(messages, e.messages...)
	}
	return MalformedPayloadError{messages: messages}
}

// IsMalformedPayloadError casts error to MalformedPayloadError.
//
// This is mostly because it's hard to remember that error isn't supposed to
// be cast to *MalformedPayloadError.
func IsMalformedPayloadError(err error) (e MalformedPayloadError, ok bool) {
	e, ok = err.(MalformedPayloadError)
	return
}
