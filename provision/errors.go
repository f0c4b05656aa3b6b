package provision

import (
	"errors"
	"fmt"
)

// ErrFeatureNotSupported is a common error that may be returned from
// optional methods to indicate the provisioner implementation doesn't
// support the given feature.
var ErrFeatureNotSupported = errors.New("feature not supported by the current provisioner")

// ErrContractViolation is returned when the provisioner caller has violated
// the contract, such as passing a config that doesn't match the schema.
var ErrContractViolation = errors.New("provisioner interface contract was violated")

// ErrBuilderDiscarded is returned when an EnvironmentBuilder was discarded
// while Provision() was running.
var ErrBuilderDiscarded = errors.New("the EnvironmentBuilder was discarded while Provision() was running")

// ErrEnvironmentTerminated is used to indicate that an execution has already
// terminated and can't be aborted.
var ErrEnvironmentTerminated = errors.New("the execution has terminated")

// ErrExecutionAborted is used to indicate that an execution has been
// aborted.
var ErrExecutionAborted = errors.New("execution of the test command was aborted")

// ErrNamingConflict is used to indicate that a name is already in use.
var ErrNamingConflict = errors.New("conflicting name is already in use")

// An IntegrityError is returned from Provision() when content fetched from a
// substituter doesn't match the public key it was paired with. The job must
// fail, silently falling back to a local rebuild is not an option here.
type IntegrityError struct {
	Substituter string
	PublicKey   string
	Detail      string
}

func (e IntegrityError) Error() string {
	return fmt.Sprintf(
		"content fetched from substituter %s was not signed by the paired key %s: %s",
		e.Substituter, e.PublicKey, e.Detail,
	)
}

// IsIntegrityError casts error to IntegrityError.
//
// This is mostly because it's hard to remember that error isn't supposed to
// be cast to *IntegrityError.
func IsIntegrityError(err error) (e IntegrityError, ok bool) {
	e, ok = err.(IntegrityError)
	return
}
