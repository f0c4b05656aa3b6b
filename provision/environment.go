package provision

import "github.com/minci/minci-worker/trust"

// An EnvironmentBuilder wraps the state required to provision an Environment
// for one job.
//
// Configuration methods must be called before Provision(); the builder must
// have registered trust settings and credentials with the provisioner before
// it resolves any package. Implementors can be sure a builder is used for a
// single job only, Provision() is called at most once.
//
// All methods of this interface must be thread-safe.
type EnvironmentBuilder interface {
	// SetTrustConfig registers the trusted substituters and their public
	// keys. The config given has been validated by the caller. This method
	// is idempotent, repeated calls simply overwrite the previous settings.
	//
	// Non-fatal errors: ErrFeatureNotSupported
	SetTrustConfig(config trust.Config) error

	// SetAccessToken supplies the opaque token used to authenticate against
	// private package sources. Implementations must not log the token and
	// must not persist it beyond the life-time of this builder and the
	// Environment it produces.
	//
	// Non-fatal errors: ErrFeatureNotSupported
	SetAccessToken(token string) error

	// SetVariable declares an environment variable for command execution.
	//
	// Non-fatal errors: ErrFeatureNotSupported, ErrNamingConflict
	SetVariable(name, value string) error

	// Provision resolves the declared toolchain. A failure here is fatal for
	// the job, no partial environment is usable and no retry is attempted.
	// After a call to this method resources held by the builder are released
	// or transferred to the Environment returned.
	//
	// Non-fatal errors: MalformedPayloadError, IntegrityError,
	// ErrBuilderDiscarded
	Provision() (Environment, error)

	// Discard must free all resources held by the builder, including any
	// credential it was given.
	Discard() error
}

// An Environment is a provisioned toolchain ready to execute a command.
//
// All methods of this interface must be thread-safe.
type Environment interface {
	// Execute starts the given shell command with the provisioned toolchain
	// on PATH and the job's working directory as working directory. It is
	// called exactly once per job.
	//
	// Non-fatal errors: ErrEnvironmentTerminated
	Execute(command string) (Execution, error)

	// Dispose shall release all resources held by the environment, including
	// any settings file carrying credentials.
	Dispose() error
}

// An Execution is a running test command.
//
// All methods of this interface must be thread-safe.
type Execution interface {
	// WaitForResult blocks until the command has terminated and returns its
	// result. This method may be invoked more than once, in all cases it
	// returns the same value.
	//
	// Non-fatal errors: ErrExecutionAborted
	WaitForResult() (ResultSet, error)

	// Abort kills the command. If called before WaitForResult() returns,
	// WaitForResult() must return ErrExecutionAborted. If the command has
	// already terminated, Abort() returns ErrEnvironmentTerminated.
	//
	// Non-fatal errors: ErrEnvironmentTerminated
	Abort() error
}

// A ResultSet is the result of a terminated test command.
type ResultSet interface {
	// Success returns true if the command exited zero.
	Success() bool

	// ExitCode returns the exit status of the command.
	ExitCode() int

	// Dispose shall release all resources held by the result set.
	Dispose() error
}

// EnvironmentBuilderBase implements all optional EnvironmentBuilder methods
// such that they return ErrFeatureNotSupported.
//
// Implementors should embed this struct to ensure source compatibility when
// we add more optional methods.
type EnvironmentBuilderBase struct{}

// SetTrustConfig returns ErrFeatureNotSupported indicating that the feature
// isn't supported.
func (EnvironmentBuilderBase) SetTrustConfig(trust.Config) error {
	return ErrFeatureNotSupported
}

// SetAccessToken returns ErrFeatureNotSupported indicating that the feature
// isn't supported.
func (EnvironmentBuilderBase) SetAccessToken(string) error {
	return ErrFeatureNotSupported
}

// SetVariable returns ErrFeatureNotSupported indicating that the feature
// isn't supported.
func (EnvironmentBuilderBase) SetVariable(string, string) error {
	return ErrFeatureNotSupported
}

// Discard returns nil, indicating that resources have been released.
func (EnvironmentBuilderBase) Discard() error {
	return nil
}

// EnvironmentBase implements optional Environment methods with sane
// defaults.
type EnvironmentBase struct{}

// Dispose returns nil, indicating that resources have been released.
func (EnvironmentBase) Dispose() error {
	return nil
}

// ResultSetBase implements optional ResultSet methods with sane defaults.
type ResultSetBase struct{}

// Dispose returns nil, indicating that resources have been released.
func (ResultSetBase) Dispose() error {
	return nil
}
