package jobrun

import "fmt"

// A Reason explains why a job was resolved exceptionally, that is without
// the test command deciding the result.
type Reason int

const (
	// ReasonNone is the zero value, used when the job wasn't resolved
	// exceptionally.
	ReasonNone Reason = iota
	// ReasonMalformedJob is used when the job definition violated its schema.
	ReasonMalformedJob
	// ReasonProvisioningFailed is used when the environment could not be
	// provisioned. This is fatal for the job, no retry is attempted.
	ReasonProvisioningFailed
	// ReasonInternalError is used for unhandled internal errors.
	ReasonInternalError
	// ReasonWorkerShutdown is used when the job was interrupted because the
	// worker is shutting down.
	ReasonWorkerShutdown
	// ReasonCanceled is used when the job was canceled from the outside.
	ReasonCanceled
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMalformedJob:
		return "malformed-job"
	case ReasonProvisioningFailed:
		return "provisioning-failed"
	case ReasonInternalError:
		return "internal-error"
	case ReasonWorkerShutdown:
		return "worker-shutdown"
	case ReasonCanceled:
		return "canceled"
	}
	panic(fmt.Sprintf("Unknown reason '%d' in Reason.String()", r))
}

// An AbortReason specifies the reason a JobRun was aborted.
type AbortReason int

const (
	// WorkerShutdown is used to abort a JobRun because the worker is going to
	// shutdown immediately.
	WorkerShutdown AbortReason = 1 + iota
	// JobCanceled is used to abort a JobRun that was canceled from the
	// outside.
	JobCanceled
)
