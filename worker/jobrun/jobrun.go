// Package jobrun advances a single job through its life-cycle: a job is
// pending until its environment has been provisioned, testing until its
// command has terminated, and resolved succeeded or failed by the command's
// exit status. Stages run strictly in order, nothing overlaps within a job.
package jobrun

import (
	"fmt"
	"sync"

	"github.com/minci/minci-worker/checkout"
	"github.com/minci/minci-worker/checks"
	"github.com/minci/minci-worker/events"
	"github.com/minci/minci-worker/provision"
	"github.com/minci/minci-worker/runtime"
	"github.com/minci/minci-worker/runtime/atomics"
	"github.com/minci/minci-worker/trust"
)

var debug = runtime.Debug("jobrun")

// A Job is the static definition of what to run: an environment descriptor
// for the provisioner and a single shell command deciding the result.
type Job struct {
	Descriptor map[string]interface{}
	Command    string
}

// Options required to create a JobRun.
type Options struct {
	Environment runtime.Environment
	Provisioner provision.Provisioner
	Checkout    *checkout.Client
	Reporter    checks.Reporter
	Monitor     runtime.Monitor
	Event       events.Event
	Job         Job
	Trust       trust.Config
	AccessToken string
}

func (o Options) mustBeValid() {
	if o.Provisioner == nil {
		panic("jobrun.Options must have a Provisioner")
	}
	if o.Checkout == nil {
		panic("jobrun.Options must have a Checkout client")
	}
	if o.Reporter == nil {
		panic("jobrun.Options must have a Reporter, use checks.NullReporter{}")
	}
	if o.Monitor == nil {
		panic("jobrun.Options must have a Monitor")
	}
	if o.Environment.TemporaryStorage == nil {
		panic("jobrun.Options must have an Environment with TemporaryStorage")
	}
}

// A JobRun holds the state of a running job.
//
// Methods on this object are not thread-safe, with the exception of Abort()
// which is intended to be called from other threads.
type JobRun struct {
	// Constants
	environment runtime.Environment
	provisioner provision.Provisioner
	checkout    *checkout.Client
	reporter    checks.Reporter
	monitor     runtime.Monitor
	event       events.Event
	job         Job
	trust       trust.Config
	accessToken string

	// State
	m       sync.Mutex // lock protecting state variables
	c       sync.Cond  // Broadcast when state changes
	running bool       // true, when a thread is advancing the stage
	stage   Stage      // next stage to be run
	success bool       // true, if the test command exited zero
	phase   Phase      // phase in which failure happened, if any
	reason  Reason     // reason, if resolved exceptionally

	// Final error to return from Dispose()
	fatalErr    atomics.Bool // If we've seen ErrFatalInternalError
	nonFatalErr atomics.Bool // If we've seen ErrNonFatalInternalError

	// Flow state to be discarded at end if not nil
	jobFolder runtime.TemporaryFolder
	logFile   runtime.TemporaryFile
	workDir   string
	builder   provision.EnvironmentBuilder
	provEnv   provision.Environment
	execution provision.Execution
	resultSet provision.ResultSet
}

// New returns a new JobRun
func New(options Options) *JobRun {
	options.mustBeValid()

	j := &JobRun{
		environment: options.Environment,
		provisioner: options.Provisioner,
		checkout:    options.Checkout,
		reporter:    options.Reporter,
		monitor:     options.Monitor,
		event:       options.Event,
		job:         options.Job,
		trust:       options.Trust,
		accessToken: options.AccessToken,
		phase:       PhasePending,
	}
	j.c.L = &j.m
	return j
}

// Abort will interrupt job execution.
func (j *JobRun) Abort(reason AbortReason) {
	j.m.Lock()
	defer j.m.Unlock()

	// If we are already resolved, we won't change the resolution
	if j.stage == stageResolved {
		debug("ignoring JobRun.Abort() as JobRun is resolved")
		return
	}

	// Resolve this jobrun
	j.stage = stageResolved
	j.success = false

	switch reason {
	case WorkerShutdown:
		j.reason = ReasonWorkerShutdown
	case JobCanceled:
		j.reason = ReasonCanceled
	default:
		panic(fmt.Sprintf("Unknown AbortReason: %d", reason))
	}

	// Abort a running test command, if any
	if j.execution != nil {
		execution := j.execution
		go func() {
			_ = execution.Abort()
		}()
	}

	// Inform anyone waiting for resolution
	j.c.Broadcast()
}

// RunToStage will run all stages up-to and including the given stage.
//
// This will not rerun previous stages, the JobRun structure always knows what
// stage it has executed. This is only useful for testing, the WaitForResult()
// method will run all stages before returning.
func (j *JobRun) RunToStage(targetStage Stage) {
	j.m.Lock()
	defer j.m.Unlock()

	if targetStage > StageFinished {
		panic("RunToStage: stage > StageFinished is not allowed")
	}

	// We'll have no more than one thread running stages at any given time, so
	// we wait till running is false
	for j.running {
		// if j.stage has advanced beyond stage, then we're done
		if j.stage > targetStage {
			return
		}
		j.c.Wait() // wait for state change
	}

	j.running = true // set running while we're inside the for-loop
	for j.stage <= targetStage {

		// Unlock so abort can happen while we're running
		stage := j.stage // take stage first, so we don't race
		j.m.Unlock()
		monitor := j.monitor.WithTag("stage", stage.String())
		monitor.Debug("running stage: ", stage.String())
		var err error
		incidentID := monitor.CapturePanic(func() {
			err = stages[stage](j)
		})
		j.m.Lock()

		// Handle errors
		if err != nil || incidentID != "" {
			reason := ReasonInternalError
			if e, ok := runtime.IsMalformedPayloadError(err); ok {
				for _, m := range e.Messages() {
					j.log("job definition error: %s", m)
				}
				reason = ReasonMalformedJob
			} else if err == errProvisioningFailed {
				reason = ReasonProvisioningFailed
			} else if err == runtime.ErrNonFatalInternalError {
				j.nonFatalErr.Set(true)
			} else if err == runtime.ErrFatalInternalError {
				j.fatalErr.Set(true)
			} else if err != nil {
				incidentID = monitor.ReportError(err)
			}
			if incidentID != "" {
				j.fatalErr.Set(true)
				j.log("unhandled worker error encountered incidentID=%s", incidentID)
			}
			// Never change the resolution, if we've been aborted
			if j.stage != stageResolved {
				j.stage = stageResolved
				j.success = false
				j.reason = reason
			}
		}

		// Never advance beyond stageResolved (could otherwise happen if abort
		// occurs while a stage is running)
		if j.stage < stageResolved {
			j.stage++
		}
		j.c.Broadcast()
	}

	j.running = false
	j.c.Broadcast()
}

// WaitForResult will run all stages up to and including StageFinished, before
// returning the resolution of the given JobRun.
//
// A job succeeded if and only if success is true. If reason is not ReasonNone
// the job was resolved without the test command deciding the result.
func (j *JobRun) WaitForResult() (success bool, reason Reason) {
	j.RunToStage(StageFinished)

	j.m.Lock()
	success = j.success
	reason = j.reason
	j.m.Unlock()

	return
}

// Phase returns the externally visible phase the job has reached. For a
// resolved job that failed, this is the phase the failure happened in.
func (j *JobRun) Phase() Phase {
	j.m.Lock()
	defer j.m.Unlock()
	return j.phase
}

// setPhase records the phase a stage has entered. Stages run with j.m
// unlocked, so the write has to take the lock for Phase() to be safe from
// other threads.
func (j *JobRun) setPhase(phase Phase) {
	j.m.Lock()
	defer j.m.Unlock()
	j.phase = phase
}

// log writes a line to the job log, if we have one.
func (j *JobRun) log(format string, args ...interface{}) {
	if j.logFile != nil {
		fmt.Fprintf(j.logFile, format+"\n", args...)
	}
}

func (j *JobRun) capturePanicAndError(stage string, fn func() error) {
	monitor := j.monitor.WithTag("stage", stage)
	var err error
	incidentID := monitor.CapturePanic(func() {
		err = fn()
	})
	if incidentID != "" {
		err = runtime.ErrFatalInternalError
	}
	switch err {
	case runtime.ErrFatalInternalError:
		j.fatalErr.Set(true)
	case runtime.ErrNonFatalInternalError:
		j.nonFatalErr.Set(true)
	case nil:
		return
	default:
		j.fatalErr.Set(true)
		monitor.ReportError(err, "unhandled error in stage: ", stage)
	}
}

// Dispose will report the final state if the job was resolved exceptionally,
// and dispose of all resources.
//
// If there was an unhandled error Dispose() returns either
// runtime.ErrFatalInternalError or runtime.ErrNonFatalInternalError.
// Any other error is reported/logged and runtime.ErrFatalInternalError is
// returned instead.
func (j *JobRun) Dispose() error {
	j.monitor.WithTag("stage", "dispose").Debug("running stage: dispose")

	// The finished stage never ran if we were resolved exceptionally, so the
	// final state still has to be reported
	if j.reason != ReasonNone {
		state := checks.StateError
		description := "job aborted: " + j.reason.String()
		switch j.reason {
		case ReasonProvisioningFailed:
			// a failed provisioning fails the job, it is not an infra hiccup
			state = checks.StateFailure
			description = "environment provisioning failed"
		case ReasonMalformedJob:
			description = "job definition is malformed"
		}
		j.capturePanicAndError("dispose", func() error {
			return j.reporter.ReportState(j.event, state, description)
		})
	}

	if j.builder != nil {
		debug("discarding EnvironmentBuilder")
		j.capturePanicAndError("dispose", j.builder.Discard)
		j.builder = nil
	}

	if j.execution != nil && j.resultSet == nil {
		debug("aborting Execution")
		j.capturePanicAndError("dispose", func() error {
			err := j.execution.Abort()
			if err == provision.ErrEnvironmentTerminated {
				// The command terminated before we could abort it, collect
				// the result set so we can dispose of it below
				j.resultSet, err = j.execution.WaitForResult()
				if err == provision.ErrExecutionAborted {
					err = nil
				}
			}
			return err
		})
		j.execution = nil
	}

	if j.resultSet != nil {
		debug("disposing ResultSet")
		j.capturePanicAndError("dispose", j.resultSet.Dispose)
		j.resultSet = nil
	}

	if j.provEnv != nil {
		debug("disposing Environment")
		j.capturePanicAndError("dispose", j.provEnv.Dispose)
		j.provEnv = nil
	}

	if j.logFile != nil {
		debug("closing job log")
		j.capturePanicAndError("dispose", j.logFile.Close)
		j.logFile = nil
	}

	if j.jobFolder != nil {
		debug("removing job folder")
		j.capturePanicAndError("dispose", j.jobFolder.Remove)
		j.jobFolder = nil
	}

	// We report any errors, so they'll be in sentry and logs, hence, we just
	// notify caller about the fact that there was an unhandled error.
	if j.fatalErr.Get() {
		return runtime.ErrFatalInternalError
	}
	if j.nonFatalErr.Get() {
		return runtime.ErrNonFatalInternalError
	}
	return nil
}
