package jobrun

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/minci/minci-worker/checks"
	"github.com/minci/minci-worker/provision"
	"github.com/minci/minci-worker/runtime"
	"github.com/minci/minci-worker/runtime/util"
)

// A Stage represents the internal state at which a JobRun has been advanced.
type Stage int

// Stages supported by RunToStage
const (
	StagePrepare Stage = iota
	StageCheckout
	StageConfigure
	StageProvision
	StageTesting
	StageFinished
	stageResolved
)

func (s Stage) String() string {
	switch s {
	case StagePrepare:
		return "prepare"
	case StageCheckout:
		return "checkout"
	case StageConfigure:
		return "configure"
	case StageProvision:
		return "provision"
	case StageTesting:
		return "testing"
	case StageFinished:
		return "finished"
	}
	panic(fmt.Sprintf("Unknown stage '%d' in stage.String()", s))
}

// A Phase is the externally visible state of a job, as reported next to the
// commit. Stages are internal steps; phases are what the outside world sees.
type Phase string

const (
	PhasePending      Phase = "pending"
	PhaseProvisioning Phase = "provisioning"
	PhaseTesting      Phase = "testing"
)

// Phase returns the externally visible phase a stage belongs to.
func (s Stage) Phase() Phase {
	switch s {
	case StagePrepare, StageCheckout, StageConfigure:
		return PhasePending
	case StageProvision:
		return PhaseProvisioning
	case StageTesting, StageFinished:
		return PhaseTesting
	}
	panic(fmt.Sprintf("Unknown stage '%d' in stage.Phase()", s))
}

// errProvisioningFailed is returned from the provision stage after the
// failure has been written to the job log. It is fatal for the job, no retry
// is attempted.
var errProvisioningFailed = errors.New("provisioning failed")

var stages = map[Stage]func(*JobRun) error{
	StagePrepare:   prepare,
	StageCheckout:  doCheckout,
	StageConfigure: configure,
	StageProvision: doProvision,
	StageTesting:   doTesting,
	StageFinished:  finished,
}

func prepare(j *JobRun) error {
	if j.job.Command == "" {
		return runtime.NewMalformedPayloadError("job has no test command")
	}
	if err := j.provisioner.DescriptorSchema().Validate(j.job.Descriptor); err != nil {
		return runtime.NewMalformedPayloadError("environment descriptor schema violation: ", err)
	}
	if err := j.trust.Validate(); err != nil {
		return runtime.NewMalformedPayloadError(err.Error())
	}

	// Job folder holds the checkout and the job log, removed on Dispose
	var err error
	j.jobFolder, err = j.environment.TemporaryStorage.NewFolder()
	if err != nil {
		j.monitor.ReportError(err, "failed to create job folder")
		return runtime.ErrFatalInternalError
	}
	j.logFile, err = j.jobFolder.NewFile()
	if err != nil {
		j.monitor.ReportError(err, "failed to create job log")
		return runtime.ErrFatalInternalError
	}
	j.workDir = filepath.Join(j.jobFolder.Path(), "src")

	var berr error
	util.Parallel(func() {
		// Let the commit show up as pending as early as possible. A failed
		// report is not fatal, the final state report may still get through.
		if rerr := j.reporter.ReportState(j.event, checks.StatePending, "job accepted"); rerr != nil {
			j.monitor.Warn("failed to report pending state: ", rerr)
		}
	}, func() {
		j.builder, berr = j.provisioner.NewEnvironmentBuilder(provision.BuilderOptions{
			Monitor:    j.monitor.WithPrefix("provisioner").WithTag("event", j.event.ID),
			Descriptor: j.job.Descriptor,
			WorkDir:    j.workDir,
			LogDrain:   j.logFile,
		})
	})
	return berr
}

func doCheckout(j *JobRun) error {
	j.log("fetching %s at %s", j.event.Repository, j.event.Commit)
	return j.checkout.Fetch(j.event, j.workDir)
}

func configure(j *JobRun) error {
	// Trust settings and credentials must reach the provisioner before it
	// resolves any package
	if err := j.builder.SetTrustConfig(j.trust); err != nil {
		if err == provision.ErrFeatureNotSupported && j.trust.IsEmpty() {
			// nothing to configure, so nothing is lost
		} else {
			return err
		}
	}
	if j.accessToken != "" {
		if err := j.builder.SetAccessToken(j.accessToken); err != nil {
			return err
		}
	}

	variables := map[string]string{
		"CI":               "true",
		"MINCI_EVENT":      string(j.event.Kind),
		"MINCI_COMMIT":     j.event.Commit,
		"MINCI_REF":        j.event.Ref,
		"MINCI_REPOSITORY": j.event.Repository,
	}
	for name, value := range variables {
		err := j.builder.SetVariable(name, value)
		if err == provision.ErrFeatureNotSupported {
			break // variables are a convenience, not a requirement
		}
		if err != nil && err != provision.ErrNamingConflict {
			return err
		}
	}
	return nil
}

func doProvision(j *JobRun) error {
	j.setPhase(PhaseProvisioning)
	j.log("provisioning environment")

	env, err := j.builder.Provision()
	j.builder = nil
	if err != nil {
		if e, ok := provision.IsIntegrityError(err); ok {
			j.log("integrity violation from substituter '%s' (key '%s'): %s",
				e.Substituter, e.PublicKey, e.Detail)
			return errProvisioningFailed
		}
		if _, ok := runtime.IsMalformedPayloadError(err); ok {
			return err
		}
		if err == runtime.ErrFatalInternalError || err == runtime.ErrNonFatalInternalError {
			return err
		}
		j.log("provisioning failed: %s", err)
		return errProvisioningFailed
	}
	j.provEnv = env
	return nil
}

func doTesting(j *JobRun) error {
	j.setPhase(PhaseTesting)
	j.log("running: %s", j.job.Command)

	x, err := j.provEnv.Execute(j.job.Command)
	if err != nil {
		return err
	}

	// Publish the execution so Abort() can interrupt it, and handle an abort
	// that raced with Execute()
	j.m.Lock()
	j.execution = x
	aborted := j.stage == stageResolved
	j.m.Unlock()
	if aborted {
		_ = x.Abort()
	}

	j.resultSet, err = x.WaitForResult()
	j.m.Lock()
	j.execution = nil
	j.m.Unlock()
	if err == provision.ErrExecutionAborted {
		// resolution was already decided by Abort()
		return nil
	}
	if err != nil {
		return err
	}
	j.success = j.resultSet.Success()
	return nil
}

func finished(j *JobRun) error {
	if j.success {
		j.log("result: success")
		return j.reporter.ReportState(j.event, checks.StateSuccess, "tests passed")
	}
	j.log("result: failure (exit code %d)", j.resultSet.ExitCode())
	return j.reporter.ReportState(j.event, checks.StateFailure,
		fmt.Sprintf("tests failed with exit code %d", j.resultSet.ExitCode()))
}
