package nixprovisioner

import (
	"os/exec"

	"github.com/pkg/errors"

	"github.com/minci/minci-worker/provision"
	"github.com/minci/minci-worker/runtime"
	"github.com/minci/minci-worker/runtime/atomics"
)

type environment struct {
	provision.EnvironmentBase
	builder *environmentBuilder
	monitor runtime.Monitor
}

func (e *environment) Execute(command string) (provision.Execution, error) {
	debug("executing command in '%s': %s", e.builder.descriptor.Environment, command)
	cmd := exec.Command(e.builder.provisioner.config.Command, e.builder.runArgs(command)...)
	cmd.Dir = e.builder.workDir
	cmd.Env = e.builder.processEnv()
	cmd.Stdout = e.builder.logDrain
	cmd.Stderr = e.builder.logDrain

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start test command")
	}

	x := &execution{
		cmd:     cmd,
		monitor: e.monitor,
	}
	go x.run()
	return x, nil
}

func (e *environment) Dispose() error {
	return e.builder.removeSettings()
}

type execution struct {
	cmd         *exec.Cmd
	monitor     runtime.Monitor
	resolve     atomics.Once
	resultSet   provision.ResultSet
	resultError error
	resultAbort error
}

func (x *execution) run() {
	err := x.cmd.Wait()

	exitCode := 0
	if exitError, ok := err.(*exec.ExitError); ok {
		exitCode = exitError.ExitCode()
	} else if err != nil {
		// the command didn't run in a controlled manner
		x.monitor.Error("test command execution failed, error: ", err)
		exitCode = -1
	}

	x.resolve.Do(func() {
		x.resultSet = &resultSet{exitCode: exitCode}
		x.resultAbort = provision.ErrEnvironmentTerminated
	})
}

func (x *execution) WaitForResult() (provision.ResultSet, error) {
	x.resolve.Wait()
	return x.resultSet, x.resultError
}

func (x *execution) Abort() error {
	x.resolve.Do(func() {
		// Discard error from Kill() as we're racing with termination
		_ = x.cmd.Process.Kill()
		x.resultError = provision.ErrExecutionAborted
	})
	x.resolve.Wait()
	return x.resultAbort
}

type resultSet struct {
	provision.ResultSetBase
	exitCode int
}

func (r *resultSet) Success() bool {
	return r.exitCode == 0
}

func (r *resultSet) ExitCode() int {
	return r.exitCode
}
