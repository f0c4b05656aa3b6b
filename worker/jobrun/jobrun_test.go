package jobrun

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minci/minci-worker/checkout"
	"github.com/minci/minci-worker/checks"
	"github.com/minci/minci-worker/events"
	"github.com/minci/minci-worker/provision"
	_ "github.com/minci/minci-worker/provision/mock"
	"github.com/minci/minci-worker/runtime"
	"github.com/minci/minci-worker/runtime/mocks"
	"github.com/minci/minci-worker/trust"
)

// recordingReporter records reported states so tests can assert on them.
type recordingReporter struct {
	m      sync.Mutex
	states []checks.State
}

func (r *recordingReporter) ReportState(event events.Event, state checks.State, description string) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.states = append(r.states, state)
	return nil
}

func (r *recordingReporter) States() []checks.State {
	r.m.Lock()
	defer r.m.Unlock()
	return append([]checks.State{}, r.states...)
}

var testEvent = events.Event{
	ID:            "delivery-1",
	Kind:          events.KindPush,
	RepositoryURL: "https://github.com/example/project.git",
	Repository:    "example/project",
	Commit:        "0123456789abcdef0123456789abcdef01234567",
	Ref:           "refs/heads/main",
}

func TestJobRun(t *testing.T) {
	storage := runtime.NewTemporaryTestFolderOrPanic()
	defer storage.Remove()
	monitor := mocks.NewMockMonitor(true)
	env := runtime.Environment{
		Monitor:          monitor,
		TemporaryStorage: storage,
	}

	provisioner, err := provision.Providers()["mock"].NewProvisioner(provision.Options{
		Environment: &env,
		Monitor:     monitor.WithPrefix("provisioner"),
	})
	require.NoError(t, err)

	newOptions := func(reporter checks.Reporter, outcome, command string) Options {
		return Options{
			Environment: env,
			Provisioner: provisioner,
			// "true" swallows the git arguments, so checkout always succeeds
			Checkout: checkout.New(checkout.Options{
				Command: "true",
				Monitor: monitor.WithPrefix("checkout"),
			}),
			Reporter: reporter,
			Monitor:  monitor.WithPrefix("jobrun"),
			Event:    testEvent,
			Job: Job{
				Descriptor: map[string]interface{}{"provision": outcome},
				Command:    command,
			},
			Trust: trust.Config{},
		}
	}

	t.Run("success", func(t *testing.T) {
		reporter := &recordingReporter{}
		run := New(newOptions(reporter, "succeed", "true"))
		success, reason := run.WaitForResult()
		assert.True(t, success, "expected success to be true")
		assert.Equal(t, ReasonNone, reason)
		assert.Equal(t, PhaseTesting, run.Phase())

		require.NoError(t, run.Dispose(), "run.Dispose() returned an error")
		assert.Equal(t, []checks.State{checks.StatePending, checks.StateSuccess}, reporter.States())
	})

	t.Run("failed command", func(t *testing.T) {
		reporter := &recordingReporter{}
		run := New(newOptions(reporter, "succeed", "make fail"))
		success, reason := run.WaitForResult()
		assert.False(t, success, "expected success to be false")
		assert.Equal(t, ReasonNone, reason)

		require.NoError(t, run.Dispose(), "run.Dispose() returned an error")
		assert.Equal(t, []checks.State{checks.StatePending, checks.StateFailure}, reporter.States())
	})

	t.Run("malformed descriptor", func(t *testing.T) {
		reporter := &recordingReporter{}
		run := New(newOptions(reporter, "bogus", "true"))
		success, reason := run.WaitForResult()
		assert.False(t, success, "expected success to be false")
		assert.Equal(t, ReasonMalformedJob, reason)
		assert.Equal(t, PhasePending, run.Phase())

		require.NoError(t, run.Dispose(), "run.Dispose() returned an error")
		assert.Equal(t, []checks.State{checks.StateError}, reporter.States())
	})

	t.Run("missing command", func(t *testing.T) {
		reporter := &recordingReporter{}
		run := New(newOptions(reporter, "succeed", ""))
		success, reason := run.WaitForResult()
		assert.False(t, success, "expected success to be false")
		assert.Equal(t, ReasonMalformedJob, reason)

		require.NoError(t, run.Dispose(), "run.Dispose() returned an error")
	})

	t.Run("integrity error", func(t *testing.T) {
		reporter := &recordingReporter{}
		run := New(newOptions(reporter, "integrity-error", "true"))
		success, reason := run.WaitForResult()
		assert.False(t, success, "expected success to be false")
		assert.Equal(t, ReasonProvisioningFailed, reason)
		assert.Equal(t, PhaseProvisioning, run.Phase())

		// the violation must be explained in the job log, naming the
		// substituter and the key the content failed to verify against
		_, err := run.logFile.Seek(0, io.SeekStart)
		require.NoError(t, err)
		log, err := io.ReadAll(run.logFile)
		require.NoError(t, err)
		assert.Contains(t, string(log), "integrity violation")
		assert.Contains(t, string(log), "https://cache.example.com")
		assert.Contains(t, string(log), "cache.example.com-1:deadbeef")

		require.NoError(t, run.Dispose(), "run.Dispose() returned an error")
		assert.Equal(t, []checks.State{checks.StatePending, checks.StateFailure}, reporter.States())
	})

	t.Run("provisioning internal error", func(t *testing.T) {
		// the monitor must tolerate the reported error in this case
		quietMonitor := mocks.NewMockMonitor(false)
		quietEnv := env
		quietEnv.Monitor = quietMonitor
		reporter := &recordingReporter{}
		options := newOptions(reporter, "fail", "true")
		options.Environment = quietEnv
		options.Monitor = quietMonitor.WithPrefix("jobrun")

		run := New(options)
		success, reason := run.WaitForResult()
		assert.False(t, success, "expected success to be false")
		assert.Equal(t, ReasonInternalError, reason)

		err := run.Dispose()
		require.Equal(t, runtime.ErrNonFatalInternalError, err, "expected non-fatal error")
	})

	t.Run("abort before start", func(t *testing.T) {
		reporter := &recordingReporter{}
		run := New(newOptions(reporter, "succeed", "true"))
		run.Abort(WorkerShutdown)
		success, reason := run.WaitForResult()
		assert.False(t, success, "expected success to be false")
		assert.Equal(t, ReasonWorkerShutdown, reason)

		require.NoError(t, run.Dispose(), "run.Dispose() returned an error")
		assert.Equal(t, []checks.State{checks.StateError}, reporter.States())
	})

	t.Run("phase is observable while running", func(t *testing.T) {
		reporter := &recordingReporter{}
		run := New(newOptions(reporter, "succeed", "true"))

		// Phase() may be consulted from other threads while stages advance
		stop := make(chan struct{})
		observed := make(chan struct{})
		go func() {
			defer close(observed)
			for {
				select {
				case <-stop:
					return
				default:
					run.Phase()
				}
			}
		}()

		success, reason := run.WaitForResult()
		close(stop)
		<-observed
		assert.True(t, success, "expected success to be true")
		assert.Equal(t, ReasonNone, reason)
		assert.Equal(t, PhaseTesting, run.Phase())

		require.NoError(t, run.Dispose(), "run.Dispose() returned an error")
	})

	t.Run("run to stage is idempotent", func(t *testing.T) {
		reporter := &recordingReporter{}
		run := New(newOptions(reporter, "succeed", "true"))
		run.RunToStage(StageProvision)
		run.RunToStage(StageProvision)
		success, reason := run.WaitForResult()
		assert.True(t, success, "expected success to be true")
		assert.Equal(t, ReasonNone, reason)

		require.NoError(t, run.Dispose(), "run.Dispose() returned an error")
	})
}
