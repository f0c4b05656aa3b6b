// Package worker ties the subsystems together: it listens for events, and
// for every accepted event runs one job through provisioning and testing.
// Jobs share no state, they run concurrently up to the configured
// concurrency, while each job remains strictly sequential internally.
package worker

import (
	"fmt"
	"os"
	"sync"

	schematypes "github.com/taskcluster/go-schematypes"

	"github.com/minci/minci-worker/checkout"
	"github.com/minci/minci-worker/checks"
	"github.com/minci/minci-worker/events"
	"github.com/minci/minci-worker/provision"
	"github.com/minci/minci-worker/runtime"
	"github.com/minci/minci-worker/runtime/atomics"
	"github.com/minci/minci-worker/runtime/monitoring"
	"github.com/minci/minci-worker/trust"
	"github.com/minci/minci-worker/worker/jobrun"
)

// Worker is the center of minci-worker and is responsible for accepting
// events and running one job per event.
type Worker struct {
	monitor     runtime.Monitor
	env         *runtime.Environment
	provisioner provision.Provisioner
	checkout    *checkout.Client
	reporter    checks.Reporter
	server      *events.WebhookServer
	job         jobrun.Job
	trustConfig trust.Config
	accessToken string
	concurrency int

	done     chan struct{}
	stopOnce atomics.Once
	aborted  atomics.Bool

	m          sync.Mutex
	activeRuns map[*jobrun.JobRun]struct{}
}

// New will create a worker given configuration matching the schema from
// ConfigSchema().
func New(config interface{}) (*Worker, error) {
	// Validate and map configuration to c
	var c configType
	if err := schematypes.MustMap(ConfigSchema(), config, &c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %s", err)
	}

	// The trust configuration is structurally valid per schema, but the
	// positional pairing can still be broken
	if err := c.Trust.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %s", err)
	}

	// Create temporary folder
	if err := os.RemoveAll(c.TemporaryFolder); err != nil {
		return nil, fmt.Errorf("failed to remove temporaryFolder: %s, error: %s",
			c.TemporaryFolder, err)
	}
	tempStorage, err := runtime.NewTemporaryStorage(c.TemporaryFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary folder, error: %s", err)
	}

	// Setup monitor
	monitor, err := monitoring.New(c.Monitor)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize monitor, error: %s", err)
	}

	// Create environment
	env := &runtime.Environment{
		TemporaryStorage: tempStorage,
		Monitor:          monitor,
	}

	// Ensure that provisioner configuration was provided for the selected
	// provisioner
	if _, ok := c.ProvisionerConfigs[c.Provisioner]; !ok {
		return nil, fmt.Errorf("invalid configuration: the key 'provisioners.%s' must "+
			"be specified when provisioner '%s' is selected", c.Provisioner, c.Provisioner)
	}

	// Find provisioner provider (schema should ensure it exists)
	provider := provision.Providers()[c.Provisioner]
	provisioner, err := provider.NewProvisioner(provision.Options{
		Environment: env,
		Monitor:     env.Monitor.WithPrefix("provisioner").WithTag("provisioner", c.Provisioner),
		Config:      c.ProvisionerConfigs[c.Provisioner],
	})
	if err != nil {
		return nil, fmt.Errorf("provisioner initialization failed, error: %s", err)
	}

	var reporter checks.Reporter = checks.NullReporter{}
	if c.Checks.APIBase != "" {
		reporter = checks.NewHTTPReporter(checks.HTTPReporterOptions{
			APIBase:     c.Checks.APIBase,
			Context:     c.Checks.Context,
			AccessToken: c.Checks.AccessToken,
			Monitor:     env.Monitor.WithPrefix("checks"),
		})
	}

	return &Worker{
		monitor:     env.Monitor.WithPrefix("worker"),
		env:         env,
		provisioner: provisioner,
		checkout: checkout.New(checkout.Options{
			Command: c.Checkout.Command,
			Monitor: env.Monitor.WithPrefix("checkout"),
		}),
		reporter:    reporter,
		server:      events.NewWebhookServer(c.Server.Address, c.Server.Secret, env.Monitor.WithPrefix("webhook")),
		job:         jobrun.Job{Descriptor: c.Job.Descriptor, Command: c.Job.Command},
		trustConfig: c.Trust,
		accessToken: c.Credentials.AccessToken,
		concurrency: c.WorkerOptions.Concurrency,
		done:        make(chan struct{}),
		activeRuns:  make(map[*jobrun.JobRun]struct{}),
	}, nil
}

// Start will begin accepting events and running jobs, blocking until the
// worker is stopped.
func (w *Worker) Start() {
	w.monitor.Info("worker starting up")

	// Ensure that server is stopping gracefully
	serverStopped := atomics.NewBool(false)
	go func() {
		err := w.server.ListenAndServe()
		if err != nil && !serverStopped.Get() {
			w.monitor.Errorf("ListenAndServe failed for webhook server, error: %s", err)
		}
	}()

	// Jobs run concurrently up to concurrency, nothing is shared between them
	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup

loop:
	for {
		select {
		case event, ok := <-w.server.Events():
			if !ok {
				break loop
			}
			sem <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				w.runJob(event)
			}()
		case <-w.done:
			break loop
		}
	}

	serverStopped.Set(true)
	w.server.Stop()

	if w.aborted.Get() {
		w.abortActiveRuns()
	}
	wg.Wait()
	w.monitor.Info("worker stopped")
}

// RunJob runs a single job for the given event, blocking until it is
// resolved. This is used for every accepted event, and exposed for running
// one-off jobs without a webhook server.
func (w *Worker) RunJob(event events.Event) (success bool, reason jobrun.Reason) {
	monitor := w.monitor.WithPrefix("jobrun").WithTag("event", event.ID)

	run := jobrun.New(jobrun.Options{
		Environment: *w.env,
		Provisioner: w.provisioner,
		Checkout:    w.checkout,
		Reporter:    w.reporter,
		Monitor:     monitor,
		Event:       event,
		Job:         w.job,
		Trust:       w.trustConfig,
		AccessToken: w.accessToken,
	})

	w.m.Lock()
	w.activeRuns[run] = struct{}{}
	w.m.Unlock()
	defer func() {
		w.m.Lock()
		delete(w.activeRuns, run)
		w.m.Unlock()
	}()

	success, reason = run.WaitForResult()
	if reason == jobrun.ReasonNone {
		monitor.Info("job resolved, success: ", success)
	} else {
		monitor.Info("job resolved exceptionally, reason: ", reason.String())
	}

	switch run.Dispose() {
	case runtime.ErrFatalInternalError:
		// The error has been reported, the worker is in an unknown state and
		// must not pick up further jobs
		w.monitor.Error("fatal internal error, stopping worker")
		w.ImmediateStop()
	case runtime.ErrNonFatalInternalError:
		w.monitor.Warn("non-fatal internal error disposing job for event: ", event.ID)
	}
	return
}

func (w *Worker) runJob(event events.Event) {
	w.RunJob(event)
}

func (w *Worker) abortActiveRuns() {
	w.m.Lock()
	defer w.m.Unlock()
	for run := range w.activeRuns {
		run.Abort(jobrun.WorkerShutdown)
	}
}

// ImmediateStop will stop the worker, aborting any running jobs.
func (w *Worker) ImmediateStop() {
	w.stopOnce.Do(func() {
		w.aborted.Set(true)
		close(w.done)
	})
}

// GracefulStop will stop accepting events and allow running jobs to finish,
// before stopping the worker.
func (w *Worker) GracefulStop() {
	w.server.Stop()
}

// DescriptorSchema returns the environment descriptor schema for the
// selected provisioner.
func (w *Worker) DescriptorSchema() schematypes.Object {
	return w.provisioner.DescriptorSchema()
}
