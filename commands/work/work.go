// Package work provides the work command, starting the worker's event loop.
package work

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/minci/minci-worker/commands"
	"github.com/minci/minci-worker/config"
	"github.com/minci/minci-worker/runtime/monitoring"
	"github.com/minci/minci-worker/worker"
)

func init() {
	commands.Register("work", cmd{})
}

type cmd struct{}

func (cmd) Summary() string {
	return "Start the worker."
}

func (cmd) Usage() string {
	return `Usage:
  minci-worker work <config.yml>
`
}

func (cmd) Execute(args map[string]interface{}) bool {
	monitor := monitoring.PreConfig()

	cfg, err := config.LoadFromFile(args["<config.yml>"].(string), monitor)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}

	w, err := worker.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()

	// First signal stops accepting events and lets running jobs finish, a
	// second signal aborts running jobs.
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case <-c:
		w.GracefulStop()
		select {
		case <-c:
			signal.Stop(c)
			w.ImmediateStop()
			<-done
		case <-done:
		}
	case <-done:
	}

	return true
}
