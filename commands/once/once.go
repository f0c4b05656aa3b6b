// Package once provides the once command, running a single job from an event
// given as a file, without starting a webhook server. Useful for trying out a
// configuration, and for hosts that trigger jobs by other means.
package once

import (
	"fmt"
	"os"

	"github.com/minci/minci-worker/commands"
	"github.com/minci/minci-worker/config"
	"github.com/minci/minci-worker/events"
	"github.com/minci/minci-worker/runtime/monitoring"
	"github.com/minci/minci-worker/worker"
	"github.com/minci/minci-worker/worker/jobrun"
)

func init() {
	commands.Register("once", cmd{})
}

type cmd struct{}

func (cmd) Summary() string {
	return "Run a single job from an event file."
}

func (cmd) Usage() string {
	return `
minci-worker once runs a single job for the event in the given file, then
exits. The exit code is zero if and only if the job succeeded.

Usage:
  minci-worker once <config.yml> <event.json>
`
}

func (cmd) Execute(args map[string]interface{}) bool {
	monitor := monitoring.PreConfig()

	cfg, err := config.LoadFromFile(args["<config.yml>"].(string), monitor)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}

	event, err := events.FromFile(args["<event.json>"].(string))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}

	w, err := worker.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}

	success, reason := w.RunJob(event)
	if reason != jobrun.ReasonNone {
		fmt.Fprintf(os.Stderr, "job resolved exceptionally, reason: %s\n", reason)
		return false
	}
	return success
}
