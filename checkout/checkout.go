// Package checkout fetches the source tree a job runs against.
//
// A job always runs against one commit, so the checkout is shallow: we
// initialize an empty repository, fetch exactly the commit the triggering
// event named, and check it out detached.
package checkout

import (
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/minci/minci-worker/events"
	"github.com/minci/minci-worker/runtime"
)

type Options struct {
	// Command is the git binary to invoke, defaults to "git" from PATH.
	Command string
	Monitor runtime.Monitor
	// LogDrain receives the combined output of git subprocesses.
	LogDrain io.Writer
}

// A Client fetches source trees with git.
type Client struct {
	command  string
	monitor  runtime.Monitor
	logDrain io.Writer
}

func New(options Options) *Client {
	command := options.Command
	if command == "" {
		command = "git"
	}
	return &Client{
		command:  command,
		monitor:  options.Monitor,
		logDrain: options.LogDrain,
	}
}

var debug = runtime.Debug("checkout")

// Fetch populates dir with the repository state for event. The directory is
// created if it doesn't exist.
func (c *Client) Fetch(event events.Event, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create checkout directory")
	}

	debug("fetching %s at %s into %s", event.RepositoryURL, event.Commit, dir)
	for _, args := range c.fetchArgs(event) {
		if err := c.run(dir, args); err != nil {
			return err
		}
	}
	return nil
}

// fetchArgs returns the git invocations, in order, that populate a checkout
// directory with the commit named by event.
func (c *Client) fetchArgs(event events.Event) [][]string {
	return [][]string{
		{"init", "--quiet"},
		{"remote", "add", "origin", event.RepositoryURL},
		{"fetch", "--quiet", "--depth", "1", "origin", event.Commit},
		{"checkout", "--quiet", "--detach", event.Commit},
	}
}

func (c *Client) run(dir string, args []string) error {
	cmd := exec.Command(c.command, args...)
	cmd.Dir = dir
	cmd.Stdout = c.logDrain
	cmd.Stderr = c.logDrain
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "git %s failed", args[0])
	}
	return nil
}
