package nixprovisioner

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/minci/minci-worker/provision"
	"github.com/minci/minci-worker/runtime"
	"github.com/minci/minci-worker/trust"
)

const settingsFileName = "provisioner.conf"

type environmentBuilder struct {
	provision.EnvironmentBuilderBase
	provisioner *provisioner
	descriptor  descriptorType
	workDir     string
	logDrain    io.Writer
	monitor     runtime.Monitor

	m           sync.Mutex
	trustConfig trust.Config
	accessToken string
	variables   map[string]string
	discarded   bool
	provisioned bool
}

func (b *environmentBuilder) SetTrustConfig(config trust.Config) error {
	b.m.Lock()
	defer b.m.Unlock()
	b.trustConfig = config
	return nil
}

func (b *environmentBuilder) SetAccessToken(token string) error {
	b.m.Lock()
	defer b.m.Unlock()
	b.accessToken = token
	return nil
}

func (b *environmentBuilder) SetVariable(name, value string) error {
	b.m.Lock()
	defer b.m.Unlock()
	if _, ok := b.variables[name]; ok {
		return provision.ErrNamingConflict
	}
	b.variables[name] = value
	return nil
}

// settingsFilePath is where the per-job provisioner settings live. The file
// may carry the access token, so it is created 0600 and removed on Dispose.
func (b *environmentBuilder) settingsFilePath() string {
	return filepath.Join(b.workDir, settingsFileName)
}

func (b *environmentBuilder) renderSettings() string {
	var s strings.Builder
	s.WriteString("experimental-features = ")
	s.WriteString(b.provisioner.config.ExperimentalFeatures)
	s.WriteString("\n")
	s.WriteString(b.trustConfig.Render())
	if b.accessToken != "" {
		s.WriteString("access-tokens = github.com=")
		s.WriteString(b.accessToken)
		s.WriteString("\n")
	}
	return s.String()
}

func (b *environmentBuilder) writeSettings() error {
	return os.WriteFile(b.settingsFilePath(), []byte(b.renderSettings()), 0600)
}

// provisionArgs returns the arguments used to realize the declared
// toolchain.
func (b *environmentBuilder) provisionArgs() []string {
	args := []string{"build", "--no-link", b.descriptor.Environment}
	if b.descriptor.Impure {
		args = append(args, "--impure")
	}
	return args
}

// runArgs returns the arguments used to execute command inside the
// provisioned environment.
func (b *environmentBuilder) runArgs(command string) []string {
	args := []string{"develop", b.descriptor.Environment}
	if b.descriptor.Impure {
		args = append(args, "--impure")
	}
	return append(args, "--command", "sh", "-c", command)
}

// processEnv returns the environment for package-manager subprocesses. The
// settings file is injected through NIX_USER_CONF_FILES so the trust
// configuration is in place before any package resolution.
func (b *environmentBuilder) processEnv() []string {
	env := append(os.Environ(), "NIX_USER_CONF_FILES="+b.settingsFilePath())
	for name, value := range b.variables {
		env = append(env, name+"="+value)
	}
	return env
}

func (b *environmentBuilder) Provision() (provision.Environment, error) {
	b.m.Lock()
	if b.discarded {
		b.m.Unlock()
		return nil, provision.ErrBuilderDiscarded
	}
	b.provisioned = true
	b.m.Unlock()

	// Trust settings must be on disk before we resolve anything
	if err := b.writeSettings(); err != nil {
		return nil, errors.Wrap(err, "failed to write provisioner settings")
	}

	debug("provisioning '%s' in %s", b.descriptor.Environment, b.workDir)
	cmd := exec.Command(b.provisioner.config.Command, b.provisionArgs()...)
	cmd.Dir = b.workDir
	cmd.Env = b.processEnv()
	cmd.Stdout = b.logDrain
	cmd.Stderr = b.logDrain
	if err := cmd.Run(); err != nil {
		// No partial environment is usable, and we don't retry
		return nil, errors.Wrapf(err,
			"failed to resolve toolchain for '%s'", b.descriptor.Environment,
		)
	}

	return &environment{
		builder: b,
		monitor: b.monitor,
	}, nil
}

func (b *environmentBuilder) Discard() error {
	b.m.Lock()
	defer b.m.Unlock()
	b.discarded = true
	b.accessToken = ""
	if !b.provisioned {
		return b.removeSettings()
	}
	return nil
}

// removeSettings deletes the settings file, destroying the relayed
// credential with it.
func (b *environmentBuilder) removeSettings() error {
	err := os.Remove(b.settingsFilePath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove provisioner settings: %s", err)
	}
	return nil
}
