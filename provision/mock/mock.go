// Package mockprovisioner provides a provisioner that pretends to set up an
// environment and run commands, scripted through its descriptor. It exists
// purely to support testing of the job life-cycle.
package mockprovisioner

import (
	"strings"
	"sync"

	schematypes "github.com/taskcluster/go-schematypes"

	"github.com/minci/minci-worker/provision"
	"github.com/minci/minci-worker/runtime"
	"github.com/minci/minci-worker/runtime/atomics"
	"github.com/minci/minci-worker/trust"
)

type provider struct {
	provision.ProviderBase
}

type provisioner struct {
	monitor runtime.Monitor
}

func init() {
	provision.Register("mock", provider{})
}

func (provider) NewProvisioner(options provision.Options) (provision.Provisioner, error) {
	return &provisioner{monitor: options.Monitor}, nil
}

type descriptorType struct {
	Provision string `json:"provision"`
}

var descriptorSchema = schematypes.Object{
	Title:       "Mock Environment Descriptor",
	Description: "Scripts the outcome of the provisioning step.",
	Properties: schematypes.Properties{
		"provision": schematypes.StringEnum{
			Options: []string{"succeed", "fail", "integrity-error"},
		},
	},
	Required: []string{"provision"},
}

func (p *provisioner) DescriptorSchema() schematypes.Object {
	return descriptorSchema
}

func (p *provisioner) NewEnvironmentBuilder(options provision.BuilderOptions) (provision.EnvironmentBuilder, error) {
	var descriptor descriptorType
	if descriptorSchema.Map(options.Descriptor, &descriptor) != nil {
		return nil, provision.ErrContractViolation
	}
	return &environmentBuilder{
		descriptor: descriptor,
		logDrain:   options.LogDrain,
		variables:  make(map[string]string),
	}, nil
}

type environmentBuilder struct {
	provision.EnvironmentBuilderBase
	descriptor descriptorType
	logDrain   interface{ Write([]byte) (int, error) }

	m           sync.Mutex
	trustConfig trust.Config
	accessToken string
	variables   map[string]string
	discarded   bool
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

func (b *environmentBuilder) Provision() (provision.Environment, error) {
	b.m.Lock()
	defer b.m.Unlock()
	if b.discarded {
		return nil, provision.ErrBuilderDiscarded
	}
	switch b.descriptor.Provision {
	case "succeed":
		return &environment{builder: b}, nil
	case "fail":
		return nil, runtime.ErrNonFatalInternalError
	case "integrity-error":
		return nil, provision.IntegrityError{
			Substituter: "https://cache.example.com",
			PublicKey:   "cache.example.com-1:deadbeef",
			Detail:      "signature did not verify",
		}
	default:
		return nil, provision.ErrContractViolation
	}
}

func (b *environmentBuilder) Discard() error {
	b.m.Lock()
	defer b.m.Unlock()
	b.discarded = true
	b.accessToken = ""
	return nil
}

// TrustConfig exposes the applied trust configuration to tests.
func (b *environmentBuilder) TrustConfig() trust.Config {
	b.m.Lock()
	defer b.m.Unlock()
	return b.trustConfig
}

// AccessToken exposes the relayed credential to tests.
func (b *environmentBuilder) AccessToken() string {
	b.m.Lock()
	defer b.m.Unlock()
	return b.accessToken
}

type environment struct {
	provision.EnvironmentBase
	builder  *environmentBuilder
	disposed atomics.Bool
}

// Execute interprets the command itself: a command containing the word
// "fail" resolves with exit code 1, anything else with exit code 0.
func (e *environment) Execute(command string) (provision.Execution, error) {
	if e.disposed.Get() {
		return nil, provision.ErrEnvironmentTerminated
	}
	if e.builder.logDrain != nil {
		_, _ = e.builder.logDrain.Write([]byte("$ " + command + "\n"))
	}
	exitCode := 0
	if strings.Contains(command, "fail") {
		exitCode = 1
	}
	x := &execution{exitCode: exitCode}
	x.resolve.Do(func() {
		x.resultSet = &resultSet{exitCode: exitCode}
		x.resultAbort = provision.ErrEnvironmentTerminated
	})
	return x, nil
}

func (e *environment) Dispose() error {
	e.disposed.Set(true)
	return nil
}

type execution struct {
	exitCode    int
	resolve     atomics.Once
	resultSet   provision.ResultSet
	resultError error
	resultAbort error
}

func (x *execution) WaitForResult() (provision.ResultSet, error) {
	x.resolve.Wait()
	return x.resultSet, x.resultError
}

func (x *execution) Abort() error {
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
