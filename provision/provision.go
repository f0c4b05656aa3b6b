package provision

import (
	"fmt"
	"io"
	"sync"

	schematypes "github.com/taskcluster/go-schematypes"

	"github.com/minci/minci-worker/runtime"
)

var (
	mProviders = sync.Mutex{}
	providers  = make(map[string]Provider)
)

// Options is a wrapper for the set of options given to a Provider when a
// Provisioner is created.
//
// We pass all options as a single argument, so that we can add additional
// properties without breaking source compatibility.
type Options struct {
	Environment *runtime.Environment
	Monitor     runtime.Monitor
	Config      interface{}
}

// Provider is the interface provisioner implementors must implement and
// register with provision.Register("name", provider).
//
// Any error from NewProvisioner is fatal and will stop the worker during
// startup.
type Provider interface {
	NewProvisioner(options Options) (Provisioner, error)

	// ConfigSchema returns the schema for the provisioner configuration.
	ConfigSchema() schematypes.Schema
}

// A Provisioner resolves environment descriptors into runnable toolchains.
type Provisioner interface {
	// DescriptorSchema returns the schema for the environment descriptor this
	// provisioner accepts.
	DescriptorSchema() schematypes.Object

	// NewEnvironmentBuilder returns a builder for a single job. The
	// descriptor given in options has been validated against
	// DescriptorSchema() by the caller.
	//
	// Non-fatal errors: MalformedPayloadError
	NewEnvironmentBuilder(options BuilderOptions) (EnvironmentBuilder, error)
}

// BuilderOptions is the set of options for creating an EnvironmentBuilder,
// all fields concern one job only.
type BuilderOptions struct {
	Monitor    runtime.Monitor
	Descriptor interface{}
	// WorkDir is the job's working directory, typically the checkout root.
	// The builder may create settings files under it; everything in it is
	// discarded when the job's temporary folder is removed.
	WorkDir string
	// LogDrain receives the combined output of provisioning and command
	// execution, it ends up in the job log.
	LogDrain io.Writer
}

// Register will register a Provider, this is intended to be called from
// func init() {}, to register provisioners as an import side-effect.
//
// If a provider with the given name is already registered this will panic.
func Register(name string, provider Provider) {
	mProviders.Lock()
	defer mProviders.Unlock()

	if _, ok := providers[name]; ok {
		panic(fmt.Sprintf("a provisioner with the name '%s' is already registered", name))
	}
	providers[name] = provider
}

// Providers returns a map of registered Providers.
func Providers() map[string]Provider {
	mProviders.Lock()
	defer mProviders.Unlock()

	// Clone map before returning
	m := make(map[string]Provider)
	for name, provider := range providers {
		m[name] = provider
	}
	return m
}

// ProviderBase provides empty implementations of optional Provider methods.
//
// Implementors of Provider should embed this struct to ensure forward
// compatibility when we add new optional methods to Provider.
type ProviderBase struct{}

// ConfigSchema returns an empty object schema.
func (ProviderBase) ConfigSchema() schematypes.Schema {
	return schematypes.Object{}
}
