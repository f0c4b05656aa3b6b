package nixprovisioner

import (
	schematypes "github.com/taskcluster/go-schematypes"

	"github.com/minci/minci-worker/provision"
	"github.com/minci/minci-worker/runtime"
)

type provider struct {
	provision.ProviderBase
}

type provisioner struct {
	monitor runtime.Monitor
	config  configType
}

func init() {
	provision.Register("nix", provider{})
}

func (provider) ConfigSchema() schematypes.Schema {
	return configSchema
}

func (provider) NewProvisioner(options provision.Options) (provision.Provisioner, error) {
	var config configType
	if schematypes.MustMap(configSchema, options.Config, &config) != nil {
		return nil, provision.ErrContractViolation
	}
	if config.Command == "" {
		config.Command = "nix"
	}
	if config.ExperimentalFeatures == "" {
		config.ExperimentalFeatures = "nix-command flakes"
	}
	return &provisioner{
		monitor: options.Monitor,
		config:  config,
	}, nil
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
		provisioner: p,
		descriptor:  descriptor,
		workDir:     options.WorkDir,
		logDrain:    options.LogDrain,
		monitor:     options.Monitor,
		variables:   make(map[string]string),
	}, nil
}
