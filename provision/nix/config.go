package nixprovisioner

import schematypes "github.com/taskcluster/go-schematypes"

type configType struct {
	Command              string `json:"command"`
	ExperimentalFeatures string `json:"experimentalFeatures"`
}

var configSchema = schematypes.Object{
	Title:       "Nix Provisioner Configuration",
	Description: "Configuration for the provisioner realizing environments with the nix package manager.",
	Properties: schematypes.Properties{
		"command": schematypes.String{
			Title:       "Nix Command",
			Description: "Binary used to invoke the package manager, defaults to 'nix' from PATH.",
		},
		"experimentalFeatures": schematypes.String{
			Title:       "Experimental Features",
			Description: "Value for the experimental-features setting, defaults to 'nix-command flakes'.",
		},
	},
}

var descriptorSchema = schematypes.Object{
	Title:       "Environment Descriptor",
	Description: "Declares the toolchain to provision for a job.",
	Properties: schematypes.Properties{
		"environment": schematypes.String{
			Title:       "Environment",
			Description: "Installable declaring the toolchain, e.g. a flake reference like '.#default'.",
		},
		"impure": schematypes.Boolean{
			Title:       "Impure Evaluation",
			Description: "Permit the provisioning step to read host-level settings excluded from sandboxed evaluation.",
		},
	},
	Required: []string{"environment"},
}

type descriptorType struct {
	Environment string `json:"environment"`
	Impure      bool   `json:"impure"`
}
