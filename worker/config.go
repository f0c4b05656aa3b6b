package worker

import (
	schematypes "github.com/taskcluster/go-schematypes"

	"github.com/minci/minci-worker/provision"
	"github.com/minci/minci-worker/runtime/monitoring"
	"github.com/minci/minci-worker/runtime/util"
	"github.com/minci/minci-worker/trust"
)

type serverOptions struct {
	Address string `json:"address"`
	Secret  string `json:"secret"`
}

type jobOptions struct {
	Descriptor map[string]interface{} `json:"descriptor"`
	Command    string                 `json:"command"`
}

type credentialsOptions struct {
	AccessToken string `json:"accessToken"`
}

type checkoutOptions struct {
	Command string `json:"command"`
}

type checksOptions struct {
	APIBase     string `json:"apiBase"`
	Context     string `json:"context"`
	AccessToken string `json:"accessToken"`
}

type workerOptions struct {
	Concurrency int `json:"concurrency"`
}

type configType struct {
	Provisioner        string                 `json:"provisioner"`
	ProvisionerConfigs map[string]interface{} `json:"provisioners"`
	TemporaryFolder    string                 `json:"temporaryFolder"`
	Monitor            interface{}            `json:"monitor"`
	Server             serverOptions          `json:"server"`
	Job                jobOptions             `json:"job"`
	Trust              trust.Config           `json:"trust"`
	Credentials        credentialsOptions     `json:"credentials"`
	Checkout           checkoutOptions        `json:"checkout"`
	Checks             checksOptions          `json:"checks"`
	WorkerOptions      workerOptions          `json:"worker"`
}

var serverSchema schematypes.Schema = schematypes.Object{
	Title: "Webhook Server",
	Description: util.Markdown(`
		Address the webhook server binds to, and the shared secret used to
		verify delivery signatures. An empty secret disables signature
		verification, only do this behind a trusted proxy.
	`),
	Properties: schematypes.Properties{
		"address": schematypes.String{
			Title:       "Listen Address",
			Description: "Address to bind the webhook server to, e.g. ':8080'.",
		},
		"secret": schematypes.String{
			Title:       "Webhook Secret",
			Description: "Shared secret deliveries must be signed with.",
		},
	},
	Required: []string{"address"},
}

var jobSchema schematypes.Schema = schematypes.Object{
	Title: "Job Definition",
	Description: util.Markdown(`
		The job to run for every accepted event: an environment descriptor
		handed to the selected provisioner, and a single shell command whose
		exit status decides the job result.
	`),
	Properties: schematypes.Properties{
		"descriptor": schematypes.Object{
			Title: "Environment Descriptor",
			Description: util.Markdown(`
				Descriptor declaring the toolchain to provision, validated
				against the selected provisioner's descriptor schema when a
				job starts.
			`),
			AdditionalProperties: true,
		},
		"command": schematypes.String{
			Title:       "Test Command",
			Description: "Shell command to run, exit zero means the job succeeded.",
		},
	},
	Required: []string{"descriptor", "command"},
}

var credentialsSchema schematypes.Schema = schematypes.Object{
	Title: "Credentials",
	Description: util.Markdown(`
		Credential relayed into job environments for fetching private
		packages. The token is opaque to the worker: it is handed to the
		provisioner for the duration of a job and destroyed with it, never
		logged and never persisted.
	`),
	Properties: schematypes.Properties{
		"accessToken": schematypes.String{
			Title:       "AccessToken",
			Description: "The security-sensitive access token relayed to provisioners.",
		},
	},
}

var checkoutSchema schematypes.Schema = schematypes.Object{
	Title: "Checkout Options",
	Properties: schematypes.Properties{
		"command": schematypes.String{
			Title:       "Git Command",
			Description: "Binary used for source checkouts, defaults to 'git' from PATH.",
		},
	},
}

var checksSchema schematypes.Schema = schematypes.Object{
	Title: "Status Reporting",
	Description: util.Markdown(`
		Where to report job states, so commits show up as
		pending/success/failure on the hosting platform. Leave out 'apiBase'
		to disable reporting.
	`),
	Properties: schematypes.Properties{
		"apiBase": schematypes.String{
			Title:       "API Base URL",
			Description: "Base URL of the platform API, e.g. 'https://api.github.com'.",
		},
		"context": schematypes.String{
			Title:       "Status Context",
			Description: "Context distinguishing this worker's statuses, defaults to 'minci'.",
		},
		"accessToken": schematypes.String{
			Title:       "AccessToken",
			Description: "Token used to authenticate status updates.",
		},
	},
}

var workerOptionsSchema schematypes.Schema = schematypes.Object{
	Title: "Worker Options",
	Properties: schematypes.Properties{
		"concurrency": schematypes.Integer{
			Title: "Concurrency",
			Description: util.Markdown(`
				The number of jobs this worker runs in parallel. Jobs share
				nothing, within each job all steps remain strictly
				sequential.
			`),
			Minimum: 1,
			Maximum: 1000,
		},
	},
	Required: []string{"concurrency"},
}

// ConfigSchema returns the schema for configuration.
func ConfigSchema() schematypes.Object {
	provisionerConfig := schematypes.Properties{}
	provisionerNames := []string{}
	for name, provider := range provision.Providers() {
		provisionerNames = append(provisionerNames, name)
		provisionerConfig[name] = provider.ConfigSchema()
	}
	return schematypes.Object{
		Properties: schematypes.Properties{
			"provisioner": schematypes.StringEnum{
				Title: "Selected Provisioner",
				Description: util.Markdown(`
					Selected provisioner to use, notice that the configuration
					for this provisioner **must** be present under the
					'provisioners.<provisioner>' configuration key.
				`),
				Options: provisionerNames,
			},
			"provisioners": schematypes.Object{
				Title: "Provisioner Configuration",
				Description: util.Markdown(`
					Mapping from provisioner name to provisioner
					configuration. The configuration file can hold
					configuration for all provisioners, only the entry for
					the selected provisioner is used.
				`),
				Properties: provisionerConfig,
			},
			"temporaryFolder": schematypes.String{
				Title: "Temporary Folder",
				Description: util.Markdown(`
					Path to folder that can be used for temporary files and
					folders, if folder doesn't exist it will be created,
					otherwise it will be overwritten.
				`),
			},
			"monitor":     monitoring.ConfigSchema,
			"server":      serverSchema,
			"job":         jobSchema,
			"trust":       trust.ConfigSchema,
			"credentials": credentialsSchema,
			"checkout":    checkoutSchema,
			"checks":      checksSchema,
			"worker":      workerOptionsSchema,
		},
		Required: []string{
			"provisioner",
			"provisioners",
			"temporaryFolder",
			"monitor",
			"server",
			"job",
			"worker",
		},
	}
}
