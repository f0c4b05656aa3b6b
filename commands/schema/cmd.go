package schema

import (
	"encoding/json"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/minci/minci-worker/commands"
	"github.com/minci/minci-worker/config"
	"github.com/minci/minci-worker/runtime/monitoring"
	"github.com/minci/minci-worker/worker"
)

func init() {
	commands.Register("schema", cmd{})
}

type cmd struct{}

func (cmd) Summary() string {
	return "Dump schema for config or environment descriptor"
}

func (cmd) Usage() string {
	return `
minci-worker schema can be used to export a JSON schema document for the
worker configuration file. Given a configuration file the command can also be
used to export the environment descriptor schema of the selected provisioner.

usage:
  minci-worker schema config [options]
  minci-worker schema descriptor [options] <config.yml>

options:
  -f --format <format>          Set the format json or yaml [Default: json].
  -o --output <file>            Write output to a file [Default: -].
`
}

func (cmd) Execute(args map[string]interface{}) bool {
	var schema interface{}

	if args["config"].(bool) {
		schema = worker.ConfigSchema().Schema()
	} else {
		cfg, err := config.LoadFromFile(args["<config.yml>"].(string), monitoring.PreConfig())
		if err != nil {
			fmt.Println(err)
			return false
		}
		w, err := worker.New(cfg)
		if err != nil {
			fmt.Printf("Failed to initialize worker, error: %s\n", err)
			return false
		}
		schema = w.DescriptorSchema().Schema()
	}

	// Format schema to JSON or YAML
	var data []byte
	var err error
	if args["--format"].(string) == "yaml" {
		data, err = yaml.Marshal(schema)
	} else {
		data, err = json.MarshalIndent(schema, "", "  ")
	}
	if err != nil {
		panic(fmt.Sprintf("Internal error, failed to serialize, error: %s", err))
	}

	// Write output file or write to stdout
	output := args["--output"].(string)
	if output != "-" {
		err = os.WriteFile(output, data, 0666)
		if err != nil {
			fmt.Printf("Failed to write file: '%s', error: %s\n", output, err)
			return false
		}
	} else {
		fmt.Println(string(data))
	}

	return true
}
