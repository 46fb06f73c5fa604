// Package schema provides a command that dumps the config file schema.
package schema

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	yaml "gopkg.in/yaml.v2"

	"github.com/pkg/errors"
	"github.com/taskcluster/agent-retention/commands"
	"github.com/taskcluster/agent-retention/config"
)

func init() {
	commands.Register("schema", cmd{})
}

type cmd struct{}

func (cmd) Summary() string {
	return "Dump schema for the config file"
}

func (cmd) Usage() string {
	return `
agent-retention schema can be used to export the JSON schema document for the
configuration file, including options for all life-cycle policies and cloud
providers.

usage: agent-retention schema [options]

options:
  -f --format <format>          Set the format json or yaml [default: json].
  -o --output <file>            Write output to a file [default: -].
`
}

func (cmd) Execute(args map[string]interface{}) bool {
	data, err := render(config.Schema(), args["--format"].(string))
	if err != nil {
		fmt.Println(err)
		return false
	}

	// Write output file or write to stdout
	output := args["--output"].(string)
	if output != "-" {
		err = ioutil.WriteFile(output, data, 0644)
		if err != nil {
			fmt.Printf("Failed to write file: '%s', error: %s\n", output, err)
			return false
		}
	} else {
		fmt.Println(string(data))
	}

	return true
}

func render(schema interface{}, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(schema)
	case "json":
		return json.MarshalIndent(schema, "", "  ")
	default:
		return nil, errors.Errorf("unsupported format '%s', must be json or yaml", format)
	}
}
