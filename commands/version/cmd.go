package version

import (
	"encoding/json"
	"fmt"

	"github.com/taskcluster/agent-retention/commands"
)

func init() {
	commands.Register("version", cmd{})
}

type cmd struct{}

func (cmd) Summary() string {
	return "Display version information"
}

func (cmd) Usage() string {
	return `
agent-retention version will display version information.

usage: agent-retention version [options] [semver|revision]

options:
  -j --json     Print as JSON.
  -h --help     Show this screen.
`
}

func (cmd) Execute(arguments map[string]interface{}) bool {
	result := info(arguments["semver"].(bool), arguments["revision"].(bool))

	if arguments["--json"].(bool) {
		data, _ := json.Marshal(result)
		fmt.Println(string(data))
		return true
	}
	if v, ok := result["version"]; ok {
		fmt.Printf("version:  %s\n", v)
	}
	if r, ok := result["revision"]; ok {
		fmt.Printf("revision: %s\n", r)
	}
	return true
}

// info returns the version information to display, unknown values are
// reported as "unknown".
func info(semver, revision bool) map[string]string {
	result := map[string]string{}
	if !revision {
		result["version"] = orUnknown(Version())
	}
	if !semver {
		result["revision"] = orUnknown(Revision())
	}
	return result
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
