// Package help provides the help command.
package help

import (
	"fmt"

	"github.com/taskcluster/agent-retention/commands"
)

func init() {
	commands.Register("help", cmd{})
}

type cmd struct{}

func (cmd) Summary() string {
	return "Prints help for a command."
}

func (cmd) Usage() string {
	return "usage: agent-retention help [<command>]"
}

func (cmd) Execute(arguments map[string]interface{}) bool {
	command, _ := arguments["<command>"].(string)
	if command == "" {
		fmt.Print(commands.Usage())
		return true
	}
	provider := commands.Commands()[command]
	if provider == nil {
		fmt.Println("Unknown command: ", command)
		return false
	}
	fmt.Print(provider.Usage())
	return true
}
