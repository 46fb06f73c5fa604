// Package commands exposes a run method for main() to call
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/docopt/docopt-go"
)

// Run will parse command line arguments and run available commands.
func Run(argv []string) {
	if !run(argv) {
		os.Exit(1)
	}
}

func run(argv []string) bool {
	usage := Usage()

	// Parse arguments
	arguments, _ := docopt.Parse(usage, argv, true, "agent-retention", true)
	cmd := arguments["<command>"].(string)

	// Find command provider
	provider := Commands()[cmd]
	if provider == nil {
		fmt.Println("Unknown command: ", cmd)
		fmt.Print(usage)
		return false
	}

	// Parse args for command provider
	subArguments, _ := docopt.Parse(
		provider.Usage(), append([]string{cmd}, arguments["<args>"].([]string)...),
		true, "agent-retention", false,
	)
	// Execute provider with parsed args
	return provider.Execute(subArguments)
}

// Usage returns the top-level usage string, listing all commands
func Usage() string {
	names := Names()
	providers := Commands()
	width := 0
	for _, name := range names {
		if len(name) > width {
			width = len(name)
		}
	}

	usage := "usage: agent-retention <command> [<args>...]\n\nCommands available:\n"
	for _, name := range names {
		usage += "\n    " + pad(name, width) + " " + providers[name].Summary()
	}
	return usage + "\n"
}

func pad(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
