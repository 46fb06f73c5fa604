// Package main hosts the main function for agent-retention.
package main

import (
	"github.com/taskcluster/agent-retention/commands"

	_ "github.com/taskcluster/agent-retention/cloud/mock"
	_ "github.com/taskcluster/agent-retention/commands/check"
	_ "github.com/taskcluster/agent-retention/commands/help"
	_ "github.com/taskcluster/agent-retention/commands/schema"
	_ "github.com/taskcluster/agent-retention/commands/version"
	_ "github.com/taskcluster/agent-retention/commands/work"
	_ "github.com/taskcluster/agent-retention/config/env"
)

func main() {
	commands.Run(nil)
}
