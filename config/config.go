package config

import (
	"github.com/taskcluster/agent-retention/cloud"
	"github.com/taskcluster/agent-retention/fleet"
	"github.com/taskcluster/agent-retention/runtime/monitoring"
)

// Config is the configuration for the agent-retention daemon
type Config struct {
	// Monitor is config matching monitoring.ConfigSchema
	Monitor interface{} `json:"monitor"`
	Server  struct {
		Address string `json:"address"`
	} `json:"server"`
	// Cloud is config matching cloud.RawConfigSchema()
	Cloud         interface{}         `json:"cloud"`
	CheckSchedule string              `json:"checkSchedule"`
	Agents        []fleet.AgentConfig `json:"agents"`
}

// ConfigSchema returns the schema for Config
func ConfigSchema() map[string]interface{} {
	return map[string]interface{}{
		"title":       "Agent Retention Configuration",
		"description": "Configuration for the agent-retention daemon.",
		"type":        "object",
		"properties": map[string]interface{}{
			"monitor": monitoring.ConfigSchema.Raw(),
			"server": map[string]interface{}{
				"title":       "HTTP Server",
				"description": "Server exposing the agent API and metrics.",
				"type":        "object",
				"properties": map[string]interface{}{
					"address": map[string]interface{}{
						"title":       "Listen Address",
						"description": "Address to listen on, e.g. 'localhost:8080'.",
						"type":        "string",
					},
				},
				"required":             []interface{}{"address"},
				"additionalProperties": false,
			},
			"cloud": cloud.RawConfigSchema(),
			"checkSchedule": map[string]interface{}{
				"title": "Check Schedule",
				"description": "Cron expression or descriptor for when agents are checked, " +
					"defaults to '" + fleet.DefaultCheckSchedule + "'.",
				"type": "string",
			},
			"agents": map[string]interface{}{
				"title":       "Agents",
				"description": "Agents registered at startup.",
				"type":        "array",
				"items":       fleet.AgentConfigSchema(),
			},
		},
		"required":             []interface{}{"monitor", "cloud", "agents"},
		"additionalProperties": false,
	}
}
