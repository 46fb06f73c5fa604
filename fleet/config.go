package fleet

import (
	"encoding/json"

	"github.com/taskcluster/agent-retention/lifecyclepolicy"
)

// AgentConfig is the configuration an agent is registered with.
type AgentConfig struct {
	Name string `json:"name"`
	// InstanceID of an existing instance, if empty an instance is launched
	InstanceID string `json:"instanceId,omitempty"`
	// UsageLimit is the number of task executions allowed, -1 if unlimited
	UsageLimit int `json:"usageLimit"`
	// LifeCyclePolicy is config matching lifecyclepolicy.ConfigSchema()
	LifeCyclePolicy interface{} `json:"lifeCyclePolicy"`
}

// UnmarshalJSON defaults UsageLimit to unlimited
func (c *AgentConfig) UnmarshalJSON(data []byte) error {
	type plain AgentConfig
	p := plain{UsageLimit: -1}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = AgentConfig(p)
	return nil
}

// AgentConfigSchema returns the JSON schema for AgentConfig
func AgentConfigSchema() map[string]interface{} {
	return map[string]interface{}{
		"title": "Agent",
		"type":  "object",
		"properties": map[string]interface{}{
			"name": map[string]interface{}{
				"title":   "Agent Name",
				"type":    "string",
				"pattern": "^[a-zA-Z0-9_.-]{1,64}$",
			},
			"instanceId": map[string]interface{}{
				"title":       "Instance Id",
				"description": "Existing instance backing the agent, a new instance is launched if omitted.",
				"type":        "string",
			},
			"usageLimit": map[string]interface{}{
				"title":       "Usage Limit",
				"description": "Number of task executions before the agent is terminated, -1 for unlimited.",
				"type":        "integer",
				"minimum":     -1,
				"default":     -1,
			},
			"lifeCyclePolicy": lifecyclepolicy.RawConfigSchema(),
		},
		"required":             []interface{}{"name", "lifeCyclePolicy"},
		"additionalProperties": false,
	}
}
