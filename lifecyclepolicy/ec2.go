package lifecyclepolicy

import (
	"github.com/taskcluster/agent-retention/retention"
	"github.com/taskcluster/agent-retention/runtime/schema"
)

type ec2Provider struct{}

var ec2ConfigSchema = map[string]interface{}{
	"title": "EC2 Life-Cycle Policy",
	"description": "Idles out the agent after idleMinutes, or in the final minute of a billing " +
		"hour if idleMinutes is negative, and terminates it when the usage-limit is exhausted.",
	"type": "object",
	"properties": map[string]interface{}{
		"idleMinutes": map[string]interface{}{
			"title": "Idle Minutes",
			"description": "Minutes an agent may be idle before it is stopped. Negative values " +
				"enable billing-hour mode, zero disables idle checks. At most 8 digits.",
			"type":    "string",
			"pattern": `^\s*[-+]?0*[0-9]{1,8}\s*$`,
		},
	},
	"required":             []interface{}{"idleMinutes"},
	"additionalProperties": false,
}

func (ec2Provider) ConfigSchema() map[string]interface{} {
	return ec2ConfigSchema
}

func (ec2Provider) NewLifeCyclePolicy(options Options) (LifeCyclePolicy, error) {
	var c struct {
		IdleMinutes string `json:"idleMinutes"`
	}
	if err := schema.MustCompile(ec2ConfigSchema).MustMap(options.Config, &c); err != nil {
		return nil, err
	}
	controller, err := retention.New(c.IdleMinutes, retention.Options{
		Monitor: options.Monitor,
		Clock:   options.Clock,
	})
	if err != nil {
		return nil, err
	}
	return &EC2LifeCyclePolicy{Controller: controller}, nil
}

// EC2LifeCyclePolicy applies a retention.Controller to an agent.
type EC2LifeCyclePolicy struct {
	*retention.Controller
}

func init() {
	Register("ec2", ec2Provider{})
}
