package lifecyclepolicy

import (
	"time"

	"github.com/taskcluster/agent-retention/retention"
	"github.com/taskcluster/agent-retention/runtime/schema"
)

type foreverProvider struct{}

var foreverConfigSchema = map[string]interface{}{
	"title":       "Forever Life-Cycle Policy",
	"description": "A forever life-cycle policy never idles out the agent.",
	"type":        "object",
	"properties": map[string]interface{}{
		"terminateOnQuota": map[string]interface{}{
			"title":       "Terminate On Quota",
			"description": "If true, the agent is terminated once its usage-limit is exhausted.",
			"type":        "boolean",
		},
	},
	"additionalProperties": false,
}

func (foreverProvider) ConfigSchema() map[string]interface{} {
	return foreverConfigSchema
}

func (foreverProvider) NewLifeCyclePolicy(options Options) (LifeCyclePolicy, error) {
	var c struct {
		TerminateOnQuota bool `json:"terminateOnQuota"`
	}
	if err := schema.MustCompile(foreverConfigSchema).MustMap(options.Config, &c); err != nil {
		return nil, err
	}
	p := &ForeverLifeCyclePolicy{}
	if c.TerminateOnQuota {
		// A disabled idle-timeout leaves only the usage-limit rule
		controller, err := retention.New("0", retention.Options{
			Monitor: options.Monitor,
			Clock:   options.Clock,
		})
		if err != nil {
			return nil, err
		}
		p.quota = controller
	}
	return p, nil
}

// A ForeverLifeCyclePolicy never stops the agent, it may terminate the agent
// when its usage-limit is exhausted.
type ForeverLifeCyclePolicy struct {
	Base
	quota *retention.Controller
}

// TerminateOnQuota returns true, if the usage-limit is enforced
func (p *ForeverLifeCyclePolicy) TerminateOnQuota() bool {
	return p.quota != nil
}

// TaskCompleted terminates the agent if TerminateOnQuota is set and the
// usage-limit is exhausted.
func (p *ForeverLifeCyclePolicy) TaskCompleted(executor retention.Executor, task retention.Task, d time.Duration) error {
	if p.quota == nil {
		return nil
	}
	return p.quota.TaskCompleted(executor, task, d)
}

func init() {
	Register("forever", foreverProvider{})
}
