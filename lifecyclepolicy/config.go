package lifecyclepolicy

import (
	"github.com/pkg/errors"
	"github.com/taskcluster/agent-retention/runtime/schema"
)

// ConfigSchema returns schema for config parameter passed to New()
//
// This will compose a schema of config options from all registered providers,
// each option is the provider's own schema with a "provider" property added.
func ConfigSchema() *schema.Schema {
	return schema.MustCompile(configSchema())
}

func configSchema() map[string]interface{} {
	options := make(map[string]map[string]interface{})
	for _, name := range Providers() {
		options[name] = lookup(name).ConfigSchema()
	}
	return map[string]interface{}{
		"title":       "Life-Cycle Policy",
		"description": "Policy deciding when the agent's instance is stopped or terminated.",
		"oneOf":       schema.OneOf("provider", options),
	}
}

// RawConfigSchema returns the JSON schema document for ConfigSchema(), so it
// can be embedded in other schemas.
func RawConfigSchema() map[string]interface{} {
	return configSchema()
}

// New returns a new LifeCyclePolicy from config matching ConfigSchema().
func New(options Options) (LifeCyclePolicy, error) {
	if err := ConfigSchema().Validate(options.Config); err != nil {
		return nil, errors.Wrap(err, "invalid life-cycle policy config")
	}
	// This cast must pass as the config matches ConfigSchema
	name := options.Config.(map[string]interface{})["provider"].(string)

	policy, err := lookup(name).NewLifeCyclePolicy(Options{
		Monitor: options.Monitor.WithTag("life-cycle-policy", name),
		Clock:   options.Clock,
		Config:  schema.Without(options.Config, "provider"),
	})
	return policy, errors.Wrapf(err, "failed to create life-cycle policy '%s'", name)
}
