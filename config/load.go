package config

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/taskcluster/agent-retention/runtime"
	"github.com/taskcluster/agent-retention/runtime/schema"
	yaml "gopkg.in/yaml.v2"
)

// Schema returns the configuration file schema
func Schema() map[string]interface{} {
	return map[string]interface{}{
		"title":       "Agent Retention Configuration File",
		"description": `Initial configuration and transformations to run.`,
		"type":        "object",
		"properties": map[string]interface{}{
			"transforms": transformsSchema(),
			"config":     ConfigSchema(),
		},
		"required": []interface{}{"config"},
	}
}

func transformsSchema() map[string]interface{} {
	return map[string]interface{}{
		"title":       "Configuration Transformations",
		"description": "Ordered list of transformations to run on the config.",
		"type":        "array",
		"items": map[string]interface{}{
			"type": "string",
			"enum": providerNames(),
		},
	}
}

// Load configuration from YAML config object.
func Load(data []byte, monitor runtime.Monitor) (*Config, error) {
	// Parse config file
	var config interface{}
	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML config")
	}
	// This fixes obscurities in yaml.Unmarshal where it generates
	// map[interface{}]interface{} instead of map[string]interface{}
	// credits: https://github.com/go-yaml/yaml/issues/139#issuecomment-220072190
	config = convertSimpleJSONTypes(config)

	// Extract transforms and config
	c, ok := config.(map[string]interface{})
	if !ok {
		return nil, errors.New("expected top-level config value to be an object")
	}
	result, ok := c["config"].(map[string]interface{})
	if !ok {
		return nil, errors.New("expected 'config' property to be an object")
	}

	// Apply transforms
	if ct, ok := c["transforms"]; ok {
		var transforms []string
		err := schema.MustCompile(transformsSchema()).MustMap(ct, &transforms)
		if err != nil {
			return nil, errors.Wrap(err, "'transforms' schema violated")
		}

		providers := Providers()
		for _, t := range transforms {
			provider := providers[t]
			if err := provider.Transform(result, monitor); err != nil {
				return nil, errors.Wrapf(err, "config transformation: %s failed", t)
			}

			// Ensure that transform only injects simple JSON compatible types
			if err := jsonCompatTypes(result); err != nil {
				panic(fmt.Sprintf("%s injected wrong types, error: %s", t, err))
			}
		}
	}

	// Filter out keys that aren't in the config schema, this way extra keys can
	// be used to provide options for the transformations.
	properties := ConfigSchema()["properties"].(map[string]interface{})
	for key := range result {
		if _, ok := properties[key]; !ok {
			monitor.Debugf("ignoring config key '%s'", key)
			delete(result, key)
		}
	}

	var cfg Config
	if err := schema.MustCompile(ConfigSchema()).MustMap(result, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile will load configuration options from a YAML file and validate
// against the config file schema, returning an error message explaining what
// went wrong if unsuccessful.
func LoadFromFile(filename string, monitor runtime.Monitor) (*Config, error) {
	// Read config file
	configFile, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file '%s'", filename)
	}

	return Load(configFile, monitor)
}

func convertSimpleJSONTypes(val interface{}) interface{} {
	switch val := val.(type) {
	case []interface{}:
		r := make([]interface{}, len(val))
		for i, v := range val {
			r[i] = convertSimpleJSONTypes(v)
		}
		return r
	case map[interface{}]interface{}:
		r := make(map[string]interface{})
		for k, v := range val {
			s, ok := k.(string)
			if !ok {
				s = fmt.Sprintf("%v", k)
			}
			r[s] = convertSimpleJSONTypes(v)
		}
		return r
	case int:
		return float64(val)
	default:
		return val
	}
}

// jsonCompatTypes returns an error if val contains types that JSON can't
// represent without a custom marshaller.
func jsonCompatTypes(val interface{}) error {
	switch val := val.(type) {
	case []interface{}:
		for _, v := range val {
			if err := jsonCompatTypes(v); err != nil {
				return err
			}
		}
	case map[string]interface{}:
		for k, v := range val {
			if err := jsonCompatTypes(v); err != nil {
				return errors.Wrapf(err, "at key '%s'", k)
			}
		}
	case string, float64, bool, nil:
	default:
		return errors.Errorf("unsupported type %T", val)
	}
	return nil
}
