// Package configenv implements a TransformationProvider that replaces objects on
// the form: {$env: "VAR"} with the value of the environment variable VAR.
//
// If the object has a "type" property of "number", "boolean" or "json" the
// value is parsed as such, this allows numeric and structured config values to
// come from the environment.
package configenv

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/taskcluster/agent-retention/config"
	"github.com/taskcluster/agent-retention/runtime"
)

type provider struct{}

func init() {
	config.Register("env", provider{})
}

func (provider) Transform(cfg map[string]interface{}, monitor runtime.Monitor) error {
	return config.ReplaceObjects(cfg, "env", func(val map[string]interface{}) (interface{}, error) {
		name := val["$env"].(string)
		value, ok := os.LookupEnv(name)
		if !ok {
			monitor.Warnf("environment variable '%s' is not set", name)
		}
		t, _ := val["type"].(string)
		switch t {
		case "", "string":
			return value, nil
		case "number":
			n, err := strconv.ParseFloat(value, 64)
			return n, errors.Wrapf(err, "environment variable '%s' is not a number", name)
		case "boolean":
			b, err := strconv.ParseBool(value)
			return b, errors.Wrapf(err, "environment variable '%s' is not a boolean", name)
		case "json":
			var v interface{}
			err := json.Unmarshal([]byte(value), &v)
			return v, errors.Wrapf(err, "environment variable '%s' is not JSON", name)
		default:
			return nil, errors.Errorf("unsupported type '%s' for environment variable '%s'", t, name)
		}
	})
}
