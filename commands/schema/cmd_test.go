package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"

	"github.com/taskcluster/agent-retention/config"
)

func TestRender(t *testing.T) {
	data, err := render(config.Schema(), "json")
	require.NoError(t, err)
	var s map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, "Agent Retention Configuration File", s["title"])

	data, err = render(config.Schema(), "yaml")
	require.NoError(t, err)
	var y map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &y))
	assert.Contains(t, y, "properties")

	_, err = render(config.Schema(), "xml")
	assert.Error(t, err)
}
