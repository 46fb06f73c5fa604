// Package configtest provides structs and logic for declarative configuration
// tests.
package configtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskcluster/agent-retention/config"
	"github.com/taskcluster/agent-retention/runtime/mocks"
)

// Case allows declaration of a transformation to run on input and validate
// against declared result.
type Case struct {
	Transform string
	Input     map[string]interface{}
	Result    map[string]interface{}
	// Error is true, if the transformation is expected to fail
	Error bool
}

// Test will execute the test case failing t if Input doesn't become Result
func (c Case) Test(t *testing.T) {
	monitor := mocks.NewMockMonitor(false)
	transform := config.Providers()[c.Transform]
	require.NotNil(t, transform, "unknown transform ", c.Transform)

	err := transform.Transform(c.Input, monitor)
	if c.Error {
		require.Error(t, err, "expected Transform(Input) to fail")
		return
	}
	require.NoError(t, err, "Transform(Input) failed")

	require.Equal(t, c.Result, c.Input, "Unexpected result")
}
