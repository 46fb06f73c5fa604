package mock

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskcluster/agent-retention/cloud"
	"github.com/taskcluster/agent-retention/retention"
	"github.com/taskcluster/agent-retention/runtime/mocks"
)

func TestLaunchAndStop(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1500000000, 0)
	p := New(mocks.NewMockMonitor(true), func() time.Time { return now })
	p.Transition = 30 * time.Second

	i, err := p.Launch(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(i.ID, "i-"))
	assert.Equal(t, retention.Pending, i.State)
	assert.Equal(t, now, i.LaunchTime)

	now = now.Add(30 * time.Second)
	i, err = p.Describe(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, retention.Running, i.State)

	require.NoError(t, p.Stop(ctx, i.ID))
	i, err = p.Describe(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, retention.Stopping, i.State)

	// Stopping a stopping instance does nothing
	require.NoError(t, p.Stop(ctx, i.ID))

	now = now.Add(time.Minute)
	i, err = p.Describe(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, retention.Stopped, i.State)
	assert.Equal(t, 2, p.Calls("stop"))
}

func TestTerminateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := New(mocks.NewMockMonitor(true), nil)
	p.Add("i-123", time.Now().Add(-time.Hour))

	require.NoError(t, p.Terminate(ctx, "i-123"))
	require.NoError(t, p.Terminate(ctx, "i-123"))
	// Stop after terminate doesn't revive it
	require.NoError(t, p.Stop(ctx, "i-123"))

	i, err := p.Describe(ctx, "i-123")
	require.NoError(t, err)
	assert.Equal(t, retention.Terminated, i.State)
}

func TestUnknownInstance(t *testing.T) {
	ctx := context.Background()
	p := New(mocks.NewMockMonitor(true), nil)
	_, err := p.Describe(ctx, "i-missing")
	assert.Equal(t, cloud.ErrInstanceNotFound, errors.Cause(err))
	assert.Equal(t, cloud.ErrInstanceNotFound, errors.Cause(p.Stop(ctx, "i-missing")))
	assert.Equal(t, cloud.ErrInstanceNotFound, errors.Cause(p.Terminate(ctx, "i-missing")))
}

func TestFailNext(t *testing.T) {
	ctx := context.Background()
	p := New(mocks.NewMockMonitor(true), nil)
	p.Add("i-123", time.Now())

	boom := errors.New("RequestLimitExceeded")
	p.FailNext(boom)
	_, err := p.Describe(ctx, "i-123")
	assert.Equal(t, boom, err)
	_, err = p.Describe(ctx, "i-123")
	assert.NoError(t, err)
}

func TestNewFromConfig(t *testing.T) {
	now := time.Unix(1500000000, 0)
	provider, err := cloud.New(cloud.ProviderOptions{
		Monitor: mocks.NewMockMonitor(true),
		Clock:   func() time.Time { return now },
		Config: map[string]interface{}{
			"provider": "mock",
			"instances": []interface{}{
				map[string]interface{}{"id": "i-builder", "uptimeMinutes": 59},
			},
		},
	})
	require.NoError(t, err)

	i, err := provider.Describe(context.Background(), "i-builder")
	require.NoError(t, err)
	assert.Equal(t, retention.Running, i.State)
	assert.Equal(t, 59*time.Minute, now.Sub(i.LaunchTime))

	_, err = cloud.New(cloud.ProviderOptions{
		Monitor: mocks.NewMockMonitor(true),
		Config:  map[string]interface{}{"provider": "mock", "region": "us-east-1"},
	})
	assert.Error(t, err)
}
