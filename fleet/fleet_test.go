package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskcluster/agent-retention/cloud"
	"github.com/taskcluster/agent-retention/cloud/mock"
	"github.com/taskcluster/agent-retention/retention"
	"github.com/taskcluster/agent-retention/runtime/mocks"
)

type harness struct {
	now      time.Time
	monitor  *mocks.MockMonitor
	provider *mock.Provider
	fleet    *Fleet
}

func newHarness() *harness {
	h := &harness{
		now:     time.Unix(1500000000, 0),
		monitor: mocks.NewMockMonitor(true),
	}
	h.provider = mockProvider(h)
	h.fleet = New(Options{
		Monitor:  h.monitor,
		Provider: h.provider,
		Clock:    h.clock,
	})
	return h
}

func mockProvider(h *harness) *mock.Provider {
	return mock.New(h.monitor, h.clock)
}

func (h *harness) clock() time.Time {
	return h.now
}

// register an agent with an instance that has been up for given minutes
func (h *harness) register(t *testing.T, name string, uptimeMinutes, usageLimit int, policy map[string]interface{}) *Agent {
	id := "i-" + name
	h.provider.Add(id, h.now.Add(-time.Duration(uptimeMinutes)*time.Minute))
	a, err := h.fleet.Register(context.Background(), AgentConfig{
		Name:            name,
		InstanceID:      id,
		UsageLimit:      usageLimit,
		LifeCyclePolicy: policy,
	})
	require.NoError(t, err)
	return a
}

func ec2(idleMinutes string) map[string]interface{} {
	return map[string]interface{}{"provider": "ec2", "idleMinutes": idleMinutes}
}

func TestRegisterLaunchesInstance(t *testing.T) {
	h := newHarness()
	a, err := h.fleet.Register(context.Background(), AgentConfig{
		Name:            "builder",
		UsageLimit:      -1,
		LifeCyclePolicy: ec2("-2"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.InstanceID())
	assert.Equal(t, 1, h.provider.Calls("launch"))
	assert.Equal(t, retention.Running, a.InstanceState())
	assert.Equal(t, Active, a.Phase())
	assert.True(t, a.IsOnline())
	assert.True(t, a.IsAcceptingTasks())
}

func TestRegisterErrors(t *testing.T) {
	h := newHarness()
	h.register(t, "builder", 0, -1, ec2("-2"))

	_, err := h.fleet.Register(context.Background(), AgentConfig{
		Name:            "builder",
		LifeCyclePolicy: ec2("-2"),
	})
	assert.Equal(t, ErrAgentExists, errors.Cause(err))

	_, err = h.fleet.Register(context.Background(), AgentConfig{
		Name:            "tester",
		InstanceID:      "i-missing",
		LifeCyclePolicy: ec2("-2"),
	})
	assert.Equal(t, cloud.ErrInstanceNotFound, errors.Cause(err))

	_, err = h.fleet.Register(context.Background(), AgentConfig{
		Name:            "tester",
		LifeCyclePolicy: ec2("two"),
	})
	assert.Error(t, err)
	assert.Len(t, h.fleet.Agents(), 1)
}

func TestAgentsAndRemove(t *testing.T) {
	h := newHarness()
	h.register(t, "b", 0, -1, ec2("-2"))
	h.register(t, "a", 0, -1, ec2("-2"))
	agents := h.fleet.Agents()
	require.Len(t, agents, 2)
	assert.Equal(t, "a", agents[0].Name())
	assert.Equal(t, "b", agents[1].Name())
	assert.Equal(t, 2.0, testutil.ToFloat64(h.fleet.metrics.agents.WithLabelValues("ACTIVE")))

	require.NoError(t, h.fleet.Remove("a"))
	assert.Equal(t, ErrAgentNotFound, errors.Cause(h.fleet.Remove("a")))
	_, err := h.fleet.Agent("a")
	assert.Equal(t, ErrAgentNotFound, errors.Cause(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.fleet.metrics.agents.WithLabelValues("ACTIVE")))
}

func TestBillingHourIdleTimeout(t *testing.T) {
	h := newHarness()
	idle := h.register(t, "idle", 59, -1, ec2("-2"))
	fresh := h.register(t, "fresh", 58, -1, ec2("-2"))

	assert.Equal(t, 0, h.fleet.CheckAll(context.Background()))
	assert.Equal(t, IdlePending, idle.Phase())
	assert.False(t, idle.IsAcceptingTasks())
	assert.Equal(t, Active, fresh.Phase())
	assert.Equal(t, 1, h.provider.Calls("stop"))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.fleet.metrics.idleTimeouts))

	// A minute later the stopped instance is gone, and the other one is in its
	// final billing minute
	h.now = h.now.Add(time.Minute)
	assert.Equal(t, 0, h.fleet.CheckAll(context.Background()))
	assert.Equal(t, Gone, idle.Phase())
	assert.Equal(t, IdlePending, fresh.Phase())
	assert.Equal(t, 2, h.provider.Calls("stop"))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.fleet.metrics.agents.WithLabelValues("GONE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.fleet.metrics.agents.WithLabelValues("IDLE-PENDING")))
}

func TestCheckDescribesInstanceOnce(t *testing.T) {
	h := newHarness()
	a := h.register(t, "builder", 59, -1, ec2("-2"))

	before := h.provider.Calls("describe")
	require.NoError(t, h.fleet.Check(context.Background(), "builder"))
	assert.Equal(t, before+1, h.provider.Calls("describe"))
	assert.Equal(t, IdlePending, a.Phase())

	// Outside a check the instance is described again
	uptime, err := a.UptimeMillis()
	require.NoError(t, err)
	assert.Equal(t, int64(59*time.Minute/time.Millisecond), uptime)
	assert.Equal(t, before+2, h.provider.Calls("describe"))
}

func TestBusyAgentIsNotIdledOut(t *testing.T) {
	h := newHarness()
	a := h.register(t, "busy", 59, -1, ec2("-2"))
	require.NoError(t, h.fleet.TaskAccepted("busy", retention.Task{ID: "task-1"}))
	assert.False(t, a.IsIdle())

	assert.Equal(t, 0, h.fleet.CheckAll(context.Background()))
	assert.Equal(t, Active, a.Phase())
	assert.Equal(t, 0, h.provider.Calls("stop"))
}

func TestDisconnectedAgentIsNotIdledOut(t *testing.T) {
	h := newHarness()
	a := h.register(t, "offline", 59, -1, ec2("-2"))
	a.SetDisconnected(true)
	assert.False(t, a.IsOnline())

	assert.Equal(t, 0, h.fleet.CheckAll(context.Background()))
	assert.Equal(t, 0, h.provider.Calls("stop"))
}

func TestIdleMinutesUsesIdleTime(t *testing.T) {
	h := newHarness()
	// Up for hours, but idle time counts from registration
	a := h.register(t, "builder", 180, -1, ec2("10"))

	require.NoError(t, h.fleet.Check(context.Background(), "builder"))
	assert.Equal(t, Active, a.Phase())

	h.now = h.now.Add(5 * time.Minute)
	require.NoError(t, h.fleet.TaskAccepted("builder", retention.Task{ID: "task-1"}))
	require.NoError(t, h.fleet.TaskCompleted("builder", retention.Task{ID: "task-1"}, time.Minute))

	h.now = h.now.Add(5 * time.Minute)
	require.NoError(t, h.fleet.Check(context.Background(), "builder"))
	assert.Equal(t, Active, a.Phase(), "only idle for 5 minutes")
	assert.Equal(t, int64(5*60*1000), a.IdleMillis())

	h.now = h.now.Add(10 * time.Minute)
	require.NoError(t, h.fleet.Check(context.Background(), "builder"))
	assert.Equal(t, IdlePending, a.Phase())
}

func TestCheckFailureIsRetried(t *testing.T) {
	h := newHarness()
	a := h.register(t, "builder", 59, -1, ec2("-2"))

	h.provider.FailNext(errors.New("RequestLimitExceeded"))
	assert.Equal(t, 1, h.fleet.CheckAll(context.Background()))
	assert.Equal(t, Active, a.Phase())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.fleet.metrics.checkFailures))
	require.Len(t, h.monitor.Reports(), 1)
	assert.Contains(t, h.monitor.Reports()[0], "RequestLimitExceeded")

	assert.Equal(t, 0, h.fleet.CheckAll(context.Background()))
	assert.Equal(t, IdlePending, a.Phase())
}

func TestStopAndTerminateForwardedOnce(t *testing.T) {
	h := newHarness()
	a := h.register(t, "builder", 59, -1, ec2("-2"))

	h.provider.FailNext(errors.New("UnauthorizedOperation"))
	assert.Error(t, a.IdleTimeout())
	assert.Equal(t, Active, a.Phase())

	// A failed stop is tried again
	require.NoError(t, a.IdleTimeout())
	require.NoError(t, a.IdleTimeout())
	assert.Equal(t, 2, h.provider.Calls("stop"))
	assert.Equal(t, IdlePending, a.Phase())

	require.NoError(t, a.Terminate())
	require.NoError(t, a.Terminate())
	assert.Equal(t, 1, h.provider.Calls("terminate"))
	assert.Equal(t, ShuttingDown, a.Phase())

	require.NoError(t, a.IdleTimeout())
	assert.Equal(t, 2, h.provider.Calls("stop"), "no stop after terminate")
}

func TestUsageLimit(t *testing.T) {
	h := newHarness()
	a := h.register(t, "builder", 0, 3, ec2("-2"))

	require.NoError(t, h.fleet.TaskAccepted("builder", retention.Task{ID: "task-1"}))
	assert.Equal(t, 2, a.UsageLimit())
	require.NoError(t, h.fleet.TaskCompleted("builder", retention.Task{ID: "task-1"}, time.Minute))
	assert.Equal(t, Active, a.Phase())

	require.NoError(t, h.fleet.TaskAccepted("builder", retention.Task{ID: "task-2"}))
	assert.Equal(t, 1, a.UsageLimit())
	require.NoError(t, h.fleet.TaskCompleted("builder", retention.Task{ID: "task-2"}, time.Minute))
	assert.Equal(t, ShuttingDown, a.Phase())
	assert.Equal(t, 1, h.provider.Calls("terminate"))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.fleet.metrics.terminations))

	err := h.fleet.TaskAccepted("builder", retention.Task{ID: "task-3"})
	assert.Equal(t, ErrNotAcceptingTasks, errors.Cause(err))

	// Checks don't stop a terminated agent
	h.now = h.now.Add(59 * time.Minute)
	assert.Equal(t, 0, h.fleet.CheckAll(context.Background()))
	assert.Equal(t, 0, h.provider.Calls("stop"))
	assert.Equal(t, Gone, a.Phase())
}

func TestUsageLimitOfZero(t *testing.T) {
	h := newHarness()
	a := h.register(t, "builder", 3, 0, ec2("-2"))

	require.NoError(t, h.fleet.TaskAccepted("builder", retention.Task{ID: "only-task"}))
	assert.False(t, a.IsAcceptingTasks())
	require.NoError(t, h.fleet.TaskCompleted("builder", retention.Task{ID: "only-task"}, time.Minute))
	assert.Equal(t, ShuttingDown, a.Phase())
	assert.Equal(t, 1, h.provider.Calls("terminate"))
}

func TestUnlimitedUsage(t *testing.T) {
	h := newHarness()
	a := h.register(t, "builder", 0, -1, ec2("0"))
	for i := 0; i < 50; i++ {
		require.NoError(t, h.fleet.TaskAccepted("builder", retention.Task{}))
		require.NoError(t, h.fleet.TaskCompleted("builder", retention.Task{}, time.Second))
	}
	assert.Equal(t, Active, a.Phase())
	assert.Equal(t, 0, h.provider.Calls("terminate"))
}

func TestTaskCompletedWithoutTasks(t *testing.T) {
	h := newHarness()
	h.register(t, "builder", 0, -1, ec2("-2"))
	err := h.fleet.TaskCompleted("builder", retention.Task{}, time.Second)
	assert.Equal(t, ErrNoActiveTasks, errors.Cause(err))

	err = h.fleet.TaskAccepted("missing", retention.Task{})
	assert.Equal(t, ErrAgentNotFound, errors.Cause(err))
}

func TestAgentConfigDefaults(t *testing.T) {
	var c AgentConfig
	require.NoError(t, c.UnmarshalJSON([]byte(`{"name": "builder"}`)))
	assert.Equal(t, -1, c.UsageLimit)
	require.NoError(t, c.UnmarshalJSON([]byte(`{"name": "builder", "usageLimit": 0}`)))
	assert.Equal(t, 0, c.UsageLimit)
}
