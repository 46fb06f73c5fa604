package fleet

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/taskcluster/agent-retention/cloud"
	"github.com/taskcluster/agent-retention/lifecyclepolicy"
	"github.com/taskcluster/agent-retention/retention"
	"github.com/taskcluster/agent-retention/runtime"
	"github.com/taskcluster/agent-retention/runtime/atomics"
)

// ErrNotAcceptingTasks is returned when a task is accepted by an agent that
// has been drained, or is on its way down.
var ErrNotAcceptingTasks = errors.New("agent is not accepting tasks")

// ErrNoActiveTasks is returned when a task completes on an agent that has no
// tasks running.
var ErrNoActiveTasks = errors.New("agent has no active tasks")

// An Agent is a registered agent and the cloud instance backing it. It
// implements retention.Agent and retention.IdleTimer.
type Agent struct {
	name     string
	provider cloud.Provider
	monitor  runtime.Monitor
	clock    func() time.Time
	timeout  time.Duration
	policy   lifecyclepolicy.LifeCyclePolicy
	tasks    *taskCounter
	actions  actionOnce
	// disconnected agents are never online
	disconnected atomics.Bool

	// op serializes policy calls for this agent
	op sync.Mutex

	m        sync.Mutex
	instance cloud.Instance
	// described is set while a check holds op after refreshing instance
	described  bool
	usageLimit int
	accepting  bool
	phase      Phase
}

// Status is a snapshot of an Agent
type Status struct {
	Name             string                  `json:"name"`
	InstanceID       string                  `json:"instanceId"`
	InstanceState    retention.InstanceState `json:"instanceState"`
	LaunchTime       time.Time               `json:"launchTime"`
	Phase            Phase                   `json:"phase"`
	Online           bool                    `json:"online"`
	AcceptingTasks   bool                    `json:"acceptingTasks"`
	ActiveTasks      int                     `json:"activeTasks"`
	UsageLimit       int                     `json:"usageLimit"`
	IdleMilliseconds int64                   `json:"idleMs"`
}

// Name returns the name the agent was registered with
func (a *Agent) Name() string {
	return a.name
}

// InstanceID returns the id of the cloud instance backing the agent
func (a *Agent) InstanceID() string {
	a.m.Lock()
	defer a.m.Unlock()
	return a.instance.ID
}

// Phase returns the current phase of the agent
func (a *Agent) Phase() Phase {
	a.m.Lock()
	defer a.m.Unlock()
	return a.phase
}

// Status returns a snapshot of the agent
func (a *Agent) Status() Status {
	a.m.Lock()
	defer a.m.Unlock()
	return Status{
		Name:             a.name,
		InstanceID:       a.instance.ID,
		InstanceState:    a.instance.State,
		LaunchTime:       a.instance.LaunchTime,
		Phase:            a.phase,
		Online:           a.online(),
		AcceptingTasks:   a.accepting,
		ActiveTasks:      a.tasks.Value(),
		UsageLimit:       a.usageLimit,
		IdleMilliseconds: a.IdleMillis(),
	}
}

// SetDisconnected marks the agent as (dis)connected, disconnected agents are
// not online and never idled out.
func (a *Agent) SetDisconnected(disconnected bool) {
	if a.disconnected.Swap(disconnected) != disconnected {
		a.monitor.Infof("agent disconnected: %t", disconnected)
	}
}

// IsIdle returns true, if the agent has no active tasks
func (a *Agent) IsIdle() bool {
	return a.tasks.Value() == 0
}

// IsOnline returns true, if the instance is running and the agent connected
func (a *Agent) IsOnline() bool {
	a.m.Lock()
	defer a.m.Unlock()
	return a.online()
}

func (a *Agent) online() bool {
	return !a.disconnected.Get() && a.instance.State == retention.Running
}

// IsAcceptingTasks returns false, if the agent has been drained
func (a *Agent) IsAcceptingTasks() bool {
	a.m.Lock()
	defer a.m.Unlock()
	return a.accepting
}

// UptimeMillis returns milliseconds since the instance was launched. Outside
// a check this refreshes the instance from the cloud provider, during a check
// the instance described at its start is used.
func (a *Agent) UptimeMillis() (int64, error) {
	a.m.Lock()
	instance, described := a.instance, a.described
	a.m.Unlock()

	if !described {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		var err error
		if instance, err = a.refresh(ctx); err != nil {
			return 0, err
		}
	}
	return int64(a.clock().Sub(instance.LaunchTime) / time.Millisecond), nil
}

func (a *Agent) setDescribed(described bool) {
	a.m.Lock()
	a.described = described
	a.m.Unlock()
}

// InstanceState returns the last known state of the instance
func (a *Agent) InstanceState() retention.InstanceState {
	a.m.Lock()
	defer a.m.Unlock()
	return a.instance.State
}

// UsageLimit returns the number of task executions left, -1 if unlimited
func (a *Agent) UsageLimit() int {
	a.m.Lock()
	defer a.m.Unlock()
	return a.usageLimit
}

// IdleMillis returns milliseconds since the agent last finished a task
func (a *Agent) IdleMillis() int64 {
	return int64(a.tasks.IdleTime() / time.Millisecond)
}

// IdleTimeout stops the instance, the agent stops accepting tasks.
func (a *Agent) IdleTimeout() error {
	return a.actions.Stop(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		id := a.InstanceID()
		a.monitor.Infof("stopping instance %s", id)
		if err := a.provider.Stop(ctx, id); err != nil {
			return errors.Wrapf(err, "failed to stop instance %s", id)
		}
		a.m.Lock()
		a.accepting = false
		a.instance.State = retention.Stopping
		a.phase = phaseOf(retention.Stopping, a.phase)
		a.m.Unlock()
		return nil
	})
}

// Terminate destroys the instance, the agent stops accepting tasks.
func (a *Agent) Terminate() error {
	return a.actions.Terminate(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		id := a.InstanceID()
		a.monitor.Infof("terminating instance %s", id)
		if err := a.provider.Terminate(ctx, id); err != nil {
			return errors.Wrapf(err, "failed to terminate instance %s", id)
		}
		a.m.Lock()
		a.accepting = false
		a.instance.State = retention.ShuttingDown
		a.phase = ShuttingDown
		a.m.Unlock()
		return nil
	})
}

// refresh the instance from the cloud provider
func (a *Agent) refresh(ctx context.Context) (cloud.Instance, error) {
	instance, err := a.provider.Describe(ctx, a.InstanceID())
	if err != nil {
		return cloud.Instance{}, errors.Wrapf(err, "failed to describe instance of agent '%s'", a.name)
	}

	a.m.Lock()
	defer a.m.Unlock()
	a.instance = instance
	a.phase = phaseOf(instance.State, a.phase)
	if a.phase != Active {
		a.accepting = false
	}
	return instance, nil
}

// accept does the usage bookkeeping for a task being started, and returns
// the executor running it.
func (a *Agent) accept() (retention.Executor, error) {
	a.m.Lock()
	defer a.m.Unlock()

	if !a.accepting || a.phase != Active {
		return retention.Executor{}, ErrNotAcceptingTasks
	}
	switch {
	case a.usageLimit < 0:
	case a.usageLimit <= 1:
		// Last execution, the limit is kept so the policy sees it on completion
		a.accepting = false
	default:
		a.usageLimit--
	}
	n := a.tasks.Increment()
	return retention.Executor{Owner: a, Number: n - 1}, nil
}

// complete does the bookkeeping for a task that finished
func (a *Agent) complete() (retention.Executor, error) {
	if !a.tasks.Decrement() {
		return retention.Executor{}, ErrNoActiveTasks
	}
	return retention.Executor{Owner: a, Number: a.tasks.Value()}, nil
}
