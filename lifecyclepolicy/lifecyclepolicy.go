package lifecyclepolicy

import (
	"time"

	"github.com/taskcluster/agent-retention/retention"
)

// A LifeCyclePolicy implements the logic for when to stop or terminate an
// agent.
type LifeCyclePolicy interface {
	// Check is called periodically, roughly once per minute, for each agent.
	Check(agent retention.Agent) error

	// TaskAccepted is called when executor has started task.
	TaskAccepted(executor retention.Executor, task retention.Task)

	// TaskCompleted is called when task has finished on executor. The
	// parameter d is the time it took to run the task.
	TaskCompleted(executor retention.Executor, task retention.Task, d time.Duration) error
}

// Base provides a base implemetation of LifeCyclePolicy, implementors should
// always embed this to ensure forward compatibility.
type Base struct{}

// Check does nothing, but serves to provide an empty implementation
func (Base) Check(retention.Agent) error { return nil }

// TaskAccepted does nothing, but serves to provide an empty implementation
func (Base) TaskAccepted(retention.Executor, retention.Task) {}

// TaskCompleted does nothing, but serves to provide an empty implementation
func (Base) TaskCompleted(retention.Executor, retention.Task, time.Duration) error { return nil }
