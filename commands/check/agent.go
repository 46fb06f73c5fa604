package check

import (
	"time"

	"github.com/taskcluster/agent-retention/retention"
)

// agent is a retention.Agent described by command line options, recording
// the actions requested.
type agent struct {
	o          options
	idledOut   bool
	terminated bool
}

func (a *agent) IsIdle() bool           { return !a.o.Busy }
func (a *agent) IsOnline() bool         { return !a.o.Offline }
func (a *agent) IsAcceptingTasks() bool { return a.o.UsageLimit < 0 || a.o.UsageLimit > 1 }
func (a *agent) UsageLimit() int        { return a.o.UsageLimit }

func (a *agent) UptimeMillis() (int64, error) {
	return int64(a.o.Uptime / time.Millisecond), nil
}

func (a *agent) InstanceState() retention.InstanceState {
	return retention.Running
}

func (a *agent) IdleTimeout() error {
	a.idledOut = true
	return nil
}

func (a *agent) Terminate() error {
	a.terminated = true
	return nil
}

// idleAgent is an agent that knows how long it has been idle
type idleAgent struct {
	*agent
}

func (a *idleAgent) IdleMillis() int64 {
	return int64(*a.o.Idle / time.Millisecond)
}
