package retention

import (
	"strings"

	"github.com/pkg/errors"
)

// InstanceState is the state of the cloud instance backing an agent.
type InstanceState int

// Instance states, named after their EC2 counterparts.
const (
	Pending InstanceState = iota
	Running
	Stopping
	Stopped
	ShuttingDown
	Terminated
)

var instanceStateNames = []string{
	Pending:      "pending",
	Running:      "running",
	Stopping:     "stopping",
	Stopped:      "stopped",
	ShuttingDown: "shutting-down",
	Terminated:   "terminated",
}

func (s InstanceState) String() string {
	if s < 0 || int(s) >= len(instanceStateNames) {
		return "unknown"
	}
	return instanceStateNames[s]
}

// ParseInstanceState returns the InstanceState named s.
func ParseInstanceState(s string) (InstanceState, error) {
	for i, name := range instanceStateNames {
		if strings.EqualFold(name, s) {
			return InstanceState(i), nil
		}
	}
	return Pending, errors.Errorf("unknown instance state '%s'", s)
}

// MarshalText implements encoding.TextMarshaler
func (s InstanceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *InstanceState) UnmarshalText(text []byte) error {
	state, err := ParseInstanceState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// Alive returns true if the instance is pending or running.
func (s InstanceState) Alive() bool {
	return s == Pending || s == Running
}

// Agent is the capability set the Controller needs from an agent. It is
// implemented by the component that owns the agent and its cloud instance.
type Agent interface {
	// IsIdle returns true, if the agent isn't running any tasks
	IsIdle() bool
	// IsOnline returns true, if the agent is connected and usable
	IsOnline() bool
	// IsAcceptingTasks returns false, once the agent has been drained
	IsAcceptingTasks() bool
	// UptimeMillis returns milliseconds since the instance became usable,
	// this may require a query against the cloud provider and thus fail.
	UptimeMillis() (int64, error)
	// InstanceState returns the last known state of the backing instance
	InstanceState() InstanceState
	// UsageLimit returns the number of task executions left, -1 if unlimited
	UsageLimit() int
	// IdleTimeout requests a soft shutdown of the instance
	IdleTimeout() error
	// Terminate requests permanent destruction of the instance
	Terminate() error
}

// IdleTimer may be implemented by an Agent that tracks how long it has been
// continuously idle. If implemented, plain idle-timeout mode compares the idle
// duration rather than the uptime against the configured idle-minutes.
type IdleTimer interface {
	// IdleMillis returns milliseconds since the agent last finished a task,
	// zero if it's currently busy.
	IdleMillis() int64
}

// Executor is an execution slot on an agent.
type Executor struct {
	Owner  Agent
	Number int
}

// Task identifies a task execution. It's informational only.
type Task struct {
	ID string
}
