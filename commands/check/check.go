// Package check provides a command that evaluates the retention policy for a
// described agent, without contacting any cloud provider.
package check

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/taskcluster/agent-retention/commands"
	"github.com/taskcluster/agent-retention/retention"
	"github.com/taskcluster/agent-retention/runtime"
	"github.com/taskcluster/agent-retention/runtime/monitoring"
)

func init() {
	commands.Register("check", cmd{})
}

type cmd struct{}

func (cmd) Summary() string {
	return "Evaluate the retention policy for an agent"
}

func (cmd) Usage() string {
	return `
agent-retention check evaluates whether an agent with the given idle-minutes
setting would be idled out or terminated. Negative idle-minutes enable
billing-hour mode, zero disables idle checks. Negative values must follow "--".

usage: agent-retention check [options] [--] <idle-minutes>

options:
  --uptime <duration>       Uptime of the agent's instance [default: 0s].
  --idle <duration>         Time the agent has been idle, defaults to uptime.
  --busy                    The agent is running a task.
  --offline                 The agent is not connected.
  --usage-limit <n>         Task executions left, -1 for unlimited [default: -1].
  --task-completed          Evaluate the completion of a task, instead of a
                            periodic check.
  -j --json                 Print the decision as JSON.
  -h --help                 Show this screen.
`
}

// Decisions
const (
	None        = "none"
	IdleTimeout = "idle-timeout"
	Terminate   = "terminate"
)

type options struct {
	IdleMinutes   string
	Uptime        time.Duration
	Idle          *time.Duration
	Busy          bool
	Offline       bool
	UsageLimit    int
	TaskCompleted bool
}

type result struct {
	Decision    string `json:"decision"`
	IdleMinutes int    `json:"idleMinutes"`
	UptimeMs    int64  `json:"uptimeMs"`
	UsageLimit  int    `json:"usageLimit"`
}

func (cmd) Execute(args map[string]interface{}) bool {
	o, err := parseOptions(args)
	if err != nil {
		fmt.Println(err)
		return false
	}

	r, err := evaluate(o, monitoring.NewLoggingMonitor("warning", nil, ""))
	if err != nil {
		fmt.Println(err)
		return false
	}

	if args["--json"].(bool) {
		data, _ := json.Marshal(r)
		fmt.Println(string(data))
	} else {
		fmt.Println(r.Decision)
	}
	return true
}

func parseOptions(args map[string]interface{}) (options, error) {
	o := options{
		IdleMinutes:   args["<idle-minutes>"].(string),
		Busy:          args["--busy"].(bool),
		Offline:       args["--offline"].(bool),
		TaskCompleted: args["--task-completed"].(bool),
	}
	var err error
	o.Uptime, err = time.ParseDuration(args["--uptime"].(string))
	if err != nil || o.Uptime < 0 {
		return o, errors.Errorf("invalid --uptime '%s'", args["--uptime"])
	}
	if s, ok := args["--idle"].(string); ok {
		idle, err := time.ParseDuration(s)
		if err != nil || idle < 0 {
			return o, errors.Errorf("invalid --idle '%s'", s)
		}
		o.Idle = &idle
	}
	o.UsageLimit, err = strconv.Atoi(args["--usage-limit"].(string))
	if err != nil || o.UsageLimit < -1 {
		return o, errors.Errorf("invalid --usage-limit '%s'", args["--usage-limit"])
	}
	return o, nil
}

// evaluate runs a single check, or task completion, against a static agent
func evaluate(o options, monitor runtime.Monitor) (result, error) {
	controller, err := retention.New(o.IdleMinutes, retention.Options{Monitor: monitor})
	if err != nil {
		return result{}, err
	}

	a := &agent{o: o}
	var target retention.Agent = a
	if o.Idle != nil {
		target = &idleAgent{a}
	}

	if o.TaskCompleted {
		err = controller.TaskCompleted(retention.Executor{Owner: target}, retention.Task{ID: "check"}, 0)
	} else {
		err = controller.Check(target)
	}
	if err != nil {
		return result{}, err
	}

	r := result{
		Decision:    None,
		IdleMinutes: controller.IdleMinutes(),
		UptimeMs:    int64(o.Uptime / time.Millisecond),
		UsageLimit:  o.UsageLimit,
	}
	switch {
	case a.terminated:
		r.Decision = Terminate
	case a.idledOut:
		r.Decision = IdleTimeout
	}
	return r, nil
}
