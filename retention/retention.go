package retention

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/taskcluster/agent-retention/runtime"
)

// ErrInvalidIdleMinutes is returned by New if idle-minutes isn't an integer, or
// is larger than MaxIdleMinutes.
var ErrInvalidIdleMinutes = errors.New("idle-minutes must be a signed integer")

// MaxIdleMinutes is the largest idle-timeout a time.Duration can hold.
const MaxIdleMinutes = math.MaxInt64 / int64(time.Minute)

// minimumCheckInterval is the shortest interval between two evaluations.
// It's also the interval in billing-hour mode.
const minimumCheckInterval = time.Minute

// billingHour is the granularity at which instances are billed.
const billingHour = time.Hour

// Options for creating a Controller.
type Options struct {
	// Monitor is required
	Monitor runtime.Monitor
	// Clock returns the current time, defaults to time.Now
	Clock func() time.Time
}

// A Controller decides when a single agent should be idled out or terminated.
type Controller struct {
	idleMinutes    int
	nextCheckAfter time.Time
	clock          func() time.Time
	monitor        runtime.Monitor
}

// New creates a Controller from an idle-minutes setting. Positive values are
// an idle-timeout in minutes, negative values enable billing-hour mode and zero
// disables idle checks. Settings that aren't integers, or positive settings
// above MaxIdleMinutes, fail with ErrInvalidIdleMinutes.
func New(idleMinutes string, options Options) (*Controller, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(idleMinutes))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidIdleMinutes, "cannot parse '%s'", idleMinutes)
	}
	if int64(minutes) > MaxIdleMinutes {
		return nil, errors.Wrapf(ErrInvalidIdleMinutes, "'%s' exceeds %d minutes", idleMinutes, MaxIdleMinutes)
	}
	if options.Monitor == nil {
		panic("retention.Options.Monitor is nil, this is a contract violation")
	}
	clock := options.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Controller{
		idleMinutes: minutes,
		clock:       clock,
		monitor:     options.Monitor,
	}, nil
}

// IdleMinutes returns the parsed idle-minutes setting.
func (c *Controller) IdleMinutes() int {
	return c.idleMinutes
}

// NextCheckAfter returns the time before which Check() won't evaluate the
// agent. Zero, if Check() has never evaluated.
func (c *Controller) NextCheckAfter() time.Time {
	return c.nextCheckAfter
}

// checkInterval is the time between evaluations
func (c *Controller) checkInterval() time.Duration {
	if c.idleMinutes < 1 {
		return minimumCheckInterval
	}
	return time.Duration(c.idleMinutes) * time.Minute
}

// Check evaluates whether agent should be idled out, and calls
// agent.IdleTimeout() if so.
//
// Evaluations are throttled to at most one per max(1, idle-minutes) minutes.
// Calls arriving before then return immediately, without touching the agent.
// Errors from the agent are returned wrapped, errors.Cause() yields the
// original error. The next call evaluates from scratch.
func (c *Controller) Check(agent Agent) error {
	if c.idleMinutes == 0 {
		return nil
	}

	now := c.clock()
	if now.Before(c.nextCheckAfter) {
		c.monitor.Count("check.throttled", 1)
		return nil
	}
	c.nextCheckAfter = now.Add(c.checkInterval())
	c.monitor.Count("check.evaluated", 1)

	if !agent.IsIdle() || !agent.IsOnline() {
		return nil
	}

	var (
		expired bool
		reason  string
	)
	if c.idleMinutes < 0 {
		uptime, err := uptimeOf(agent)
		if err != nil {
			return err
		}
		expired = inFinalBillingMinute(uptime)
		reason = "idle in the final minute of billing hour, uptime: " + uptime.String()
	} else {
		idle, err := idleTimeOf(agent)
		if err != nil {
			return err
		}
		expired = idle >= time.Duration(c.idleMinutes)*time.Minute
		reason = "idle for " + idle.String()
	}

	if !expired {
		return nil
	}

	c.monitor.Infof("idle timeout of agent in state '%s', %s", agent.InstanceState(), reason)
	c.monitor.Count("idle-timeout", 1)
	return errors.Wrap(agent.IdleTimeout(), "idle timeout request failed")
}

// TaskAccepted is called when a task is started on executor. It has no effect,
// usage-limits are accounted for by the executing side.
func (c *Controller) TaskAccepted(executor Executor, task Task) {}

// TaskCompleted is called when task has finished on executor, after the
// agent's remaining usage-limit has been updated.
//
// If the agent has one or zero executions left it's terminated, regardless of
// whether it's idle.
func (c *Controller) TaskCompleted(executor Executor, task Task, duration time.Duration) error {
	agent := executor.Owner
	if agent == nil {
		return nil
	}
	c.monitor.Measure("task-duration", duration.Seconds()*1000)

	limit := agent.UsageLimit()
	if limit < 0 {
		c.monitor.Debugf("usage-limit is unlimited, ignoring completion of task '%s'", task.ID)
		return nil
	}
	if limit > 1 {
		c.monitor.Debugf("agent has %d executions left after task '%s'", limit, task.ID)
		return nil
	}

	c.monitor.Infof("terminating agent as usage-limit is exhausted (%d left, accepting tasks: %t)",
		limit, agent.IsAcceptingTasks())
	c.monitor.Count("terminate", 1)
	return errors.Wrap(agent.Terminate(), "terminate request failed")
}

// inFinalBillingMinute returns true, if uptime is within the last minute of
// a billing hour. The first minute after rollover is minute zero of a fresh
// hour and never matches.
func inFinalBillingMinute(uptime time.Duration) bool {
	return (uptime%billingHour)/time.Minute == 59
}

func uptimeOf(agent Agent) (time.Duration, error) {
	ms, err := agent.UptimeMillis()
	if err != nil {
		return 0, errors.Wrap(err, "failed to obtain agent uptime")
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func idleTimeOf(agent Agent) (time.Duration, error) {
	if t, ok := agent.(IdleTimer); ok {
		return time.Duration(t.IdleMillis()) * time.Millisecond, nil
	}
	return uptimeOf(agent)
}
