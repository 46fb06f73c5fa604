package fleet

import (
	"sync"
	"time"

	"github.com/taskcluster/agent-retention/runtime/atomics"
)

// taskCounter keeps count of number of active tasks as well as idle time.
type taskCounter struct {
	m         sync.Mutex
	value     int
	idleTimer atomics.StopWatch
}

func newTaskCounter(clock func() time.Time) *taskCounter {
	c := &taskCounter{}
	c.idleTimer.Clock = clock
	c.idleTimer.Start()
	return c
}

// IdleTime returns the duration since last time the agent was working on a
// task. Zero if the agent is currently working.
func (c *taskCounter) IdleTime() time.Duration {
	return c.idleTimer.Elapsed()
}

// Increment the active task count, returns the new count
func (c *taskCounter) Increment() int {
	c.m.Lock()
	defer c.m.Unlock()

	c.value++
	c.idleTimer.Reset()
	return c.value
}

// Decrement the active task count, returns false if it was already zero
func (c *taskCounter) Decrement() bool {
	c.m.Lock()
	defer c.m.Unlock()

	if c.value == 0 {
		return false
	}
	c.value--
	if c.value == 0 {
		c.idleTimer.Start()
	}
	return true
}

// Value returns the number active tasks
func (c *taskCounter) Value() int {
	c.m.Lock()
	defer c.m.Unlock()

	return c.value
}
