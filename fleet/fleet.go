package fleet

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/taskcluster/agent-retention/cloud"
	"github.com/taskcluster/agent-retention/lifecyclepolicy"
	"github.com/taskcluster/agent-retention/retention"
	"github.com/taskcluster/agent-retention/runtime"
	"github.com/taskcluster/agent-retention/runtime/util"
)

// ErrAgentNotFound is returned when no agent with the given name is
// registered.
var ErrAgentNotFound = errors.New("agent not found")

// ErrAgentExists is returned when registering an agent with a name already in
// use.
var ErrAgentExists = errors.New("an agent with this name is already registered")

const defaultTimeout = 30 * time.Second

// Options for creating a Fleet
type Options struct {
	Monitor  runtime.Monitor
	Provider cloud.Provider
	// Registry metrics are registered with, a private registry if nil
	Registry prometheus.Registerer
	// Clock returns the current time, defaults to time.Now
	Clock func() time.Time
	// Timeout for each request to the cloud provider, defaults to 30s
	Timeout time.Duration
}

// A Fleet is a set of agents, each with their own life-cycle policy.
type Fleet struct {
	monitor  runtime.Monitor
	provider cloud.Provider
	metrics  *metrics
	clock    func() time.Time
	timeout  time.Duration

	m      sync.Mutex
	agents map[string]*Agent
}

// New returns an empty Fleet
func New(options Options) *Fleet {
	if options.Monitor == nil {
		panic("fleet.Options.Monitor is nil, this is a contract violation")
	}
	if options.Provider == nil {
		panic("fleet.Options.Provider is nil, this is a contract violation")
	}
	if options.Registry == nil {
		options.Registry = prometheus.NewRegistry()
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}
	if options.Timeout == 0 {
		options.Timeout = defaultTimeout
	}
	f := &Fleet{
		monitor:  options.Monitor.WithPrefix("fleet"),
		provider: options.Provider,
		metrics:  newMetrics(options.Registry),
		clock:    options.Clock,
		timeout:  options.Timeout,
		agents:   make(map[string]*Agent),
	}
	f.updatePhases()
	return f
}

// Register an agent, launching an instance for it if config doesn't name one.
func (f *Fleet) Register(ctx context.Context, config AgentConfig) (*Agent, error) {
	f.m.Lock()
	_, exists := f.agents[config.Name]
	f.m.Unlock()
	if exists {
		return nil, errors.Wrapf(ErrAgentExists, "cannot register '%s'", config.Name)
	}

	monitor := f.monitor.WithTag("agent", config.Name)
	policy, err := lifecyclepolicy.New(lifecyclepolicy.Options{
		Monitor: monitor,
		Clock:   f.clock,
		Config:  config.LifeCyclePolicy,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot register '%s'", config.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var instance cloud.Instance
	if config.InstanceID == "" {
		instance, err = f.provider.Launch(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to launch instance for '%s'", config.Name)
		}
		monitor.Infof("launched instance %s", instance.ID)
	} else {
		instance, err = f.provider.Describe(ctx, config.InstanceID)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot register '%s'", config.Name)
		}
	}

	a := &Agent{
		name:       config.Name,
		provider:   f.provider,
		monitor:    monitor.WithTag("instance", instance.ID),
		clock:      f.clock,
		timeout:    f.timeout,
		policy:     policy,
		tasks:      newTaskCounter(f.clock),
		instance:   instance,
		usageLimit: config.UsageLimit,
		accepting:  true,
		phase:      phaseOf(instance.State, Active),
	}
	if a.phase != Active {
		a.accepting = false
	}

	f.m.Lock()
	if _, ok := f.agents[config.Name]; ok {
		f.m.Unlock()
		return nil, errors.Wrapf(ErrAgentExists, "cannot register '%s'", config.Name)
	}
	f.agents[config.Name] = a
	f.m.Unlock()

	monitor.Infof("registered agent with instance %s in state %s", instance.ID, instance.State)
	f.updatePhases()
	return a, nil
}

// Remove the agent with given name, this doesn't touch its instance.
func (f *Fleet) Remove(name string) error {
	f.m.Lock()
	_, ok := f.agents[name]
	delete(f.agents, name)
	f.m.Unlock()

	if !ok {
		return errors.Wrapf(ErrAgentNotFound, "cannot remove '%s'", name)
	}
	f.updatePhases()
	return nil
}

// Agent returns the agent with given name
func (f *Fleet) Agent(name string) (*Agent, error) {
	f.m.Lock()
	defer f.m.Unlock()

	a, ok := f.agents[name]
	if !ok {
		return nil, errors.Wrapf(ErrAgentNotFound, "no agent named '%s'", name)
	}
	return a, nil
}

// Agents returns all agents sorted by name
func (f *Fleet) Agents() []*Agent {
	f.m.Lock()
	agents := make([]*Agent, 0, len(f.agents))
	for _, a := range f.agents {
		agents = append(agents, a)
	}
	f.m.Unlock()

	sort.Slice(agents, func(i, j int) bool {
		return agents[i].name < agents[j].name
	})
	return agents
}

// CheckAll checks all agents in parallel. Failures are reported and the
// agent is checked again on the next call, the number of failures is
// returned.
func (f *Fleet) CheckAll(ctx context.Context) int {
	start := f.clock()
	agents := f.Agents()
	failed := make([]bool, len(agents))
	util.Spawn(len(agents), func(i int) {
		a := agents[i]
		incidentID := a.monitor.CapturePanic(func() {
			if err := f.check(ctx, a); err != nil {
				failed[i] = true
				f.metrics.checkFailures.Inc()
				a.monitor.ReportWarning(err, "check failed, retrying on next tick")
			}
		})
		if incidentID != "" {
			failed[i] = true
			f.metrics.checkFailures.Inc()
		}
	})
	f.updatePhases()
	f.metrics.checkDuration.Observe(f.clock().Sub(start).Seconds())

	count := 0
	for _, failure := range failed {
		if failure {
			count++
		}
	}
	return count
}

// Check the agent with given name
func (f *Fleet) Check(ctx context.Context, name string) error {
	a, err := f.Agent(name)
	if err != nil {
		return err
	}
	defer f.updatePhases()
	return f.check(ctx, a)
}

func (f *Fleet) check(ctx context.Context, a *Agent) error {
	a.op.Lock()
	defer a.op.Unlock()

	if a.Phase() == Gone {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if _, err := a.refresh(ctx); err != nil {
		return err
	}
	a.setDescribed(true)
	defer a.setDescribed(false)
	if a.Phase() == Gone {
		a.monitor.Infof("instance is %s", a.InstanceState())
		return nil
	}

	before := a.Phase()
	err := a.policy.Check(a)
	if before == Active && a.Phase() == IdlePending {
		f.metrics.idleTimeouts.Inc()
	}
	return err
}

// TaskAccepted records that the agent with given name has started task.
// ErrNotAcceptingTasks is returned if the agent is drained.
func (f *Fleet) TaskAccepted(name string, task retention.Task) error {
	a, err := f.Agent(name)
	if err != nil {
		return err
	}
	a.op.Lock()
	defer a.op.Unlock()

	executor, err := a.accept()
	if err != nil {
		return errors.Wrapf(err, "cannot accept task '%s' on '%s'", task.ID, name)
	}
	f.metrics.tasks.WithLabelValues("accepted").Inc()
	a.policy.TaskAccepted(executor, task)
	return nil
}

// TaskCompleted records that task has finished on the agent with given name,
// after running for d.
func (f *Fleet) TaskCompleted(name string, task retention.Task, d time.Duration) error {
	a, err := f.Agent(name)
	if err != nil {
		return err
	}
	a.op.Lock()
	defer a.op.Unlock()
	defer f.updatePhases()

	executor, err := a.complete()
	if err != nil {
		return errors.Wrapf(err, "cannot complete task '%s' on '%s'", task.ID, name)
	}
	f.metrics.tasks.WithLabelValues("completed").Inc()

	before := a.Phase()
	err = a.policy.TaskCompleted(executor, task, d)
	if before != ShuttingDown && a.Phase() == ShuttingDown {
		f.metrics.terminations.Inc()
	}
	return err
}

func (f *Fleet) updatePhases() {
	count := make(map[Phase]int)
	for _, a := range f.Agents() {
		count[a.Phase()]++
	}
	f.metrics.setPhases(count)
}
