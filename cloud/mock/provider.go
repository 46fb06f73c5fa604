package mock

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/taskcluster/agent-retention/cloud"
	"github.com/taskcluster/agent-retention/retention"
	"github.com/taskcluster/agent-retention/runtime"
	"github.com/taskcluster/agent-retention/runtime/schema"
	"github.com/taskcluster/slugid-go/slugid"
)

type factory struct{}

var configSchema = map[string]interface{}{
	"title":       "Mock Cloud Provider",
	"description": "In-memory cloud provider for tests and experiments.",
	"type":        "object",
	"properties": map[string]interface{}{
		"transitionSeconds": map[string]interface{}{
			"title":       "Transition Seconds",
			"description": "Seconds an instance spends pending, stopping or shutting-down.",
			"type":        "integer",
			"minimum":     0,
		},
		"instances": map[string]interface{}{
			"title":       "Instances",
			"description": "Instances running when the provider is created.",
			"type":        "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":      "string",
						"minLength": 1,
					},
					"uptimeMinutes": map[string]interface{}{
						"type":    "integer",
						"minimum": 0,
					},
				},
				"required":             []interface{}{"id"},
				"additionalProperties": false,
			},
		},
	},
	"additionalProperties": false,
}

type config struct {
	TransitionSeconds int `json:"transitionSeconds"`
	Instances         []struct {
		ID            string `json:"id"`
		UptimeMinutes int    `json:"uptimeMinutes"`
	} `json:"instances"`
}

func (factory) ConfigSchema() map[string]interface{} {
	return configSchema
}

func (factory) NewProvider(options cloud.ProviderOptions) (cloud.Provider, error) {
	var c config
	if err := schema.MustCompile(configSchema).MustMap(options.Config, &c); err != nil {
		return nil, err
	}
	p := New(options.Monitor, options.Clock)
	p.Transition = time.Duration(c.TransitionSeconds) * time.Second
	for _, i := range c.Instances {
		p.Add(i.ID, p.clock().Add(-time.Duration(i.UptimeMinutes)*time.Minute))
	}
	return p, nil
}

func init() {
	cloud.Register("mock", factory{})
}

type instance struct {
	cloud.Instance
	changed time.Time
}

// Provider is an in-memory cloud.Provider.
type Provider struct {
	m         sync.Mutex
	instances map[string]*instance
	calls     map[string]int
	failNext  error
	clock     func() time.Time
	monitor   runtime.Monitor
	// Transition is the time instances spend in transitional states
	Transition time.Duration
}

// New returns a Provider with no instances, clock may be nil.
func New(monitor runtime.Monitor, clock func() time.Time) *Provider {
	if clock == nil {
		clock = time.Now
	}
	return &Provider{
		instances: make(map[string]*instance),
		calls:     make(map[string]int),
		clock:     clock,
		monitor:   monitor,
	}
}

// Add a running instance launched at launchTime.
func (p *Provider) Add(id string, launchTime time.Time) {
	p.m.Lock()
	defer p.m.Unlock()

	p.instances[id] = &instance{
		Instance: cloud.Instance{
			ID:         id,
			State:      retention.Running,
			LaunchTime: launchTime,
		},
		changed: launchTime,
	}
}

// FailNext causes the next operation to fail with err.
func (p *Provider) FailNext(err error) {
	p.m.Lock()
	defer p.m.Unlock()
	p.failNext = err
}

// Calls returns the number of calls to the given operation, one of
// "launch", "describe", "stop" and "terminate".
func (p *Provider) Calls(op string) int {
	p.m.Lock()
	defer p.m.Unlock()
	return p.calls[op]
}

// begin an operation, must be called with p.m locked
func (p *Provider) begin(op string) error {
	p.calls[op]++
	err := p.failNext
	p.failNext = nil
	return err
}

// settle moves an instance out of a transitional state, if the transition has
// completed. Must be called with p.m locked.
func (p *Provider) settle(i *instance) {
	if p.clock().Sub(i.changed) < p.Transition {
		return
	}
	switch i.State {
	case retention.Pending:
		i.State = retention.Running
	case retention.Stopping:
		i.State = retention.Stopped
	case retention.ShuttingDown:
		i.State = retention.Terminated
	}
}

func (p *Provider) transition(i *instance, to retention.InstanceState) {
	i.State = to
	i.changed = p.clock()
	p.settle(i)
	p.monitor.Infof("instance %s is %s", i.ID, i.State)
}

// Launch starts a new instance with a slugid as id.
func (p *Provider) Launch(ctx context.Context) (cloud.Instance, error) {
	p.m.Lock()
	defer p.m.Unlock()

	if err := p.begin("launch"); err != nil {
		return cloud.Instance{}, err
	}
	if err := ctx.Err(); err != nil {
		return cloud.Instance{}, err
	}
	i := &instance{Instance: cloud.Instance{
		ID:         "i-" + slugid.Nice(),
		LaunchTime: p.clock(),
	}}
	p.transition(i, retention.Pending)
	p.instances[i.ID] = i
	return i.Instance, nil
}

// Describe returns the instance with given id.
func (p *Provider) Describe(ctx context.Context, id string) (cloud.Instance, error) {
	p.m.Lock()
	defer p.m.Unlock()

	if err := p.begin("describe"); err != nil {
		return cloud.Instance{}, err
	}
	i, ok := p.instances[id]
	if !ok {
		return cloud.Instance{}, errors.Wrapf(cloud.ErrInstanceNotFound, "describe '%s'", id)
	}
	p.settle(i)
	return i.Instance, nil
}

// Stop the instance, does nothing if it's already stopping or shutting down.
func (p *Provider) Stop(ctx context.Context, id string) error {
	p.m.Lock()
	defer p.m.Unlock()

	if err := p.begin("stop"); err != nil {
		return err
	}
	i, ok := p.instances[id]
	if !ok {
		return errors.Wrapf(cloud.ErrInstanceNotFound, "stop '%s'", id)
	}
	p.settle(i)
	if i.State.Alive() {
		p.transition(i, retention.Stopping)
	}
	return nil
}

// Terminate the instance, does nothing if it's already shutting down.
func (p *Provider) Terminate(ctx context.Context, id string) error {
	p.m.Lock()
	defer p.m.Unlock()

	if err := p.begin("terminate"); err != nil {
		return err
	}
	i, ok := p.instances[id]
	if !ok {
		return errors.Wrapf(cloud.ErrInstanceNotFound, "terminate '%s'", id)
	}
	p.settle(i)
	if i.State != retention.ShuttingDown && i.State != retention.Terminated {
		p.transition(i, retention.ShuttingDown)
	}
	return nil
}
