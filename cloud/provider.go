package cloud

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/taskcluster/agent-retention/runtime"
	"github.com/taskcluster/agent-retention/runtime/schema"
)

var (
	mProviders = sync.Mutex{}
	providers  = make(map[string]ProviderFactory)
)

// ProviderOptions is a wrapper for the set of options given to a
// ProviderFactory when a Provider is created.
type ProviderOptions struct {
	Monitor runtime.Monitor
	// Clock returns the current time, defaults to time.Now
	Clock  func() time.Time
	Config interface{}
}

// ProviderFactory is the interface provider implementors must implement and
// register with cloud.Register("name", factory)
type ProviderFactory interface {
	NewProvider(options ProviderOptions) (Provider, error)

	// ConfigSchema returns a JSON schema object for the provider options, it
	// must not allow additionalProperties.
	ConfigSchema() map[string]interface{}
}

// Register will register a ProviderFactory, this is intended to be called
// from func init() {}, to register providers as an import side-effect.
//
// If a provider with the given name is already registered this will panic.
func Register(name string, factory ProviderFactory) {
	mProviders.Lock()
	defer mProviders.Unlock()

	if _, ok := providers[name]; ok {
		panic(fmt.Sprintf(
			"a cloud provider with the name '%s' is already registered", name,
		))
	}
	providers[name] = factory
}

// Providers returns the names of all registered providers, sorted.
func Providers() []string {
	mProviders.Lock()
	defer mProviders.Unlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RawConfigSchema returns the schema for the config given to New(), a choice
// between registered providers keyed by "provider".
func RawConfigSchema() map[string]interface{} {
	mProviders.Lock()
	options := make(map[string]map[string]interface{}, len(providers))
	for name, factory := range providers {
		options[name] = factory.ConfigSchema()
	}
	mProviders.Unlock()

	return map[string]interface{}{
		"title":       "Cloud Provider",
		"description": "Provider managing the instances backing agents.",
		"oneOf":       schema.OneOf("provider", options),
	}
}

// New creates a Provider from config matching RawConfigSchema()
func New(options ProviderOptions) (Provider, error) {
	if err := schema.MustCompile(RawConfigSchema()).Validate(options.Config); err != nil {
		return nil, errors.Wrap(err, "invalid cloud provider config")
	}
	name := options.Config.(map[string]interface{})["provider"].(string)

	mProviders.Lock()
	factory := providers[name]
	mProviders.Unlock()

	p, err := factory.NewProvider(ProviderOptions{
		Monitor: options.Monitor.WithPrefix("cloud").WithTag("cloud-provider", name),
		Clock:   options.Clock,
		Config:  schema.Without(options.Config, "provider"),
	})
	return p, errors.Wrapf(err, "failed to create cloud provider '%s'", name)
}
