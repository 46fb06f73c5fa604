package lifecyclepolicy

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taskcluster/agent-retention/runtime"
)

var (
	mProviders = sync.Mutex{}
	providers  = make(map[string]Provider)
)

// Options for creating a LifeCyclePolicy
type Options struct {
	Monitor runtime.Monitor
	// Clock returns the current time, defaults to time.Now
	Clock  func() time.Time
	Config interface{}
}

// A Provider is a factory for a LifeCyclePolicy
type Provider interface {
	NewLifeCyclePolicy(Options) (LifeCyclePolicy, error)
	// ConfigSchema returns a JSON schema object for the provider options,
	// it must not allow additionalProperties.
	ConfigSchema() map[string]interface{}
}

// Register will register an Provider, this is intended to be called
// from func init() {}, to register providers as an import side-effect.
//
// If an provider with the given name is already registered this will panic.
func Register(name string, provider Provider) {
	mProviders.Lock()
	defer mProviders.Unlock()

	// These restrictions allow us to flatten the config structure
	s := provider.ConfigSchema()
	if s["additionalProperties"] != false {
		panic(fmt.Sprintf("lifecyclepolicy.Provider implementation '%s' "+
			"allows additionalProperties in ConfigSchema()", name))
	}
	if props, ok := s["properties"].(map[string]interface{}); ok {
		if _, ok := props["provider"]; ok {
			panic(fmt.Sprintf("lifecyclepolicy.Provider implementation '%s' "+
				"defines property 'provider' in ConfigSchema()", name))
		}
	}

	// Panic, if name is in use. This is okay as we always call this from init()
	// so it'll happen before any tests or code runs.
	if _, ok := providers[name]; ok {
		panic(fmt.Sprintf(
			"a lifecyclepolicy.Provider with the name '%s' is already registered", name,
		))
	}

	providers[name] = provider
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

func lookup(name string) Provider {
	mProviders.Lock()
	defer mProviders.Unlock()
	return providers[name]
}
