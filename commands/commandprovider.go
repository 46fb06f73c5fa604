package commands

import (
	"fmt"
	"sort"
	"sync"
)

// CommandProvider is a sub-command of the agent-retention binary.
type CommandProvider interface {
	// Summary is shown next to the command name in the top-level usage.
	Summary() string
	// Usage is the docopt usage string the arguments are parsed against.
	Usage() string
	// Execute runs the command with the parsed arguments. Returning false makes
	// the process exit non-zero.
	Execute(args map[string]interface{}) bool
}

var registry = struct {
	sync.RWMutex
	providers map[string]CommandProvider
}{providers: map[string]CommandProvider{}}

// Register adds a command provider under name. It's meant to be called from
// init() and panics if name is taken.
func Register(name string, provider CommandProvider) {
	registry.Lock()
	defer registry.Unlock()

	if _, ok := registry.providers[name]; ok {
		panic(fmt.Sprintf("command '%s' is already registered", name))
	}
	registry.providers[name] = provider
}

// Commands returns a copy of the registered commands by name.
func Commands() map[string]CommandProvider {
	registry.RLock()
	defer registry.RUnlock()

	m := make(map[string]CommandProvider, len(registry.providers))
	for name, provider := range registry.providers {
		m[name] = provider
	}
	return m
}

// Names returns the registered command names in sorted order.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()

	names := make([]string, 0, len(registry.providers))
	for name := range registry.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
