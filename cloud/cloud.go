package cloud

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/taskcluster/agent-retention/retention"
)

// ErrInstanceNotFound is returned when an instance id isn't known to the
// provider.
var ErrInstanceNotFound = errors.New("instance not found")

// Instance is a snapshot of a cloud instance.
type Instance struct {
	ID         string                  `json:"id"`
	State      retention.InstanceState `json:"state"`
	LaunchTime time.Time               `json:"launchTime"`
}

// Provider is implemented by cloud instance providers.
type Provider interface {
	// Launch starts a new instance.
	Launch(ctx context.Context) (Instance, error)
	// Describe returns the current state of the instance with given id.
	Describe(ctx context.Context, id string) (Instance, error)
	// Stop requests a soft shutdown of the instance.
	Stop(ctx context.Context, id string) error
	// Terminate requests permanent destruction of the instance.
	Terminate(ctx context.Context, id string) error
}
