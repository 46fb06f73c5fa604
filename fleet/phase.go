package fleet

import (
	"github.com/pkg/errors"
	"github.com/taskcluster/agent-retention/retention"
)

// Phase is the life-cycle phase of an agent, as seen by the fleet.
type Phase int

// Agent phases
const (
	// Active agents may accept tasks
	Active Phase = iota
	// IdlePending agents have been asked to stop
	IdlePending
	// ShuttingDown agents have been asked to terminate
	ShuttingDown
	// Gone agents have a stopped or terminated instance
	Gone
)

// Phases lists all phases in order
var Phases = []Phase{Active, IdlePending, ShuttingDown, Gone}

var phaseNames = []string{
	Active:       "ACTIVE",
	IdlePending:  "IDLE-PENDING",
	ShuttingDown: "SHUTTING-DOWN",
	Gone:         "GONE",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "UNKNOWN"
	}
	return phaseNames[p]
}

// MarshalText implements encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return errors.Errorf("unknown phase '%s'", text)
}

// phaseOf returns the phase for an instance state, given the phase the agent
// was in before.
func phaseOf(state retention.InstanceState, current Phase) Phase {
	switch state {
	case retention.Stopped, retention.Terminated:
		return Gone
	case retention.ShuttingDown:
		return ShuttingDown
	case retention.Stopping:
		if current == ShuttingDown {
			return current
		}
		return IdlePending
	}
	return current
}
