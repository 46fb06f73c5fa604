// Package cloud defines the interface that cloud instance providers must
// implement, and a register providers are added to as an import side-effect.
//
// A Provider manages the instances backing agents: it can launch new
// instances, describe their state, and stop or terminate them. Stop and
// Terminate must be idempotent, calling either for an instance that is
// already on its way down is not an error.
package cloud
