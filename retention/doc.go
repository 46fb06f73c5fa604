// Package retention decides when an ephemeral cloud-backed agent should be
// stopped or destroyed.
//
// A Controller is created for each agent when it registers, from the agent's
// configured idle-minutes setting. It is consulted from two independent
// triggers:
//
//   - a periodic scheduler tick, roughly once per minute, calling Check();
//   - task life-cycle callbacks, TaskAccepted() and TaskCompleted(), invoked
//     by whatever executes tasks on the agent.
//
// Check() may ask the agent to IdleTimeout(), either because it has been idle
// for more than the configured number of minutes, or, in billing-hour mode
// (negative idle-minutes), because it is idle in the final minute of an hour
// that has already been paid for. TaskCompleted() asks the agent to Terminate()
// once its usage-count quota is exhausted.
//
// The Controller never changes agent state itself, it only requests actions
// through the Agent interface and leaves the effect to the implementation. It
// does no locking either, callers must ensure that at most one call is in
// flight per Controller at any time.
package retention
