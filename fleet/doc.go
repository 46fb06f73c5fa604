// Package fleet manages a set of agents backed by cloud instances, applying a
// life-cycle policy to each of them.
//
// A Fleet holds an Agent for every registered agent. Agents implement
// retention.Agent on top of a cloud.Provider, and do the usage-limit
// bookkeeping as tasks are accepted: an agent with a limit of one or zero
// executions left stops accepting tasks, and is terminated by its policy once
// the task completes.
//
// Policy calls for an agent are serialized, while different agents are
// checked in parallel. The Scheduler calls CheckAll on a cron schedule, and
// NewHandler exposes the fleet over HTTP for the component running tasks.
package fleet
