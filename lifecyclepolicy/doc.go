// Package lifecyclepolicy defines the interface that life-cycle policy
// providers must satisfy and exposes a plugin register that life-cycle
// policies must be registered with.
//
// A LifeCyclePolicy is created for each agent when it is registered with the
// fleet. It is consulted on every scheduler tick, and whenever a task is
// accepted or completed by the agent, and uses these events to decide
// when/if the agent's instance should be stopped or terminated. Policies never
// change agent state themselves, they request actions through the
// retention.Agent interface.
//
// Two providers are built in: "ec2", which applies retention.Controller, and
// "forever", which never idles out the agent.
package lifecyclepolicy
