// Package supervisor spawns one agent per task, routes the task through it and
// records the exchange in the memory log.
//
// Invariants:
// - Agent names are agent_<n> with n strictly increasing; a name is never reused.
// - Every delegated task is persisted under the name of the agent that handled it.
// - The registry never exceeds its capacity when a capacity is set.
//
// Usage:
//
//	sup := supervisor.New(supervisor.Config{Executor: exec, Replier: replier, Memory: log})
//	outcome, err := sup.Delegate(ctx, "run command echo hi")
//	_, _ = outcome, err
package supervisor
