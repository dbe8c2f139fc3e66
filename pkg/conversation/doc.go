// Package conversation holds the ordered, role-tagged message history of one agent.
// Index 0 is always the system message; Prune evicts from index 1 until the
// history fits MaxContentSize or cannot shrink further.
package conversation
