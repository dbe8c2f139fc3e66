// Package shell runs local shell commands and turns their result into a user-facing outcome.
//
// Invariants:
// - Stdout and stderr are captured into a single buffer.
// - Executor.Execute never returns an error; every failure becomes an outcome string.
// - Commands run without a timeout; a stuck command blocks its caller.
package shell
