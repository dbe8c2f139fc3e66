// Package memory is the durable log of every task exchange, backed by SQLite.
//
// Invariants:
// - Record ids are unique and strictly increasing.
// - Records are immutable once saved.
// - Query returns at most QueryLimit records, newest first.
//
// Usage:
//
//	log, _ := memory.Open(memory.Config{DBPath: "/data/memory.db"})
//	defer log.Close()
//	id, _ := log.Save(ctx, "agent_1", "run command echo hi", "hi")
//	records, _ := log.Query(ctx, "echo")
//	_, _ = id, records
package memory
