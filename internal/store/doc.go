// Package store provides the shared key-value + list storage port behind
// the gateway and its backends.
//
// # Layout
//
// All orchestration state lives in one flat keyspace:
//
//	task:{task_id}     serialized task record
//	agent:{agent_id}   serialized agent record
//	queue:{agent_type} ordered list of pending task ids
//	queue:dead-letter  ordered list of exhausted task ids
//	shared:{key}       scratch value with TTL
//
// # Backends
//
//   - MemoryStore: in-process maps; tests and standalone runs
//   - SQLiteStore: durable single-host default (modernc.org/sqlite, WAL)
//   - RedisStore: shared store for multi-process deployments (go-redis)
//
// # Guarantees
//
// ListPopHead is atomic per entry on every backend: a queue entry is handed
// to exactly one caller. Nothing else is transactional. Record writes are
// read-modify-write of the whole value and last-write-wins when two callers
// race on the same key; see the orchestrator package for where that matters.
package store
