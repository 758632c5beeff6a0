// Package storage provides the decision record backends: SQLiteStorage
// for durable deployments and MemoryStorage for tests and ephemeral runs.
package storage
