// Package store defines the persistence interfaces consumed by the engine
// and the helpers shared by their implementations. Implementations live in
// internal/platform (PostgreSQL) and, for tests and DB-less runs, in this
// package's in-memory store.
//
// All task updates are last-write-wins on the whole record; the engine never
// relies on fine-grained field locking.
package store
