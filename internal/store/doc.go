// Package store provides SQLite-backed durable storage for the vault's
// slot-addressed state and audit event log.
//
// The store persists three tables:
//   - Slots: scalar fields, one 32-byte word per slot number
//   - Map Slots: per-key mapping entries namespaced by their root slot
//   - Events: append-only audit records with canonical JSON fields
//
// Slot numbers come from internal/layout and are immutable once released.
// The store never interprets a word; the active logic version does. An
// upgrade therefore touches no row in the slot tables, which is what the
// snapshot-based preservation tests verify byte-for-byte.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// All public vault operations run inside a single Update transaction and
// commit or roll back as a unit; there is no partial visibility of an
// in-progress operation.
package store
