// Package layout defines the persistent storage layout of the vault and the
// rules for evolving it across logic versions.
//
// This package contains declarations and checks only. All other internal
// packages import layout; layout imports nothing internal. This keeps the
// slot assignments the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - A field's slot and kind, once released, are immutable forever
//   - New fields are appended to the next contiguous slots, never inserted
//   - A reserved gap of unassigned slots shrinks by exactly the number of
//     fields each new version appends
//   - All slot values are 32-byte big-endian words, so a snapshot of the
//     slot tables compares byte-for-byte across upgrades
//
// Violations are rejected at authoring time by Check (see check.go), not
// discovered at runtime.
package layout
