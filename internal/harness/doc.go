// Package harness runs declarative vault conformance scenarios.
//
// A scenario is a YAML document describing an initialization, an optional
// upgrade ladder, token funding, a flow of vault operations with expected
// outcomes, and assertions over the final state and the audit trail. The
// harness executes scenarios against a real SQLite-backed vault with a
// manual clock and deterministic event IDs, so the audit trail is
// byte-stable and can be compared against golden files.
package harness
