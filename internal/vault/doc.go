// Package vault implements the upgradeable token vault.
//
// State lives in the slot store and survives logic upgrades untouched; the
// active behavior is chosen per transaction from the stored version ordinal.
// Version 1 is the deposit/withdraw ledger, version 2 adds linear yield and
// a deposit pause, version 3 adds the delayed-withdrawal gate. Upgrading to
// a version and running its one-shot setup happen as a single atomic step,
// guarded by UPGRADER_ROLE.
//
// All mutating entry points on Core are serialized by a single writer lock
// and run in one store transaction each. Views are safe from any goroutine.
package vault
