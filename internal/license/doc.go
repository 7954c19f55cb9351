// Package license implements the license lifecycle engine: key generation,
// validation, activation accounting, issuance, and status inspection.
//
// The engine is the only component that decides license state transitions.
// Domain outcomes (not found, expired, inactive, activation ceiling reached)
// are ordinary result values, not errors; Go errors are reserved for
// infrastructure faults such as storage failures. Every validation attempt
// that reaches storage is recorded in an append-only audit log.
package license
