// Package entitlement answers "what can this holder do right now" and gates
// quota consumption.
//
// Resolve merges the holder's plan grants with current-period usage into one
// EffectiveEntitlement per feature. TryConsume is the admission-control point
// for quota-gated actions: the check and the increment are a single atomic
// step at the ledger, so concurrent callers can never jointly overshoot a
// cap.
//
// Holders without a subscription are a valid state, not an error: they
// resolve against the catalog's default free plan with zero usage.
package entitlement
