// Package quota enforces plan-dependent daily limits on API keys.
//
// Enforcer.CheckAndCount resolves the key, rejects unknown and inactive keys,
// then increments today's usage counter and compares the new value with the
// plan limit. The ordering is deliberate and observable:
//
//  1. blank key        -> ErrMissingKey, nothing is counted
//     unknown key      -> ErrUnknownKey, nothing is counted
//  2. inactive key     -> ErrInactive, nothing is counted
//  3. increment ledger
//  4. used > limit     -> *ExceededError, the increment stays recorded
//
// The request that crosses the limit is itself counted and denied. Its error
// reports used-1, the count already reached before the call.
//
// Middleware wraps CheckAndCount for HTTP handlers and exposes the Result
// through FromContext.
package quota
