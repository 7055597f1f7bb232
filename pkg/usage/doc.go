// Package usage implements the per-key daily usage ledger.
//
// Counters are identified by (key, day) where day is a UTC calendar date. A
// counter starts at zero, grows by exactly one per accounted request, and is
// never reset or deleted: a new day simply addresses a new counter.
//
// IncrementAndGet is the only mutating operation and must be atomic for a
// given (key, day): C concurrent calls observe exactly the values 1..C.
// Different pairs are independent and must not block each other.
package usage
