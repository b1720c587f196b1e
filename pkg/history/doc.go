/*
Package history records one entry per finished application to a bbolt
database, grounded on pkg/storage's bucket-per-entity BoltStore: a single
"finished_applications" bucket keyed by application id, JSON-encoded
values.

This is a best-effort convenience store for operator inspection, not the
fault-tolerant crash-recovery persistence that spec.md's Non-goals
explicitly exclude — losing it on crash costs nothing but history.
*/
package history
