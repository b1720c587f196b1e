/*
Package scheduler drains the pending-application queue onto cluster nodes,
grounded on pkg/scheduler's own Start/Stop/goroutine-with-stopCh shape (the
ticker is replaced by a coalesced wake signal, since draining here is
triggered by admissions and completions rather than a fixed period).

Four placement policies share one Scheduler: RoundRobin and Random place
greedily under a capacity check; Adaptive and GroupAdaptive additionally
consult a pkg/estimator AppEstimator/GroupEstimator to pick which queued
application (or complementarity group) to place next. All four share the
placement-stride primitive in placement.go: fill containers onto a node k
at a time, tasks before the master.

Placement decisions happen under the Scheduler's own lock; the resulting
container assignment is applied to the cluster under the cluster's lock
(pkg/cluster.Cluster.AddContainer), so the two never need a combined lock.
Each placed application gets its own pkg/application.Worker; Worker's
onFinish callback re-enters the drain loop and records the run via
pkg/history.
*/
package scheduler
