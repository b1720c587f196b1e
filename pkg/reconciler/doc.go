/*
Package reconciler periodically updates the complementarity estimator from
observed cluster usage, grounded on pkg/reconciler's own Start/Stop/ticker
run loop (the body is replaced: instead of reconciling node heartbeats and
container health, each tick samples every node's usage and attributes it to
the applications running there).

On each tick, for every node with a non-idle usage sample, the running
applications on that node are fed through leave-one-out: for a set of n
co-running applications, n updates are applied, each attributing the node's
observed rate to one application running alongside the rest. This is how
the estimator learns which application pairs/groups complement each other
well under shared resource contention.

Reconciler can hold more than one named estimator at once (a benchmarking
mode): every tick's observations are applied to all of them, and each is
snapshotted to its own pkg/history-managed directory on Stop.
*/
package reconciler
