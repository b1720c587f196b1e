/*
Package types defines the core data structures of the scheduler's domain
model.

This package contains the fundamental types shared by every other package:
nodes, containers, applications, job groups, usage samples, and the pending
application queue. These types carry little behavior beyond simple
accessors; the packages that own a piece of state (pkg/cluster,
pkg/application, pkg/estimator) are responsible for mutating it under their
own locking discipline.

# Core Types

Cluster topology:
  - Node: a machine with a fixed container capacity and the containers
    currently placed on it.
  - Container: one task slot, either a worker task or an application's
    (negligible) master/driver container.

Workload:
  - Application: a job submission made up of one or more Containers plus an
    optional master container.
  - JobGroupTable: the static mapping from job name to complementarity
    group, used by GroupGradient.

Usage accounting:
  - Usage: one host's sampled resource utilization for a time window.

Scheduling:
  - Queue: the FIFO list of applications waiting to be placed, with
    index-addressed removal for non-head scheduling policies.

# Design Patterns

Container polymorphism (task vs. master) is a single struct with an
IsNegligible flag rather than an interface hierarchy - a master container
never counts toward usage-based reward attribution, but it occupies a slot
like any other container.

Node/Container back-references are by address, not pointer: a Container
records the NodeAddress it is placed on (empty if unplaced) and Cluster
resolves that to a *Node through its own map. This avoids a Node <-> Container
pointer cycle while keeping lookups cheap.

# Thread Safety

Types in this package carry no internal locking. Callers that share a Node,
Application, or Queue across goroutines (pkg/cluster, pkg/scheduler) are
responsible for serializing access.
*/
package types
