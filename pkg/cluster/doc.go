/*
Package cluster is the in-memory model of nodes, their container slots, and
which application containers currently occupy them.

Cluster is the single source of truth the scheduling loop consults before
every placement decision and the periodic estimator updater reads from on
every tick. All mutation goes through Cluster's own lock; callers never
reach into a Node's container list directly.
*/
package cluster
