/*
Package resourcemanager talks to the cluster's external resource manager:
the authority on node capacity and application run state.

ResourceManager is the interface pkg/application and pkg/scheduler consume.
Client implements it over a YARN-like JSON REST API (cluster/nodes,
cluster/apps/{id}, and cluster/info, read once for the epoch used in
application ids) using net/http and encoding/json, since nothing in the
example pack ships a Go client for that protocol. The id sequence number is
a local counter; no cluster-metrics call is made. DummyClient
is an in-memory stand-in for tests and for running the scheduler against a
synthetic cluster, grounded on resource_manager.py's DummyRM.

IsApplicationRunning and IsApplicationFinished swallow transport errors and
report false: a resource-manager hiccup should make the scheduler retry on
its next tick, not crash the lifecycle worker.
*/
package resourcemanager
