/*
Package metrics defines and registers the scheduler's Prometheus metrics and
exposes them over HTTP for scraping.

Gauges (NodesTotal, ContainersAvailable, ApplicationsTotal, QueueDepth) are
refreshed periodically by a Collector that reads pkg/cluster and the
scheduling queue. Counters and histograms (ApplicationsScheduled,
SchedulingLatency, EstimatorUpdateDuration, SamplerQueryDuration,
ReconciliationDuration, and friends) are updated inline by the components
that do the work, using the Timer helper to measure elapsed time.

Checker tracks the up/down status of named components (the cluster,
resource_manager and reconciler components are the critical ones) for the
/health, /ready, and /live endpoints served by pkg/statusapi.
*/
package metrics
