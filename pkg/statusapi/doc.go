/*
Package statusapi exposes a read-only HTTP introspection surface over the
running scheduler, grounded on pkg/api's HealthServer handler-per-resource
shape: GET /status returns a JSON snapshot of cluster and queue state, GET
/health, /ready and /live proxy to the *metrics.Checker passed into
NewServer, and GET /metrics serves the Prometheus registry.

This is observability only. It has no write operations and never submits,
cancels, or reschedules an application.
*/
package statusapi
