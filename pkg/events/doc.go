/*
Package events provides an in-memory pub/sub broker for application
lifecycle events.

Each application's background worker (see pkg/application) publishes an
ApplicationEvent as it moves through Started, Running, and Finished. Neither
the status API nor the history store subscribes to the broker.

Publish waits for room in the broker's 100-event buffer, returning early
only once the broker is stopped. Delivery to subscribers does not wait: a
subscriber with a full buffer simply misses the event.
*/
package events
