/*
Package sampler collects per-node resource usage over a time window.

Sampler fans six Query values out concurrently - one per Usage field, all
instances of the single httpQuery type in query.go - each issuing a single
time-windowed aggregate HTTP call to the metrics store and normalizing
against a configured per-resource maximum. A host absent from
a query's response gets a zero value for that field, matching the contract
that missing samples yield a zero types.Usage rather than an error.

DummyCollector, grounded on stat_collector.py's DummyStatCollector, returns
a constant non-idle Usage for every host and is used in tests and
standalone runs without a real metrics store.
*/
package sampler
