/*
Package application drives one application's lifecycle from scheduled to
finished in its own background worker, grounded on pkg/worker's
Start/Stop/goroutine-with-stopCh pattern.

Worker.Start validates every task container is placed, allocates an
application id from the resource manager, launches the external process via
an injected Launcher, and spawns a goroutine that polls the resource manager
until the application finishes. Along the way it publishes
ApplicationEvent{Started,Running,Finished} onto an events.Broker, so
pkg/scheduler can react to completions without holding a reference to every
live worker goroutine.
*/
package application
