package resourcemanager

import "context"

// ResourceManager is the authority on node capacity and application run
// state, external to the scheduler itself.
type ResourceManager interface {
	// Nodes enumerates the cluster once at startup: address -> available
	// container slots.
	Nodes(ctx context.Context) (map[string]int, error)

	// NextApplicationID allocates a fresh id unique to the resource
	// manager's cluster-start epoch.
	NextApplicationID(ctx context.Context) (string, error)

	// IsApplicationRunning reports whether id has started running.
	// Transport errors are swallowed and reported as false.
	IsApplicationRunning(ctx context.Context, id string) bool

	// IsApplicationFinished reports whether id has finished, successfully
	// or not. Transport errors are swallowed and reported as false.
	IsApplicationFinished(ctx context.Context, id string) bool
}
