package resourcemanager

import (
	"context"
	"fmt"
	"sync"
)

// DummyClient is an in-memory ResourceManager for tests and for running the
// scheduler against a synthetic cluster, grounded on resource_manager.py's
// DummyRM: a fixed set of uniform nodes and a caller-controlled map of
// which application ids are currently running.
type DummyClient struct {
	mu sync.Mutex

	nodeCount      int
	containerCount int
	nodePattern    string
	appPattern     string

	appsSubmitted int
	running       map[string]bool
	finished      map[string]bool
}

// NewDummyClient builds a DummyClient with nodeCount nodes, each offering
// containerCount container slots.
func NewDummyClient(nodeCount, containerCount int) *DummyClient {
	return &DummyClient{
		nodeCount:      nodeCount,
		containerCount: containerCount,
		nodePattern:    "N%d",
		appPattern:     "A%d",
		running:        make(map[string]bool),
		finished:       make(map[string]bool),
	}
}

// Nodes returns nodeCount nodes named by nodePattern, each with
// containerCount slots.
func (d *DummyClient) Nodes(ctx context.Context) (map[string]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	nodes := make(map[string]int, d.nodeCount)
	for i := 0; i < d.nodeCount; i++ {
		nodes[fmt.Sprintf(d.nodePattern, i)] = d.containerCount
	}
	return nodes, nil
}

// NextApplicationID allocates the next sequential id from appPattern.
func (d *DummyClient) NextApplicationID(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.appsSubmitted++
	return fmt.Sprintf(d.appPattern, d.appsSubmitted), nil
}

// IsApplicationRunning reports the caller-set running state for id,
// defaulting to false.
func (d *DummyClient) IsApplicationRunning(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running[id]
}

// IsApplicationFinished reports the caller-set finished state for id,
// defaulting to false.
func (d *DummyClient) IsApplicationFinished(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finished[id]
}

// SetRunning marks id as running (or not), for tests to drive the
// lifecycle worker's poll loop.
func (d *DummyClient) SetRunning(id string, running bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running[id] = running
}

// SetFinished marks id as finished (or not), for tests to drive the
// lifecycle worker's poll loop.
func (d *DummyClient) SetFinished(id string, finished bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finished[id] = finished
}
