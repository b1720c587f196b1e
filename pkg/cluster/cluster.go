package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/complementor/pkg/log"
	"github.com/cuemby/complementor/pkg/types"
)

// ErrCapacityExceeded is returned by AddContainer when the target node has
// no free slot. It indicates a programmer error: the scheduler should never
// attempt to place on a node it hasn't already confirmed has room.
var ErrCapacityExceeded = fmt.Errorf("cluster: node has no available container slots")

// ErrDoubleAssignment is returned by AddContainer when the container is
// already placed on a node. It indicates a programmer error in the caller.
var ErrDoubleAssignment = fmt.Errorf("cluster: container is already placed on a node")

// ErrUnknownNode is returned when an address doesn't name a node in the
// cluster.
var ErrUnknownNode = fmt.Errorf("cluster: unknown node address")

// NodeUsage pairs one node's currently-running applications with its
// sampled resource usage, the unit the periodic estimator updater consumes.
type NodeUsage struct {
	Address string
	Apps    []*types.Application
	Usage   types.Usage
}

// UsageSampler is the subset of pkg/sampler's Sampler that Cluster needs;
// declared locally so this package doesn't import pkg/sampler.
type UsageSampler interface {
	Sample(ctx context.Context, hosts []string, window time.Duration) (map[string]types.Usage, error)
}

// Cluster is the in-memory model of every node and which application
// containers currently occupy them. All mutation is serialized by mu,
// matching the scheduler-lock discipline described in the concurrency
// model: node/container lists are only ever mutated under this lock.
type Cluster struct {
	mu     sync.Mutex
	nodes  map[string]*types.Node
	logger zerolog.Logger
}

// NewCluster builds a Cluster over a fixed set of nodes, used exactly as
// given (no address is filtered out here) and already carrying their slot
// labels.
func NewCluster(nodes []*types.Node) *Cluster {
	m := make(map[string]*types.Node, len(nodes))
	for _, n := range nodes {
		m[n.Address] = n
	}
	return &Cluster{
		nodes:  m,
		logger: log.WithComponent("cluster"),
	}
}

// AddContainer places container on the node at address, failing if the
// node is full or the container already has a node back-reference.
// Updates both sides of the association atomically.
func (c *Cluster) AddContainer(address string, container *types.Container) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.nodes[address]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, address)
	}
	if container.IsPlaced() {
		return fmt.Errorf("%w: container already on %s", ErrDoubleAssignment, container.NodeAddress)
	}
	if node.IsFull() {
		return fmt.Errorf("%w: node %s", ErrCapacityExceeded, address)
	}

	node.Containers = append(node.Containers, container)
	container.NodeAddress = address
	return nil
}

// RemoveApplication removes every container belonging to app from every
// node and clears each removed container's node back-reference.
func (c *Cluster) RemoveApplication(app *types.Application) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, node := range c.nodes {
		staying := node.Containers[:0:0]
		for _, container := range node.Containers {
			if container.Application == app {
				container.NodeAddress = ""
				continue
			}
			staying = append(staying, container)
		}
		node.Containers = staying
	}
}

// EmptyNodes returns every node with no containers placed.
func (c *Cluster) EmptyNodes() []*types.Node {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*types.Node
	for _, n := range c.sortedNodesLocked() {
		if n.IsEmpty() {
			out = append(out, n)
		}
	}
	return out
}

// NonFullNodes returns every node with at least one free container slot.
func (c *Cluster) NonFullNodes() []*types.Node {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*types.Node
	for _, n := range c.sortedNodesLocked() {
		if n.AvailableContainers() > 0 {
			out = append(out, n)
		}
	}
	return out
}

// AvailableContainers sums free container slots across every node.
func (c *Cluster) AvailableContainers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, n := range c.nodes {
		total += n.AvailableContainers()
	}
	return total
}

// NodeRunningApps returns, for each node, the distinct running applications
// with at least one non-negligible container there. includeFull controls
// whether full nodes are included at all.
func (c *Cluster) NodeRunningApps(includeFull bool) map[string][]*types.Application {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string][]*types.Application, len(c.nodes))
	for addr, node := range c.nodes {
		if !includeFull && node.AvailableContainers() == 0 {
			continue
		}
		out[addr] = distinctApplications(node, true)
	}
	return out
}

// Applications returns the distinct running applications across the
// cluster paired with a weight per application: the number of nodes
// currently hosting at least one of its containers. The estimator uses
// this weight to bias toward more-present applications.
func (c *Cluster) Applications(includeFull bool) ([]*types.Application, []int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := make(map[*types.Application]int)
	var apps []*types.Application
	var weights []int

	for _, node := range c.sortedNodesLocked() {
		if !includeFull && node.AvailableContainers() == 0 {
			continue
		}
		for _, app := range distinctApplications(node, true) {
			if i, ok := index[app]; ok {
				weights[i]++
				continue
			}
			index[app] = len(apps)
			apps = append(apps, app)
			weights = append(weights, 1)
		}
	}
	return apps, weights
}

// HasApplicationScheduled reports whether any node hosts at least one
// non-negligible container, regardless of whether it is running yet.
func (c *Cluster) HasApplicationScheduled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, node := range c.nodes {
		if len(distinctApplications(node, false)) > 0 {
			return true
		}
	}
	return false
}

// HasApplicationRunning reports whether any node hosts at least one
// non-negligible container belonging to a running application.
func (c *Cluster) HasApplicationRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, node := range c.nodes {
		if len(distinctApplications(node, true)) > 0 {
			return true
		}
	}
	return false
}

// AppsUsage samples every node's usage over window and pairs it with the
// node's currently-running applications, the unit the periodic estimator
// updater iterates over.
func (c *Cluster) AppsUsage(ctx context.Context, sampler UsageSampler, window time.Duration) ([]NodeUsage, error) {
	c.mu.Lock()
	hosts := make([]string, 0, len(c.nodes))
	for addr := range c.nodes {
		hosts = append(hosts, addr)
	}
	nodeApps := make(map[string][]*types.Application, len(c.nodes))
	for addr, node := range c.nodes {
		nodeApps[addr] = distinctApplications(node, true)
	}
	c.mu.Unlock()

	usage, err := sampler.Sample(ctx, hosts, window)
	if err != nil {
		return nil, fmt.Errorf("cluster: sample usage: %w", err)
	}

	result := make([]NodeUsage, 0, len(hosts))
	for _, addr := range hosts {
		result = append(result, NodeUsage{
			Address: addr,
			Apps:    nodeApps[addr],
			Usage:   usage[addr],
		})
	}
	return result, nil
}

// AllNodes returns every node in the cluster, ordered by address.
func (c *Cluster) AllNodes() []*types.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortedNodesLocked()
}

// Node returns the node at address, if any.
func (c *Cluster) Node(address string) (*types.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.nodes[address]
	return n, ok
}

// sortedNodesLocked returns nodes ordered by address for deterministic
// iteration; callers must already hold mu.
func (c *Cluster) sortedNodesLocked() []*types.Node {
	out := make([]*types.Node, 0, len(c.nodes))
	for _, n := range c.nodes {
		out = append(out, n)
	}
	sortNodesByAddress(out)
	return out
}

// distinctApplications returns the distinct applications with at least one
// non-negligible container on node, optionally restricted to running ones.
func distinctApplications(node *types.Node, onlyRunning bool) []*types.Application {
	seen := make(map[*types.Application]bool)
	var out []*types.Application
	for _, container := range node.Containers {
		if container.IsNegligible || container.Application == nil {
			continue
		}
		app := container.Application
		if onlyRunning && !app.IsRunning {
			continue
		}
		if !seen[app] {
			seen[app] = true
			out = append(out, app)
		}
	}
	return out
}

func sortNodesByAddress(nodes []*types.Node) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j-1].Address > nodes[j].Address; j-- {
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
		}
	}
}
