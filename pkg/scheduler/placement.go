package scheduler

import "github.com/cuemby/complementor/pkg/types"

// place adds up to k of app's still-unplaced containers onto node,
// advancing the application's container cursor; tasks are placed before
// the master, matching types.Application.Containers order. Returns how
// many containers were actually placed.
func place(c clusterPlacer, app *types.Application, node *types.Node, k int) int {
	placed := 0
	for _, container := range app.Containers() {
		if placed >= k {
			break
		}
		if container.IsPlaced() {
			continue
		}
		if err := c.AddContainer(node.Address, container); err != nil {
			break
		}
		placed++
	}
	return placed
}

// clusterPlacer is the narrow slice of *cluster.Cluster placement needs,
// declared locally so placement.go and its tests don't need a live
// cluster.Cluster to exercise the stride math.
type clusterPlacer interface {
	AddContainer(address string, container *types.Container) error
}

// fillEmptyNodes places app's containers on the cluster's empty nodes in
// address order, stride containers per node, until either the application
// is fully placed or every empty node has been tried once.
func (s *Scheduler) fillEmptyNodes(app *types.Application) {
	for _, node := range s.cluster.EmptyNodes() {
		if app.IsFullyPlaced() {
			return
		}
		place(s.cluster, app, node, s.stride)
	}
}

// distributeToRandomNodes places app's remaining containers stride at a
// time onto randomly chosen non-full nodes, preferring nodes that don't
// already host one of app's containers.
func (s *Scheduler) distributeToRandomNodes(app *types.Application, k int) {
	for !app.IsFullyPlaced() {
		node := s.pickNonFullNode(app)
		if node == nil {
			return
		}
		if place(s.cluster, app, node, k) == 0 {
			return
		}
	}
}

// pickNonFullNode returns a random node with free capacity, preferring
// nodes that don't already host one of app's containers.
func (s *Scheduler) pickNonFullNode(app *types.Application) *types.Node {
	nonFull := s.cluster.NonFullNodes()
	if len(nonFull) == 0 {
		return nil
	}

	preferred := make([]*types.Node, 0, len(nonFull))
	for _, node := range nonFull {
		if !hostsApplication(node, app) {
			preferred = append(preferred, node)
		}
	}

	pool := nonFull
	if len(preferred) > 0 {
		pool = preferred
	}
	return pool[s.rng.Intn(len(pool))]
}

func hostsApplication(node *types.Node, app *types.Application) bool {
	for _, c := range node.Containers {
		if c.Application == app {
			return true
		}
	}
	return false
}

// nodesInSlot returns the cluster nodes labeled with slot.
func (s *Scheduler) nodesInSlot(slot string) []*types.Node {
	var out []*types.Node
	for _, n := range s.cluster.AllNodes() {
		if n.Slot == slot {
			out = append(out, n)
		}
	}
	return out
}

// slotAvailableContainers sums free capacity across a slot's nodes.
func (s *Scheduler) slotAvailableContainers(slot string) int {
	total := 0
	for _, n := range s.nodesInSlot(slot) {
		total += n.AvailableContainers()
	}
	return total
}

// placeOnSlot places app only on nodes labeled slot, filling empty
// slot-nodes first, then distributing the remainder randomly among the
// slot's non-full nodes.
func (s *Scheduler) placeOnSlot(app *types.Application, slot string) {
	for _, node := range s.nodesInSlot(slot) {
		if app.IsFullyPlaced() {
			return
		}
		if node.IsEmpty() {
			place(s.cluster, app, node, s.stride)
		}
	}

	for !app.IsFullyPlaced() {
		var candidates []*types.Node
		for _, node := range s.nodesInSlot(slot) {
			if node.AvailableContainers() > 0 {
				candidates = append(candidates, node)
			}
		}
		if len(candidates) == 0 {
			return
		}
		node := candidates[s.rng.Intn(len(candidates))]
		if place(s.cluster, app, node, s.stride) == 0 {
			return
		}
	}
}
