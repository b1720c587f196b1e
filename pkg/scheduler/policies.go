package scheduler

import (
	"github.com/cuemby/complementor/pkg/config"
	"github.com/cuemby/complementor/pkg/types"
)

// scheduleRoundRobin: peek the head; if it doesn't fit, raise
// NoApplicationCanBeScheduled without touching the queue. Otherwise pop it
// and place greedily: empty nodes first (stride containers each), then the
// remainder onto random non-full nodes.
func (s *Scheduler) scheduleRoundRobin() (*types.Application, error) {
	if s.queue.IsEmpty() {
		return nil, ErrNoApplicationCanBeScheduled
	}
	app := s.queue.Peek(1)[0]
	if app.NContainers() > s.cluster.AvailableContainers() {
		return nil, ErrNoApplicationCanBeScheduled
	}

	s.queue.PopAt(0)
	s.fillEmptyNodes(app)
	s.distributeToRandomNodes(app, s.stride)
	return app, nil
}

// scheduleRandom: same capacity check as RoundRobin, but every container is
// placed one at a time on a freshly chosen random non-full node (no
// empty-node-first pass).
func (s *Scheduler) scheduleRandom() (*types.Application, error) {
	if s.queue.IsEmpty() {
		return nil, ErrNoApplicationCanBeScheduled
	}
	app := s.queue.Peek(1)[0]
	if app.NContainers() > s.cluster.AvailableContainers() {
		return nil, ErrNoApplicationCanBeScheduled
	}

	s.queue.PopAt(0)
	s.distributeToRandomNodes(app, 1)
	return app, nil
}

// scheduleAdaptive peeks up to jobsToPeek entries and asks the app
// estimator which to schedule next given the currently running set. If the
// estimator's pick doesn't fit, it's dropped from the window and the
// estimator is asked again over what remains.
func (s *Scheduler) scheduleAdaptive() (*types.Application, error) {
	window := s.queue.Peek(s.jobsToPeek)
	scheduledNames, weights := s.runningAppNamesAndWeights()

	for len(window) > 0 {
		candidateNames := applicationNames(window)
		idx := s.appEstimator.BestAppIndex(scheduledNames, candidateNames, weights)
		app := window[idx]

		if app.NContainers() <= s.cluster.AvailableContainers() {
			s.queue.Remove(app)
			s.placeAdaptive(app)
			return app, nil
		}

		window = append(window[:idx], window[idx+1:]...)
	}
	return nil, ErrNoApplicationCanBeScheduled
}

// placeAdaptive fills empty nodes first, then consults BestNodeIndex for
// the remainder, falling back to a random non-full node when the estimator
// names a node that no longer has capacity.
func (s *Scheduler) placeAdaptive(app *types.Application) {
	s.fillEmptyNodes(app)

	for !app.IsFullyPlaced() {
		nodeApps := namesByAddress(s.cluster.NodeRunningApps(false))
		addr := s.appEstimator.BestNodeIndex(nodeApps, app.Name)

		node, ok := s.cluster.Node(addr)
		if !ok || node.IsFull() {
			node = s.pickNonFullNode(app)
		}
		if node == nil {
			return
		}
		if place(s.cluster, app, node, s.stride) == 0 {
			return
		}
	}
}

// scheduleGroupAdaptive uses the group estimator's (scheduleGroup,
// coLocateGroup) pick. On abstention it falls back to slot-aware
// first-fit: Slot1 if nothing is running yet, else Slot2. Otherwise it
// picks a queued application from scheduleGroup and co-locates it on the
// slot of a running application from coLocateGroup.
func (s *Scheduler) scheduleGroupAdaptive() (*types.Application, error) {
	if s.queue.IsEmpty() {
		return nil, ErrNoApplicationCanBeScheduled
	}

	window := s.queue.Peek(s.jobsToPeek)
	scheduledNames, weights := s.runningAppNamesAndWeights()
	candidateNames := applicationNames(window)

	scheduleGroup, coLocateGroup := s.groupEstimator.BestAppIndex(scheduledNames, candidateNames, weights)
	if scheduleGroup == -1 {
		return s.scheduleBySlotFirstFit(window)
	}

	app := s.firstInGroup(window, scheduleGroup)
	if app == nil {
		return nil, ErrNoApplicationCanBeScheduled
	}

	slot := s.slotOfRunningGroup(coLocateGroup)
	if slot == "" {
		return s.scheduleBySlotFirstFit(window)
	}

	if app.NContainers() > s.slotAvailableContainers(slot) {
		return nil, ErrNoApplicationCanBeScheduled
	}

	s.queue.Remove(app)
	app.Slot = slot
	s.placeOnSlot(app, slot)
	return app, nil
}

func (s *Scheduler) scheduleBySlotFirstFit(window []*types.Application) (*types.Application, error) {
	if len(window) == 0 {
		return nil, ErrNoApplicationCanBeScheduled
	}

	slot := config.Slot1
	if s.cluster.HasApplicationRunning() {
		slot = config.Slot2
	}

	app := window[0]
	if app.NContainers() > s.slotAvailableContainers(slot) {
		return nil, ErrNoApplicationCanBeScheduled
	}

	s.queue.Remove(app)
	app.Slot = slot
	s.placeOnSlot(app, slot)
	return app, nil
}

func (s *Scheduler) firstInGroup(apps []*types.Application, group int) *types.Application {
	for _, app := range apps {
		if idx, ok := s.jobGroups.GroupIndex(app.Name); ok && idx == group {
			return app
		}
	}
	return nil
}

// slotOfRunningGroup returns the slot of a currently running application
// belonging to group, or "" if none is running.
func (s *Scheduler) slotOfRunningGroup(group int) string {
	apps, _ := s.cluster.Applications(true)
	for _, app := range apps {
		if idx, ok := s.jobGroups.GroupIndex(app.Name); ok && idx == group {
			return app.Slot
		}
	}
	return ""
}

func applicationNames(apps []*types.Application) []string {
	names := make([]string, len(apps))
	for i, app := range apps {
		names[i] = app.Name
	}
	return names
}

func namesByAddress(apps map[string][]*types.Application) map[string][]string {
	out := make(map[string][]string, len(apps))
	for addr, list := range apps {
		out[addr] = applicationNames(list)
	}
	return out
}
