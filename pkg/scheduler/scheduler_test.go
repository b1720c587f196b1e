package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/complementor/pkg/cluster"
	"github.com/cuemby/complementor/pkg/config"
	"github.com/cuemby/complementor/pkg/events"
	"github.com/cuemby/complementor/pkg/resourcemanager"
	"github.com/cuemby/complementor/pkg/types"
)

func fourByFourCluster() *cluster.Cluster {
	nodes := make([]*types.Node, 4)
	for i := range nodes {
		nodes[i] = types.NewNode(string(rune('A'+i)), "", 4)
	}
	return cluster.NewCluster(nodes)
}

func noopLaunch(*types.Application) error { return nil }

// S1: RoundRobin happy path.
func TestScheduleRoundRobinHappyPath(t *testing.T) {
	c := fourByFourCluster()
	queue := types.NewQueue()
	w := types.NewApplication("W", 8, false, "")
	k := types.NewApplication("K", 4, false, "")
	queue.Append(w)
	queue.Append(k)

	broker := events.NewBroker()
	s := New(c, queue, resourcemanager.NewDummyClient(4, 4), noopLaunch, broker, RoundRobin)

	scheduled, err := s.scheduleApplication()
	require.NoError(t, err)
	assert.Same(t, w, scheduled)
	assert.True(t, w.IsFullyPlaced())

	scheduled, err = s.scheduleApplication()
	require.NoError(t, err)
	assert.Same(t, k, scheduled)
	assert.True(t, k.IsFullyPlaced())

	assert.Equal(t, 4, c.AvailableContainers())
	for _, n := range c.AllNodes() {
		assert.Len(t, n.Containers, 3)
	}
}

// S2: capacity backoff.
func TestScheduleRoundRobinCapacityBackoff(t *testing.T) {
	nodes := []*types.Node{types.NewNode("n1", "", 2), types.NewNode("n2", "", 2)}
	c := cluster.NewCluster(nodes)
	queue := types.NewQueue()
	queue.Append(types.NewApplication("Big", 5, false, ""))

	broker := events.NewBroker()
	s := New(c, queue, resourcemanager.NewDummyClient(2, 2), noopLaunch, broker, RoundRobin)

	_, err := s.scheduleApplication()
	assert.ErrorIs(t, err, ErrNoApplicationCanBeScheduled)
	assert.Equal(t, 1, queue.Len())
}

// S5: completion cascade — A placed alone, finishes, B then placed.
func TestCompletionCascade(t *testing.T) {
	nodes := []*types.Node{types.NewNode("n1", "", 2)}
	c := cluster.NewCluster(nodes)
	queue := types.NewQueue()
	appA := types.NewApplication("A", 2, false, "")
	appB := types.NewApplication("B", 2, false, "")
	queue.Append(appA)
	queue.Append(appB)

	rm := resourcemanager.NewDummyClient(1, 2)
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	s := New(c, queue, rm, noopLaunch, broker, RoundRobin, WithDrainDelay(time.Millisecond),
		WithWorkerPollInterval(5*time.Millisecond), WithWorkerWarmup(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	require.Eventually(t, func() bool { return appA.IsFullyPlaced() }, time.Second, time.Millisecond)
	assert.Equal(t, 1, queue.Len(), "B should still be queued while A occupies the only node")

	rm.SetFinished(appA.ID, true)

	require.Eventually(t, func() bool { return appB.IsFullyPlaced() }, 2*time.Second, time.Millisecond)
	assert.Equal(t, 0, queue.Len())
}

// S6: GroupAdaptive slot selection.
func TestGroupAdaptiveSlotSelection(t *testing.T) {
	nodes := []*types.Node{
		types.NewNode("s1-a", config.Slot1, 2),
		types.NewNode("s1-b", config.Slot1, 2),
		types.NewNode("s2-a", config.Slot2, 2),
		types.NewNode("s2-b", config.Slot2, 2),
	}
	c := cluster.NewCluster(nodes)
	queue := types.NewQueue()
	first := types.NewApplication("WordCount", 2, false, "")
	second := types.NewApplication("KMeans", 2, false, "")
	queue.Append(first)

	broker := events.NewBroker()
	groups := config.NewJobGroupTable()
	s := New(c, queue, resourcemanager.NewDummyClient(4, 2), noopLaunch, broker, GroupAdaptive,
		WithGroupEstimator(&abstainingGroupEstimator{}, groups))

	scheduled, err := s.scheduleApplication()
	require.NoError(t, err)
	assert.Same(t, first, scheduled)
	assert.Equal(t, config.Slot1, first.Slot)
	for _, c := range first.Tasks {
		assert.Contains(t, []string{"s1-a", "s1-b"}, c.NodeAddress)
	}

	first.IsRunning = true
	queue.Append(second)
	scheduled, err = s.scheduleApplication()
	require.NoError(t, err)
	assert.Same(t, second, scheduled)
	assert.Equal(t, config.Slot2, second.Slot)
	for _, c := range second.Tasks {
		assert.Contains(t, []string{"s2-a", "s2-b"}, c.NodeAddress)
	}
}

type abstainingGroupEstimator struct{}

func (abstainingGroupEstimator) UpdateApp(string, []string, float64) {}
func (abstainingGroupEstimator) Save(string) error                   { return nil }
func (abstainingGroupEstimator) Load(string) error                   { return nil }
func (abstainingGroupEstimator) String() string                      { return "abstaining" }
func (abstainingGroupEstimator) BestAppIndex(_, _ []string, _ []float64) (int, int) {
	return -1, -1
}

// B1: an empty queue always raises NoApplicationCanBeScheduled, under
// every policy.
func TestScheduleApplicationEmptyQueue(t *testing.T) {
	for _, policy := range []Policy{RoundRobin, Random, Adaptive, GroupAdaptive} {
		c := fourByFourCluster()
		queue := types.NewQueue()
		broker := events.NewBroker()
		s := New(c, queue, resourcemanager.NewDummyClient(4, 4), noopLaunch, broker, policy,
			WithAppEstimator(&fixedIndexEstimator{}), WithGroupEstimator(&abstainingGroupEstimator{}, config.NewJobGroupTable()))

		_, err := s.scheduleApplication()
		assert.ErrorIs(t, err, ErrNoApplicationCanBeScheduled, "policy %s", policy)
	}
}

// Adaptive defers to the estimator's pick among the peeked window.
func TestScheduleAdaptivePicksEstimatorChoice(t *testing.T) {
	c := fourByFourCluster()
	queue := types.NewQueue()
	first := types.NewApplication("First", 2, false, "")
	second := types.NewApplication("Second", 2, false, "")
	queue.Append(first)
	queue.Append(second)

	broker := events.NewBroker()
	s := New(c, queue, resourcemanager.NewDummyClient(4, 4), noopLaunch, broker, Adaptive,
		WithAppEstimator(&fixedIndexEstimator{index: 1}))

	scheduled, err := s.scheduleApplication()
	require.NoError(t, err)
	assert.Same(t, second, scheduled)
	assert.True(t, second.IsFullyPlaced())
	assert.Equal(t, 1, queue.Len(), "first should remain queued")
}

type fixedIndexEstimator struct{ index int }

func (*fixedIndexEstimator) UpdateApp(string, []string, float64) {}
func (*fixedIndexEstimator) Save(string) error                   { return nil }
func (*fixedIndexEstimator) Load(string) error                   { return nil }
func (*fixedIndexEstimator) String() string                      { return "fixed" }
func (e *fixedIndexEstimator) BestAppIndex(_, _ []string, _ []float64) int { return e.index }
func (*fixedIndexEstimator) BestNodeIndex(_ map[string][]string, _ string) string { return "" }
