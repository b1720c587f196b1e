package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/complementor/pkg/cluster"
	"github.com/cuemby/complementor/pkg/history"
	"github.com/cuemby/complementor/pkg/metrics"
	"github.com/cuemby/complementor/pkg/sampler"
	"github.com/cuemby/complementor/pkg/types"
)

type recordedUpdate struct {
	out  string
	rest []string
}

type trackingEstimator struct {
	updates []recordedUpdate
	saved   string
}

func (e *trackingEstimator) UpdateApp(app string, concurrentApps []string, rate float64) {
	rest := append([]string(nil), concurrentApps...)
	e.updates = append(e.updates, recordedUpdate{out: app, rest: rest})
}
func (e *trackingEstimator) Save(folder string) error { e.saved = folder; return nil }
func (*trackingEstimator) Load(string) error           { return nil }
func (*trackingEstimator) String() string              { return "tracking" }

func placedCluster(t *testing.T) (*cluster.Cluster, *types.Application, *types.Application) {
	t.Helper()
	node := types.NewNode("n1", "", 4)
	c := cluster.NewCluster([]*types.Node{node})

	a := types.NewApplication("WordCount", 1, false, "")
	a.IsRunning = true
	b := types.NewApplication("KMeans", 1, false, "")
	b.IsRunning = true

	require.NoError(t, c.AddContainer("n1", a.Tasks[0]))
	require.NoError(t, c.AddContainer("n1", b.Tasks[0]))
	return c, a, b
}

func TestTickAppliesLeaveOneOutUpdates(t *testing.T) {
	c, _, _ := placedCluster(t)
	est := &trackingEstimator{}

	r := New(c, sampler.NewDummyCollector(), time.Minute, WithEstimator("tracking", est))
	require.NoError(t, r.tick(context.Background()))

	require.Len(t, est.updates, 2)
	byOut := map[string][]string{}
	for _, u := range est.updates {
		byOut[u.out] = u.rest
	}
	assert.Equal(t, []string{"KMeans"}, byOut["WordCount"])
	assert.Equal(t, []string{"WordCount"}, byOut["KMeans"])
}

func TestTickSkipsIdleNodes(t *testing.T) {
	node := types.NewNode("n1", "", 2)
	c := cluster.NewCluster([]*types.Node{node})
	a := types.NewApplication("Sort", 1, false, "")
	a.IsRunning = true
	require.NoError(t, c.AddContainer("n1", a.Tasks[0]))

	idle := &sampler.DummyCollector{Value: types.Usage{}}
	est := &trackingEstimator{}
	r := New(c, idle, time.Minute, WithEstimator("tracking", est))

	require.NoError(t, r.tick(context.Background()))
	assert.Empty(t, est.updates)
}

func TestTickSkipsEmptyNodes(t *testing.T) {
	node := types.NewNode("n1", "", 2)
	c := cluster.NewCluster([]*types.Node{node})

	est := &trackingEstimator{}
	r := New(c, sampler.NewDummyCollector(), time.Minute, WithEstimator("tracking", est))

	require.NoError(t, r.tick(context.Background()))
	assert.Empty(t, est.updates)
}

func TestStopSnapshotsEveryEstimator(t *testing.T) {
	c, _, _ := placedCluster(t)
	s, err := history.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	est1 := &trackingEstimator{}
	est2 := &trackingEstimator{}
	r := New(c, sampler.NewDummyCollector(), time.Minute,
		WithEstimator("first", est1), WithEstimator("second", est2), WithHistory(s))

	r.Stop()
	assert.NotEmpty(t, est1.saved)
	assert.NotEmpty(t, est2.saved)
	assert.NotEqual(t, est1.saved, est2.saved)
}

func TestTickReportsObservedRateToRecorder(t *testing.T) {
	c, a, b := placedCluster(t)
	a.ID = "A1"
	b.ID = "B1"

	recorded := map[string]float64{}
	recorder := func(appID string, rate float64) { recorded[appID] = rate }

	r := New(c, sampler.NewDummyCollector(), time.Minute, WithRateRecorder(recorder))
	require.NoError(t, r.tick(context.Background()))

	require.Contains(t, recorded, "A1")
	require.Contains(t, recorded, "B1")
	assert.Equal(t, recorded["A1"], recorded["B1"], "both apps share the node's observed rate")
}

func TestTickReportsHealthToChecker(t *testing.T) {
	c, _, _ := placedCluster(t)
	checker := metrics.NewChecker("")

	r := New(c, sampler.NewDummyCollector(), time.Minute, WithHealthChecker(checker))
	require.NoError(t, r.tick(context.Background()))

	health := checker.Health()
	assert.Equal(t, "healthy", health.Components["reconciler"])
}

func TestLeaveOneOut(t *testing.T) {
	pairs := leaveOneOut([]string{"A", "B", "C"})
	require.Len(t, pairs, 3)
	assert.Equal(t, "A", pairs[0].out)
	assert.Equal(t, []string{"B", "C"}, pairs[0].rest)
	assert.Equal(t, "B", pairs[1].out)
	assert.Equal(t, []string{"A", "C"}, pairs[1].rest)
	assert.Equal(t, "C", pairs[2].out)
	assert.Equal(t, []string{"A", "B"}, pairs[2].rest)
}
