package estimator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/complementor/pkg/types"
)

// names chosen so their lexicographic sort matches the index order the
// scenario describes: wordcount=0, kmeans=1, logreg=2.
var scenarioJobNames = []string{"1-wordcount", "2-kmeans", "3-logreg"}

func TestEpsilonGreedyUpdateApp(t *testing.T) {
	e := NewEpsilonGreedy(scenarioJobNames, 1.0, 0.1)

	e.UpdateApp("1-wordcount", []string{"2-kmeans", "3-logreg"}, 5)
	e.UpdateApp("1-wordcount", []string{"2-kmeans", "3-logreg"}, 7)

	assert.InDelta(t, 13.0/3.0, e.average[0][1], 1e-9)
	assert.InDelta(t, 13.0/3.0, e.average[0][2], 1e-9)

	for i := 1; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, 1.0, e.average[i][j], 1e-9, "average[%d][%d] should be untouched", i, j)
		}
	}
}

func TestEpsilonGreedyBestAppIndexEmptyScheduled(t *testing.T) {
	e := NewEpsilonGreedy(scenarioJobNames, 0, 0.1)
	got := e.BestAppIndex(nil, scenarioJobNames, nil)
	assert.Equal(t, 0, got)
}

func TestGradientPreferenceUpdate(t *testing.T) {
	g := NewGradient([]string{"job0", "job1", "job2"}, 0.1, 1.5)
	g.preferences = [][]float64{
		{0, 5, 1},
		{5, 0, 0},
		{1, 0, 0},
	}

	g.UpdateApp("job0", []string{"job1"}, 2.0)

	pi := softmaxRow([]float64{0, 5, 1}, []int{0, 1, 2})
	delta := 0.1 * (2.0 - 1.5)

	assert.InDelta(t, 0-delta*pi[0], g.preferences[0][0], 1e-9)
	assert.InDelta(t, 5+delta*(1-pi[1]), g.preferences[0][1], 1e-9)
	assert.InDelta(t, 1-delta*pi[2], g.preferences[0][2], 1e-9)
	assert.InDelta(t, 1.75, g.average[0], 1e-9)
}

func TestGradientBestAppIndexEmptyScheduledIsUniform(t *testing.T) {
	g := NewGradient([]string{"job0", "job1", "job2"}, 0.1, 0)
	got := g.BestAppIndex(nil, []string{"job0", "job1", "job2"}, nil)
	assert.GreaterOrEqual(t, got, 0)
	assert.Less(t, got, 3)
}

func groupTable() *types.JobGroupTable {
	return types.NewJobGroupTable([]types.JobGroup{
		{Name: "group1", Jobs: []string{"wordcount", "grep"}},
		{Name: "group2", Jobs: []string{"kmeans"}},
		{Name: "group3", Jobs: []string{"pagerank"}},
	})
}

func TestGroupGradientAbstainsAtZeroAndTwoScheduled(t *testing.T) {
	g := NewGroupGradient(groupTable(), 0.1, 0)

	scheduleGroup, coLocateGroup := g.BestAppIndex(nil, []string{"wordcount"}, nil)
	assert.Equal(t, -1, scheduleGroup)
	assert.Equal(t, -1, coLocateGroup)

	scheduleGroup, coLocateGroup = g.BestAppIndex([]string{"wordcount", "kmeans"}, []string{"grep"}, nil)
	assert.Equal(t, -1, scheduleGroup)
	assert.Equal(t, -1, coLocateGroup)
}

func TestGroupGradientChoosesWithThreeScheduled(t *testing.T) {
	g := NewGroupGradient(groupTable(), 0.1, 0)
	scheduleGroup, _ := g.BestAppIndex([]string{"wordcount", "kmeans", "pagerank"}, []string{"grep"}, nil)
	assert.GreaterOrEqual(t, scheduleGroup, 0)
	assert.Less(t, scheduleGroup, 3)
}

func TestUsageBoundary(t *testing.T) {
	assert.False(t, types.Usage{CPU: 0.04, IOWait: 0.04}.IsNotIdle())
	assert.True(t, types.Usage{CPU: 0.06, IOWait: 0.04}.IsNotIdle())
}

func TestEpsilonGreedySaveLoadRoundTrip(t *testing.T) {
	e := NewEpsilonGreedy(scenarioJobNames, 1.0, 0.1)
	e.UpdateApp("1-wordcount", []string{"2-kmeans"}, 5)

	dir := t.TempDir()
	require.NoError(t, e.Save(dir))

	loaded := NewEpsilonGreedy(scenarioJobNames, 0, 0.1)
	require.NoError(t, loaded.Load(dir))

	for i := range e.average {
		for j := range e.average[i] {
			assert.Equal(t, e.average[i][j], loaded.average[i][j])
			assert.Equal(t, e.count[i][j], loaded.count[i][j])
		}
	}
}

func TestGradientSaveLoadRoundTrip(t *testing.T) {
	g := NewGradient([]string{"job0", "job1", "job2"}, 0.1, 1.5)
	g.UpdateApp("job0", []string{"job1"}, 2.0)

	dir := t.TempDir()
	require.NoError(t, g.Save(dir))

	loaded := NewGradient([]string{"job0", "job1", "job2"}, 0.1, 0)
	require.NoError(t, loaded.Load(dir))

	assert.Equal(t, g.average, loaded.average)
	assert.Equal(t, g.count, loaded.count)
	assert.Equal(t, g.preferences, loaded.preferences)
}

func TestRunningAverageIsTrueMean(t *testing.T) {
	e := NewEpsilonGreedy(scenarioJobNames, 0, 0.1)
	rates := []float64{3, 9, 6, 12}

	for _, r := range rates {
		e.UpdateApp("1-wordcount", []string{"2-kmeans"}, r)
	}

	sum := 0.0
	for _, r := range rates {
		sum += r
	}
	want := sum / float64(len(rates))

	assert.InDelta(t, want, e.average[0][1], 1e-9)
	assert.Equal(t, len(rates), e.count[0][1])
}

func TestArgsortOrReverseTiesReverse(t *testing.T) {
	order := argsortOrReverse([]float64{1, 1, 1})
	assert.Equal(t, []int{2, 1, 0}, order)

	order = argsortOrReverse([]float64{3, 1, 2})
	assert.Equal(t, []int{1, 2, 0}, order)
}

func TestSoftmaxRowSumsToOneOverFullRange(t *testing.T) {
	row := []float64{0, 1, 2}
	p := softmaxRow(row, []int{0, 1, 2})
	sum := p[0] + p[1] + p[2]
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.False(t, math.IsNaN(sum))
}
