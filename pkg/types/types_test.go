package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApplicationContainers(t *testing.T) {
	t.Run("tasks only", func(t *testing.T) {
		app := NewApplication("wordcount", 3, false, "wiki")
		assert.Len(t, app.Tasks, 3)
		assert.Nil(t, app.Master)
		assert.Equal(t, 3, app.NContainers())
		assert.Len(t, app.Containers(), 3)
	})

	t.Run("tasks plus master", func(t *testing.T) {
		app := NewApplication("flink-job", 2, true, "clicks")
		require.NotNil(t, app.Master)
		assert.True(t, app.Master.IsNegligible)
		assert.Equal(t, 3, app.NContainers())
		containers := app.Containers()
		require.Len(t, containers, 3)
		assert.Same(t, app.Master, containers[len(containers)-1])
	})

	t.Run("containers back-reference their application", func(t *testing.T) {
		app := NewApplication("spark-job", 1, false, "")
		assert.Same(t, app, app.Tasks[0].Application)
	})
}

func TestApplicationIsFullyPlaced(t *testing.T) {
	app := NewApplication("job", 2, false, "")
	assert.False(t, app.IsFullyPlaced())

	app.Tasks[0].NodeAddress = "10.0.0.1"
	assert.False(t, app.IsFullyPlaced())

	app.Tasks[1].NodeAddress = "10.0.0.2"
	assert.True(t, app.IsFullyPlaced())
}

func TestNodeCapacity(t *testing.T) {
	n := NewNode("10.0.0.1", "wally081", 2)
	assert.True(t, n.IsEmpty())
	assert.Equal(t, 2, n.AvailableContainers())

	n.Containers = append(n.Containers, &Container{})
	assert.False(t, n.IsEmpty())
	assert.False(t, n.IsFull())
	assert.Equal(t, 1, n.AvailableContainers())

	n.Containers = append(n.Containers, &Container{})
	assert.True(t, n.IsFull())
	assert.Equal(t, 0, n.AvailableContainers())
}

func TestUsageIsNotIdle(t *testing.T) {
	cases := []struct {
		name  string
		usage Usage
		want  bool
	}{
		{"below both thresholds", Usage{CPU: 0.04, IOWait: 0.04}, false},
		{"cpu above threshold", Usage{CPU: 0.06}, true},
		{"io wait above threshold", Usage{IOWait: 0.06}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.usage.IsNotIdle())
		})
	}
}

func TestJobGroupTable(t *testing.T) {
	table := NewJobGroupTable([]JobGroup{
		{Name: "group1", Jobs: []string{"wordcount", "grep"}},
		{Name: "group2", Jobs: []string{"kmeans"}},
	})

	assert.Equal(t, 2, table.Size())

	idx, ok := table.GroupIndex("grep")
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "group1", table.GroupName(idx))

	_, ok = table.GroupIndex("unknown-job")
	assert.False(t, ok)
}

func TestQueue(t *testing.T) {
	q := NewQueue()
	assert.True(t, q.IsEmpty())

	a1 := NewApplication("a1", 1, false, "")
	a2 := NewApplication("a2", 1, false, "")
	a3 := NewApplication("a3", 1, false, "")
	q.Append(a1)
	q.Append(a2)
	q.Append(a3)
	require.Equal(t, 3, q.Len())

	peeked := q.Peek(2)
	assert.Equal(t, []*Application{a1, a2}, peeked)

	popped, ok := q.PopAt(1)
	require.True(t, ok)
	assert.Same(t, a2, popped)
	assert.Equal(t, 2, q.Len())

	q.Prepend(a2)
	assert.Same(t, a2, q.Peek(1)[0])

	_, ok = q.PopAt(10)
	assert.False(t, ok)
}

func TestQueueRemove(t *testing.T) {
	q := NewQueue()
	a1 := NewApplication("a1", 1, false, "")
	a2 := NewApplication("a2", 1, false, "")
	a3 := NewApplication("a3", 1, false, "")
	q.Append(a1)
	q.Append(a2)
	q.Append(a3)

	assert.True(t, q.Remove(a2))
	assert.Equal(t, []*Application{a1, a3}, q.Peek(2))
	assert.False(t, q.Remove(a2))
}
