package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/complementor/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordFinishedAndGet(t *testing.T) {
	s := openTestStore(t)

	app := types.NewApplication("WordCount", 4, false, "wiki-small")
	app.ID = "A1"
	app.Slot = "slot1"
	app.StartedAt = time.Now().Add(-time.Minute)
	app.FinishedAt = time.Now()

	require.NoError(t, s.RecordFinished(app, 0.75))

	rec, found, err := s.Get("A1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "WordCount", rec.Name)
	assert.Equal(t, "wiki-small", rec.DataSet)
	assert.Equal(t, "slot1", rec.Slot)
	assert.Equal(t, 0.75, rec.AttributedRate)
	assert.True(t, rec.Duration() > 0)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, found, err := s.Get("nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListReturnsAllRecords(t *testing.T) {
	s := openTestStore(t)

	for i, name := range []string{"A1", "A2", "A3"} {
		app := types.NewApplication("Sort", 1, false, "")
		app.ID = name
		app.StartedAt = time.Now()
		app.FinishedAt = time.Now()
		require.NoError(t, s.RecordFinished(app, float64(i)))
	}

	records, err := s.List()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestEstimatorSnapshotDirCreatesDirectory(t *testing.T) {
	s := openTestStore(t)

	dir, err := s.EstimatorSnapshotDir("epsilon_greedy")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(dir), dir)

	dir2, err := s.EstimatorSnapshotDir("epsilon_greedy")
	require.NoError(t, err)
	assert.Equal(t, dir, dir2)
}
