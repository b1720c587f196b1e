package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/complementor/pkg/events"
	"github.com/cuemby/complementor/pkg/resourcemanager"
	"github.com/cuemby/complementor/pkg/types"
)

func TestStartFailsWhenATaskIsNotPlaced(t *testing.T) {
	app := types.NewApplication("job", 2, false, "")
	rm := resourcemanager.NewDummyClient(1, 1)
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	w := NewWorker(app, rm, func(*types.Application) error { return nil }, broker, nil)
	err := w.Start(context.Background())
	assert.ErrorIs(t, err, ErrNotCorrectlyScheduled)
}

func TestStartLaunchesAndAllocatesID(t *testing.T) {
	app := types.NewApplication("job", 1, false, "")
	app.Tasks[0].NodeAddress = "n1"

	rm := resourcemanager.NewDummyClient(1, 1)
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	var launched *types.Application
	w := NewWorker(app, rm, func(a *types.Application) error {
		launched = a
		return nil
	}, broker, nil, WithPollInterval(time.Millisecond), WithWarmup(0))

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	assert.Same(t, app, launched)
	assert.Equal(t, "A1", app.ID)
	assert.False(t, app.StartedAt.IsZero())
}

func TestWorkerLifecycleRunningThenFinished(t *testing.T) {
	app := types.NewApplication("job", 1, false, "")
	app.Tasks[0].NodeAddress = "n1"

	rm := resourcemanager.NewDummyClient(1, 1)
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	finished := make(chan *types.Application, 1)
	w := NewWorker(app, rm, func(*types.Application) error { return nil }, broker,
		func(a *types.Application) { finished <- a },
		WithPollInterval(5*time.Millisecond), WithWarmup(0))

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	rm.SetRunning(app.ID, true)

	var sawRunning, sawFinished bool
	deadline := time.After(2 * time.Second)
	for !sawFinished {
		select {
		case evt := <-sub:
			switch evt.Type {
			case events.ApplicationRunning:
				sawRunning = true
				rm.SetFinished(app.ID, true)
			case events.ApplicationFinished:
				sawFinished = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for lifecycle events")
		}
	}

	assert.True(t, sawRunning)
	assert.True(t, app.IsRunning)
	assert.False(t, app.FinishedAt.IsZero())

	select {
	case a := <-finished:
		assert.Same(t, app, a)
	case <-time.After(time.Second):
		t.Fatal("onFinish was not invoked")
	}
}
